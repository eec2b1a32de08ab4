package notifier

import (
	"encoding/json"
	"fmt"

	"github.com/openrwa/rwa-ledger/internal/adapter"
	"github.com/openrwa/rwa-ledger/internal/domain"
)

// EventTypeWildcard is a special subscription filter that matches all event types
const EventTypeWildcard = "*"

// Client represents one registered webhook endpoint
type Client struct {
	// Name identifies the client in logs and metrics
	Name string `json:"name"`
	// URL is the endpoint events are POSTed to
	URL string `json:"url"`
	// Secret is the shared HMAC key used to sign deliveries
	Secret string `json:"secret"`
	// Events lists subscribed event types; "*" subscribes to everything
	Events []string `json:"events"`
}

// ClientRegistry defines the interface for webhook client lookups
//
//go:generate mockgen -source=clients.go -destination=../mocks/client_registry.go -package=mocks -mock_names=ClientRegistry=MockClientRegistry
type ClientRegistry interface {
	// ClientsFor returns the clients subscribed to the given event type
	ClientsFor(eventType domain.EventType) []Client

	// Len returns the number of registered clients
	Len() int
}

// clientRegistry is the internal implementation of ClientRegistry
type clientRegistry struct {
	clients []Client
	// Fast lookup map: event type -> subscribed clients
	byEvent map[string][]Client
	// Clients subscribed via the wildcard filter
	wildcard []Client
}

// LoadClients loads the webhook client registry from a JSON file
func LoadClients(fs adapter.FileSystem, filePath string) (ClientRegistry, error) {
	data, err := fs.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read webhook clients file: %w", err)
	}

	var clients []Client
	if err := json.Unmarshal(data, &clients); err != nil {
		return nil, fmt.Errorf("failed to parse webhook clients JSON: %w", err)
	}

	reg := &clientRegistry{
		clients: clients,
		byEvent: make(map[string][]Client),
	}

	for _, c := range clients {
		if c.Name == "" || c.URL == "" {
			return nil, fmt.Errorf("webhook client entries require name and url")
		}
		for _, ev := range c.Events {
			if ev == EventTypeWildcard {
				reg.wildcard = append(reg.wildcard, c)
				continue
			}
			reg.byEvent[ev] = append(reg.byEvent[ev], c)
		}
	}

	return reg, nil
}

// ClientsFor returns the clients subscribed to the given event type
func (r *clientRegistry) ClientsFor(eventType domain.EventType) []Client {
	if r == nil {
		return nil
	}
	matched := r.byEvent[string(eventType)]
	if len(r.wildcard) == 0 {
		return matched
	}
	out := make([]Client, 0, len(matched)+len(r.wildcard))
	out = append(out, matched...)
	out = append(out, r.wildcard...)
	return out
}

// Len returns the number of registered clients
func (r *clientRegistry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.clients)
}
