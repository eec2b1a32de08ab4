package notifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/openrwa/rwa-ledger/internal/adapter"
	"github.com/openrwa/rwa-ledger/internal/domain"
	"github.com/openrwa/rwa-ledger/internal/logger"
	"github.com/openrwa/rwa-ledger/internal/messaging"
	"github.com/openrwa/rwa-ledger/internal/metrics"
)

// respBodyLimit bounds how much of a webhook response is read for logging
const respBodyLimit = 4 * 1024

// Config holds webhook fan-out configuration
type Config struct {
	// PoolSize bounds concurrent deliveries
	PoolSize int
	// HTTPTimeout bounds one delivery attempt
	HTTPTimeout time.Duration
	// MaxRetries bounds retry attempts per event per client
	MaxRetries int
}

// Notifier delivers committed ledger events to registered webhook clients.
// Deliveries are signed, queued on a worker pool and retried with exponential
// backoff; a failing client never blocks the ledger or other clients.
type Notifier struct {
	clients    ClientRegistry
	config     Config
	pool       pond.Pool
	httpClient *http.Client
	clock      adapter.Clock
	metrics    *metrics.Metrics
}

// Option configures optional Notifier collaborators
type Option func(*Notifier)

// WithMetrics attaches delivery metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(n *Notifier) {
		n.metrics = m
	}
}

// WithHTTPClient overrides the delivery HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) {
		n.httpClient = c
	}
}

// WithClock overrides the wall clock used for signature timestamps
func WithClock(c adapter.Clock) Option {
	return func(n *Notifier) {
		n.clock = c
	}
}

// New creates a webhook notifier backed by a worker pool
func New(ctx context.Context, clients ClientRegistry, config Config, opts ...Option) *Notifier {
	if config.PoolSize <= 0 {
		config.PoolSize = 8
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = 10 * time.Second
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 5
	}

	n := &Notifier{
		clients: clients,
		config:  config,
		pool: pond.NewPool(
			config.PoolSize,
			pond.WithContext(ctx),
		),
		clock: adapter.NewClock(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.httpClient == nil {
		n.httpClient = &http.Client{Timeout: config.HTTPTimeout}
	}
	return n
}

// PublishEvent enqueues the event for delivery to every subscribed client.
// Delivery is asynchronous; enqueueing never fails once the event is accepted.
func (n *Notifier) PublishEvent(ctx context.Context, event *domain.LedgerEvent) error {
	for _, client := range n.clients.ClientsFor(event.Type) {
		n.pool.Submit(func() {
			n.deliverWithRetry(ctx, client, event)
		})
	}
	return nil
}

// Close drains the worker pool, waiting for in-flight deliveries
func (n *Notifier) Close() {
	n.pool.StopAndWait()
}

// deliverWithRetry attempts delivery with exponential backoff and jitter
func (n *Notifier) deliverWithRetry(ctx context.Context, client Client, event *domain.LedgerEvent) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1 * time.Second
	b.MaxInterval = 30 * time.Second
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5 // Add jitter to prevent thundering herd

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(n.config.MaxRetries)), ctx)

	operation := func() error {
		return n.deliver(ctx, client, event)
	}

	notifyOnError := func(err error, next time.Duration) {
		logger.WarnCtx(ctx, "Webhook delivery failed, will retry",
			zap.Error(err),
			zap.String("client", client.Name),
			zap.String("eventID", event.ID),
			zap.Duration("next_retry_in", next),
		)
	}

	if err := backoff.RetryNotify(operation, policy, notifyOnError); err != nil {
		n.countDelivery("failed")
		logger.ErrorCtx(ctx, errors.New("webhook delivery abandoned"),
			zap.Error(err),
			zap.String("client", client.Name),
			zap.String("eventID", event.ID),
		)
		return
	}

	n.countDelivery("delivered")
}

// deliver performs one signed HTTP delivery attempt
func (n *Notifier) deliver(ctx context.Context, client Client, event *domain.LedgerEvent) error {
	timestamp := n.clock.Now().Unix()

	payload, signature, err := GenerateSignedPayload(client.Secret, event, timestamp)
	if err != nil {
		// A payload that cannot be signed will never succeed
		return backoff.Permanent(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, client.URL, bytes.NewReader(payload))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to build webhook request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", signature)
	req.Header.Set("X-Webhook-Event-ID", event.ID)
	req.Header.Set("X-Webhook-Event-Type", string(event.Type))
	req.Header.Set("X-Webhook-Timestamp", fmt.Sprintf("%d", timestamp))
	req.Header.Set("User-Agent", "RWA-Ledger-Webhook/1.0")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.WarnCtx(ctx, "failed to close webhook response body",
				zap.Error(cerr), zap.String("client", client.Name))
		}
	}()

	// Drain a bounded amount of the body so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, respBodyLimit))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

func (n *Notifier) countDelivery(outcome string) {
	if n.metrics == nil {
		return
	}
	n.metrics.WebhookDeliveries.WithLabelValues(outcome).Inc()
}

var _ messaging.Publisher = (*Notifier)(nil)
