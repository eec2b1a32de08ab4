package messaging

import (
	"context"

	"github.com/openrwa/rwa-ledger/internal/domain"
)

// Publisher defines the interface for publishing committed ledger events to
// a message broker. Publication happens after the journal commit; a delivery
// failure never rolls back ledger state.
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a committed ledger event
	PublishEvent(ctx context.Context, event *domain.LedgerEvent) error
	// Close closes the connection
	Close()
}
