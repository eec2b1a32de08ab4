package ledger

import (
	"context"

	"github.com/openrwa/rwa-ledger/internal/domain"
)

// Journal is the append-only persistence boundary of the engine. Append must
// be atomic: either the event is durably stored or an error is returned and
// nothing is written. Replay streams stored events in ascending Seq order.
//
//go:generate mockgen -source=journal.go -destination=../mocks/journal.go -package=mocks -mock_names=Journal=MockJournal
type Journal interface {
	Append(ctx context.Context, event *domain.LedgerEvent) error
	Replay(ctx context.Context, fn func(event *domain.LedgerEvent) error) error
}

// MemoryJournal is an in-process Journal. It backs tests and ephemeral
// deployments that do not need durability across restarts.
type MemoryJournal struct {
	events []*domain.LedgerEvent
}

// NewMemoryJournal creates an empty in-memory journal
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// Append stores the event in memory
func (j *MemoryJournal) Append(_ context.Context, event *domain.LedgerEvent) error {
	copied := *event
	j.events = append(j.events, &copied)
	return nil
}

// Replay invokes fn for every stored event in append order
func (j *MemoryJournal) Replay(_ context.Context, fn func(event *domain.LedgerEvent) error) error {
	for _, ev := range j.events {
		copied := *ev
		if err := fn(&copied); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of stored events
func (j *MemoryJournal) Len() int {
	return len(j.events)
}
