package messaging

import (
	"context"
	"errors"

	"github.com/openrwa/rwa-ledger/internal/domain"
)

type fanout struct {
	publishers []Publisher
}

// NewFanout combines publishers into one; events go to every underlying
// publisher and a failure in one does not stop the others
func NewFanout(publishers ...Publisher) Publisher {
	return &fanout{publishers: publishers}
}

// PublishEvent publishes to all underlying publishers and joins their errors
func (f *fanout) PublishEvent(ctx context.Context, event *domain.LedgerEvent) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.PublishEvent(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes all underlying publishers
func (f *fanout) Close() {
	for _, p := range f.publishers {
		p.Close()
	}
}
