package adapter

import (
	"fmt"
	"time"
)

// HeightSource reports the current block height of the ledger chain
//
//go:generate mockgen -source=height.go -destination=../mocks/height_source.go -package=mocks -mock_names=HeightSource=MockHeightSource
type HeightSource interface {
	// CurrentHeight returns the block height calls execute at right now
	CurrentHeight() uint64
}

// wallClockHeightSource derives the height from wall time:
// height = elapsed(genesis) / interval. Heights before genesis clamp to zero.
type wallClockHeightSource struct {
	genesis  time.Time
	interval time.Duration
	clock    Clock
}

// NewWallClockHeightSource creates a height source anchored at a genesis time
func NewWallClockHeightSource(genesis time.Time, interval time.Duration, clock Clock) (HeightSource, error) {
	if genesis.IsZero() {
		return nil, fmt.Errorf("genesis time is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("block interval must be positive")
	}
	if clock == nil {
		clock = NewClock()
	}
	return &wallClockHeightSource{
		genesis:  genesis,
		interval: interval,
		clock:    clock,
	}, nil
}

// CurrentHeight returns the block height derived from the wall clock
func (h *wallClockHeightSource) CurrentHeight() uint64 {
	elapsed := h.clock.Now().Sub(h.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / h.interval)
}
