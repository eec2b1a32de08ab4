package adapter_test

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrwa/rwa-ledger/internal/adapter"
	"github.com/openrwa/rwa-ledger/internal/mocks"
)

func TestWallClockHeightSource(t *testing.T) {
	genesis := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	interval := 10 * time.Second

	tests := []struct {
		name string
		now  time.Time
		want uint64
	}{
		{"at genesis", genesis, 0},
		{"mid first block", genesis.Add(9 * time.Second), 0},
		{"exactly one interval", genesis.Add(10 * time.Second), 1},
		{"many blocks later", genesis.Add(1445 * time.Second), 144},
		{"before genesis clamps to zero", genesis.Add(-time.Hour), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			clock := mocks.NewMockClock(ctrl)
			clock.EXPECT().Now().Return(tt.now)

			src, err := adapter.NewWallClockHeightSource(genesis, interval, clock)
			require.NoError(t, err)
			assert.Equal(t, tt.want, src.CurrentHeight())
		})
	}
}

func TestNewWallClockHeightSource_Validation(t *testing.T) {
	genesis := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := adapter.NewWallClockHeightSource(time.Time{}, time.Second, nil)
	assert.ErrorContains(t, err, "genesis time is required")

	_, err = adapter.NewWallClockHeightSource(genesis, 0, nil)
	assert.ErrorContains(t, err, "block interval must be positive")
}
