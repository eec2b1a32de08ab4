package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrwa/rwa-ledger/internal/domain"
)

func TestSetComplianceRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("stores normalized attestation", func(t *testing.T) {
		eng, _ := newTestEngine(t)

		// Mixed-case input normalizes to the checksum form
		err := eng.SetComplianceRecord(ctx, attestor, 10, "0x44444444444444444444444444444444444444AA", true, 3, 500)
		require.NoError(t, err)

		subject, err := domain.NormalizeAddress("0x44444444444444444444444444444444444444aa")
		require.NoError(t, err)
		record, err := eng.GetComplianceRecord(subject)
		require.NoError(t, err)
		assert.True(t, record.Approved)
		assert.Equal(t, uint32(3), record.Level)
		assert.Equal(t, uint64(500), record.ExpiresAt)

		assert.True(t, eng.IsCompliant(subject, 3, 499))
		assert.False(t, eng.IsCompliant(subject, 4, 499))
		assert.False(t, eng.IsCompliant(subject, 3, 500))
	})

	t.Run("re-attestation replaces the record", func(t *testing.T) {
		eng, _ := newTestEngine(t)

		require.NoError(t, eng.SetComplianceRecord(ctx, attestor, 10, investor.String(), true, 3, 500))
		require.NoError(t, eng.SetComplianceRecord(ctx, attestor, 20, investor.String(), false, 3, 500))

		assert.False(t, eng.IsCompliant(investor, 1, 30))
	})

	t.Run("validation", func(t *testing.T) {
		eng, _ := newTestEngine(t)

		tests := []struct {
			name      string
			caller    domain.Address
			subject   string
			level     uint32
			height    uint64
			expiresAt uint64
			wantErr   error
		}{
			{"caller not attestor", investor, investor.String(), 1, 10, 500, domain.ErrOwnerOnly},
			{"malformed subject", attestor, "bogus", 1, 10, 500, domain.ErrInvalidAddress},
			{"level above maximum", attestor, investor.String(), domain.MAX_KYC_LEVEL + 1, 10, 500, domain.ErrInvalidKycLevel},
			{"expiry at current height", attestor, investor.String(), 1, 10, 10, domain.ErrInvalidExpiry},
			{"expiry in the past", attestor, investor.String(), 1, 10, 5, domain.ErrInvalidExpiry},
			{"expiry beyond horizon", attestor, investor.String(), 1, 10, 10 + domain.MAX_EXPIRY_BLOCKS + 1, domain.ErrInvalidExpiry},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := eng.SetComplianceRecord(ctx, tt.caller, tt.height, tt.subject, true, tt.level, tt.expiresAt)
				assert.ErrorIs(t, err, tt.wantErr)
			})
		}
	})

	t.Run("unknown address", func(t *testing.T) {
		eng, _ := newTestEngine(t)
		assert.False(t, eng.IsCompliant(investor, 1, 10))
		_, err := eng.GetComplianceRecord(investor)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
