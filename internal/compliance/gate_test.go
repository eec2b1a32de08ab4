package compliance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openrwa/rwa-ledger/internal/compliance"
	"github.com/openrwa/rwa-ledger/internal/domain"
)

const holder = domain.Address("0x4444444444444444444444444444444444444444")

func TestRegistry_IsCompliant(t *testing.T) {
	tests := []struct {
		name          string
		record        *domain.ComplianceRecord
		requiredLevel uint32
		atHeight      uint64
		want          bool
	}{
		{
			name: "approved at exact level",
			record: &domain.ComplianceRecord{
				Address: holder, Approved: true, Level: 2, ExpiresAt: 100,
			},
			requiredLevel: 2,
			atHeight:      50,
			want:          true,
		},
		{
			name: "approved above required level",
			record: &domain.ComplianceRecord{
				Address: holder, Approved: true, Level: 5, ExpiresAt: 100,
			},
			requiredLevel: 1,
			atHeight:      50,
			want:          true,
		},
		{
			name: "level too low",
			record: &domain.ComplianceRecord{
				Address: holder, Approved: true, Level: 1, ExpiresAt: 100,
			},
			requiredLevel: 2,
			atHeight:      50,
			want:          false,
		},
		{
			name: "not approved",
			record: &domain.ComplianceRecord{
				Address: holder, Approved: false, Level: 5, ExpiresAt: 100,
			},
			requiredLevel: 1,
			atHeight:      50,
			want:          false,
		},
		{
			name: "expired exactly at expiry height",
			record: &domain.ComplianceRecord{
				Address: holder, Approved: true, Level: 5, ExpiresAt: 100,
			},
			requiredLevel: 1,
			atHeight:      100,
			want:          false,
		},
		{
			name: "one block before expiry",
			record: &domain.ComplianceRecord{
				Address: holder, Approved: true, Level: 5, ExpiresAt: 100,
			},
			requiredLevel: 1,
			atHeight:      99,
			want:          true,
		},
		{
			name:          "no record",
			record:        nil,
			requiredLevel: 1,
			atHeight:      50,
			want:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := compliance.NewRegistry()
			if tt.record != nil {
				reg.Set(*tt.record)
			}
			assert.Equal(t, tt.want, reg.IsCompliant(holder, tt.requiredLevel, tt.atHeight))
		})
	}
}

func TestRegistry_SetReplaces(t *testing.T) {
	reg := compliance.NewRegistry()

	reg.Set(domain.ComplianceRecord{Address: holder, Approved: true, Level: 3, ExpiresAt: 100})
	assert.Equal(t, 1, reg.Len())
	assert.True(t, reg.IsCompliant(holder, 3, 50))

	// Revocation overwrites in place
	reg.Set(domain.ComplianceRecord{Address: holder, Approved: false, Level: 3, ExpiresAt: 100})
	assert.Equal(t, 1, reg.Len())
	assert.False(t, reg.IsCompliant(holder, 1, 50))

	record, ok := reg.Get(holder)
	assert.True(t, ok)
	assert.False(t, record.Approved)
}
