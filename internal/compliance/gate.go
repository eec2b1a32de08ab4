package compliance

import (
	"github.com/openrwa/rwa-ledger/internal/domain"
)

// Registry holds the compliance attestations keyed by address. It is pure
// reference data: the ledger writes records through the attestation path and
// every sensitive operation consults IsCompliant before proceeding.
type Registry struct {
	records map[domain.Address]domain.ComplianceRecord
}

// NewRegistry creates an empty compliance registry
func NewRegistry() *Registry {
	return &Registry{
		records: make(map[domain.Address]domain.ComplianceRecord),
	}
}

// Set stores or replaces the attestation for an address
func (r *Registry) Set(rec domain.ComplianceRecord) {
	r.records[rec.Address] = rec
}

// Get returns the attestation for an address, if one exists
func (r *Registry) Get(addr domain.Address) (domain.ComplianceRecord, bool) {
	rec, ok := r.records[addr]
	return rec, ok
}

// IsCompliant reports whether the address holds an approved attestation of at
// least requiredLevel that is still valid at atHeight. A record expires at its
// expiry height: atHeight == ExpiresAt is already non-compliant.
func (r *Registry) IsCompliant(addr domain.Address, requiredLevel uint32, atHeight uint64) bool {
	rec, ok := r.records[addr]
	if !ok {
		return false
	}
	return rec.Approved && rec.Level >= requiredLevel && atHeight < rec.ExpiresAt
}

// Len returns the number of registered attestations
func (r *Registry) Len() int {
	return len(r.records)
}
