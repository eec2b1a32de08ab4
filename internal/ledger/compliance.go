package ledger

import (
	"context"
	"time"

	"github.com/openrwa/rwa-ledger/internal/domain"
)

// SetComplianceRecord writes an attestation produced by the external
// identity process. Only the designated attestor may call it. The expiry
// must lie strictly after the current height and within MAX_EXPIRY_BLOCKS.
func (e *Engine) SetComplianceRecord(ctx context.Context, caller domain.Address, height uint64, subject string, approved bool, level uint32, expiresAt uint64) error {
	defer e.observe("set_compliance_record", time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.params.Attestor {
		return e.reject("set_compliance_record", domain.ErrOwnerOnly)
	}
	addr, err := domain.NormalizeAddress(subject)
	if err != nil {
		return e.reject("set_compliance_record", domain.ErrInvalidAddress)
	}
	if level > domain.MAX_KYC_LEVEL {
		return e.reject("set_compliance_record", domain.ErrInvalidKycLevel)
	}
	if expiresAt <= height || expiresAt > height+domain.MAX_EXPIRY_BLOCKS {
		return e.reject("set_compliance_record", domain.ErrInvalidExpiry)
	}

	_, err = e.commit(ctx, caller, height, domain.EventComplianceRecordSet, domain.ComplianceRecordSetPayload{
		Address:   addr,
		Approved:  approved,
		Level:     level,
		ExpiresAt: expiresAt,
	})
	return err
}

// IsCompliant reports whether the address passes the compliance gate at the
// given height and required level
func (e *Engine) IsCompliant(addr domain.Address, requiredLevel uint32, atHeight uint64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.compliance.IsCompliant(addr, requiredLevel, atHeight)
}

// GetComplianceRecord returns the stored attestation for an address
func (e *Engine) GetComplianceRecord(addr domain.Address) (domain.ComplianceRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, exists := e.state.compliance.Get(addr)
	if !exists {
		return domain.ComplianceRecord{}, domain.ErrNotFound
	}
	return record, nil
}
