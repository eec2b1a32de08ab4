package domain

import (
	"encoding/json"
	"time"
)

// EventType represents the type of a committed ledger event
type EventType string

const (
	EventAssetTokenized      EventType = "asset.tokenized"
	EventSharesTransferred   EventType = "shares.transferred"
	EventRevenueDeposited    EventType = "revenue.deposited"
	EventAssetLockChanged    EventType = "asset.lock_changed"
	EventComplianceRecordSet EventType = "compliance.record_set"
	EventPriceSet            EventType = "market.price_set"
	EventProposalInitiated   EventType = "proposal.initiated"
	EventVoteCast            EventType = "proposal.vote_cast"
	EventProposalFinalized   EventType = "proposal.finalized"
	EventDividendsHarvested  EventType = "dividends.harvested"
)

// LedgerEvent is one committed state transition. Events are the unit of
// atomicity: a call either appends exactly one event or leaves no trace.
// The journal of events in Seq order is the authoritative ledger history;
// in-memory state is a pure fold over it.
type LedgerEvent struct {
	// ID is a ULID, time-sortable and unique
	ID string `json:"id"`
	// Seq is the strictly monotonic journal sequence number, starting at 1
	Seq uint64 `json:"seq"`
	// Type discriminates the payload
	Type EventType `json:"type"`
	// Height is the block height the call executed at
	Height uint64 `json:"height"`
	// Caller is the principal that submitted the call
	Caller Address `json:"caller"`
	// Payload is the JCS-canonicalized event payload
	Payload json.RawMessage `json:"payload"`
	// PrevDigest chains this event to its predecessor (empty for Seq 1)
	PrevDigest string `json:"prev_digest"`
	// Digest is the SHA-256 over (PrevDigest, Seq, Type, Payload)
	Digest string `json:"digest"`
	// Timestamp is the wall-clock commit time (informational only; all
	// ledger semantics are driven by Height)
	Timestamp time.Time `json:"timestamp"`
}

// AssetTokenizedPayload records the creation of an asset and the minting of
// its full share supply to the registrar
type AssetTokenizedPayload struct {
	AssetID     uint64  `json:"asset_id"`
	Owner       Address `json:"owner"`
	MetadataURI string  `json:"metadata_uri"`
	Value       uint64  `json:"value"`
	Supply      uint64  `json:"supply"`
}

// SharesTransferredPayload records a share movement between two holders
type SharesTransferredPayload struct {
	AssetID uint64  `json:"asset_id"`
	From    Address `json:"from"`
	To      Address `json:"to"`
	Amount  uint64  `json:"amount"`
}

// RevenueDepositedPayload records an increment of the accrued-revenue counter
type RevenueDepositedPayload struct {
	AssetID uint64 `json:"asset_id"`
	Amount  uint64 `json:"amount"`
}

// AssetLockChangedPayload records a lock flag change
type AssetLockChangedPayload struct {
	AssetID uint64 `json:"asset_id"`
	Locked  bool   `json:"locked"`
}

// ComplianceRecordSetPayload records an attestation write
type ComplianceRecordSetPayload struct {
	Address   Address `json:"address"`
	Approved  bool    `json:"approved"`
	Level     uint32  `json:"level"`
	ExpiresAt uint64  `json:"expires_at"`
}

// PriceSetPayload records an oracle price update
type PriceSetPayload struct {
	AssetID  uint64  `json:"asset_id"`
	Price    uint64  `json:"price"`
	Decimals uint32  `json:"decimals"`
	Oracle   Address `json:"oracle"`
}

// ProposalInitiatedPayload records the creation of a governance proposal
type ProposalInitiatedPayload struct {
	ProposalID       uint64  `json:"proposal_id"`
	AssetID          uint64  `json:"asset_id"`
	Proposer         Address `json:"proposer"`
	Title            string  `json:"title"`
	StartHeight      uint64  `json:"start_height"`
	EndHeight        uint64  `json:"end_height"`
	MinimumThreshold uint64  `json:"minimum_threshold"`
}

// VoteCastPayload records one immutable weighted vote
type VoteCastPayload struct {
	ProposalID uint64  `json:"proposal_id"`
	Voter      Address `json:"voter"`
	Support    bool    `json:"support"`
	Weight     uint64  `json:"weight"`
}

// ProposalFinalizedPayload records the terminal transition of a proposal
type ProposalFinalizedPayload struct {
	ProposalID   uint64 `json:"proposal_id"`
	Passed       bool   `json:"passed"`
	VotesFor     uint64 `json:"votes_for"`
	VotesAgainst uint64 `json:"votes_against"`
}

// DividendsHarvestedPayload records a pro-rata dividend claim. NewAccrual is
// the accrued-revenue value the beneficiary's claim marker advances to.
type DividendsHarvestedPayload struct {
	AssetID     uint64  `json:"asset_id"`
	Beneficiary Address `json:"beneficiary"`
	Amount      uint64  `json:"amount"`
	NewAccrual  uint64  `json:"new_accrual"`
}
