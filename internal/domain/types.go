package domain

import (
	"github.com/ethereum/go-ethereum/common"
)

// Address is a hex-encoded principal address (EIP-55 checksum form once normalized)
type Address string

// NormalizeAddress validates a raw address string and returns its checksum form
func NormalizeAddress(raw string) (Address, error) {
	if !common.IsHexAddress(raw) {
		return "", ErrInvalidAddress
	}
	return Address(common.HexToAddress(raw).Hex()), nil
}

// Valid reports whether the address is a well-formed hex address
func (a Address) Valid() bool {
	return common.IsHexAddress(string(a))
}

// String returns the string representation of the address
func (a Address) String() string {
	return string(a)
}

// Asset represents a registered, tokenized asset.
// AccruedRevenue is a monotonic non-decreasing counter of lifetime revenue;
// UndistributedRevenue is the portion not yet paid out through harvests
// (truncation dust accumulates here and is never lost from the accounting).
type Asset struct {
	ID                   uint64  `json:"id"`
	Owner                Address `json:"owner"`
	MetadataURI          string  `json:"metadata_uri"`
	Value                uint64  `json:"value"`
	Locked               bool    `json:"locked"`
	CreatedAt            uint64  `json:"created_at"`
	LastPriceUpdateAt    uint64  `json:"last_price_update_at"`
	AccruedRevenue       uint64  `json:"accrued_revenue"`
	UndistributedRevenue uint64  `json:"undistributed_revenue"`
}

// ProposalStatus represents the lifecycle state of a proposal
type ProposalStatus string

const (
	ProposalStatusOpen      ProposalStatus = "open"
	ProposalStatusClosed    ProposalStatus = "closed"
	ProposalStatusFinalized ProposalStatus = "finalized"
)

// Proposal represents a governance proposal over one asset.
// Tally fields are mutated only by vote casting while the proposal is open;
// Executed and Passed are set exactly once by finalization.
type Proposal struct {
	ID               uint64  `json:"id"`
	AssetID          uint64  `json:"asset_id"`
	Proposer         Address `json:"proposer"`
	Title            string  `json:"title"`
	StartHeight      uint64  `json:"start_height"`
	EndHeight        uint64  `json:"end_height"`
	Executed         bool    `json:"executed"`
	Passed           bool    `json:"passed"`
	VotesFor         uint64  `json:"votes_for"`
	VotesAgainst     uint64  `json:"votes_against"`
	MinimumThreshold uint64  `json:"minimum_threshold"`
}

// StatusAt returns the proposal state at the given block height
func (p *Proposal) StatusAt(height uint64) ProposalStatus {
	switch {
	case p.Executed:
		return ProposalStatusFinalized
	case height >= p.EndHeight:
		return ProposalStatusClosed
	default:
		return ProposalStatusOpen
	}
}

// VoteRecord is the immutable record of a single cast vote.
// Weight is captured at cast time; later balance changes never alter it.
type VoteRecord struct {
	ProposalID uint64  `json:"proposal_id"`
	Voter      Address `json:"voter"`
	Support    bool    `json:"support"`
	Weight     uint64  `json:"weight"`
	Height     uint64  `json:"height"`
}

// ComplianceRecord is an attestation produced by an external identity process.
// The ledger treats it as read-only reference data once registered.
type ComplianceRecord struct {
	Address   Address `json:"address"`
	Approved  bool    `json:"approved"`
	Level     uint32  `json:"level"`
	ExpiresAt uint64  `json:"expires_at"`
}

// DividendClaim tracks, per (asset, beneficiary), the accrued-revenue value
// observed at the last harvest
type DividendClaim struct {
	AssetID            uint64  `json:"asset_id"`
	Beneficiary        Address `json:"beneficiary"`
	LastClaimedAccrual uint64  `json:"last_claimed_accrual"`
}

// MarketPrice is the cached oracle price tuple for one asset
type MarketPrice struct {
	AssetID       uint64  `json:"asset_id"`
	Price         uint64  `json:"price"`
	Decimals      uint32  `json:"decimals"`
	LastUpdatedAt uint64  `json:"last_updated_at"`
	Oracle        Address `json:"oracle"`
}

// AssetValuation combines the registered asset value with a freshness-checked
// market price
type AssetValuation struct {
	AssetID       uint64 `json:"asset_id"`
	Value         uint64 `json:"value"`
	Price         uint64 `json:"price"`
	Decimals      uint32 `json:"decimals"`
	PriceHeight   uint64 `json:"price_height"`
	CurrentHeight uint64 `json:"current_height"`
}
