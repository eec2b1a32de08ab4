package rest

import (
	"github.com/openrwa/rwa-ledger/internal/domain"
)

// TokenizeAssetRequest is the body of POST /api/v1/assets
type TokenizeAssetRequest struct {
	Caller      string `json:"caller" binding:"required"`
	MetadataURI string `json:"metadata_uri" binding:"required"`
	Value       uint64 `json:"value" binding:"required"`
}

// TokenizeAssetResponse returns the identifier of the newly listed asset
type TokenizeAssetResponse struct {
	AssetID uint64 `json:"asset_id"`
	Height  uint64 `json:"height"`
}

// TransferSharesRequest is the body of POST /api/v1/transfers
type TransferSharesRequest struct {
	Caller  string `json:"caller" binding:"required"`
	To      string `json:"to" binding:"required"`
	AssetID uint64 `json:"asset_id" binding:"required"`
	Amount  uint64 `json:"amount" binding:"required"`
}

// DepositRevenueRequest is the body of POST /api/v1/assets/:id/revenue
type DepositRevenueRequest struct {
	Caller string `json:"caller" binding:"required"`
	Amount uint64 `json:"amount" binding:"required"`
}

// SetAssetLockRequest is the body of PUT /api/v1/assets/:id/lock
type SetAssetLockRequest struct {
	Caller string `json:"caller" binding:"required"`
	Locked *bool  `json:"locked" binding:"required"`
}

// SetPriceRequest is the body of POST /api/v1/assets/:id/price
type SetPriceRequest struct {
	Caller   string `json:"caller" binding:"required"`
	Price    uint64 `json:"price" binding:"required"`
	Decimals uint32 `json:"decimals"`
}

// InitiateProposalRequest is the body of POST /api/v1/proposals
type InitiateProposalRequest struct {
	Caller           string `json:"caller" binding:"required"`
	AssetID          uint64 `json:"asset_id" binding:"required"`
	Title            string `json:"title" binding:"required"`
	DurationBlocks   uint64 `json:"duration_blocks" binding:"required"`
	MinimumThreshold uint64 `json:"minimum_threshold" binding:"required"`
}

// InitiateProposalResponse returns the identifier of the new proposal
type InitiateProposalResponse struct {
	ProposalID uint64 `json:"proposal_id"`
	Height     uint64 `json:"height"`
}

// CastVoteRequest is the body of POST /api/v1/proposals/:id/votes
type CastVoteRequest struct {
	Caller  string `json:"caller" binding:"required"`
	Support *bool  `json:"support" binding:"required"`
	Weight  uint64 `json:"weight" binding:"required"`
}

// FinalizeRequest is the body of POST /api/v1/proposals/:id/finalize
type FinalizeRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// FinalizeResponse reports the tally outcome
type FinalizeResponse struct {
	ProposalID uint64 `json:"proposal_id"`
	Passed     bool   `json:"passed"`
}

// SetComplianceRecordRequest is the body of POST /api/v1/compliance
type SetComplianceRecordRequest struct {
	Caller    string `json:"caller" binding:"required"`
	Subject   string `json:"subject" binding:"required"`
	Approved  *bool  `json:"approved" binding:"required"`
	Level     uint32 `json:"level"`
	ExpiresAt uint64 `json:"expires_at" binding:"required"`
}

// HarvestDividendsRequest is the body of POST /api/v1/assets/:id/harvest
type HarvestDividendsRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// HarvestDividendsResponse reports the amount credited to the caller
type HarvestDividendsResponse struct {
	AssetID uint64 `json:"asset_id"`
	Amount  uint64 `json:"amount"`
}

// AssetResponse wraps asset details with the derived lifecycle view
type AssetResponse struct {
	domain.Asset
	TotalShares uint64 `json:"total_shares"`
}

// ProposalResponse wraps proposal details with the height-derived status
type ProposalResponse struct {
	domain.Proposal
	Status domain.ProposalStatus `json:"status"`
}

// BalanceResponse reports one holder's share balance for one asset
type BalanceResponse struct {
	AssetID uint64 `json:"asset_id"`
	Holder  string `json:"holder"`
	Balance uint64 `json:"balance"`
}

// PayoutBalanceResponse reports an account's accumulated harvested payouts
type PayoutBalanceResponse struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

// LastClaimResponse reports the accrual marker of a beneficiary's last harvest
type LastClaimResponse struct {
	AssetID            uint64 `json:"asset_id"`
	Beneficiary        string `json:"beneficiary"`
	LastClaimedAccrual uint64 `json:"last_claimed_accrual"`
}

// ComplianceCheckResponse reports the outcome of a compliance gate check
type ComplianceCheckResponse struct {
	Address   string `json:"address"`
	Level     uint32 `json:"level"`
	Height    uint64 `json:"height"`
	Compliant bool   `json:"compliant"`
}

// HealthResponse reports daemon liveness and journal position
type HealthResponse struct {
	Status     string `json:"status"`
	Height     uint64 `json:"height"`
	JournalSeq uint64 `json:"journal_seq"`
	LastDigest string `json:"last_digest,omitempty"`
}
