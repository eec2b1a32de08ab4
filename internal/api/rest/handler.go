package rest

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openrwa/rwa-ledger/internal/adapter"
	"github.com/openrwa/rwa-ledger/internal/api/middleware"
	"github.com/openrwa/rwa-ledger/internal/domain"
)

// Ledger is the engine surface the REST API depends on
//
//go:generate mockgen -source=handler.go -destination=../../mocks/ledger.go -package=mocks -mock_names=Ledger=MockLedger,Handler=MockAPIHandler
type Ledger interface {
	TokenizeAsset(ctx context.Context, caller domain.Address, height uint64, metadataURI string, value uint64) (uint64, error)
	TransferShares(ctx context.Context, caller domain.Address, height uint64, to domain.Address, assetID uint64, amount uint64) error
	DepositRevenue(ctx context.Context, caller domain.Address, height uint64, assetID uint64, amount uint64) error
	SetAssetLock(ctx context.Context, caller domain.Address, height uint64, assetID uint64, locked bool) error
	GetAssetDetails(assetID uint64) (domain.Asset, error)
	GetShareBalance(holder domain.Address, assetID uint64) uint64
	TotalShares(assetID uint64) uint64

	InitiateProposal(ctx context.Context, caller domain.Address, height uint64, assetID uint64, title string, durationBlocks uint64, minimumThreshold uint64) (uint64, error)
	CastVote(ctx context.Context, voter domain.Address, height uint64, proposalID uint64, support bool, weight uint64) error
	Finalize(ctx context.Context, caller domain.Address, height uint64, proposalID uint64) (bool, error)
	GetProposalDetails(proposalID uint64) (domain.Proposal, error)
	GetVoteRecord(proposalID uint64, voter domain.Address) (domain.VoteRecord, error)

	SetComplianceRecord(ctx context.Context, caller domain.Address, height uint64, subject string, approved bool, level uint32, expiresAt uint64) error
	IsCompliant(addr domain.Address, requiredLevel uint32, atHeight uint64) bool
	GetComplianceRecord(addr domain.Address) (domain.ComplianceRecord, error)

	HarvestDividends(ctx context.Context, caller domain.Address, height uint64, assetID uint64) (uint64, error)
	GetLastClaim(assetID uint64, beneficiary domain.Address) uint64
	GetPayoutBalance(addr domain.Address) uint64

	SetPrice(ctx context.Context, caller domain.Address, height uint64, assetID uint64, price uint64, decimals uint32) error
	GetMarketPrice(assetID uint64) (domain.MarketPrice, error)
	GetValidatedPrice(assetID uint64, atHeight uint64, maxStalenessBlocks uint64) (domain.MarketPrice, error)
	GetAssetValuation(assetID uint64, atHeight uint64, maxStalenessBlocks uint64) (domain.AssetValuation, error)

	Seq() uint64
	LastDigest() string
}

// Handler defines the interface for REST API handlers
type Handler interface {
	// TokenizeAsset lists a new asset and mints its share supply
	// POST /api/v1/assets
	TokenizeAsset(c *gin.Context)

	// GetAsset retrieves asset details by ID
	// GET /api/v1/assets/:id
	GetAsset(c *gin.Context)

	// GetAssetValuation retrieves the freshness-checked valuation of an asset
	// GET /api/v1/assets/:id/valuation
	GetAssetValuation(c *gin.Context)

	// GetMarketPrice retrieves the cached oracle price of an asset
	// GET /api/v1/assets/:id/price?validated=true
	GetMarketPrice(c *gin.Context)

	// SetPrice records a new oracle price for an asset
	// POST /api/v1/assets/:id/price
	SetPrice(c *gin.Context)

	// SetAssetLock freezes or unfreezes share transfers for an asset
	// PUT /api/v1/assets/:id/lock
	SetAssetLock(c *gin.Context)

	// DepositRevenue credits revenue to an asset's distribution pool
	// POST /api/v1/assets/:id/revenue
	DepositRevenue(c *gin.Context)

	// HarvestDividends pays out the caller's accrued pro-rata revenue share
	// POST /api/v1/assets/:id/harvest
	HarvestDividends(c *gin.Context)

	// GetShareBalance retrieves one holder's share balance for an asset
	// GET /api/v1/assets/:id/balances/:address
	GetShareBalance(c *gin.Context)

	// GetLastClaim retrieves the accrual marker of a beneficiary's last harvest
	// GET /api/v1/assets/:id/claims/:address
	GetLastClaim(c *gin.Context)

	// TransferShares moves shares between holders
	// POST /api/v1/transfers
	TransferShares(c *gin.Context)

	// InitiateProposal opens a governance proposal on an asset
	// POST /api/v1/proposals
	InitiateProposal(c *gin.Context)

	// GetProposal retrieves proposal details by ID
	// GET /api/v1/proposals/:id
	GetProposal(c *gin.Context)

	// CastVote records a weighted vote on an open proposal
	// POST /api/v1/proposals/:id/votes
	CastVote(c *gin.Context)

	// GetVoteRecord retrieves one voter's record on a proposal
	// GET /api/v1/proposals/:id/votes/:address
	GetVoteRecord(c *gin.Context)

	// Finalize tallies a proposal whose voting period has ended
	// POST /api/v1/proposals/:id/finalize
	Finalize(c *gin.Context)

	// SetComplianceRecord registers a compliance attestation for a subject
	// POST /api/v1/compliance
	SetComplianceRecord(c *gin.Context)

	// GetComplianceRecord retrieves a subject's compliance attestation
	// GET /api/v1/compliance/:address
	GetComplianceRecord(c *gin.Context)

	// CheckCompliance evaluates the compliance gate for a subject
	// GET /api/v1/compliance/:address/check?level=<level>
	CheckCompliance(c *gin.Context)

	// GetPayoutBalance retrieves an account's accumulated harvested payouts
	// GET /api/v1/accounts/:address/payouts
	GetPayoutBalance(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	ledger            Ledger
	heights           adapter.HeightSource
	maxPriceStaleness uint64
}

// NewHandler creates a new REST API handler over the ledger engine
func NewHandler(ledger Ledger, heights adapter.HeightSource, maxPriceStaleness uint64) Handler {
	return &handler{
		ledger:            ledger,
		heights:           heights,
		maxPriceStaleness: maxPriceStaleness,
	}
}

// pathID parses the :id path parameter as a uint64
func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondBadRequest(c, "Invalid ID", c.Param("id"))
		return 0, false
	}
	return id, true
}

// pathAddress parses the :address path parameter as a checksummed address
func pathAddress(c *gin.Context) (domain.Address, bool) {
	addr, err := domain.NormalizeAddress(c.Param("address"))
	if err != nil {
		respondBadRequest(c, "Invalid address", c.Param("address"))
		return "", false
	}
	return addr, true
}

// boundCaller resolves the caller named in a request body. A JWT-bound
// subject may only submit calls as itself; an API-key client identifies a
// trusted service and may name any principal.
func boundCaller(c *gin.Context, caller string) (domain.Address, bool) {
	if subject, ok := middleware.AuthSubject(c); ok && !strings.EqualFold(subject, caller) {
		respondWithError(c, http.StatusForbidden, errCodeForbidden, "Caller does not match authenticated subject")
		return "", false
	}
	return domain.Address(caller), true
}

// TokenizeAsset lists a new asset and mints its share supply
func (h *handler) TokenizeAsset(c *gin.Context) {
	var req TokenizeAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	caller, ok := boundCaller(c, req.Caller)
	if !ok {
		return
	}

	height := h.heights.CurrentHeight()
	assetID, err := h.ledger.TokenizeAsset(c.Request.Context(), caller, height, req.MetadataURI, req.Value)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, TokenizeAssetResponse{AssetID: assetID, Height: height})
}

// GetAsset retrieves asset details by ID
func (h *handler) GetAsset(c *gin.Context) {
	assetID, ok := pathID(c)
	if !ok {
		return
	}

	asset, err := h.ledger.GetAssetDetails(assetID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, AssetResponse{
		Asset:       asset,
		TotalShares: h.ledger.TotalShares(assetID),
	})
}

// GetAssetValuation retrieves the freshness-checked valuation of an asset
func (h *handler) GetAssetValuation(c *gin.Context) {
	assetID, ok := pathID(c)
	if !ok {
		return
	}

	valuation, err := h.ledger.GetAssetValuation(assetID, h.heights.CurrentHeight(), h.maxPriceStaleness)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, valuation)
}

// GetMarketPrice retrieves the cached oracle price of an asset
func (h *handler) GetMarketPrice(c *gin.Context) {
	assetID, ok := pathID(c)
	if !ok {
		return
	}

	var price domain.MarketPrice
	var err error
	if c.Query("validated") == "true" {
		price, err = h.ledger.GetValidatedPrice(assetID, h.heights.CurrentHeight(), h.maxPriceStaleness)
	} else {
		price, err = h.ledger.GetMarketPrice(assetID)
	}
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, price)
}

// SetPrice records a new oracle price for an asset
func (h *handler) SetPrice(c *gin.Context) {
	assetID, ok := pathID(c)
	if !ok {
		return
	}

	var req SetPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	caller, ok := boundCaller(c, req.Caller)
	if !ok {
		return
	}

	err := h.ledger.SetPrice(c.Request.Context(), caller, h.heights.CurrentHeight(), assetID, req.Price, req.Decimals)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SetAssetLock freezes or unfreezes share transfers for an asset
func (h *handler) SetAssetLock(c *gin.Context) {
	assetID, ok := pathID(c)
	if !ok {
		return
	}

	var req SetAssetLockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	caller, ok := boundCaller(c, req.Caller)
	if !ok {
		return
	}

	err := h.ledger.SetAssetLock(c.Request.Context(), caller, h.heights.CurrentHeight(), assetID, *req.Locked)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// DepositRevenue credits revenue to an asset's distribution pool
func (h *handler) DepositRevenue(c *gin.Context) {
	assetID, ok := pathID(c)
	if !ok {
		return
	}

	var req DepositRevenueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	caller, ok := boundCaller(c, req.Caller)
	if !ok {
		return
	}

	err := h.ledger.DepositRevenue(c.Request.Context(), caller, h.heights.CurrentHeight(), assetID, req.Amount)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// HarvestDividends pays out the caller's accrued pro-rata revenue share
func (h *handler) HarvestDividends(c *gin.Context) {
	assetID, ok := pathID(c)
	if !ok {
		return
	}

	var req HarvestDividendsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	caller, ok := boundCaller(c, req.Caller)
	if !ok {
		return
	}

	amount, err := h.ledger.HarvestDividends(c.Request.Context(), caller, h.heights.CurrentHeight(), assetID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, HarvestDividendsResponse{AssetID: assetID, Amount: amount})
}

// GetShareBalance retrieves one holder's share balance for an asset
func (h *handler) GetShareBalance(c *gin.Context) {
	assetID, ok := pathID(c)
	if !ok {
		return
	}
	addr, ok := pathAddress(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, BalanceResponse{
		AssetID: assetID,
		Holder:  addr.String(),
		Balance: h.ledger.GetShareBalance(addr, assetID),
	})
}

// GetLastClaim retrieves the accrual marker of a beneficiary's last harvest
func (h *handler) GetLastClaim(c *gin.Context) {
	assetID, ok := pathID(c)
	if !ok {
		return
	}
	addr, ok := pathAddress(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, LastClaimResponse{
		AssetID:            assetID,
		Beneficiary:        addr.String(),
		LastClaimedAccrual: h.ledger.GetLastClaim(assetID, addr),
	})
}

// TransferShares moves shares between holders
func (h *handler) TransferShares(c *gin.Context) {
	var req TransferSharesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	caller, ok := boundCaller(c, req.Caller)
	if !ok {
		return
	}

	err := h.ledger.TransferShares(c.Request.Context(), caller, h.heights.CurrentHeight(), domain.Address(req.To), req.AssetID, req.Amount)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// InitiateProposal opens a governance proposal on an asset
func (h *handler) InitiateProposal(c *gin.Context) {
	var req InitiateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	caller, ok := boundCaller(c, req.Caller)
	if !ok {
		return
	}

	height := h.heights.CurrentHeight()
	proposalID, err := h.ledger.InitiateProposal(c.Request.Context(), caller, height, req.AssetID, req.Title, req.DurationBlocks, req.MinimumThreshold)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, InitiateProposalResponse{ProposalID: proposalID, Height: height})
}

// GetProposal retrieves proposal details by ID
func (h *handler) GetProposal(c *gin.Context) {
	proposalID, ok := pathID(c)
	if !ok {
		return
	}

	proposal, err := h.ledger.GetProposalDetails(proposalID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProposalResponse{
		Proposal: proposal,
		Status:   proposal.StatusAt(h.heights.CurrentHeight()),
	})
}

// CastVote records a weighted vote on an open proposal
func (h *handler) CastVote(c *gin.Context) {
	proposalID, ok := pathID(c)
	if !ok {
		return
	}

	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	caller, ok := boundCaller(c, req.Caller)
	if !ok {
		return
	}

	err := h.ledger.CastVote(c.Request.Context(), caller, h.heights.CurrentHeight(), proposalID, *req.Support, req.Weight)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetVoteRecord retrieves one voter's record on a proposal
func (h *handler) GetVoteRecord(c *gin.Context) {
	proposalID, ok := pathID(c)
	if !ok {
		return
	}
	addr, ok := pathAddress(c)
	if !ok {
		return
	}

	record, err := h.ledger.GetVoteRecord(proposalID, addr)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// Finalize tallies a proposal whose voting period has ended
func (h *handler) Finalize(c *gin.Context) {
	proposalID, ok := pathID(c)
	if !ok {
		return
	}

	var req FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	caller, ok := boundCaller(c, req.Caller)
	if !ok {
		return
	}

	passed, err := h.ledger.Finalize(c.Request.Context(), caller, h.heights.CurrentHeight(), proposalID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, FinalizeResponse{ProposalID: proposalID, Passed: passed})
}

// SetComplianceRecord registers a compliance attestation for a subject
func (h *handler) SetComplianceRecord(c *gin.Context) {
	var req SetComplianceRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	caller, ok := boundCaller(c, req.Caller)
	if !ok {
		return
	}

	err := h.ledger.SetComplianceRecord(c.Request.Context(), caller, h.heights.CurrentHeight(), req.Subject, *req.Approved, req.Level, req.ExpiresAt)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetComplianceRecord retrieves a subject's compliance attestation
func (h *handler) GetComplianceRecord(c *gin.Context) {
	addr, ok := pathAddress(c)
	if !ok {
		return
	}

	record, err := h.ledger.GetComplianceRecord(addr)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

// CheckCompliance evaluates the compliance gate for a subject
func (h *handler) CheckCompliance(c *gin.Context) {
	addr, ok := pathAddress(c)
	if !ok {
		return
	}

	level64, err := strconv.ParseUint(c.DefaultQuery("level", "1"), 10, 32)
	if err != nil {
		respondBadRequest(c, "Invalid level", c.Query("level"))
		return
	}

	height := h.heights.CurrentHeight()
	c.JSON(http.StatusOK, ComplianceCheckResponse{
		Address:   addr.String(),
		Level:     uint32(level64),
		Height:    height,
		Compliant: h.ledger.IsCompliant(addr, uint32(level64), height),
	})
}

// GetPayoutBalance retrieves an account's accumulated harvested payouts
func (h *handler) GetPayoutBalance(c *gin.Context) {
	addr, ok := pathAddress(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, PayoutBalanceResponse{
		Address: addr.String(),
		Balance: h.ledger.GetPayoutBalance(addr),
	})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:     "ok",
		Height:     h.heights.CurrentHeight(),
		JournalSeq: h.ledger.Seq(),
		LastDigest: h.ledger.LastDigest(),
	})
}
