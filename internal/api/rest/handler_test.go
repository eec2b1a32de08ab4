package rest_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrwa/rwa-ledger/internal/api/middleware"
	"github.com/openrwa/rwa-ledger/internal/api/rest"
	"github.com/openrwa/rwa-ledger/internal/domain"
	"github.com/openrwa/rwa-ledger/internal/ledger"
)

const (
	testAPIKey   = "test-api-key"
	registrarHex = "0x1111111111111111111111111111111111111111"
	attestorHex  = "0x2222222222222222222222222222222222222222"
	oracleHex    = "0x3333333333333333333333333333333333333333"
	investorHex  = "0x4444444444444444444444444444444444444444"
)

// fixedHeight pins the chain clock for deterministic handler behavior
type fixedHeight struct {
	height uint64
}

func (f *fixedHeight) CurrentHeight() uint64 { return f.height }

// newTestRouter wires a real engine behind the full route table
func newTestRouter(t *testing.T) (*gin.Engine, *ledger.Engine, *fixedHeight) {
	t.Helper()
	return newTestRouterAuth(t, middleware.AuthConfig{APIKeys: []string{testAPIKey}})
}

func newTestRouterAuth(t *testing.T, auth middleware.AuthConfig) (*gin.Engine, *ledger.Engine, *fixedHeight) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	eng, err := ledger.New(ledger.Params{
		Registrar:        domain.Address(registrarHex),
		Attestor:         domain.Address(attestorHex),
		Oracle:           domain.Address(oracleHex),
		VoteKycLevel:     1,
		TransferKycLevel: 2,
		HarvestKycLevel:  2,
	}, ledger.NewMemoryJournal())
	require.NoError(t, err)
	require.NoError(t, eng.Load(context.Background()))

	heights := &fixedHeight{height: 100}
	handler := rest.NewHandler(eng, heights, 144)

	router := gin.New()
	rest.SetupRoutes(router, handler, auth)
	return router, eng, heights
}

// doJSON performs an authenticated JSON request against the router
func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "APIKey "+testAPIKey)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var health rest.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, uint64(100), health.Height)
	assert.Zero(t, health.JournalSeq)
}

func TestTokenizeAssetEndpoint(t *testing.T) {
	t.Run("creates the asset", func(t *testing.T) {
		router, eng, _ := newTestRouter(t)

		w := doJSON(t, router, http.MethodPost, "/api/v1/assets", rest.TokenizeAssetRequest{
			Caller:      registrarHex,
			MetadataURI: "ipfs://asset-1",
			Value:       50_000,
		})

		require.Equal(t, http.StatusCreated, w.Code)
		var resp rest.TokenizeAssetResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, uint64(1), resp.AssetID)
		assert.Equal(t, uint64(100), resp.Height)

		assert.Equal(t, uint64(domain.SUPPLY_PER_ASSET), eng.GetShareBalance(domain.Address(registrarHex), resp.AssetID))
	})

	t.Run("requires authentication", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		raw, _ := json.Marshal(rest.TokenizeAssetRequest{Caller: registrarHex, MetadataURI: "ipfs://x", Value: 50_000})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assets", bytes.NewReader(raw))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("maps ledger rejections to HTTP codes", func(t *testing.T) {
		router, _, _ := newTestRouter(t)

		// Non-registrar caller is forbidden
		w := doJSON(t, router, http.MethodPost, "/api/v1/assets", rest.TokenizeAssetRequest{
			Caller:      investorHex,
			MetadataURI: "ipfs://asset-1",
			Value:       50_000,
		})
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), fmt.Sprintf(`"ledger_code":%d`, domain.CodeNotAuthorized))

		// Out-of-bounds value is a validation failure
		w = doJSON(t, router, http.MethodPost, "/api/v1/assets", rest.TokenizeAssetRequest{
			Caller:      registrarHex,
			MetadataURI: "ipfs://asset-1",
			Value:       1,
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), fmt.Sprintf(`"ledger_code":%d`, domain.CodeInvalidValue))
	})
}

func TestAssetReadEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/assets", rest.TokenizeAssetRequest{
		Caller:      registrarHex,
		MetadataURI: "ipfs://asset-1",
		Value:       50_000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("get asset", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/assets/1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp rest.AssetResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "ipfs://asset-1", resp.MetadataURI)
		assert.Equal(t, uint64(domain.SUPPLY_PER_ASSET), resp.TotalShares)
	})

	t.Run("unknown asset is 404", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/assets/99", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id is 400", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/assets/not-a-number", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("share balance defaults to zero", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/assets/1/balances/"+investorHex, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp rest.BalanceResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Zero(t, resp.Balance)
	})
}

func TestGovernanceEndpoints(t *testing.T) {
	router, _, heights := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/assets", rest.TokenizeAssetRequest{
		Caller:      registrarHex,
		MetadataURI: "ipfs://asset-1",
		Value:       50_000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	// Open a proposal as the registrar (full supply holder)
	w = doJSON(t, router, http.MethodPost, "/api/v1/proposals", rest.InitiateProposalRequest{
		Caller:           registrarHex,
		AssetID:          1,
		Title:            "Sell the asset",
		DurationBlocks:   50,
		MinimumThreshold: 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created rest.InitiateProposalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, uint64(1), created.ProposalID)

	t.Run("status follows the height", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/proposals/1", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp rest.ProposalResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, domain.ProposalStatusOpen, resp.Status)
		assert.Equal(t, uint64(150), resp.EndHeight)
	})

	t.Run("finalize before end height is forbidden", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/proposals/1/finalize", rest.FinalizeRequest{Caller: registrarHex})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("finalize after end height", func(t *testing.T) {
		heights.height = 150

		w := doJSON(t, router, http.MethodPost, "/api/v1/proposals/1/finalize", rest.FinalizeRequest{Caller: registrarHex})
		require.Equal(t, http.StatusOK, w.Code)

		var resp rest.FinalizeResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Passed)

		// Second finalization is a conflict
		w = doJSON(t, router, http.MethodPost, "/api/v1/proposals/1/finalize", rest.FinalizeRequest{Caller: registrarHex})
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestComplianceEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	approved := true
	w := doJSON(t, router, http.MethodPost, "/api/v1/compliance", rest.SetComplianceRecordRequest{
		Caller:    attestorHex,
		Subject:   investorHex,
		Approved:  &approved,
		Level:     3,
		ExpiresAt: 500,
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	t.Run("record is readable", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/compliance/"+investorHex, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var record domain.ComplianceRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
		assert.True(t, record.Approved)
		assert.Equal(t, uint32(3), record.Level)
	})

	t.Run("gate check", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/compliance/"+investorHex+"/check?level=3", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp rest.ComplianceCheckResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Compliant)

		w = doJSON(t, router, http.MethodGet, "/api/v1/compliance/"+investorHex+"/check?level=4", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Compliant)
	})
}

func TestDividendEndpoints(t *testing.T) {
	router, _, _ := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/assets", rest.TokenizeAssetRequest{
		Caller:      registrarHex,
		MetadataURI: "ipfs://asset-1",
		Value:       50_000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	approved := true
	w = doJSON(t, router, http.MethodPost, "/api/v1/compliance", rest.SetComplianceRecordRequest{
		Caller:    attestorHex,
		Subject:   investorHex,
		Approved:  &approved,
		Level:     5,
		ExpiresAt: 10_000,
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/transfers", rest.TransferSharesRequest{
		Caller:  registrarHex,
		To:      investorHex,
		AssetID: 1,
		Amount:  50_000,
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/assets/1/revenue", rest.DepositRevenueRequest{
		Caller: registrarHex,
		Amount: 10_000,
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	t.Run("harvest pays pro-rata", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/assets/1/harvest", rest.HarvestDividendsRequest{
			Caller: investorHex,
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp rest.HarvestDividendsResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, uint64(5_000), resp.Amount)

		w = doJSON(t, router, http.MethodGet, "/api/v1/accounts/"+investorHex+"/payouts", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var payouts rest.PayoutBalanceResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payouts))
		assert.Equal(t, uint64(5_000), payouts.Balance)
	})

	t.Run("empty harvest is a validation failure", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/assets/1/harvest", rest.HarvestDividendsRequest{
			Caller: investorHex,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), fmt.Sprintf(`"ledger_code":%d`, domain.CodeInvalidAmount))
	})
}

func TestMarketEndpoints(t *testing.T) {
	router, _, heights := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/v1/assets", rest.TokenizeAssetRequest{
		Caller:      registrarHex,
		MetadataURI: "ipfs://asset-1",
		Value:       50_000,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/assets/1/price", rest.SetPriceRequest{
		Caller:   oracleHex,
		Price:    123_456,
		Decimals: 6,
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	t.Run("valuation with a fresh price", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/v1/assets/1/valuation", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp domain.AssetValuation
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, uint64(50_000), resp.Value)
		assert.Equal(t, uint64(123_456), resp.Price)
	})

	t.Run("stale price conflicts", func(t *testing.T) {
		heights.height = 100 + 145

		w := doJSON(t, router, http.MethodGet, "/api/v1/assets/1/valuation", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), fmt.Sprintf(`"ledger_code":%d`, domain.CodePriceExpired))

		// The raw read path still serves the tuple
		w = doJSON(t, router, http.MethodGet, "/api/v1/assets/1/price", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		// The validated read path does not
		w = doJSON(t, router, http.MethodGet, "/api/v1/assets/1/price?validated=true", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestJWTSubjectBinding(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	publicPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))

	router, _, _ := newTestRouterAuth(t, middleware.AuthConfig{
		JWTPublicKey: publicPEM,
		APIKeys:      []string{testAPIKey},
	})

	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.RegisteredClaims{
		Subject:   registrarHex,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(key)
	require.NoError(t, err)

	doBearer := func(body any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assets", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("subject may call as itself", func(t *testing.T) {
		w := doBearer(rest.TokenizeAssetRequest{
			Caller:      registrarHex,
			MetadataURI: "ipfs://asset-1",
			Value:       50_000,
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("subject may not call as another principal", func(t *testing.T) {
		w := doBearer(rest.TokenizeAssetRequest{
			Caller:      investorHex,
			MetadataURI: "ipfs://asset-2",
			Value:       50_000,
		})
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "does not match")
	})

	t.Run("API key clients stay unbound", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/api/v1/assets", rest.TokenizeAssetRequest{
			Caller:      registrarHex,
			MetadataURI: "ipfs://asset-3",
			Value:       50_000,
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}
