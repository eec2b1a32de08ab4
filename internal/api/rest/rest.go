package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/openrwa/rwa-ledger/internal/api/middleware"
)

// SetupRoutes configures all REST API routes. Reads are public; every
// mutating call requires authentication.
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	auth := middleware.Auth(authCfg)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Asset registry
		v1.POST("/assets", auth, handler.TokenizeAsset)
		v1.GET("/assets/:id", handler.GetAsset)
		v1.PUT("/assets/:id/lock", auth, handler.SetAssetLock)
		v1.GET("/assets/:id/balances/:address", handler.GetShareBalance)

		// Share transfers
		v1.POST("/transfers", auth, handler.TransferShares)

		// Revenue and dividends
		v1.POST("/assets/:id/revenue", auth, handler.DepositRevenue)
		v1.POST("/assets/:id/harvest", auth, handler.HarvestDividends)
		v1.GET("/assets/:id/claims/:address", handler.GetLastClaim)
		v1.GET("/accounts/:address/payouts", handler.GetPayoutBalance)

		// Market prices and valuation
		v1.POST("/assets/:id/price", auth, handler.SetPrice)
		v1.GET("/assets/:id/price", handler.GetMarketPrice)
		v1.GET("/assets/:id/valuation", handler.GetAssetValuation)

		// Governance
		v1.POST("/proposals", auth, handler.InitiateProposal)
		v1.GET("/proposals/:id", handler.GetProposal)
		v1.POST("/proposals/:id/votes", auth, handler.CastVote)
		v1.GET("/proposals/:id/votes/:address", handler.GetVoteRecord)
		v1.POST("/proposals/:id/finalize", auth, handler.Finalize)

		// Compliance
		v1.POST("/compliance", auth, handler.SetComplianceRecord)
		v1.GET("/compliance/:address", handler.GetComplianceRecord)
		v1.GET("/compliance/:address/check", handler.CheckCompliance)
	}
}
