package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrwa/rwa-ledger/internal/domain"
)

const maxStaleness = 144

func TestSetPrice(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	assetID, err := eng.TokenizeAsset(ctx, registrar, 1, "ipfs://asset", 50_000)
	require.NoError(t, err)

	t.Run("stores the tuple and stamps the asset", func(t *testing.T) {
		require.NoError(t, eng.SetPrice(ctx, oracle, 10, assetID, 123_456, 6))

		price, err := eng.GetMarketPrice(assetID)
		require.NoError(t, err)
		assert.Equal(t, uint64(123_456), price.Price)
		assert.Equal(t, uint32(6), price.Decimals)
		assert.Equal(t, uint64(10), price.LastUpdatedAt)
		assert.Equal(t, oracle, price.Oracle)

		asset, err := eng.GetAssetDetails(assetID)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), asset.LastPriceUpdateAt)
	})

	t.Run("rejections", func(t *testing.T) {
		assert.ErrorIs(t, eng.SetPrice(ctx, investor, 10, assetID, 1, 0), domain.ErrOwnerOnly)
		assert.ErrorIs(t, eng.SetPrice(ctx, oracle, 10, 99, 1, 0), domain.ErrNotFound)
		assert.ErrorIs(t, eng.SetPrice(ctx, oracle, 10, assetID, 0, 0), domain.ErrInvalidValue)
		assert.ErrorIs(t, eng.SetPrice(ctx, oracle, 10, assetID, 1, 19), domain.ErrInvalidValue)
	})
}

func TestGetValidatedPrice(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	assetID, err := eng.TokenizeAsset(ctx, registrar, 1, "ipfs://asset", 50_000)
	require.NoError(t, err)

	_, err = eng.GetValidatedPrice(assetID, 10, maxStaleness)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, eng.SetPrice(ctx, oracle, 10, assetID, 123_456, 6))

	// Fresh up to and including the staleness bound
	_, err = eng.GetValidatedPrice(assetID, 10+maxStaleness, maxStaleness)
	assert.NoError(t, err)

	_, err = eng.GetValidatedPrice(assetID, 10+maxStaleness+1, maxStaleness)
	assert.ErrorIs(t, err, domain.ErrPriceExpired)
}

func TestGetAssetValuation(t *testing.T) {
	ctx := context.Background()
	eng, _ := newTestEngine(t)
	assetID, err := eng.TokenizeAsset(ctx, registrar, 1, "ipfs://asset", 50_000)
	require.NoError(t, err)

	_, err = eng.GetAssetValuation(99, 10, maxStaleness)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Asset exists but no price has ever been set
	_, err = eng.GetAssetValuation(assetID, 10, maxStaleness)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, eng.SetPrice(ctx, oracle, 10, assetID, 123_456, 6))

	valuation, err := eng.GetAssetValuation(assetID, 20, maxStaleness)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000), valuation.Value)
	assert.Equal(t, uint64(123_456), valuation.Price)
	assert.Equal(t, uint32(6), valuation.Decimals)
	assert.Equal(t, uint64(10), valuation.PriceHeight)
	assert.Equal(t, uint64(20), valuation.CurrentHeight)

	// A stale price must never leak into a valuation
	_, err = eng.GetAssetValuation(assetID, 10+maxStaleness+1, maxStaleness)
	assert.ErrorIs(t, err, domain.ErrPriceExpired)
}
