package ledger

import (
	"context"
	"time"

	"github.com/openrwa/rwa-ledger/internal/domain"
)

// maxPriceDecimals bounds the oracle decimals field
const maxPriceDecimals uint32 = 18

// SetPrice stores an oracle price tuple for an asset. Only the designated
// oracle may call it. Storing never checks freshness; staleness is enforced
// at read sites through GetValidatedPrice.
func (e *Engine) SetPrice(ctx context.Context, caller domain.Address, height uint64, assetID uint64, price uint64, decimals uint32) error {
	defer e.observe("set_price", time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.params.Oracle {
		return e.reject("set_price", domain.ErrOwnerOnly)
	}
	if _, exists := e.state.assets[assetID]; !exists {
		return e.reject("set_price", domain.ErrNotFound)
	}
	if price == 0 || decimals > maxPriceDecimals {
		return e.reject("set_price", domain.ErrInvalidValue)
	}

	_, err := e.commit(ctx, caller, height, domain.EventPriceSet, domain.PriceSetPayload{
		AssetID:  assetID,
		Price:    price,
		Decimals: decimals,
		Oracle:   caller,
	})
	return err
}

// GetMarketPrice returns the raw cached price tuple without freshness checks
func (e *Engine) GetMarketPrice(assetID uint64) (domain.MarketPrice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	price, exists := e.state.prices.Get(assetID)
	if !exists {
		return domain.MarketPrice{}, domain.ErrNotFound
	}
	return price, nil
}

// GetValidatedPrice returns the cached price tuple only if it is fresh at
// atHeight within maxStalenessBlocks, failing with PriceExpired otherwise
func (e *Engine) GetValidatedPrice(assetID uint64, atHeight uint64, maxStalenessBlocks uint64) (domain.MarketPrice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.prices.Validated(assetID, atHeight, maxStalenessBlocks)
}

// GetAssetValuation combines the registered asset value with a
// freshness-checked market price. This is the read site that must never
// trust a stale price: it goes through the validated path unconditionally.
func (e *Engine) GetAssetValuation(assetID uint64, atHeight uint64, maxStalenessBlocks uint64) (domain.AssetValuation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	asset, exists := e.state.assets[assetID]
	if !exists {
		return domain.AssetValuation{}, domain.ErrNotFound
	}
	price, err := e.state.prices.Validated(assetID, atHeight, maxStalenessBlocks)
	if err != nil {
		return domain.AssetValuation{}, err
	}
	return domain.AssetValuation{
		AssetID:       assetID,
		Value:         asset.Value,
		Price:         price.Price,
		Decimals:      price.Decimals,
		PriceHeight:   price.LastUpdatedAt,
		CurrentHeight: atHeight,
	}, nil
}
