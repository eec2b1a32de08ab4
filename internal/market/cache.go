package market

import (
	"github.com/openrwa/rwa-ledger/internal/domain"
)

// Cache holds the last oracle price tuple per asset. Freshness is not a
// property of the stored record; it is checked against an explicit staleness
// window at every read site that needs a trustworthy price.
type Cache struct {
	prices map[uint64]domain.MarketPrice
}

// NewCache creates an empty market data cache
func NewCache() *Cache {
	return &Cache{
		prices: make(map[uint64]domain.MarketPrice),
	}
}

// Set stores or replaces the price tuple for an asset
func (c *Cache) Set(p domain.MarketPrice) {
	c.prices[p.AssetID] = p
}

// Get returns the raw cached tuple without any freshness check
func (c *Cache) Get(assetID uint64) (domain.MarketPrice, bool) {
	p, ok := c.prices[assetID]
	return p, ok
}

// Validated returns the cached tuple only if it is fresh at atHeight.
// A price set at height h is acceptable while atHeight - h <= maxStalenessBlocks.
func (c *Cache) Validated(assetID uint64, atHeight uint64, maxStalenessBlocks uint64) (domain.MarketPrice, error) {
	p, ok := c.prices[assetID]
	if !ok {
		return domain.MarketPrice{}, domain.ErrNotFound
	}
	if atHeight > p.LastUpdatedAt && atHeight-p.LastUpdatedAt > maxStalenessBlocks {
		return domain.MarketPrice{}, domain.ErrPriceExpired
	}
	return p, nil
}
