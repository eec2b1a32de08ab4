package ledger

import (
	"context"
	"math"
	"strconv"
	"time"

	"github.com/openrwa/rwa-ledger/internal/domain"
)

// TokenizeAsset registers a new asset and mints its full fixed share supply
// to the registrar in the same atomic step. Asset ids are allocated from a
// strictly monotonic counter; the id is never reused.
func (e *Engine) TokenizeAsset(ctx context.Context, caller domain.Address, height uint64, metadataURI string, value uint64) (uint64, error) {
	defer e.observe("tokenize_asset", time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	if !caller.Valid() {
		return 0, e.reject("tokenize_asset", domain.ErrInvalidAddress)
	}
	if caller != e.params.Registrar {
		return 0, e.reject("tokenize_asset", domain.ErrNotAuthorized)
	}
	if len(metadataURI) < 1 || len(metadataURI) > domain.MAX_METADATA_URI_LENGTH {
		return 0, e.reject("tokenize_asset", domain.ErrInvalidURI)
	}
	if value < domain.MIN_ASSET_VALUE || value > domain.MAX_ASSET_VALUE {
		return 0, e.reject("tokenize_asset", domain.ErrInvalidValue)
	}
	if _, exists := e.state.uriIndex[metadataURI]; exists {
		return 0, e.reject("tokenize_asset", domain.ErrAlreadyListed)
	}

	assetID := e.state.nextAssetID + 1
	_, err := e.commit(ctx, caller, height, domain.EventAssetTokenized, domain.AssetTokenizedPayload{
		AssetID:     assetID,
		Owner:       caller,
		MetadataURI: metadataURI,
		Value:       value,
		Supply:      domain.SUPPLY_PER_ASSET,
	})
	if err != nil {
		return 0, err
	}
	return assetID, nil
}

// TransferShares moves shares between holders. The per-asset share total is
// preserved exactly; supply is never minted or burned here.
func (e *Engine) TransferShares(ctx context.Context, caller domain.Address, height uint64, to domain.Address, assetID uint64, amount uint64) error {
	defer e.observe("transfer_shares", time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	if !caller.Valid() || !to.Valid() || caller == to {
		return e.reject("transfer_shares", domain.ErrInvalidAddress)
	}
	asset, exists := e.state.assets[assetID]
	if !exists {
		return e.reject("transfer_shares", domain.ErrNotFound)
	}
	if asset.Locked {
		return e.reject("transfer_shares", domain.ErrNotAuthorized)
	}
	if amount == 0 || amount > e.state.balances[balanceKey{caller, assetID}] {
		return e.reject("transfer_shares", domain.ErrInvalidAmount)
	}
	if !e.state.compliance.IsCompliant(to, e.params.TransferKycLevel, height) {
		return e.reject("transfer_shares", domain.ErrKycRequired)
	}

	_, err := e.commit(ctx, caller, height, domain.EventSharesTransferred, domain.SharesTransferredPayload{
		AssetID: assetID,
		From:    caller,
		To:      to,
		Amount:  amount,
	})
	return err
}

// DepositRevenue credits revenue to an asset, advancing its monotonic
// accrued-revenue counter. This is the producer side of dividend accounting.
func (e *Engine) DepositRevenue(ctx context.Context, caller domain.Address, height uint64, assetID uint64, amount uint64) error {
	defer e.observe("deposit_revenue", time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.params.Registrar {
		return e.reject("deposit_revenue", domain.ErrOwnerOnly)
	}
	asset, exists := e.state.assets[assetID]
	if !exists {
		return e.reject("deposit_revenue", domain.ErrNotFound)
	}
	if amount == 0 || amount > math.MaxUint64-asset.AccruedRevenue {
		return e.reject("deposit_revenue", domain.ErrInvalidAmount)
	}

	_, err := e.commit(ctx, caller, height, domain.EventRevenueDeposited, domain.RevenueDepositedPayload{
		AssetID: assetID,
		Amount:  amount,
	})
	return err
}

// SetAssetLock changes the lock flag of an asset. Locked assets reject share
// transfers. Setting the current value is a successful no-op with no event.
func (e *Engine) SetAssetLock(ctx context.Context, caller domain.Address, height uint64, assetID uint64, locked bool) error {
	defer e.observe("set_asset_lock", time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.params.Registrar {
		return e.reject("set_asset_lock", domain.ErrOwnerOnly)
	}
	asset, exists := e.state.assets[assetID]
	if !exists {
		return e.reject("set_asset_lock", domain.ErrNotFound)
	}
	if asset.Locked == locked {
		return nil
	}

	_, err := e.commit(ctx, caller, height, domain.EventAssetLockChanged, domain.AssetLockChangedPayload{
		AssetID: assetID,
		Locked:  locked,
	})
	return err
}

// GetAssetDetails returns a copy of the asset record
func (e *Engine) GetAssetDetails(assetID uint64) (domain.Asset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	asset, exists := e.state.assets[assetID]
	if !exists {
		return domain.Asset{}, domain.ErrNotFound
	}
	return *asset, nil
}

// GetShareBalance returns the share balance of a holder for an asset.
// An unknown (holder, asset) pair is zero, never an error.
func (e *Engine) GetShareBalance(holder domain.Address, assetID uint64) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.balances[balanceKey{holder, assetID}]
}

// TotalShares sums all share balances of one asset. It exists for invariant
// checks and diagnostics; the sum equals SUPPLY_PER_ASSET for every
// tokenized asset.
func (e *Engine) TotalShares(assetID uint64) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var total uint64
	for key, amount := range e.state.balances {
		if key.assetID == assetID {
			total += amount
		}
	}
	return total
}

// reject records a rejected call and returns the error unchanged
func (e *Engine) reject(op string, err *domain.Error) error {
	if e.metrics != nil {
		e.metrics.CallsRejected.WithLabelValues(op, codeLabel(err)).Inc()
	}
	return err
}

// observe records the duration of one mutating call, rejected or committed
func (e *Engine) observe(op string, start time.Time) {
	if e.metrics != nil {
		e.metrics.CallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func codeLabel(err *domain.Error) string {
	return strconv.FormatUint(uint64(err.Code), 10)
}
