package ledger

import (
	"context"
	"math/bits"
	"time"

	"github.com/openrwa/rwa-ledger/internal/domain"
)

// HarvestDividends pays the caller their pro-rata share of revenue accrued
// since their last harvest:
//
//	amount = floor(balance * (accrued - lastClaimed) / SUPPLY_PER_ASSET)
//
// Integer division truncates toward zero; the truncated remainder stays in
// the asset's undistributed pool. The dust loss per harvest is bounded by
// one unit per SUPPLY_PER_ASSET of balance and is accepted by design.
// The claim marker advance and the payout credit commit atomically.
func (e *Engine) HarvestDividends(ctx context.Context, caller domain.Address, height uint64, assetID uint64) (uint64, error) {
	defer e.observe("harvest_dividends", time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	if !caller.Valid() {
		return 0, e.reject("harvest_dividends", domain.ErrInvalidAddress)
	}
	asset, exists := e.state.assets[assetID]
	if !exists {
		return 0, e.reject("harvest_dividends", domain.ErrNotFound)
	}
	if !e.state.compliance.IsCompliant(caller, e.params.HarvestKycLevel, height) {
		return 0, e.reject("harvest_dividends", domain.ErrKycRequired)
	}

	balance := e.state.balances[balanceKey{caller, assetID}]
	claimed := e.state.claims[claimKey{assetID, caller}]
	accrued := asset.AccruedRevenue

	amount := proRata(balance, accrued-claimed)
	// The undistributed pool caps every payout so that the sum of payouts
	// can never exceed the sum of deposits, whatever the harvest order.
	if amount > asset.UndistributedRevenue {
		amount = asset.UndistributedRevenue
	}
	if amount == 0 {
		return 0, e.reject("harvest_dividends", domain.ErrInvalidAmount)
	}

	_, err := e.commit(ctx, caller, height, domain.EventDividendsHarvested, domain.DividendsHarvestedPayload{
		AssetID:     assetID,
		Beneficiary: caller,
		Amount:      amount,
		NewAccrual:  accrued,
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// GetLastClaim returns the accrued-revenue value at the beneficiary's last
// harvest, zero if they never harvested
func (e *Engine) GetLastClaim(assetID uint64, beneficiary domain.Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.claims[claimKey{assetID, beneficiary}]
}

// GetPayoutBalance returns the total dividends credited to an address
func (e *Engine) GetPayoutBalance(addr domain.Address) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.payouts[addr]
}

// proRata computes floor(balance * delta / SUPPLY_PER_ASSET) without
// overflow. balance <= SUPPLY_PER_ASSET, so the 128-bit product's high word
// is strictly below the divisor and Div64 cannot panic.
func proRata(balance, delta uint64) uint64 {
	hi, lo := bits.Mul64(balance, delta)
	quotient, _ := bits.Div64(hi, lo, domain.SUPPLY_PER_ASSET)
	return quotient
}

// settleClaimMarker returns the claim marker of a recipient receiving amount
// shares at the given accrual:
//
//	marker = ceil((balance * oldMarker + amount * accrued) / (balance + amount))
//
// Existing shares keep their unharvested entitlement; incoming shares start
// with none. Rounding up means settlement can only shrink entitlement, never
// create it; the shrinkage is under one revenue unit per transfer and joins
// the harvest truncation dust. balance + amount <= SUPPLY_PER_ASSET and the
// markers never exceed the accrual, so the numerator's high word is strictly
// below the divisor and Div64 cannot panic.
func settleClaimMarker(balance, oldMarker, amount, accrued uint64) uint64 {
	hiOld, loOld := bits.Mul64(balance, oldMarker)
	hiNew, loNew := bits.Mul64(amount, accrued)
	lo, carry := bits.Add64(loOld, loNew, 0)
	quotient, remainder := bits.Div64(hiOld+hiNew+carry, lo, balance+amount)
	if remainder > 0 {
		quotient++
	}
	return quotient
}
