package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/openrwa/rwa-ledger/internal/compliance"
	"github.com/openrwa/rwa-ledger/internal/domain"
	"github.com/openrwa/rwa-ledger/internal/market"
)

type balanceKey struct {
	holder  domain.Address
	assetID uint64
}

type voteKey struct {
	proposalID uint64
	voter      domain.Address
}

type claimKey struct {
	assetID     uint64
	beneficiary domain.Address
}

// state is the in-memory fold over the event journal. All maps are keyed by
// value-semantic composite keys; nothing here is shared outside the engine.
type state struct {
	nextAssetID    uint64
	nextProposalID uint64
	nextSeq        uint64
	lastDigest     string

	assets   map[uint64]*domain.Asset
	uriIndex map[string]uint64
	balances map[balanceKey]uint64

	proposals map[uint64]*domain.Proposal
	votes     map[voteKey]domain.VoteRecord

	claims  map[claimKey]uint64
	payouts map[domain.Address]uint64

	compliance *compliance.Registry
	prices     *market.Cache
}

func newState() *state {
	return &state{
		assets:     make(map[uint64]*domain.Asset),
		uriIndex:   make(map[string]uint64),
		balances:   make(map[balanceKey]uint64),
		proposals:  make(map[uint64]*domain.Proposal),
		votes:      make(map[voteKey]domain.VoteRecord),
		claims:     make(map[claimKey]uint64),
		payouts:    make(map[domain.Address]uint64),
		compliance: compliance.NewRegistry(),
		prices:     market.NewCache(),
	}
}

// apply folds one committed event into state. It performs no validation:
// every event reaching apply was validated by the operation that built it
// (or was valid at original commit time, in the replay case).
func (s *state) apply(ev *domain.LedgerEvent) error {
	switch ev.Type {
	case domain.EventAssetTokenized:
		var p domain.AssetTokenizedPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		s.assets[p.AssetID] = &domain.Asset{
			ID:          p.AssetID,
			Owner:       p.Owner,
			MetadataURI: p.MetadataURI,
			Value:       p.Value,
			CreatedAt:   ev.Height,
		}
		s.uriIndex[p.MetadataURI] = p.AssetID
		s.balances[balanceKey{p.Owner, p.AssetID}] = p.Supply
		s.nextAssetID = p.AssetID

	case domain.EventSharesTransferred:
		var p domain.SharesTransferredPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		fromKey := balanceKey{p.From, p.AssetID}
		toKey := balanceKey{p.To, p.AssetID}
		// Transferred shares carry no entitlement to revenue accrued before
		// the transfer: the recipient's claim marker is settled to the
		// balance-weighted average of their old marker and the current
		// accrual. For a zero-balance recipient this is exactly the accrual.
		s.claims[claimKey{p.AssetID, p.To}] = settleClaimMarker(
			s.balances[toKey],
			s.claims[claimKey{p.AssetID, p.To}],
			p.Amount,
			s.assets[p.AssetID].AccruedRevenue,
		)
		s.balances[fromKey] -= p.Amount
		s.balances[toKey] += p.Amount
		if s.balances[fromKey] == 0 {
			delete(s.balances, fromKey)
		}

	case domain.EventRevenueDeposited:
		var p domain.RevenueDepositedPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		asset := s.assets[p.AssetID]
		asset.AccruedRevenue += p.Amount
		asset.UndistributedRevenue += p.Amount

	case domain.EventAssetLockChanged:
		var p domain.AssetLockChangedPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		s.assets[p.AssetID].Locked = p.Locked

	case domain.EventComplianceRecordSet:
		var p domain.ComplianceRecordSetPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		s.compliance.Set(domain.ComplianceRecord{
			Address:   p.Address,
			Approved:  p.Approved,
			Level:     p.Level,
			ExpiresAt: p.ExpiresAt,
		})

	case domain.EventPriceSet:
		var p domain.PriceSetPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		s.prices.Set(domain.MarketPrice{
			AssetID:       p.AssetID,
			Price:         p.Price,
			Decimals:      p.Decimals,
			LastUpdatedAt: ev.Height,
			Oracle:        p.Oracle,
		})
		s.assets[p.AssetID].LastPriceUpdateAt = ev.Height

	case domain.EventProposalInitiated:
		var p domain.ProposalInitiatedPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		s.proposals[p.ProposalID] = &domain.Proposal{
			ID:               p.ProposalID,
			AssetID:          p.AssetID,
			Proposer:         p.Proposer,
			Title:            p.Title,
			StartHeight:      p.StartHeight,
			EndHeight:        p.EndHeight,
			MinimumThreshold: p.MinimumThreshold,
		}
		s.nextProposalID = p.ProposalID

	case domain.EventVoteCast:
		var p domain.VoteCastPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		s.votes[voteKey{p.ProposalID, p.Voter}] = domain.VoteRecord{
			ProposalID: p.ProposalID,
			Voter:      p.Voter,
			Support:    p.Support,
			Weight:     p.Weight,
			Height:     ev.Height,
		}
		proposal := s.proposals[p.ProposalID]
		if p.Support {
			proposal.VotesFor += p.Weight
		} else {
			proposal.VotesAgainst += p.Weight
		}

	case domain.EventProposalFinalized:
		var p domain.ProposalFinalizedPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		proposal := s.proposals[p.ProposalID]
		proposal.Executed = true
		proposal.Passed = p.Passed

	case domain.EventDividendsHarvested:
		var p domain.DividendsHarvestedPayload
		if err := json.Unmarshal(ev.Payload, &p); err != nil {
			return fmt.Errorf("decode %s payload: %w", ev.Type, err)
		}
		s.claims[claimKey{p.AssetID, p.Beneficiary}] = p.NewAccrual
		s.payouts[p.Beneficiary] += p.Amount
		s.assets[p.AssetID].UndistributedRevenue -= p.Amount

	default:
		return fmt.Errorf("unknown event type %q at seq %d", ev.Type, ev.Seq)
	}

	s.nextSeq = ev.Seq
	s.lastDigest = ev.Digest
	return nil
}
