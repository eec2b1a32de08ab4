package ledger

import (
	"context"
	"time"

	"github.com/openrwa/rwa-ledger/internal/domain"
)

// InitiateProposal opens a governance proposal over an asset. The proposer
// must hold at least SUPPLY_PER_ASSET / PROPOSAL_OWNERSHIP_DIVISOR shares of
// the asset. Proposal ids are allocated from a strictly monotonic counter.
func (e *Engine) InitiateProposal(ctx context.Context, caller domain.Address, height uint64, assetID uint64, title string, durationBlocks uint64, minimumThreshold uint64) (uint64, error) {
	defer e.observe("initiate_proposal", time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	if !caller.Valid() {
		return 0, e.reject("initiate_proposal", domain.ErrInvalidAddress)
	}
	if len(title) < 1 || len(title) > domain.MAX_TITLE_LENGTH {
		return 0, e.reject("initiate_proposal", domain.ErrInvalidTitle)
	}
	if durationBlocks < domain.MIN_PROPOSAL_DURATION || durationBlocks > domain.MAX_PROPOSAL_DURATION {
		return 0, e.reject("initiate_proposal", domain.ErrInvalidDuration)
	}
	if minimumThreshold == 0 || minimumThreshold > domain.SUPPLY_PER_ASSET {
		return 0, e.reject("initiate_proposal", domain.ErrInvalidVotes)
	}
	if _, exists := e.state.assets[assetID]; !exists {
		return 0, e.reject("initiate_proposal", domain.ErrNotFound)
	}
	ownershipGate := domain.SUPPLY_PER_ASSET / domain.PROPOSAL_OWNERSHIP_DIVISOR
	if e.state.balances[balanceKey{caller, assetID}] < ownershipGate {
		return 0, e.reject("initiate_proposal", domain.ErrNotAuthorized)
	}

	proposalID := e.state.nextProposalID + 1
	_, err := e.commit(ctx, caller, height, domain.EventProposalInitiated, domain.ProposalInitiatedPayload{
		ProposalID:       proposalID,
		AssetID:          assetID,
		Proposer:         caller,
		Title:            title,
		StartHeight:      height,
		EndHeight:        height + durationBlocks,
		MinimumThreshold: minimumThreshold,
	})
	if err != nil {
		return 0, err
	}
	return proposalID, nil
}

// CastVote records one immutable weighted vote on an open proposal. The
// weight is captured at cast time and never recomputed: later balance
// changes do not touch recorded tallies.
func (e *Engine) CastVote(ctx context.Context, voter domain.Address, height uint64, proposalID uint64, support bool, weight uint64) error {
	defer e.observe("cast_vote", time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	if !voter.Valid() {
		return e.reject("cast_vote", domain.ErrInvalidAddress)
	}
	proposal, exists := e.state.proposals[proposalID]
	if !exists {
		return e.reject("cast_vote", domain.ErrNotFound)
	}
	if height >= proposal.EndHeight {
		return e.reject("cast_vote", domain.ErrVoteEnded)
	}
	if _, voted := e.state.votes[voteKey{proposalID, voter}]; voted {
		return e.reject("cast_vote", domain.ErrVoteExists)
	}
	if !e.state.compliance.IsCompliant(voter, e.params.VoteKycLevel, height) {
		return e.reject("cast_vote", domain.ErrKycRequired)
	}
	if weight == 0 {
		return e.reject("cast_vote", domain.ErrInvalidVotes)
	}
	if weight > e.state.balances[balanceKey{voter, proposal.AssetID}] {
		return e.reject("cast_vote", domain.ErrInvalidAmount)
	}

	_, err := e.commit(ctx, voter, height, domain.EventVoteCast, domain.VoteCastPayload{
		ProposalID: proposalID,
		Voter:      voter,
		Support:    support,
		Weight:     weight,
	})
	return err
}

// Finalize performs the terminal Closed -> Finalized transition of a
// proposal and evaluates the outcome. The threshold is inclusive:
// votesFor == minimumThreshold passes (ties pass). Finalization is
// permissionless but happens exactly once; a second call fails with
// AlreadyExecuted.
func (e *Engine) Finalize(ctx context.Context, caller domain.Address, height uint64, proposalID uint64) (bool, error) {
	defer e.observe("finalize", time.Now())
	e.mu.Lock()
	defer e.mu.Unlock()

	if !caller.Valid() {
		return false, e.reject("finalize", domain.ErrInvalidAddress)
	}
	proposal, exists := e.state.proposals[proposalID]
	if !exists {
		return false, e.reject("finalize", domain.ErrNotFound)
	}
	if proposal.Executed {
		return false, e.reject("finalize", domain.ErrAlreadyExecuted)
	}
	if height < proposal.EndHeight {
		return false, e.reject("finalize", domain.ErrNotAuthorized)
	}

	passed := proposal.VotesFor >= proposal.MinimumThreshold
	_, err := e.commit(ctx, caller, height, domain.EventProposalFinalized, domain.ProposalFinalizedPayload{
		ProposalID:   proposalID,
		Passed:       passed,
		VotesFor:     proposal.VotesFor,
		VotesAgainst: proposal.VotesAgainst,
	})
	if err != nil {
		return false, err
	}
	return passed, nil
}

// GetProposalDetails returns a copy of the proposal record
func (e *Engine) GetProposalDetails(proposalID uint64) (domain.Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	proposal, exists := e.state.proposals[proposalID]
	if !exists {
		return domain.Proposal{}, domain.ErrNotFound
	}
	return *proposal, nil
}

// GetVoteRecord returns the recorded vote of a voter on a proposal
func (e *Engine) GetVoteRecord(proposalID uint64, voter domain.Address) (domain.VoteRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	record, exists := e.state.votes[voteKey{proposalID, voter}]
	if !exists {
		return domain.VoteRecord{}, domain.ErrNotFound
	}
	return record, nil
}
