package domain

import "fmt"

// Code is a stable numeric error code surfaced to callers.
// Codes are part of the external interface and must never be renumbered.
type Code uint32

const (
	CodeOwnerOnly Code = iota + 100
	CodeNotFound
	CodeAlreadyListed
	CodeInvalidAmount
	CodeNotAuthorized
	CodeKycRequired
	CodeVoteExists
	CodeVoteEnded
	CodePriceExpired
	CodeInvalidURI
	CodeInvalidValue
	CodeInvalidDuration
	CodeInvalidKycLevel
	CodeInvalidExpiry
	CodeInvalidVotes
	CodeInvalidAddress
	CodeInvalidTitle
	CodeAlreadyExecuted
)

// Error is a tagged, call-local ledger error. A returned Error guarantees the
// call mutated nothing.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

var (
	// ErrOwnerOnly is returned when a privileged operation is attempted by the wrong principal
	ErrOwnerOnly = &Error{CodeOwnerOnly, "caller is not the designated principal"}

	// ErrNotFound is returned when the referenced entity does not exist
	ErrNotFound = &Error{CodeNotFound, "entity not found"}

	// ErrAlreadyListed is returned when tokenizing a metadata URI that is already registered
	ErrAlreadyListed = &Error{CodeAlreadyListed, "asset already listed"}

	// ErrInvalidAmount is returned when an amount is zero, exceeds a balance, or rounds to nothing
	ErrInvalidAmount = &Error{CodeInvalidAmount, "invalid amount"}

	// ErrNotAuthorized is returned when the caller fails an authorization precondition
	ErrNotAuthorized = &Error{CodeNotAuthorized, "not authorized"}

	// ErrKycRequired is returned when the caller lacks a valid compliance attestation
	ErrKycRequired = &Error{CodeKycRequired, "compliance attestation required"}

	// ErrVoteExists is returned on a second vote by the same voter on the same proposal
	ErrVoteExists = &Error{CodeVoteExists, "vote already recorded"}

	// ErrVoteEnded is returned when voting on a proposal past its end height
	ErrVoteEnded = &Error{CodeVoteEnded, "voting period ended"}

	// ErrPriceExpired is returned when a cached price is older than the staleness window
	ErrPriceExpired = &Error{CodePriceExpired, "price expired"}

	// ErrInvalidURI is returned when a metadata URI is empty or too long
	ErrInvalidURI = &Error{CodeInvalidURI, "invalid metadata URI"}

	// ErrInvalidValue is returned when an asset value is out of bounds
	ErrInvalidValue = &Error{CodeInvalidValue, "asset value out of bounds"}

	// ErrInvalidDuration is returned when a proposal duration is out of bounds
	ErrInvalidDuration = &Error{CodeInvalidDuration, "proposal duration out of bounds"}

	// ErrInvalidKycLevel is returned when a compliance level exceeds the maximum
	ErrInvalidKycLevel = &Error{CodeInvalidKycLevel, "compliance level out of bounds"}

	// ErrInvalidExpiry is returned when a compliance expiry height is out of bounds
	ErrInvalidExpiry = &Error{CodeInvalidExpiry, "expiry height out of bounds"}

	// ErrInvalidVotes is returned when a vote weight or threshold is zero or out of bounds
	ErrInvalidVotes = &Error{CodeInvalidVotes, "invalid vote weight"}

	// ErrInvalidAddress is returned when an address is not a well-formed hex address
	ErrInvalidAddress = &Error{CodeInvalidAddress, "invalid address"}

	// ErrInvalidTitle is returned when a proposal title is empty or too long
	ErrInvalidTitle = &Error{CodeInvalidTitle, "invalid title"}

	// ErrAlreadyExecuted is returned when finalizing a proposal a second time
	ErrAlreadyExecuted = &Error{CodeAlreadyExecuted, "proposal already executed"}
)
