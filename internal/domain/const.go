package domain

const (
	// Ledger parameters
	SUPPLY_PER_ASSET uint64 = 100_000
	MIN_ASSET_VALUE  uint64 = 1_000
	MAX_ASSET_VALUE  uint64 = 1_000_000_000_000

	// Governance parameters
	MIN_PROPOSAL_DURATION uint64 = 12
	MAX_PROPOSAL_DURATION uint64 = 144
	// PROPOSAL_OWNERSHIP_DIVISOR gates proposal creation: the proposer must
	// hold at least SUPPLY_PER_ASSET / PROPOSAL_OWNERSHIP_DIVISOR shares
	PROPOSAL_OWNERSHIP_DIVISOR uint64 = 10

	// Compliance parameters
	MAX_KYC_LEVEL     uint32 = 5
	MAX_EXPIRY_BLOCKS uint64 = 52_560

	// Input bounds
	MAX_METADATA_URI_LENGTH = 256
	MAX_TITLE_LENGTH        = 256
)
