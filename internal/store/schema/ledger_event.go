package schema

import (
	"time"

	"gorm.io/datatypes"
)

// LedgerEvent represents the ledger_events table - the append-only journal of
// committed state transitions. Rows are only ever inserted; Seq is the
// engine-assigned monotonic sequence number, not a database autoincrement.
type LedgerEvent struct {
	// Seq is the journal sequence number, assigned by the engine starting at 1
	Seq uint64 `gorm:"column:seq;primaryKey;autoIncrement:false"`
	// EventID is the ULID of the event
	EventID string `gorm:"column:event_id;not null;uniqueIndex;type:text"`
	// Type discriminates the payload (e.g. "asset.tokenized")
	Type string `gorm:"column:type;not null;type:text;index"`
	// Height is the block height the call executed at
	Height uint64 `gorm:"column:height;not null"`
	// Caller is the principal that submitted the call
	Caller string `gorm:"column:caller;not null;type:text;index"`
	// Payload is the JCS-canonicalized event payload
	Payload datatypes.JSON `gorm:"column:payload;not null"`
	// PrevDigest chains the event to its predecessor (empty for Seq 1)
	PrevDigest string `gorm:"column:prev_digest;not null;type:text"`
	// Digest is the chained SHA-256 digest of the event
	Digest string `gorm:"column:digest;not null;uniqueIndex;type:text"`
	// Timestamp is the wall-clock commit time recorded by the engine
	Timestamp time.Time `gorm:"column:timestamp;not null;type:timestamptz"`
	// CreatedAt is the row insertion time
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the LedgerEvent model
func (LedgerEvent) TableName() string {
	return "ledger_events"
}
