package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openrwa/rwa-ledger/internal/domain"
	"github.com/openrwa/rwa-ledger/internal/ledger"
	"github.com/openrwa/rwa-ledger/internal/store/schema"
)

// replayBatchSize bounds rows held in memory during journal replay
const replayBatchSize = 500

type pgJournal struct {
	db *gorm.DB
}

// NewPGJournal creates a PostgreSQL-backed ledger journal
func NewPGJournal(db *gorm.DB) ledger.Journal {
	return &pgJournal{db: db}
}

// Migrate creates or updates the journal schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&schema.LedgerEvent{}); err != nil {
		return fmt.Errorf("failed to migrate journal schema: %w", err)
	}
	return nil
}

// Append durably stores one committed event. The single-row insert is atomic;
// the unique digest and primary-key seq reject any attempt to double-commit.
func (j *pgJournal) Append(ctx context.Context, event *domain.LedgerEvent) error {
	row := schema.LedgerEvent{
		Seq:        event.Seq,
		EventID:    event.ID,
		Type:       string(event.Type),
		Height:     event.Height,
		Caller:     string(event.Caller),
		Payload:    datatypes.JSON(event.Payload),
		PrevDigest: event.PrevDigest,
		Digest:     event.Digest,
		Timestamp:  event.Timestamp,
	}
	if err := j.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to append event seq %d: %w", event.Seq, err)
	}
	return nil
}

// Replay streams stored events to fn in ascending seq order
func (j *pgJournal) Replay(ctx context.Context, fn func(event *domain.LedgerEvent) error) error {
	var rows []schema.LedgerEvent
	var callbackErr error

	result := j.db.WithContext(ctx).
		Order("seq ASC").
		FindInBatches(&rows, replayBatchSize, func(_ *gorm.DB, _ int) error {
			for i := range rows {
				if err := fn(rowToEvent(&rows[i])); err != nil {
					callbackErr = err
					return err
				}
			}
			return nil
		})
	if callbackErr != nil {
		return callbackErr
	}
	if result.Error != nil {
		return fmt.Errorf("failed to replay journal: %w", result.Error)
	}
	return nil
}

func rowToEvent(row *schema.LedgerEvent) *domain.LedgerEvent {
	return &domain.LedgerEvent{
		ID:         row.EventID,
		Seq:        row.Seq,
		Type:       domain.EventType(row.Type),
		Height:     row.Height,
		Caller:     domain.Address(row.Caller),
		Payload:    json.RawMessage(row.Payload),
		PrevDigest: row.PrevDigest,
		Digest:     row.Digest,
		Timestamp:  row.Timestamp,
	}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to reasonable defaults:
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}
