package ledger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/openrwa/rwa-ledger/internal/adapter"
	"github.com/openrwa/rwa-ledger/internal/domain"
	"github.com/openrwa/rwa-ledger/internal/logger"
	"github.com/openrwa/rwa-ledger/internal/messaging"
	"github.com/openrwa/rwa-ledger/internal/metrics"
)

// Params holds the designated principals and compliance gate levels of one
// ledger instance. They are fixed at construction and never change at runtime.
type Params struct {
	// Registrar is the single principal allowed to tokenize assets, deposit
	// revenue, and change asset locks
	Registrar domain.Address
	// Attestor is the principal allowed to write compliance records
	Attestor domain.Address
	// Oracle is the principal allowed to set market prices
	Oracle domain.Address
	// VoteKycLevel is the compliance level required to cast a vote
	VoteKycLevel uint32
	// TransferKycLevel is the compliance level a share recipient must hold
	TransferKycLevel uint32
	// HarvestKycLevel is the compliance level required to harvest dividends
	HarvestKycLevel uint32
}

// Validate checks the principal addresses and gate levels
func (p Params) Validate() error {
	if !p.Registrar.Valid() {
		return fmt.Errorf("registrar: %w", domain.ErrInvalidAddress)
	}
	if !p.Attestor.Valid() {
		return fmt.Errorf("attestor: %w", domain.ErrInvalidAddress)
	}
	if !p.Oracle.Valid() {
		return fmt.Errorf("oracle: %w", domain.ErrInvalidAddress)
	}
	for _, level := range []uint32{p.VoteKycLevel, p.TransferKycLevel, p.HarvestKycLevel} {
		if level > domain.MAX_KYC_LEVEL {
			return fmt.Errorf("gate level %d: %w", level, domain.ErrInvalidKycLevel)
		}
	}
	return nil
}

// Engine is the deterministic ledger core. Every public operation takes the
// caller principal and the current block height explicitly, runs as one
// serialized atomic call, and either commits exactly one journal event or
// returns a tagged error with zero state mutation.
type Engine struct {
	mu sync.Mutex

	params    Params
	journal   Journal
	publisher messaging.Publisher
	metrics   *metrics.Metrics
	jcs       adapter.JCS
	clock     adapter.Clock

	state *state
}

// Option configures an Engine
type Option func(*Engine)

// WithPublisher attaches a broker publisher for committed events
func WithPublisher(p messaging.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics attaches Prometheus metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides the wall clock used for event timestamps
func WithClock(c adapter.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an engine with empty state. Call Load to rebuild state from the
// journal before serving operations.
func New(params Params, journal Journal, opts ...Option) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger params: %w", err)
	}
	if journal == nil {
		return nil, fmt.Errorf("journal is required")
	}

	e := &Engine{
		params:  params,
		journal: journal,
		jcs:     adapter.NewJCS(),
		clock:   adapter.NewClock(),
		state:   newState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Params returns the engine parameters
func (e *Engine) Params() Params {
	return e.params
}

// Load rebuilds in-memory state by replaying the journal in sequence order.
// The digest chain is verified during replay; a broken chain aborts the load.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.nextSeq != 0 {
		return fmt.Errorf("load on non-empty state (seq %d)", e.state.nextSeq)
	}

	err := e.journal.Replay(ctx, func(ev *domain.LedgerEvent) error {
		if ev.Seq != e.state.nextSeq+1 {
			return fmt.Errorf("journal gap: expected seq %d, got %d", e.state.nextSeq+1, ev.Seq)
		}
		if ev.PrevDigest != e.state.lastDigest {
			return fmt.Errorf("digest chain broken at seq %d", ev.Seq)
		}
		if eventDigest(ev.PrevDigest, ev.Seq, ev.Type, ev.Payload) != ev.Digest {
			return fmt.Errorf("digest mismatch at seq %d", ev.Seq)
		}
		return e.state.apply(ev)
	})
	if err != nil {
		return fmt.Errorf("journal replay: %w", err)
	}

	logger.Info("ledger state loaded",
		zap.Uint64("seq", e.state.nextSeq),
		zap.Uint64("assets", e.state.nextAssetID),
		zap.Uint64("proposals", e.state.nextProposalID),
	)
	return nil
}

// Seq returns the latest committed journal sequence number
func (e *Engine) Seq() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.nextSeq
}

// LastDigest returns the digest of the latest committed event
func (e *Engine) LastDigest() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.lastDigest
}

// commit canonicalizes the payload, chains and appends the event, folds it
// into state, and emits it. The caller must hold e.mu and must have fully
// validated the operation: once the journal append succeeds the event is
// committed and apply cannot fail.
func (e *Engine) commit(ctx context.Context, caller domain.Address, height uint64, typ domain.EventType, payload any) (*domain.LedgerEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", typ, err)
	}
	canonical, err := e.jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize %s payload: %w", typ, err)
	}

	seq := e.state.nextSeq + 1
	ev := &domain.LedgerEvent{
		ID:         ulid.Make().String(),
		Seq:        seq,
		Type:       typ,
		Height:     height,
		Caller:     caller,
		Payload:    canonical,
		PrevDigest: e.state.lastDigest,
		Digest:     eventDigest(e.state.lastDigest, seq, typ, canonical),
		Timestamp:  e.clock.Now().UTC(),
	}

	if err := e.journal.Append(ctx, ev); err != nil {
		return nil, fmt.Errorf("journal append: %w", err)
	}
	if err := e.state.apply(ev); err != nil {
		// The event is durable but state diverged; this is unrecoverable
		// without a restart and replay.
		logger.Error(err, zap.Uint64("seq", ev.Seq), zap.String("type", string(ev.Type)))
		return nil, fmt.Errorf("apply committed event: %w", err)
	}

	if e.metrics != nil {
		e.metrics.EventsCommitted.WithLabelValues(string(typ)).Inc()
		e.metrics.JournalSeq.Set(float64(ev.Seq))
	}
	e.emit(ctx, ev)
	return ev, nil
}

// emit hands the committed event to the broker publisher. Delivery failures
// are logged and dropped: the journal already holds the event.
func (e *Engine) emit(ctx context.Context, ev *domain.LedgerEvent) {
	if e.publisher == nil {
		return
	}
	if err := e.publisher.PublishEvent(ctx, ev); err != nil {
		logger.Error(err,
			zap.String("event_id", ev.ID),
			zap.String("event_type", string(ev.Type)),
		)
	}
}

// eventDigest computes the chained SHA-256 digest of an event
func eventDigest(prevDigest string, seq uint64, typ domain.EventType, canonicalPayload []byte) string {
	h := sha256.New()
	h.Write([]byte(prevDigest))
	var seqBuf [8]byte
	binary.BigEndian.PutUint64(seqBuf[:], seq)
	h.Write(seqBuf[:])
	h.Write([]byte(typ))
	h.Write(canonicalPayload)
	return hex.EncodeToString(h.Sum(nil))
}
