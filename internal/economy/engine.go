// Package economy owns the simulation state and every rule that mutates it.
//
// All mutation happens under one mutex: a tick and a command never interleave.
// Observers are notified after the lock is released and must not call back
// into mutating methods from the callback.
package economy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"OilTycoon/internal/catalog"
	"OilTycoon/internal/model"
)

const (
	DefaultStartingGrant    = 5.0
	DefaultAutosaveInterval = 10 * time.Second
	DefaultOfflineCap       = 24 * time.Hour
	DefaultOfflineMinGap    = time.Second

	// persistTimeout bounds store writes issued from Tick and Retire.
	persistTimeout = 5 * time.Second
)

// Store moves snapshot bytes. Load reports false when nothing was saved.
type Store interface {
	Load(ctx context.Context) ([]byte, bool, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// Journal receives a record of every balance-changing event.
type Journal interface {
	RecordPurchase(evt *model.PurchaseEvent) error
	RecordCatchUp(evt *model.CatchUpEvent) error
	RecordRetirement(evt *model.RetirementEvent) error
}

// Journals fans one event out to several journals.
type Journals []Journal

func (js Journals) RecordPurchase(evt *model.PurchaseEvent) error {
	var errs []error
	for _, j := range js {
		errs = append(errs, j.RecordPurchase(evt))
	}
	return errors.Join(errs...)
}

func (js Journals) RecordCatchUp(evt *model.CatchUpEvent) error {
	var errs []error
	for _, j := range js {
		errs = append(errs, j.RecordCatchUp(evt))
	}
	return errors.Join(errs...)
}

func (js Journals) RecordRetirement(evt *model.RetirementEvent) error {
	var errs []error
	for _, j := range js {
		errs = append(errs, j.RecordRetirement(evt))
	}
	return errors.Join(errs...)
}

// Options configures an Engine. Zero durations take the package defaults.
type Options struct {
	Store            Store
	Journal          Journal
	Clock            Clock
	Logger           *log.Logger
	StartingGrant    float64
	AutosaveInterval time.Duration
	OfflineCap       time.Duration
	OfflineMinGap    time.Duration
}

type observer struct {
	id int
	fn func()
}

// Engine runs the economy for one catalog.
type Engine struct {
	mu    sync.Mutex
	cat   *catalog.Catalog
	state *model.EconomyState

	store   Store
	journal Journal
	clock   Clock
	logger  *log.Logger

	grant      float64
	autosaveMs int64
	capMs      int64
	minGapMs   int64

	// saveSeq numbers encoded snapshots under mu. persistMu orders writes to
	// the store; persistedSeq is the newest snapshot written or cleared.
	saveSeq      uint64
	persistMu    sync.Mutex
	persistedSeq uint64

	obsMu     sync.Mutex
	observers []observer
	nextObs   int
}

// New creates an Engine holding a fresh state. Call Load to restore a save.
func New(cat *catalog.Catalog, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = DefaultAutosaveInterval
	}
	if opts.OfflineCap <= 0 {
		opts.OfflineCap = DefaultOfflineCap
	}
	if opts.OfflineMinGap <= 0 {
		opts.OfflineMinGap = DefaultOfflineMinGap
	}

	e := &Engine{
		cat:        cat,
		store:      opts.Store,
		journal:    opts.Journal,
		clock:      opts.Clock,
		logger:     opts.Logger,
		grant:      opts.StartingGrant,
		autosaveMs: opts.AutosaveInterval.Milliseconds(),
		capMs:      opts.OfflineCap.Milliseconds(),
		minGapMs:   opts.OfflineMinGap.Milliseconds(),
	}
	e.state = e.freshState(e.clock.NowMs())
	return e
}

// Load restores the persisted state and applies catch-up for the time spent
// away. An unreadable save is discarded in favour of a fresh state; a store
// failure is returned.
func (e *Engine) Load(ctx context.Context) (CatchUpReport, error) {
	var restored *model.EconomyState
	if e.store != nil {
		data, ok, err := e.store.Load(ctx)
		if err != nil {
			return CatchUpReport{}, fmt.Errorf("load save: %w", err)
		}
		if ok {
			restored, err = decodeSnapshot(data)
			if err != nil {
				e.logger.Warn("discarding unreadable save, starting fresh", "err", err)
				restored = nil
			}
		}
	}

	e.mu.Lock()
	now := e.clock.NowMs()
	var report CatchUpReport
	if restored == nil {
		e.state = e.freshState(now)
	} else {
		e.migrate(restored, now)
		e.state = restored
		report = e.catchUp(now-restored.LastSavedAt, now)
	}
	runID := e.state.RunID
	balance := e.state.Balance
	e.mu.Unlock()

	if restored == nil {
		e.logger.Info("started fresh economy", "run", runID, "balance", balance)
	} else {
		e.logger.Info("restored economy", "run", runID, "balance", balance,
			"offline", report.Simulated, "credited", report.Credited)
	}
	if report.Cycles > 0 {
		e.recordCatchUp(report)
	}
	e.notify()
	return report, nil
}

// Save persists the current state immediately.
func (e *Engine) Save(ctx context.Context) error {
	e.mu.Lock()
	e.state.LastSavedAt = e.clock.NowMs()
	snap, err := e.encodeLocked()
	e.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return e.persist(ctx, snap)
}

// HardReset erases the persisted save and starts a fresh run. Snapshots
// encoded before the reset are never written afterwards.
func (e *Engine) HardReset(ctx context.Context) error {
	e.persistMu.Lock()
	if e.store != nil {
		if err := e.store.Clear(ctx); err != nil {
			e.persistMu.Unlock()
			return fmt.Errorf("clear save: %w", err)
		}
	}
	e.mu.Lock()
	e.state = e.freshState(e.clock.NowMs())
	e.saveSeq++
	e.persistedSeq = e.saveSeq
	runID := e.state.RunID
	e.mu.Unlock()
	e.persistMu.Unlock()

	e.logger.Info("economy hard reset", "run", runID)
	e.notify()
	return nil
}

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() model.EconomyState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Clone()
}

// Catalog returns the definition tables the engine runs on.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.cat
}

// Subscribe registers fn to run after every state change and returns a
// function that removes it.
func (e *Engine) Subscribe(fn func()) (unsubscribe func()) {
	e.obsMu.Lock()
	id := e.nextObs
	e.nextObs++
	e.observers = append(e.observers, observer{id: id, fn: fn})
	e.obsMu.Unlock()

	return func() {
		e.obsMu.Lock()
		defer e.obsMu.Unlock()
		for i, o := range e.observers {
			if o.id == id {
				e.observers = append(e.observers[:i], e.observers[i+1:]...)
				return
			}
		}
	}
}

func (e *Engine) notify() {
	e.obsMu.Lock()
	fns := make([]func(), len(e.observers))
	for i, o := range e.observers {
		fns[i] = o.fn
	}
	e.obsMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// snapshot is an encoded state tagged with the order it was taken in.
type snapshot struct {
	seq  uint64
	data []byte
}

// encodeLocked encodes the current state. Callers hold mu.
func (e *Engine) encodeLocked() (snapshot, error) {
	data, err := encodeSnapshot(e.state)
	if err != nil {
		return snapshot{}, err
	}
	e.saveSeq++
	return snapshot{seq: e.saveSeq, data: data}, nil
}

// persist writes snap unless a newer snapshot already reached the store.
func (e *Engine) persist(ctx context.Context, snap snapshot) error {
	if e.store == nil {
		return nil
	}
	e.persistMu.Lock()
	defer e.persistMu.Unlock()
	if snap.seq <= e.persistedSeq {
		e.logger.Debug("dropping stale snapshot", "seq", snap.seq, "persisted", e.persistedSeq)
		return nil
	}
	if err := e.store.Save(ctx, snap.data); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	e.persistedSeq = snap.seq
	return nil
}

// persistDetached writes snap with a bounded context for callers that have none.
func (e *Engine) persistDetached(snap snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	return e.persist(ctx, snap)
}

func (e *Engine) recordPurchase(evt *model.PurchaseEvent) {
	if e.journal == nil {
		return
	}
	if err := e.journal.RecordPurchase(evt); err != nil {
		e.logger.Warn("journal purchase failed", "kind", evt.Kind, "err", err)
	}
}

func (e *Engine) recordCatchUp(r CatchUpReport) {
	if e.journal == nil {
		return
	}
	evt := &model.CatchUpEvent{
		RunID:    r.RunID,
		GapMs:    r.Gap.Milliseconds(),
		Cycles:   r.Cycles,
		Credited: r.Credited,
		At:       r.At,
	}
	if err := e.journal.RecordCatchUp(evt); err != nil {
		e.logger.Warn("journal catch-up failed", "err", err)
	}
}

func (e *Engine) recordRetirement(evt *model.RetirementEvent) {
	if e.journal == nil {
		return
	}
	if err := e.journal.RecordRetirement(evt); err != nil {
		e.logger.Warn("journal retirement failed", "err", err)
	}
}
