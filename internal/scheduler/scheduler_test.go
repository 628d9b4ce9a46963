package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OilTycoon/internal/catalog"
	"OilTycoon/internal/economy"
	"OilTycoon/internal/metrics"
	"OilTycoon/internal/model"
	"OilTycoon/internal/recorder"
	"OilTycoon/internal/store"
)

type fakeRecorder struct {
	recorder.NoopRecorder
	mu          sync.Mutex
	snapshots   []model.EconomySnapshot
	retirements []model.RetirementEvent
}

func (f *fakeRecorder) RecordSnapshot(snap *model.EconomySnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, *snap)
	return nil
}

func (f *fakeRecorder) RecordRetirement(evt *model.RetirementEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.retirements = append([]model.RetirementEvent{*evt}, f.retirements...)
	return nil
}

func (f *fakeRecorder) RecentRetirements(limit int) ([]model.RetirementEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.retirements) < limit {
		limit = len(f.retirements)
	}
	return f.retirements[:limit], nil
}

func newTestScheduler(t *testing.T) (*Scheduler, *store.MemoryStore, *fakeRecorder) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	st := store.NewMemoryStore()
	rec := &fakeRecorder{}
	eng := economy.New(cat, economy.Options{Store: st, Journal: rec, StartingGrant: 5})
	return NewScheduler(eng, rec, metrics.New(), nil, 5*time.Millisecond), st, rec
}

func TestHandleCommand_Purchases(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	assert.Equal(t, "Bought 1 x Gas Royalties for $2.00.", s.HandleCommand("buy 0"))
	assert.Equal(t, 1, s.Engine.Snapshot().Investments[0].Level)
	assert.Contains(t, s.HandleCommand("buy 0 5"), "Cannot afford 5 x Gas Royalties")
	assert.Equal(t, "usage: buy <idx> [n]", s.HandleCommand("buy 99"))
	assert.Equal(t, "usage: buy <idx> [n]", s.HandleCommand("buy 0 -2"))

	assert.Equal(t, "Gas Royalties started (2.0s).", s.HandleCommand("/start 0"))
	assert.Equal(t, "Gas Royalties cannot start right now.", s.HandleCommand("start 0"), "already running")

	assert.Equal(t, "Cannot afford a manager for Gas Royalties ($1K).", s.HandleCommand("manager 0"))
	assert.Contains(t, s.HandleCommand("hire advisor"), "Cannot afford the advisor")
	assert.Contains(t, s.HandleCommand("hire janitor"), "usage: hire")
	assert.Contains(t, s.HandleCommand("upgrade 12345"), "Unknown upgrade")
	assert.Contains(t, s.HandleCommand("upgrade 0"), "Cannot buy")
}

func TestHandleCommand_Target(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	assert.Contains(t, s.HandleCommand("target advisor 3"), "advisor now works on")
	snap := s.Engine.Snapshot()
	assert.Equal(t, 3, snap.Specialist(model.KindAdvisor).Target)
	assert.Equal(t, "usage: target <kind> <idx>", s.HandleCommand("target advisor 99"))
	assert.Equal(t, "usage: target <kind> <idx>", s.HandleCommand("target boss 1"))
}

func TestHandleCommand_Status(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	out := s.HandleCommand("status")
	assert.Contains(t, out, "Balance:    $5.00")
	assert.Contains(t, out, "Gas Royalties")
	assert.Contains(t, s.HandleCommand(""), "Commands:")
	assert.Contains(t, s.HandleCommand("dance"), "Commands:")
}

func TestHandleCommand_RetireAndHistory(t *testing.T) {
	s, _, rec := newTestScheduler(t)

	assert.Equal(t, "No retirements yet.", s.HandleCommand("history"))
	assert.Equal(t, "Retiring now would not raise the multiplier (x1.00).", s.HandleCommand("retire"))
	assert.Empty(t, rec.retirements)

	rec.retirements = append(rec.retirements, model.RetirementEvent{
		RunEarnings: 1e12, MultiplierBefore: 1, MultiplierAfter: 2, RunDurationMs: 60_000,
	})
	assert.Equal(t, "Retired after 1.0m with $1T earned. Multiplier x1.00 -> x2.00.", s.HandleCommand("history"))
}

func TestHandleCommand_RetireWhenWorthwhile(t *testing.T) {
	s, st, rec := newTestScheduler(t)
	ctx := context.Background()
	require.NoError(t, st.Save(ctx, []byte(`{"investments":[],"balance":1e11,"run_earnings":1e11}`)))
	_, err := s.Engine.Load(ctx)
	require.NoError(t, err)
	require.True(t, s.Engine.CanRetire())

	assert.Contains(t, s.HandleCommand("retire"), "Retired after")
	require.Len(t, rec.retirements, 1)
	assert.Equal(t, 1e11, rec.retirements[0].RunEarnings)
	assert.Equal(t, 5.0, s.Engine.Snapshot().Balance)
	assert.Equal(t, 1e11, s.Engine.Snapshot().PriorEarnings)
}

func TestHandleCommand_Save(t *testing.T) {
	s, st, _ := newTestScheduler(t)
	assert.Equal(t, "Saved.", s.HandleCommand("save"))
	_, ok, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestTick_FeedsEngine(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	require.True(t, s.Engine.BuyInvestment(0, 1))
	require.True(t, s.Engine.StartProduction(0))

	report := s.tick(2 * time.Second)
	assert.Equal(t, 1, report.Cycles)
	assert.Greater(t, s.Engine.Snapshot().Balance, 3.0)
}

func TestRunSnapshotNow(t *testing.T) {
	s, _, rec := newTestScheduler(t)
	fixed := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time { return fixed }

	s.RunSnapshotNow()
	require.Len(t, rec.snapshots, 1)
	snap := rec.snapshots[0]
	assert.Equal(t, s.Engine.Snapshot().RunID, snap.RunID)
	assert.Equal(t, 5.0, snap.Balance)
	assert.Equal(t, 1.0, snap.Multiplier)
	assert.Equal(t, fixed.UnixMilli(), snap.At)
}

func TestRegisterAll(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	require.NoError(t, s.RegisterAll("0 */5 * * * *", "0 0 * * * *"))
	assert.Len(t, s.Cron.Entries(), 2)
	assert.Error(t, s.RegisterAll("not a cron", "0 0 * * * *"))
}

func TestStartStop(t *testing.T) {
	s, st, _ := newTestScheduler(t)
	var ticks atomic.Int32
	s.Engine.Subscribe(func() { ticks.Add(1) })

	s.Start(context.Background())
	require.Eventually(t, func() bool { return ticks.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()

	_, ok, err := st.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok, "stop saves the final state")
}
