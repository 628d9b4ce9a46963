package economy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OilTycoon/internal/catalog"
	"OilTycoon/internal/model"
)

const startMs = int64(1_700_000_000_000)

type fakeClock struct{ now int64 }

func (c *fakeClock) NowMs() int64 { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now += d.Milliseconds() }

type memStore struct {
	data    []byte
	loadErr error
	saves   int
	cleared bool
}

func (s *memStore) Load(context.Context) ([]byte, bool, error) {
	if s.loadErr != nil {
		return nil, false, s.loadErr
	}
	if s.data == nil {
		return nil, false, nil
	}
	return s.data, true, nil
}

func (s *memStore) Save(_ context.Context, data []byte) error {
	s.data = append([]byte(nil), data...)
	s.saves++
	return nil
}

func (s *memStore) Clear(context.Context) error {
	s.data = nil
	s.cleared = true
	return nil
}

type fakeJournal struct {
	purchases   []model.PurchaseEvent
	catchUps    []model.CatchUpEvent
	retirements []model.RetirementEvent
}

func (j *fakeJournal) RecordPurchase(evt *model.PurchaseEvent) error {
	j.purchases = append(j.purchases, *evt)
	return nil
}

func (j *fakeJournal) RecordCatchUp(evt *model.CatchUpEvent) error {
	j.catchUps = append(j.catchUps, *evt)
	return nil
}

func (j *fakeJournal) RecordRetirement(evt *model.RetirementEvent) error {
	j.retirements = append(j.retirements, *evt)
	return nil
}

// testCatalog has two investments: a 10s well paying 100 per level and a
// 20s rig paying 1000 per level.
func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{
		Investments: []model.InvestmentDefinition{
			{Name: "Well", BaseCost: 5, Growth: 1.15, BaseDurationMs: 10_000, RevenueBasis: 100},
			{Name: "Rig", BaseCost: 50, Growth: 1.15, BaseDurationMs: 20_000, RevenueBasis: 1000},
		},
		Upgrades: []model.UpgradeDefinition{
			{ID: 1, Name: "Pumps", Target: 0, Cost: 100, Multiplier: 3},
			{ID: 2, Name: "Global", Target: model.AllInvestments, Cost: 1000, Multiplier: 2},
		},
		Achievements: []model.AchievementDefinition{
			{ID: 1, Name: "Ten Wells", Target: 0, Threshold: 10, Reward: 3},
			{ID: 2, Name: "Everywhere", Target: model.AllInvestments, Threshold: 5, Reward: 0.5},
		},
		Specialists: []model.SpecialistDefinition{
			{Kind: model.KindAdvisor, Name: "Advisor", BaseCost: 10_000},
			{Kind: model.KindEfficiency, Name: "Efficiency", BaseCost: 10_000, DefaultTarget: 1},
			{Kind: model.KindConsultant, Name: "Consultant", BaseCost: 100_000_000},
			{Kind: model.KindNegotiator, Name: "Negotiator", BaseCost: 100_000_000},
		},
	}
}

type harness struct {
	engine  *Engine
	clock   *fakeClock
	store   *memStore
	journal *fakeJournal
}

func newHarness(t *testing.T, grant float64) *harness {
	t.Helper()
	h := &harness{
		clock:   &fakeClock{now: startMs},
		store:   &memStore{},
		journal: &fakeJournal{},
	}
	h.engine = New(testCatalog(), Options{
		Store:         h.store,
		Journal:       h.journal,
		Clock:         h.clock,
		StartingGrant: grant,
	})
	return h
}

// reopen builds a second engine over the same store and clock.
func (h *harness) reopen(grant float64) *Engine {
	return New(testCatalog(), Options{
		Store:         h.store,
		Journal:       h.journal,
		Clock:         h.clock,
		StartingGrant: grant,
	})
}

func TestNew_FreshState(t *testing.T) {
	h := newHarness(t, DefaultStartingGrant)
	s := h.engine.Snapshot()

	assert.Equal(t, 5.0, s.Balance)
	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, startMs, s.RunStartedAt)
	require.Len(t, s.Investments, 2)
	for _, inv := range s.Investments {
		assert.Equal(t, model.StatusIdle, inv.Status)
		assert.Zero(t, inv.Level)
	}
	require.Len(t, s.Specialists, 4)
	assert.Equal(t, model.KindAdvisor, s.Specialists[0].Kind)
	assert.Equal(t, 1, s.Specialists[1].Target)
	assert.NotNil(t, s.Upgrades)
	assert.NotNil(t, s.Achievements)
}

func TestLoad_EmptyStoreStartsFresh(t *testing.T) {
	h := newHarness(t, 5)
	report, err := h.engine.Load(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Cycles)
	assert.Equal(t, 5.0, h.engine.Snapshot().Balance)
}

func TestLoad_RestoresAndCatchesUp(t *testing.T) {
	h := newHarness(t, 5)
	h.engine.mu.Lock()
	h.engine.state.Balance = 1234
	h.engine.state.Investments[0] = model.InvestmentState{Level: 1, ManagerLevel: 1, Status: model.StatusRunning}
	runID := h.engine.state.RunID
	h.engine.mu.Unlock()
	require.NoError(t, h.engine.Save(context.Background()))

	// two full automated cycles of 10s production + 10s cooldown
	h.clock.Advance(40 * time.Second)
	restored := h.reopen(5)
	report, err := restored.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), report.Cycles)
	assert.InDelta(t, 200, report.Credited, 1e-9)
	s := restored.Snapshot()
	assert.Equal(t, runID, s.RunID)
	assert.InDelta(t, 1434, s.Balance, 1e-9)
	assert.Equal(t, h.clock.now, s.LastSavedAt)
	require.Len(t, h.journal.catchUps, 1)
	assert.Equal(t, runID, h.journal.catchUps[0].RunID)
}

func TestLoad_UnreadableSaveStartsFresh(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"garbage", "not json at all"},
		{"checksum mismatch", `{"version":1,"checksum":"00","state":{"balance":99,"investments":[]}}`},
		{"future version", `{"version":99,"checksum":"00","state":{"investments":[]}}`},
		{"no investments", `{"balance":99}`},
		{"wrong type", `{"balance":"lots","investments":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, 5)
			h.store.data = []byte(tt.data)
			_, err := h.engine.Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 5.0, h.engine.Snapshot().Balance)
		})
	}
}

func TestLoad_StoreErrorIsReturned(t *testing.T) {
	h := newHarness(t, 5)
	h.store.loadErr = errors.New("disk on fire")
	_, err := h.engine.Load(context.Background())
	assert.ErrorContains(t, err, "disk on fire")
}

func TestLoad_MigratesLegacySave(t *testing.T) {
	h := newHarness(t, 5)
	h.store.data = []byte(`{
		"balance": 42,
		"investments": [
			{"level": 3, "is_running": true, "progress_ms": 500},
			{"level": 1, "manager_level": 2, "status": "CEO_COOLDOWN"}
		],
		"specialists": [{"level": 2, "target": 7}],
		"upgrades": null
	}`)
	_, err := h.engine.Load(context.Background())
	require.NoError(t, err)

	s := h.engine.Snapshot()
	assert.Equal(t, 42.0, s.Balance)
	assert.NotEmpty(t, s.RunID)
	assert.Equal(t, model.StatusRunning, s.Investments[0].Status)
	assert.Equal(t, 500.0, s.Investments[0].ProgressMs)
	assert.Equal(t, model.StatusManagerCooldown, s.Investments[1].Status)
	require.Len(t, s.Specialists, 4)
	assert.Equal(t, model.KindAdvisor, s.Specialists[0].Kind)
	assert.Equal(t, 2, s.Specialists[0].Level)
	assert.Equal(t, 0, s.Specialists[0].Target)
	assert.Equal(t, []int{}, s.Upgrades)
	assert.Equal(t, []int{}, s.Achievements)
}

func TestLoad_PadsShortInvestmentList(t *testing.T) {
	h := newHarness(t, 5)
	h.store.data = []byte(`{"balance": 1, "investments": [{"level": 2, "status": "IDLE"}]}`)
	_, err := h.engine.Load(context.Background())
	require.NoError(t, err)

	s := h.engine.Snapshot()
	require.Len(t, s.Investments, 2)
	assert.Equal(t, 2, s.Investments[0].Level)
	assert.Equal(t, model.StatusIdle, s.Investments[1].Status)
}

func TestLoad_CooldownWithoutManagerBecomesIdle(t *testing.T) {
	h := newHarness(t, 5)
	h.store.data = []byte(`{"investments": [{"level": 2, "status": "MANAGER_COOLDOWN", "progress_ms": 30}]}`)
	_, err := h.engine.Load(context.Background())
	require.NoError(t, err)

	inv := h.engine.Snapshot().Investments[0]
	assert.Equal(t, model.StatusIdle, inv.Status)
	assert.Zero(t, inv.ProgressMs)
}

func TestSnapshotCodec(t *testing.T) {
	h := newHarness(t, 5)
	state := h.engine.Snapshot()
	state.Upgrades = []int{1}
	state.Investments[1].NegotiatorTriggers = 3

	data, err := encodeSnapshot(&state)
	require.NoError(t, err)

	decoded, err := decodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, state, *decoded)

	var pretty map[string]any
	require.NoError(t, json.Unmarshal(data, &pretty))
	indented, err := json.MarshalIndent(pretty, "", "  ")
	require.NoError(t, err)
	decoded, err = decodeSnapshot(indented)
	require.NoError(t, err, "re-indented and re-ordered keys keep the checksum")
	assert.Equal(t, state, *decoded)

	respelled := bytes.Replace(data, []byte(`"balance":5,`), []byte(`"balance":5.0e0,`), 1)
	require.NotEqual(t, data, respelled)
	decoded, err = decodeSnapshot(respelled)
	require.NoError(t, err, "number spelling does not change the checksum")
	assert.Equal(t, 5.0, decoded.Balance)

	tampered := bytes.Replace(data, []byte(`"balance":5,`), []byte(`"balance":6,`), 1)
	_, err = decodeSnapshot(tampered)
	assert.ErrorIs(t, err, ErrCorruptSnapshot)

	_, err = decodeSnapshot([]byte("{"))
	assert.ErrorIs(t, err, ErrCorruptSnapshot)
}

func TestSave_SetsTimestampBeforeEncoding(t *testing.T) {
	h := newHarness(t, 5)
	h.clock.Advance(time.Minute)
	require.NoError(t, h.engine.Save(context.Background()))

	decoded, err := decodeSnapshot(h.store.data)
	require.NoError(t, err)
	assert.Equal(t, h.clock.now, decoded.LastSavedAt)
}

func TestHardReset(t *testing.T) {
	h := newHarness(t, 5)
	require.True(t, h.engine.BuyInvestment(0, 1))
	require.NoError(t, h.engine.Save(context.Background()))
	oldRun := h.engine.Snapshot().RunID

	require.NoError(t, h.engine.HardReset(context.Background()))
	assert.True(t, h.store.cleared)
	assert.Nil(t, h.store.data)

	s := h.engine.Snapshot()
	assert.NotEqual(t, oldRun, s.RunID)
	assert.Equal(t, 5.0, s.Balance)
	assert.Zero(t, s.Investments[0].Level)
}

func TestSubscribe(t *testing.T) {
	h := newHarness(t, 100)
	calls := 0
	unsubscribe := h.engine.Subscribe(func() { calls++ })

	h.engine.BuyInvestment(0, 1)
	h.engine.Tick(50 * time.Millisecond)
	assert.Equal(t, 2, calls)

	// rejected purchases change nothing and stay silent
	h.engine.BuyUpgrade(999)
	assert.Equal(t, 2, calls)

	unsubscribe()
	h.engine.Tick(50 * time.Millisecond)
	assert.Equal(t, 2, calls)
}

func TestSnapshotIsACopy(t *testing.T) {
	h := newHarness(t, 5)
	s := h.engine.Snapshot()
	s.Investments[0].Level = 99
	s.Upgrades = append(s.Upgrades, 1)

	fresh := h.engine.Snapshot()
	assert.Zero(t, fresh.Investments[0].Level)
	assert.Empty(t, fresh.Upgrades)
}

func TestPersist_DropsStaleSnapshots(t *testing.T) {
	h := newHarness(t, 5)
	ctx := context.Background()

	require.NoError(t, h.engine.persist(ctx, snapshot{seq: 2, data: []byte("newer")}))
	require.NoError(t, h.engine.persist(ctx, snapshot{seq: 1, data: []byte("older")}))
	assert.Equal(t, "newer", string(h.store.data))
	assert.Equal(t, 1, h.store.saves)
}

func TestHardReset_DiscardsEarlierSnapshots(t *testing.T) {
	h := newHarness(t, 5)
	e := h.engine

	e.mu.Lock()
	pending, err := e.encodeLocked()
	e.mu.Unlock()
	require.NoError(t, err)

	require.NoError(t, e.HardReset(context.Background()))
	require.NoError(t, e.persist(context.Background(), pending))
	assert.Nil(t, h.store.data, "a snapshot taken before the reset is not written")
	assert.Zero(t, h.store.saves)

	require.NoError(t, e.Save(context.Background()))
	restored, err := decodeSnapshot(h.store.data)
	require.NoError(t, err)
	assert.Equal(t, e.Snapshot().RunID, restored.RunID)
}
