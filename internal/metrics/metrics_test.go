package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OilTycoon/internal/economy"
	"OilTycoon/internal/model"
)

var _ economy.Journal = (*Metrics)(nil)

func TestObserveTick(t *testing.T) {
	m := New()
	m.ObserveTick(economy.TickReport{
		Cycles:           2,
		Revenue:          150,
		ConsultantBonus:  5,
		SpecialistsFired: []model.SpecialistKind{model.KindAdvisor, model.KindAdvisor, model.KindNegotiator},
		Achievements:     []int{1},
		Saved:            true,
	}, time.Millisecond)
	m.ObserveTick(economy.TickReport{Cycles: 1, Revenue: 50}, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.cycles))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.revenue))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.consultantBonus))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.specialistFires.WithLabelValues("advisor")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.specialistFires.WithLabelValues("negotiator")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.achievements))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.autosaves))
	assert.Equal(t, 1, testutil.CollectAndCount(m.tickDuration))
}

func TestJournalCounters(t *testing.T) {
	m := New()
	require.NoError(t, m.RecordPurchase(&model.PurchaseEvent{Kind: model.PurchaseInvestment, Cost: 10}))
	require.NoError(t, m.RecordPurchase(&model.PurchaseEvent{Kind: model.PurchaseInvestment, Cost: 12.5}))
	require.NoError(t, m.RecordPurchase(&model.PurchaseEvent{Kind: model.PurchaseManager, Cost: 1000}))
	require.NoError(t, m.RecordCatchUp(&model.CatchUpEvent{Credited: 300}))
	require.NoError(t, m.RecordRetirement(&model.RetirementEvent{MultiplierAfter: 1.5}))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.purchases.WithLabelValues("INVESTMENT")))
	assert.Equal(t, 22.5, testutil.ToFloat64(m.spent.WithLabelValues("INVESTMENT")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.purchases.WithLabelValues("MANAGER")))
	assert.Equal(t, 300.0, testutil.ToFloat64(m.credited))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.retires))
	assert.Equal(t, 1.5, testutil.ToFloat64(m.multiplier))
}

func TestObserveState(t *testing.T) {
	m := New()
	m.ObserveState(model.EconomyState{
		Balance:       40,
		RunEarnings:   60,
		PriorEarnings: 100,
		Investments:   []model.InvestmentState{{Level: 3}, {Level: 2}},
	}, 1.25)

	assert.Equal(t, 40.0, testutil.ToFloat64(m.balance))
	assert.Equal(t, 160.0, testutil.ToFloat64(m.lifetime))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.totalLevels))
	assert.Equal(t, 1.25, testutil.ToFloat64(m.multiplier))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveTick(economy.TickReport{Cycles: 1}, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "tycoon_production_cycles_total 1")
}
