// Package metrics exposes the running economy as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"OilTycoon/internal/economy"
	"OilTycoon/internal/model"
)

const namespace = "tycoon"

// Metrics owns a private registry so tests and multiple engines never collide.
// It also satisfies economy.Journal.
type Metrics struct {
	registry *prometheus.Registry

	ticks           prometheus.Counter
	tickDuration    prometheus.Histogram
	cycles          prometheus.Counter
	revenue         prometheus.Counter
	consultantBonus prometheus.Counter
	specialistFires *prometheus.CounterVec
	achievements    prometheus.Counter
	autosaves       prometheus.Counter

	purchases *prometheus.CounterVec
	spent     *prometheus.CounterVec
	catchUps  prometheus.Counter
	credited  prometheus.Counter
	retires   prometheus.Counter

	balance     prometheus.Gauge
	lifetime    prometheus.Gauge
	totalLevels prometheus.Gauge
	multiplier  prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ticks_total", Help: "Simulation ticks applied.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "tick_duration_seconds", Help: "Wall time spent inside Tick.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05},
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "production_cycles_total", Help: "Completed production cycles.",
		}),
		revenue: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "revenue_total", Help: "Money credited by completed cycles.",
		}),
		consultantBonus: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "consultant_bonus_total", Help: "Money credited by the consultant.",
		}),
		specialistFires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "specialist_cycles_total", Help: "Specialist timer completions by kind.",
		}, []string{"kind"}),
		achievements: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "achievements_unlocked_total", Help: "Achievements unlocked.",
		}),
		autosaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "autosaves_total", Help: "Successful autosaves from Tick.",
		}),
		purchases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "purchases_total", Help: "Successful purchases by kind.",
		}, []string{"kind"}),
		spent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "spent_total", Help: "Money spent by purchase kind.",
		}, []string{"kind"}),
		catchUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "catch_ups_total", Help: "Offline catch-ups that credited money.",
		}),
		credited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "catch_up_credited_total", Help: "Money credited by offline catch-up.",
		}),
		retires: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "retirements_total", Help: "Prestige resets.",
		}),
		balance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "balance", Help: "Current spendable balance.",
		}),
		lifetime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "lifetime_earnings", Help: "Prior plus current run earnings.",
		}),
		totalLevels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "investment_levels", Help: "Sum of all investment levels.",
		}),
		multiplier: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "prestige_multiplier", Help: "Prestige multiplier in force.",
		}),
	}
	m.registry.MustRegister(
		m.ticks, m.tickDuration, m.cycles, m.revenue, m.consultantBonus,
		m.specialistFires, m.achievements, m.autosaves,
		m.purchases, m.spent, m.catchUps, m.credited, m.retires,
		m.balance, m.lifetime, m.totalLevels, m.multiplier,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveTick folds one tick report into the counters.
func (m *Metrics) ObserveTick(r economy.TickReport, took time.Duration) {
	m.ticks.Inc()
	m.tickDuration.Observe(took.Seconds())
	m.cycles.Add(float64(r.Cycles))
	m.revenue.Add(r.Revenue)
	m.consultantBonus.Add(r.ConsultantBonus)
	for _, kind := range r.SpecialistsFired {
		m.specialistFires.WithLabelValues(string(kind)).Inc()
	}
	m.achievements.Add(float64(len(r.Achievements)))
	if r.Saved {
		m.autosaves.Inc()
	}
}

// ObserveState refreshes the gauges from a state snapshot.
func (m *Metrics) ObserveState(s model.EconomyState, multiplier float64) {
	m.balance.Set(s.Balance)
	m.lifetime.Set(s.Lifetime())
	m.totalLevels.Set(float64(s.TotalLevels()))
	m.multiplier.Set(multiplier)
}

func (m *Metrics) RecordPurchase(evt *model.PurchaseEvent) error {
	m.purchases.WithLabelValues(string(evt.Kind)).Inc()
	m.spent.WithLabelValues(string(evt.Kind)).Add(evt.Cost)
	return nil
}

func (m *Metrics) RecordCatchUp(evt *model.CatchUpEvent) error {
	m.catchUps.Inc()
	m.credited.Add(evt.Credited)
	return nil
}

func (m *Metrics) RecordRetirement(evt *model.RetirementEvent) error {
	m.retires.Inc()
	m.multiplier.Set(evt.MultiplierAfter)
	return nil
}
