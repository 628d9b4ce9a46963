package economy

import (
	"time"

	"OilTycoon/internal/model"
)

// TickReport summarises what one Tick changed.
type TickReport struct {
	Cycles           int
	Revenue          float64
	ConsultantBonus  float64
	SpecialistsFired []model.SpecialistKind
	Achievements     []int
	Saved            bool
}

// Gained is the total money added by the tick.
func (r TickReport) Gained() float64 {
	return r.Revenue + r.ConsultantBonus
}

// Tick advances the economy by dt: production, then specialists, then the
// consultant bonus, then achievements. It saves when the autosave interval
// has passed and notifies observers.
func (e *Engine) Tick(dt time.Duration) TickReport {
	dtMs := float64(dt) / float64(time.Millisecond)

	e.mu.Lock()
	now := e.clock.NowMs()
	var report TickReport

	for idx := range e.state.Investments {
		if done, revenue := e.advanceInvestment(idx, dtMs); done {
			report.Cycles++
			report.Revenue += revenue
		}
	}
	for i := range e.state.Specialists {
		spec := &e.state.Specialists[i]
		if e.advanceSpecialist(spec, dtMs, now) {
			report.SpecialistsFired = append(report.SpecialistsFired, spec.Kind)
		}
	}
	report.ConsultantBonus = e.consultantBonus(dtMs, now)

	gained := report.Gained()
	e.state.Balance += gained
	e.state.RunEarnings += gained

	report.Achievements = e.checkAchievements()

	var snap snapshot
	var encodeErr error
	if now-e.state.LastSavedAt > e.autosaveMs {
		e.state.LastSavedAt = now
		snap, encodeErr = e.encodeLocked()
	}
	e.mu.Unlock()

	switch {
	case encodeErr != nil:
		e.logger.Error("autosave encode failed", "err", encodeErr)
	case snap.data != nil:
		if err := e.persistDetached(snap); err != nil {
			e.logger.Error("autosave failed", "err", err)
		} else {
			report.Saved = true
		}
	}

	e.notify()
	return report
}
