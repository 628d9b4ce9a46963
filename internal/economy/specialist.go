package economy

import (
	"OilTycoon/internal/calculator"
	"OilTycoon/internal/model"
)

// cycleEffect applies what a specialist does when its timer fills and
// reports whether the effect fired.
type cycleEffect func(e *Engine, spec *model.SpecialistState, cycleMs float64, now int64) bool

var cycleEffects = map[model.SpecialistKind]cycleEffect{
	model.KindAdvisor: func(e *Engine, spec *model.SpecialistState, _ float64, _ int64) bool {
		spec.TimerMs = 0
		if inv := e.target(spec); inv != nil {
			inv.Level++
		}
		return true
	},
	model.KindEfficiency: func(e *Engine, spec *model.SpecialistState, _ float64, _ int64) bool {
		spec.TimerMs = 0
		if inv := e.target(spec); inv != nil {
			inv.EfficiencyStacks++
		}
		return true
	},
	model.KindConsultant: activate(nil),
	model.KindNegotiator: activate(func(inv *model.InvestmentState) {
		inv.NegotiatorTriggers++
	}),
}

// activate opens a one-hour window. While the window is open the timer
// holds at a full charge instead of firing again.
func activate(onFire func(inv *model.InvestmentState)) cycleEffect {
	return func(e *Engine, spec *model.SpecialistState, cycleMs float64, now int64) bool {
		if spec.ActiveUntil != 0 {
			spec.TimerMs = cycleMs
			return false
		}
		spec.ActiveUntil = now + calculator.ActiveWindowMs
		spec.TimerMs = 0
		if inv := e.target(spec); inv != nil && onFire != nil {
			onFire(inv)
		}
		return true
	}
}

func (e *Engine) target(spec *model.SpecialistState) *model.InvestmentState {
	if !e.cat.ValidIndex(spec.Target) {
		return nil
	}
	return &e.state.Investments[spec.Target]
}

// advanceSpecialist expires a finished window, charges the timer and fires
// the kind's effect once the charge is full.
func (e *Engine) advanceSpecialist(spec *model.SpecialistState, dtMs float64, now int64) bool {
	if spec.ActiveUntil > 0 && now > spec.ActiveUntil {
		spec.ActiveUntil = 0
	}
	if spec.Level <= 0 {
		return false
	}
	spec.TimerMs += dtMs

	cycleMs := calculator.SpecialistCycleMs(spec.Level)
	if spec.TimerMs < cycleMs {
		return false
	}
	effect, ok := cycleEffects[spec.Kind]
	if !ok {
		return false
	}
	return effect(e, spec, cycleMs, now)
}

// consultantBonus is the continuous income of an active consultant over dtMs.
func (e *Engine) consultantBonus(dtMs float64, now int64) float64 {
	spec := e.state.Specialist(model.KindConsultant)
	if spec == nil || spec.Level <= 0 || !spec.IsActive(now) {
		return 0
	}
	inv := e.target(spec)
	if inv == nil || inv.Level == 0 {
		return 0
	}
	return calculator.ConsultantBonus(spec.Level,
		e.revenuePerCycle(spec.Target), e.productionDuration(spec.Target), dtMs)
}

// HireSpecialist buys the next level of kind if the balance covers it.
func (e *Engine) HireSpecialist(kind model.SpecialistKind) bool {
	e.mu.Lock()
	evt, ok := e.hireSpecialist(kind)
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.recordPurchase(evt)
	e.notify()
	return true
}

func (e *Engine) hireSpecialist(kind model.SpecialistKind) (*model.PurchaseEvent, bool) {
	spec := e.state.Specialist(kind)
	if spec == nil {
		return nil, false
	}
	cost := e.specialistCost(kind)
	if !e.debit(cost) {
		return nil, false
	}
	spec.Level++
	return e.purchaseEvent(model.PurchaseSpecialist, string(kind), 1, cost), true
}

// SetSpecialistTarget points kind at investment idx.
func (e *Engine) SetSpecialistTarget(kind model.SpecialistKind, idx int) bool {
	e.mu.Lock()
	ok := false
	if spec := e.state.Specialist(kind); spec != nil && e.cat.ValidIndex(idx) {
		spec.Target = idx
		ok = true
	}
	e.mu.Unlock()
	if ok {
		e.notify()
	}
	return ok
}
