package economy

import (
	"OilTycoon/internal/calculator"
	"OilTycoon/internal/model"
)

// CostToBuy returns the price of the next n levels of investment idx,
// including any live negotiator discount.
func (e *Engine) CostToBuy(idx, n int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.cat.ValidIndex(idx) {
		return 0
	}
	return e.costToBuy(idx, n, e.clock.NowMs())
}

// RevenuePerCycle returns what one completed cycle of idx pays right now.
func (e *Engine) RevenuePerCycle(idx int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.cat.ValidIndex(idx) {
		return 0
	}
	return e.revenuePerCycle(idx)
}

// ProductionDuration returns the cycle length of idx in milliseconds.
func (e *Engine) ProductionDuration(idx int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.cat.ValidIndex(idx) {
		return 0
	}
	return e.productionDuration(idx)
}

// ManagerCost returns the price of the next manager level for idx.
func (e *Engine) ManagerCost(idx int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.cat.ValidIndex(idx) {
		return 0
	}
	return e.managerCost(idx)
}

// SpecialistCost returns the price of the next level of kind.
func (e *Engine) SpecialistCost(kind model.SpecialistKind) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.specialistCost(kind)
}

func (e *Engine) costToBuy(idx, n int, now int64) float64 {
	def := e.cat.Investments[idx]
	inv := e.state.Investments[idx]
	total := calculator.CalculateBulkCost(def.BaseCost, inv.Level, n, def.Growth)

	if neg := e.state.Specialist(model.KindNegotiator); neg != nil && neg.Target == idx && neg.IsActive(now) {
		total *= 1 - calculator.NegotiatorReduction(inv.NegotiatorTriggers)
	}
	return total
}

func (e *Engine) revenuePerCycle(idx int) float64 {
	def := e.cat.Investments[idx]
	inv := e.state.Investments[idx]

	multiplier := 1.0
	for _, u := range e.cat.Upgrades {
		if u.AppliesTo(idx) && e.state.HasUpgrade(u.ID) {
			multiplier *= u.Multiplier
		}
	}
	for _, a := range e.cat.Achievements {
		if a.IsRevenueReward() && a.AppliesTo(idx) && e.state.HasAchievement(a.ID) {
			multiplier *= a.Reward
		}
	}
	multiplier *= e.currentMultiplier()

	return def.RevenueBasis * float64(inv.Level) * multiplier
}

func (e *Engine) productionDuration(idx int) float64 {
	def := e.cat.Investments[idx]
	inv := e.state.Investments[idx]

	divisor := 1.0
	for _, a := range e.cat.Achievements {
		if a.IsSpeedReward() && a.AppliesTo(idx) && e.state.HasAchievement(a.ID) {
			divisor /= a.Reward
		}
	}
	divisor *= calculator.EfficiencySpeedup(inv.EfficiencyStacks)

	return calculator.ProductionDuration(def.BaseDurationMs, divisor)
}

func (e *Engine) managerCost(idx int) float64 {
	return calculator.CalculateManagerCost(e.cat.Investments[idx].BaseCost, e.state.Investments[idx].ManagerLevel)
}

func (e *Engine) specialistCost(kind model.SpecialistKind) float64 {
	def, ok := e.cat.Specialist(kind)
	spec := e.state.Specialist(kind)
	if !ok || spec == nil {
		return 0
	}
	return calculator.CalculateSpecialistCost(def.BaseCost, spec.Level)
}

func (e *Engine) currentMultiplier() float64 {
	return calculator.CalculatePrestigeMultiplier(e.state.PriorEarnings)
}

func (e *Engine) potentialMultiplier() float64 {
	return calculator.CalculatePrestigeMultiplier(e.state.Lifetime())
}
