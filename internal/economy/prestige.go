package economy

import (
	"slices"

	"OilTycoon/internal/calculator"
	"OilTycoon/internal/model"
)

// Multipliers returns the prestige multiplier in force now and the one a
// retirement would lock in.
func (e *Engine) Multipliers() (current, potential float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentMultiplier(), e.potentialMultiplier()
}

// CanRetire reports whether retiring now would raise the multiplier.
func (e *Engine) CanRetire() bool {
	current, potential := e.Multipliers()
	return potential > current
}

// Retire folds this run's earnings into the lifetime total and starts a new
// run. Unlocked achievements survive; everything else resets. Command
// surfaces use RetireIfWorthwhile instead.
func (e *Engine) Retire() model.RetirementEvent {
	e.mu.Lock()
	evt, snap, err := e.retireLocked()
	e.mu.Unlock()
	e.afterRetire(&evt, snap, err)
	return evt
}

// RetireIfWorthwhile retires only when doing so raises the multiplier. The
// check and the retirement happen under one lock, so concurrent callers
// retire at most once per gain.
func (e *Engine) RetireIfWorthwhile() (model.RetirementEvent, bool) {
	e.mu.Lock()
	if e.potentialMultiplier() <= e.currentMultiplier() {
		e.mu.Unlock()
		return model.RetirementEvent{}, false
	}
	evt, snap, err := e.retireLocked()
	e.mu.Unlock()
	e.afterRetire(&evt, snap, err)
	return evt, true
}

func (e *Engine) retireLocked() (model.RetirementEvent, snapshot, error) {
	now := e.clock.NowMs()
	old := e.state
	before := e.currentMultiplier()
	lifetime := old.Lifetime()

	next := e.freshState(now)
	next.PriorEarnings = lifetime
	next.Achievements = slices.Clone(old.Achievements)
	e.state = next

	evt := model.RetirementEvent{
		RunID:            old.RunID,
		NewRunID:         next.RunID,
		RunEarnings:      old.RunEarnings,
		PriorEarnings:    lifetime,
		MultiplierBefore: before,
		MultiplierAfter:  calculator.CalculatePrestigeMultiplier(lifetime),
		RunDurationMs:    now - old.RunStartedAt,
		At:               now,
	}
	snap, err := e.encodeLocked()
	return evt, snap, err
}

func (e *Engine) afterRetire(evt *model.RetirementEvent, snap snapshot, err error) {
	if err == nil {
		err = e.persistDetached(snap)
	}
	if err != nil {
		e.logger.Error("save after retirement failed", "err", err)
	}
	e.logger.Info("retired", "run", evt.RunID, "earned", evt.RunEarnings,
		"multiplier", evt.MultiplierAfter)
	e.recordRetirement(evt)
	e.notify()
}
