package economy

import "OilTycoon/internal/model"

// StartProduction moves an owned, idle investment into Running. It does
// nothing while the investment is already Running or cooling down.
func (e *Engine) StartProduction(idx int) bool {
	e.mu.Lock()
	ok := e.startProduction(idx)
	e.mu.Unlock()
	if ok {
		e.notify()
	}
	return ok
}

func (e *Engine) startProduction(idx int) bool {
	if !e.cat.ValidIndex(idx) {
		return false
	}
	inv := &e.state.Investments[idx]
	if inv.Level == 0 || inv.Status != model.StatusIdle {
		return false
	}
	inv.Status = model.StatusRunning
	inv.ProgressMs = 0
	return true
}

// advanceInvestment steps one investment's state machine by dtMs. It reports
// whether a production cycle completed and what it paid.
func (e *Engine) advanceInvestment(idx int, dtMs float64) (bool, float64) {
	inv := &e.state.Investments[idx]
	if inv.Level == 0 {
		return false, 0
	}
	duration := e.productionDuration(idx)

	switch inv.Status {
	case model.StatusRunning:
		inv.ProgressMs += dtMs
		if inv.ProgressMs < duration {
			return false, 0
		}
		revenue := e.revenuePerCycle(idx)
		inv.ProgressMs = 0
		if inv.ManagerLevel > 0 {
			inv.Status = model.StatusManagerCooldown
		} else {
			inv.Status = model.StatusIdle
		}
		return true, revenue

	case model.StatusManagerCooldown:
		if inv.ManagerLevel == 0 {
			inv.Status = model.StatusIdle
			inv.ProgressMs = 0
			return false, 0
		}
		inv.ProgressMs += dtMs
		if inv.ProgressMs >= duration/float64(inv.ManagerLevel) {
			inv.ProgressMs = 0
			inv.Status = model.StatusRunning
		}
	}
	return false, 0
}
