package economy

import (
	"strconv"

	"OilTycoon/internal/model"
)

// BuyInvestment buys n levels of idx if the balance covers them. Buying does
// not start production.
func (e *Engine) BuyInvestment(idx, n int) bool {
	e.mu.Lock()
	evt, ok := e.buyInvestment(idx, n)
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.recordPurchase(evt)
	e.notify()
	return true
}

func (e *Engine) buyInvestment(idx, n int) (*model.PurchaseEvent, bool) {
	if !e.cat.ValidIndex(idx) || n < 1 {
		return nil, false
	}
	cost := e.costToBuy(idx, n, e.clock.NowMs())
	if !e.debit(cost) {
		return nil, false
	}
	e.state.Investments[idx].Level += n
	return e.purchaseEvent(model.PurchaseInvestment, strconv.Itoa(idx), n, cost), true
}

// HireManager buys the next manager level for idx. Hiring switches an idle
// investment on.
func (e *Engine) HireManager(idx int) bool {
	e.mu.Lock()
	evt, ok := e.hireManager(idx)
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.recordPurchase(evt)
	e.notify()
	return true
}

func (e *Engine) hireManager(idx int) (*model.PurchaseEvent, bool) {
	if !e.cat.ValidIndex(idx) {
		return nil, false
	}
	cost := e.managerCost(idx)
	if !e.debit(cost) {
		return nil, false
	}
	inv := &e.state.Investments[idx]
	inv.ManagerLevel++
	if inv.Status == model.StatusIdle {
		inv.Status = model.StatusRunning
		inv.ProgressMs = 0
	}
	return e.purchaseEvent(model.PurchaseManager, strconv.Itoa(idx), 1, cost), true
}

// BuyUpgrade purchases upgrade id once.
func (e *Engine) BuyUpgrade(id int) bool {
	e.mu.Lock()
	evt, ok := e.buyUpgrade(id)
	e.mu.Unlock()
	if !ok {
		return false
	}
	e.recordPurchase(evt)
	e.notify()
	return true
}

func (e *Engine) buyUpgrade(id int) (*model.PurchaseEvent, bool) {
	if e.state.HasUpgrade(id) {
		return nil, false
	}
	def, ok := e.cat.Upgrade(id)
	if !ok || !e.debit(def.Cost) {
		return nil, false
	}
	e.state.Upgrades = append(e.state.Upgrades, id)
	return e.purchaseEvent(model.PurchaseUpgrade, strconv.Itoa(id), 1, def.Cost), true
}

// checkAchievements unlocks every achievement whose threshold is met and
// returns the newly unlocked ids.
func (e *Engine) checkAchievements() []int {
	var unlocked []int
	for _, a := range e.cat.Achievements {
		if e.state.HasAchievement(a.ID) {
			continue
		}
		if e.levelFor(a.Target) >= a.Threshold {
			e.state.Achievements = append(e.state.Achievements, a.ID)
			unlocked = append(unlocked, a.ID)
		}
	}
	return unlocked
}

// levelFor returns the level of target, or the lowest level of all
// investments for the wildcard.
func (e *Engine) levelFor(target int) int {
	if target != model.AllInvestments {
		if !e.cat.ValidIndex(target) {
			return 0
		}
		return e.state.Investments[target].Level
	}
	lowest := -1
	for _, inv := range e.state.Investments {
		if lowest < 0 || inv.Level < lowest {
			lowest = inv.Level
		}
	}
	return max(lowest, 0)
}

func (e *Engine) debit(cost float64) bool {
	if e.state.Balance < cost {
		return false
	}
	e.state.Balance -= cost
	return true
}

func (e *Engine) purchaseEvent(kind model.PurchaseKind, target string, qty int, cost float64) *model.PurchaseEvent {
	return &model.PurchaseEvent{
		RunID:        e.state.RunID,
		Kind:         kind,
		Target:       target,
		Quantity:     qty,
		Cost:         cost,
		BalanceAfter: e.state.Balance,
		At:           e.clock.NowMs(),
	}
}
