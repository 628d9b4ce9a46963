package economy

import (
	"math"
	"time"
)

// CatchUpReport describes the credit granted for time spent away.
type CatchUpReport struct {
	RunID     string        `json:"run_id"`
	Gap       time.Duration `json:"gap"`
	Simulated time.Duration `json:"simulated"`
	Cycles    int64         `json:"cycles"`
	Credited  float64       `json:"credited"`
	Skipped   bool          `json:"skipped"`
	At        int64         `json:"at"`
}

// CatchUp credits the whole automated cycles that fit into gap. Only
// investments with a manager earn; specialist timers advance but their
// effects do not fire.
func (e *Engine) CatchUp(gap time.Duration) CatchUpReport {
	e.mu.Lock()
	report := e.catchUp(gap.Milliseconds(), e.clock.NowMs())
	e.mu.Unlock()

	if report.Skipped {
		return report
	}
	if report.Cycles > 0 {
		e.recordCatchUp(report)
	}
	e.notify()
	return report
}

func (e *Engine) catchUp(gapMs, now int64) CatchUpReport {
	report := CatchUpReport{
		RunID: e.state.RunID,
		Gap:   time.Duration(gapMs) * time.Millisecond,
		At:    now,
	}
	if gapMs <= e.minGapMs {
		report.Skipped = true
		return report
	}

	simMs := min(gapMs, e.capMs)
	report.Simulated = time.Duration(simMs) * time.Millisecond

	for idx, inv := range e.state.Investments {
		if inv.Level == 0 || inv.ManagerLevel == 0 {
			continue
		}
		duration := e.productionDuration(idx)
		cycleMs := duration + duration/float64(inv.ManagerLevel)
		cycles := math.Floor(float64(simMs) / cycleMs)
		if cycles <= 0 {
			continue
		}
		credit := cycles * e.revenuePerCycle(idx)
		e.state.Balance += credit
		e.state.RunEarnings += credit
		report.Cycles += int64(cycles)
		report.Credited += credit
	}

	for i := range e.state.Specialists {
		if e.state.Specialists[i].Level > 0 {
			e.state.Specialists[i].TimerMs += float64(simMs)
		}
	}

	e.state.LastSavedAt = now
	return report
}
