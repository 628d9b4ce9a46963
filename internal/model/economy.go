package model

import "slices"

// InvestmentStatus is the production phase of an investment.
type InvestmentStatus string

const (
	StatusIdle            InvestmentStatus = "IDLE"
	StatusRunning         InvestmentStatus = "RUNNING"
	StatusManagerCooldown InvestmentStatus = "MANAGER_COOLDOWN"
)

// InvestmentState is the mutable counterpart of one InvestmentDefinition.
type InvestmentState struct {
	Level              int              `json:"level"`
	Status             InvestmentStatus `json:"status"`
	ProgressMs         float64          `json:"progress_ms"`
	ManagerLevel       int              `json:"manager_level"`
	EfficiencyStacks   int              `json:"efficiency_stacks"`
	NegotiatorTriggers int              `json:"negotiator_triggers"`
}

// SpecialistState is the shared timer/activation envelope of every kind.
type SpecialistState struct {
	Kind        SpecialistKind `json:"kind"`
	Level       int            `json:"level"`
	Target      int            `json:"target"`
	TimerMs     float64        `json:"timer_ms"`
	ActiveUntil int64          `json:"active_until"` // unix ms, 0 = inactive
}

// IsActive reports whether the activation window is still open at nowMs.
func (s SpecialistState) IsActive(nowMs int64) bool {
	return s.ActiveUntil > nowMs
}

// EconomyState is the root aggregate persisted between sessions.
type EconomyState struct {
	RunID         string            `json:"run_id"`
	Balance       float64           `json:"balance"`
	RunEarnings   float64           `json:"run_earnings"`
	PriorEarnings float64           `json:"prior_earnings"`
	RunStartedAt  int64             `json:"run_started_at"`
	LastSavedAt   int64             `json:"last_saved_at"`
	Investments   []InvestmentState `json:"investments"`
	Specialists   []SpecialistState `json:"specialists"`
	Upgrades      []int             `json:"upgrades"`
	Achievements  []int             `json:"achievements"`
}

// Lifetime returns prior plus this run's earnings.
func (s *EconomyState) Lifetime() float64 {
	return s.PriorEarnings + s.RunEarnings
}

// HasUpgrade reports whether upgrade id was purchased this run.
func (s *EconomyState) HasUpgrade(id int) bool {
	return slices.Contains(s.Upgrades, id)
}

// HasAchievement reports whether achievement id is unlocked.
func (s *EconomyState) HasAchievement(id int) bool {
	return slices.Contains(s.Achievements, id)
}

// Specialist returns the state for kind, or nil.
func (s *EconomyState) Specialist(kind SpecialistKind) *SpecialistState {
	for i := range s.Specialists {
		if s.Specialists[i].Kind == kind {
			return &s.Specialists[i]
		}
	}
	return nil
}

// TotalLevels sums every investment level.
func (s *EconomyState) TotalLevels() int {
	total := 0
	for _, inv := range s.Investments {
		total += inv.Level
	}
	return total
}

// Clone returns a deep copy safe to hand to readers.
func (s *EconomyState) Clone() EconomyState {
	out := *s
	out.Investments = slices.Clone(s.Investments)
	out.Specialists = slices.Clone(s.Specialists)
	out.Upgrades = slices.Clone(s.Upgrades)
	out.Achievements = slices.Clone(s.Achievements)
	return out
}
