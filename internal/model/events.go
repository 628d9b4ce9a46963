package model

// PurchaseKind classifies what a PurchaseEvent bought.
type PurchaseKind string

const (
	PurchaseInvestment PurchaseKind = "INVESTMENT"
	PurchaseManager    PurchaseKind = "MANAGER"
	PurchaseSpecialist PurchaseKind = "SPECIALIST"
	PurchaseUpgrade    PurchaseKind = "UPGRADE"
)

// PurchaseEvent records one successful debit of the balance.
type PurchaseEvent struct {
	RunID        string       `json:"run_id" db:"run_id"`
	Kind         PurchaseKind `json:"kind" db:"kind"`
	Target       string       `json:"target" db:"target"` // investment index, specialist kind or upgrade id
	Quantity     int          `json:"quantity" db:"quantity"`
	Cost         float64      `json:"cost" db:"cost"`
	BalanceAfter float64      `json:"balance_after" db:"balance_after"`
	At           int64        `json:"at" db:"at"`
}

// CatchUpEvent records the revenue credited for an offline gap.
type CatchUpEvent struct {
	RunID    string  `json:"run_id" db:"run_id"`
	GapMs    int64   `json:"gap_ms" db:"gap_ms"`
	Cycles   int64   `json:"cycles" db:"cycles"`
	Credited float64 `json:"credited" db:"credited"`
	At       int64   `json:"at" db:"at"`
}

// RetirementEvent records a prestige reset.
type RetirementEvent struct {
	RunID            string  `json:"run_id" db:"run_id"`
	NewRunID         string  `json:"new_run_id" db:"new_run_id"`
	RunEarnings      float64 `json:"run_earnings" db:"run_earnings"`
	PriorEarnings    float64 `json:"prior_earnings" db:"prior_earnings"`
	MultiplierBefore float64 `json:"multiplier_before" db:"multiplier_before"`
	MultiplierAfter  float64 `json:"multiplier_after" db:"multiplier_after"`
	RunDurationMs    int64   `json:"run_duration_ms" db:"run_duration_ms"`
	At               int64   `json:"at" db:"at"`
}

// EconomySnapshot is a periodic summary row of the running economy.
type EconomySnapshot struct {
	RunID         string  `json:"run_id" db:"run_id"`
	Balance       float64 `json:"balance" db:"balance"`
	RunEarnings   float64 `json:"run_earnings" db:"run_earnings"`
	PriorEarnings float64 `json:"prior_earnings" db:"prior_earnings"`
	TotalLevels   int     `json:"total_levels" db:"total_levels"`
	Multiplier    float64 `json:"multiplier" db:"multiplier"`
	At            int64   `json:"at" db:"at"`
}
