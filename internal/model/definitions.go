package model

// AllInvestments is the wildcard target scope for upgrades and achievements.
const AllInvestments = -1

// InvestmentDefinition is one row of the static investment catalog.
type InvestmentDefinition struct {
	Name           string  `json:"name"`
	BaseCost       float64 `json:"cost"`
	Growth         float64 `json:"growth"`
	BaseDurationMs float64 `json:"duration_ms"`
	RevenueBasis   float64 `json:"revenue"`
	Image          string  `json:"image,omitempty"`
}

// UpgradeDefinition is a one-time purchasable revenue multiplier.
type UpgradeDefinition struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Target      int     `json:"target"`
	Cost        float64 `json:"cost"`
	Multiplier  float64 `json:"multiplier"`
}

// AppliesTo reports whether the upgrade targets investment idx.
func (u UpgradeDefinition) AppliesTo(idx int) bool {
	return u.Target == AllInvestments || u.Target == idx
}

// AchievementDefinition unlocks once a level threshold is reached.
// Reward > 1 multiplies revenue; a reward in (0,1) divides production time.
type AchievementDefinition struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Target      int     `json:"target"`
	Threshold   int     `json:"threshold"`
	Reward      float64 `json:"reward"`
}

// AppliesTo reports whether the achievement targets investment idx.
func (a AchievementDefinition) AppliesTo(idx int) bool {
	return a.Target == AllInvestments || a.Target == idx
}

// IsRevenueReward reports whether the reward is a revenue multiplier.
func (a AchievementDefinition) IsRevenueReward() bool {
	return a.Reward > 1
}

// IsSpeedReward reports whether the reward is a production-speed multiplier.
func (a AchievementDefinition) IsSpeedReward() bool {
	return a.Reward > 0 && a.Reward < 1
}

// SpecialistKind names one of the four specialist roles.
type SpecialistKind string

const (
	KindAdvisor    SpecialistKind = "advisor"
	KindEfficiency SpecialistKind = "efficiency"
	KindConsultant SpecialistKind = "consultant"
	KindNegotiator SpecialistKind = "negotiator"
)

// SpecialistKinds lists every kind in catalog order.
var SpecialistKinds = []SpecialistKind{KindAdvisor, KindEfficiency, KindConsultant, KindNegotiator}

// Valid reports whether k is one of the known kinds.
func (k SpecialistKind) Valid() bool {
	for _, known := range SpecialistKinds {
		if k == known {
			return true
		}
	}
	return false
}

// SpecialistDefinition carries the per-kind pricing and default target.
type SpecialistDefinition struct {
	Kind          SpecialistKind `json:"kind"`
	Name          string         `json:"name"`
	BaseCost      float64        `json:"base_cost"`
	DefaultTarget int            `json:"default_target"`
}
