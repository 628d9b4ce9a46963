package calculator

import "math"

const (
	// ManagerCostFactor scales an investment's base cost into its first manager price.
	ManagerCostFactor = 500.0
	// ManagerCostGrowth is the per-level growth of manager prices.
	ManagerCostGrowth = 2.5
	// SpecialistCostGrowth is the per-level growth of specialist prices.
	SpecialistCostGrowth = 1000.0
)

// CalculateCost returns the price of the single level bought at the given owned level.
func CalculateCost(base float64, level int, growth float64) float64 {
	return base * math.Pow(growth, float64(level))
}

// CalculateBulkCost sums the price of count consecutive levels starting at level,
// as a geometric series. Count < 1 costs nothing.
func CalculateBulkCost(base float64, level, count int, growth float64) float64 {
	if count < 1 {
		return 0
	}
	first := CalculateCost(base, level, growth)
	if growth == 1 {
		return first * float64(count)
	}
	return first * (math.Pow(growth, float64(count)) - 1) / (growth - 1)
}

// CalculateManagerCost returns the price of the next manager level.
func CalculateManagerCost(base float64, managerLevel int) float64 {
	return base * ManagerCostFactor * math.Pow(ManagerCostGrowth, float64(managerLevel))
}

// CalculateSpecialistCost returns the price of the next specialist level.
func CalculateSpecialistCost(base float64, level int) float64 {
	return base * math.Pow(SpecialistCostGrowth, float64(level))
}
