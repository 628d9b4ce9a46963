package calculator

import "math"

// XPDivisor is the lifetime money that earns one experience point.
const XPDivisor = 6_725_000_000.0

// CalculateXP converts lifetime earnings into whole experience points.
// The result stays float64 because late-game lifetimes overflow int64.
func CalculateXP(lifetime float64) float64 {
	if lifetime <= 0 {
		return 0
	}
	return math.Floor(lifetime / XPDivisor)
}

// CalculateXPMultiplier returns 2^(log5 xp), or 1 for xp <= 1.
func CalculateXPMultiplier(xp float64) float64 {
	if xp <= 1 {
		return 1
	}
	return math.Pow(2, math.Log(xp)/math.Log(5))
}

// CalculatePrestigeMultiplier is CalculateXPMultiplier(CalculateXP(lifetime)).
func CalculatePrestigeMultiplier(lifetime float64) float64 {
	return CalculateXPMultiplier(CalculateXP(lifetime))
}
