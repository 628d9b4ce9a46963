package calculator

import "math"

const (
	// SpecialistDayMs is the level-1 charge time of every specialist.
	SpecialistDayMs = 24 * 60 * 60 * 1000.0
	// ActiveWindowMs is how long Consultant and Negotiator stay live once fired.
	ActiveWindowMs = 60 * 60 * 1000
	// MinProductionMs floors every production duration.
	MinProductionMs = 100.0
	// EfficiencyStep is the speed gained per efficiency stack, compounded.
	EfficiencyStep = 1.01
	// ConsultantRate multiplies the target's revenue per second per consultant level.
	ConsultantRate = 10.0
)

// NegotiatorCurve anchors the price reduction by how often the negotiator
// has fired on an investment. Values between anchors are linear.
var NegotiatorCurve = []struct {
	Triggers  int
	Reduction float64
}{
	{1, 0.99},
	{50, 0.15},
	{100, 0.10},
}

// NegotiatorReduction returns the fraction taken off the price after the
// given number of triggers on one investment.
func NegotiatorReduction(triggers int) float64 {
	first := NegotiatorCurve[0]
	if triggers <= first.Triggers {
		return first.Reduction
	}
	for i := 1; i < len(NegotiatorCurve); i++ {
		lo, hi := NegotiatorCurve[i-1], NegotiatorCurve[i]
		if triggers < hi.Triggers {
			slope := (hi.Reduction - lo.Reduction) / float64(hi.Triggers-lo.Triggers)
			return lo.Reduction + float64(triggers-lo.Triggers)*slope
		}
	}
	return NegotiatorCurve[len(NegotiatorCurve)-1].Reduction
}

// SpecialistCycleMs is the charge time at the given level. Level 0 never fires.
func SpecialistCycleMs(level int) float64 {
	if level <= 0 {
		return math.Inf(1)
	}
	return SpecialistDayMs / float64(level)
}

// EfficiencySpeedup is the speed divisor contributed by efficiency stacks.
func EfficiencySpeedup(stacks int) float64 {
	if stacks <= 0 {
		return 1
	}
	return math.Pow(EfficiencyStep, float64(stacks))
}

// ProductionDuration divides baseMs by speedDivisor and applies the floor.
func ProductionDuration(baseMs, speedDivisor float64) float64 {
	if speedDivisor <= 0 {
		speedDivisor = 1
	}
	return math.Max(MinProductionMs, baseMs/speedDivisor)
}

// ConsultantBonus returns the income granted over dtMs by an active consultant
// whose target earns revenue every durationMs.
func ConsultantBonus(level int, revenue, durationMs, dtMs float64) float64 {
	if level <= 0 || durationMs <= 0 {
		return 0
	}
	perSecond := ConsultantRate * float64(level) * revenue / (durationMs / 1000)
	return perSecond * dtMs / 1000
}
