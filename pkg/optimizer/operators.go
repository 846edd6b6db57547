package optimizer

import (
	"math/rand"

	"github.com/StudioSol/set"

	"github.com/raykavin/stratevo/pkg/strategy"
)

// pick returns a or b with equal probability
func pick[T any](rng *rand.Rand, a, b T) T {
	if rng.Intn(2) == 0 {
		return a
	}
	return b
}

// Crossover builds a child whose fields are each inherited whole from one
// of the parents. The indicator set is the union of both, first parent first.
func Crossover(a, b strategy.Config, rng *rand.Rand) strategy.Config {
	child := strategy.Config{
		Name:               a.Name,
		RiskLevel:          pick(rng, a.RiskLevel, b.RiskLevel),
		MaxPositionSize:    pick(rng, a.MaxPositionSize, b.MaxPositionSize),
		StopLossPercent:    pick(rng, a.StopLossPercent, b.StopLossPercent),
		TakeProfitPercent:  pick(rng, a.TakeProfitPercent, b.TakeProfitPercent),
		MaxDrawdownLimit:   pick(rng, a.MaxDrawdownLimit, b.MaxDrawdownLimit),
		RebalanceFrequency: pick(rng, a.RebalanceFrequency, b.RebalanceFrequency),
		FastPeriod:         pick(rng, a.FastPeriod, b.FastPeriod),
		SlowPeriod:         pick(rng, a.SlowPeriod, b.SlowPeriod),
	}

	union := set.NewLinkedHashSetString()
	for _, name := range a.Indicators {
		union.Add(name)
	}
	for _, name := range b.Indicators {
		union.Add(name)
	}
	for name := range union.Iter() {
		child.Indicators = append(child.Indicators, name)
	}

	return child
}

// Mutate redraws each field within bounds with probability rate.
// Fields that are not selected pass through unchanged.
func Mutate(cfg strategy.Config, bounds strategy.Bounds, rate float64, rng *rand.Rand) strategy.Config {
	mutated := cfg.Clone()
	hit := func() bool { return rng.Float64() < rate }

	if hit() {
		mutated.RiskLevel = bounds.RiskLevels[rng.Intn(len(bounds.RiskLevels))]
	}
	if hit() {
		mutated.MaxPositionSize = bounds.MaxPositionSize.Sample(rng)
	}
	if hit() {
		mutated.StopLossPercent = bounds.StopLossPercent.Sample(rng)
	}
	if hit() {
		mutated.TakeProfitPercent = bounds.TakeProfitPercent.Sample(rng)
	}
	if hit() {
		mutated.MaxDrawdownLimit = bounds.MaxDrawdownLimit.Sample(rng)
	}
	if hit() {
		mutated.RebalanceFrequency = bounds.RebalanceFrequencies[rng.Intn(len(bounds.RebalanceFrequencies))]
	}
	if hit() {
		mutated.FastPeriod = bounds.FastPeriod.Sample(rng)
	}
	if hit() {
		mutated.SlowPeriod = bounds.SlowPeriod.Sample(rng)
	}

	return mutated
}
