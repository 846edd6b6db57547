package strategy

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"slices"
)

var ErrInvalidBounds = errors.New("invalid bounds")

// Range is a closed float interval [Min, Max]
type Range struct {
	Min float64 `json:"min" mapstructure:"min"`
	Max float64 `json:"max" mapstructure:"max"`
}

// Validate checks that the range is finite and ordered
func (r Range) Validate(field string) error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return fmt.Errorf("%w: %s must be finite", ErrInvalidBounds, field)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%w: %s min %.6f is greater than max %.6f", ErrInvalidBounds, field, r.Min, r.Max)
	}
	return nil
}

// Contains reports whether v lies within the range
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// Sample draws uniformly from the range.
// The draw is clamped to Max to guard against rounding past the bound.
func (r Range) Sample(rng *rand.Rand) float64 {
	return math.Min(r.Min+rng.Float64()*(r.Max-r.Min), r.Max)
}

// Mid returns the midpoint of the range
func (r Range) Mid() float64 { return r.Min + (r.Max-r.Min)/2 }

// IntRange is a closed integer interval [Min, Max]
type IntRange struct {
	Min int `json:"min" mapstructure:"min"`
	Max int `json:"max" mapstructure:"max"`
}

// Validate checks that the range is ordered
func (r IntRange) Validate(field string) error {
	if r.Min > r.Max {
		return fmt.Errorf("%w: %s min %d is greater than max %d", ErrInvalidBounds, field, r.Min, r.Max)
	}
	return nil
}

// Contains reports whether v lies within the range
func (r IntRange) Contains(v int) bool { return v >= r.Min && v <= r.Max }

// Sample draws uniformly from the range, both ends inclusive
func (r IntRange) Sample(rng *rand.Rand) int {
	return r.Min + rng.Intn(r.Max-r.Min+1)
}

// Mid returns the midpoint of the range, rounded down
func (r IntRange) Mid() int { return r.Min + (r.Max-r.Min)/2 }

// Bounds is the search space handed to the optimizer.
// Every candidate it produces must satisfy Check.
type Bounds struct {
	MaxPositionSize      Range                `json:"max_position_size"`
	StopLossPercent      Range                `json:"stop_loss_percent"`
	TakeProfitPercent    Range                `json:"take_profit_percent"`
	MaxDrawdownLimit     Range                `json:"max_drawdown_limit"`
	FastPeriod           IntRange             `json:"fast_period"`
	SlowPeriod           IntRange             `json:"slow_period"`
	RiskLevels           []RiskLevel          `json:"risk_levels"`
	RebalanceFrequencies []RebalanceFrequency `json:"rebalance_frequencies"`
	Indicators           []string             `json:"indicators"`
}

// DefaultBounds returns a conservative search space
func DefaultBounds() Bounds {
	return Bounds{
		MaxPositionSize:      Range{Min: 0.01, Max: 0.1},
		StopLossPercent:      Range{Min: 0.5, Max: 10},
		TakeProfitPercent:    Range{Min: 1, Max: 20},
		MaxDrawdownLimit:     Range{Min: 0.05, Max: 0.3},
		FastPeriod:           IntRange{Min: 3, Max: 20},
		SlowPeriod:           IntRange{Min: 21, Max: 100},
		RiskLevels:           []RiskLevel{RiskLow, RiskMedium, RiskHigh},
		RebalanceFrequencies: []RebalanceFrequency{RebalanceDaily, RebalanceWeekly, RebalanceMonthly},
		Indicators:           slices.Clone(DefaultIndicators),
	}
}

// Validate rejects bounds that could let an operator emit an invalid config
func (b Bounds) Validate() error {
	ranges := []struct {
		name string
		r    Range
	}{
		{"max_position_size", b.MaxPositionSize},
		{"stop_loss_percent", b.StopLossPercent},
		{"take_profit_percent", b.TakeProfitPercent},
		{"max_drawdown_limit", b.MaxDrawdownLimit},
	}
	for _, item := range ranges {
		if err := item.r.Validate(item.name); err != nil {
			return err
		}
	}

	if b.MaxPositionSize.Min <= 0 || b.MaxPositionSize.Max > 1 {
		return fmt.Errorf("%w: max_position_size must lie within (0, 1]", ErrInvalidBounds)
	}
	if b.StopLossPercent.Min <= 0 {
		return fmt.Errorf("%w: stop_loss_percent must be positive", ErrInvalidBounds)
	}
	if b.TakeProfitPercent.Min <= 0 {
		return fmt.Errorf("%w: take_profit_percent must be positive", ErrInvalidBounds)
	}
	if b.MaxDrawdownLimit.Min < 0 {
		return fmt.Errorf("%w: max_drawdown_limit must not be negative", ErrInvalidBounds)
	}

	if err := b.FastPeriod.Validate("fast_period"); err != nil {
		return err
	}
	if err := b.SlowPeriod.Validate("slow_period"); err != nil {
		return err
	}
	if b.FastPeriod.Min < 2 {
		return fmt.Errorf("%w: fast_period must be at least 2", ErrInvalidBounds)
	}
	if b.FastPeriod.Max >= b.SlowPeriod.Min {
		return fmt.Errorf("%w: fast_period max %d must be below slow_period min %d",
			ErrInvalidBounds, b.FastPeriod.Max, b.SlowPeriod.Min)
	}

	if len(b.RiskLevels) == 0 {
		return fmt.Errorf("%w: at least one risk level must be provided", ErrInvalidBounds)
	}
	for _, level := range b.RiskLevels {
		if _, err := ParseRiskLevel(string(level)); err != nil {
			return err
		}
	}
	if len(b.RebalanceFrequencies) == 0 {
		return fmt.Errorf("%w: at least one rebalance frequency must be provided", ErrInvalidBounds)
	}
	for _, freq := range b.RebalanceFrequencies {
		if _, err := ParseRebalanceFrequency(string(freq)); err != nil {
			return err
		}
	}

	return nil
}

// Check returns an error naming the first field of cfg outside the bounds
func (b Bounds) Check(cfg Config) error {
	switch {
	case !b.MaxPositionSize.Contains(cfg.MaxPositionSize):
		return fmt.Errorf("%w: max_position_size %.6f out of range", ErrInvalidBounds, cfg.MaxPositionSize)
	case !b.StopLossPercent.Contains(cfg.StopLossPercent):
		return fmt.Errorf("%w: stop_loss_percent %.6f out of range", ErrInvalidBounds, cfg.StopLossPercent)
	case !b.TakeProfitPercent.Contains(cfg.TakeProfitPercent):
		return fmt.Errorf("%w: take_profit_percent %.6f out of range", ErrInvalidBounds, cfg.TakeProfitPercent)
	case !b.MaxDrawdownLimit.Contains(cfg.MaxDrawdownLimit):
		return fmt.Errorf("%w: max_drawdown_limit %.6f out of range", ErrInvalidBounds, cfg.MaxDrawdownLimit)
	case !b.FastPeriod.Contains(cfg.FastPeriod):
		return fmt.Errorf("%w: fast_period %d out of range", ErrInvalidBounds, cfg.FastPeriod)
	case !b.SlowPeriod.Contains(cfg.SlowPeriod):
		return fmt.Errorf("%w: slow_period %d out of range", ErrInvalidBounds, cfg.SlowPeriod)
	case !slices.Contains(b.RiskLevels, cfg.RiskLevel):
		return fmt.Errorf("%w: risk level %q not allowed", ErrInvalidBounds, cfg.RiskLevel)
	case !slices.Contains(b.RebalanceFrequencies, cfg.RebalanceFrequency):
		return fmt.Errorf("%w: rebalance frequency %q not allowed", ErrInvalidBounds, cfg.RebalanceFrequency)
	}
	return nil
}

// Sample draws a config with every field uniform within the bounds
func (b Bounds) Sample(name string, rng *rand.Rand) Config {
	return Config{
		Name:               name,
		RiskLevel:          b.RiskLevels[rng.Intn(len(b.RiskLevels))],
		MaxPositionSize:    b.MaxPositionSize.Sample(rng),
		StopLossPercent:    b.StopLossPercent.Sample(rng),
		TakeProfitPercent:  b.TakeProfitPercent.Sample(rng),
		MaxDrawdownLimit:   b.MaxDrawdownLimit.Sample(rng),
		RebalanceFrequency: b.RebalanceFrequencies[rng.Intn(len(b.RebalanceFrequencies))],
		FastPeriod:         b.FastPeriod.Sample(rng),
		SlowPeriod:         b.SlowPeriod.Sample(rng),
		Indicators:         slices.Clone(b.Indicators),
	}
}

// Midpoint returns the config sitting at the centre of every range,
// using the first allowed option for categorical fields
func (b Bounds) Midpoint(name string) Config {
	return Config{
		Name:               name,
		RiskLevel:          b.RiskLevels[0],
		MaxPositionSize:    b.MaxPositionSize.Mid(),
		StopLossPercent:    b.StopLossPercent.Mid(),
		TakeProfitPercent:  b.TakeProfitPercent.Mid(),
		MaxDrawdownLimit:   b.MaxDrawdownLimit.Mid(),
		RebalanceFrequency: b.RebalanceFrequencies[0],
		FastPeriod:         b.FastPeriod.Mid(),
		SlowPeriod:         b.SlowPeriod.Mid(),
		Indicators:         slices.Clone(b.Indicators),
	}
}
