// Package strategy defines the parameter bundle searched by the optimizer
// and the bounds that constrain it.
package strategy

import (
	"fmt"
	"slices"
	"strings"
)

// RiskLevel is the declared risk appetite of a strategy
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// RebalanceFrequency is informational and not consulted by the simulator
type RebalanceFrequency string

const (
	RebalanceDaily   RebalanceFrequency = "daily"
	RebalanceWeekly  RebalanceFrequency = "weekly"
	RebalanceMonthly RebalanceFrequency = "monthly"
)

// Indicator names understood by the default entry rule.
// Any other name is looked up among the registered signal providers.
const (
	IndicatorSMA = "sma"
	IndicatorEMA = "ema"
	IndicatorRSI = "rsi"
)

// DefaultIndicators is the indicator set given to freshly initialized candidates
var DefaultIndicators = []string{IndicatorSMA, IndicatorRSI}

// Config is an immutable strategy parameter bundle.
// Operators never modify a Config in place; they return new values.
type Config struct {
	Name               string             `json:"name"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	MaxPositionSize    float64            `json:"max_position_size"`
	StopLossPercent    float64            `json:"stop_loss_percent"`
	TakeProfitPercent  float64            `json:"take_profit_percent"`
	MaxDrawdownLimit   float64            `json:"max_drawdown_limit"`
	RebalanceFrequency RebalanceFrequency `json:"rebalance_frequency"`
	FastPeriod         int                `json:"fast_period"`
	SlowPeriod         int                `json:"slow_period"`
	Indicators         []string           `json:"indicators"`
}

// WithName returns a copy of the config carrying a new display name
func (c Config) WithName(name string) Config {
	clone := c.Clone()
	clone.Name = name
	return clone
}

// Clone returns a deep copy of the config
func (c Config) Clone() Config {
	clone := c
	clone.Indicators = slices.Clone(c.Indicators)
	return clone
}

// HasIndicator reports whether the indicator set contains name
func (c Config) HasIndicator(name string) bool {
	return slices.Contains(c.Indicators, name)
}

// Equal compares every field, including the indicator set in order
func (c Config) Equal(other Config) bool {
	return c.Name == other.Name &&
		c.RiskLevel == other.RiskLevel &&
		c.MaxPositionSize == other.MaxPositionSize &&
		c.StopLossPercent == other.StopLossPercent &&
		c.TakeProfitPercent == other.TakeProfitPercent &&
		c.MaxDrawdownLimit == other.MaxDrawdownLimit &&
		c.RebalanceFrequency == other.RebalanceFrequency &&
		c.FastPeriod == other.FastPeriod &&
		c.SlowPeriod == other.SlowPeriod &&
		slices.Equal(c.Indicators, other.Indicators)
}

// String formats the config for logs
func (c Config) String() string {
	return fmt.Sprintf("%s{risk: %s, size: %.4f, sl: %.2f%%, tp: %.2f%%, ddLimit: %.4f, rebalance: %s, ma: %d/%d, indicators: [%s]}",
		c.Name, c.RiskLevel, c.MaxPositionSize, c.StopLossPercent, c.TakeProfitPercent,
		c.MaxDrawdownLimit, c.RebalanceFrequency, c.FastPeriod, c.SlowPeriod,
		strings.Join(c.Indicators, ", "))
}

// ParseRiskLevel validates a risk level name
func ParseRiskLevel(value string) (RiskLevel, error) {
	switch level := RiskLevel(strings.ToLower(value)); level {
	case RiskLow, RiskMedium, RiskHigh:
		return level, nil
	default:
		return "", fmt.Errorf("%w: unknown risk level %q", ErrInvalidBounds, value)
	}
}

// ParseRebalanceFrequency validates a rebalance frequency name
func ParseRebalanceFrequency(value string) (RebalanceFrequency, error) {
	switch freq := RebalanceFrequency(strings.ToLower(value)); freq {
	case RebalanceDaily, RebalanceWeekly, RebalanceMonthly:
		return freq, nil
	default:
		return "", fmt.Errorf("%w: unknown rebalance frequency %q", ErrInvalidBounds, value)
	}
}
