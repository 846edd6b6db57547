// Package metric turns a sequence of trade returns into risk-adjusted
// performance figures.
package metric

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"
)

const (
	// PeriodsPerYear annualizes per-trade figures
	PeriodsPerYear = 252
	// RiskFreeRate is the annual risk-free rate
	RiskFreeRate = 0.02
)

// Metrics summarizes a return sequence. Every field is finite for any input.
type Metrics struct {
	TotalReturn  float64 `json:"total_return"`
	SharpeRatio  float64 `json:"sharpe"`
	SortinoRatio float64 `json:"sortino"`
	CalmarRatio  float64 `json:"calmar"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	WinRate      float64 `json:"win_rate"`
	Trades       int     `json:"trades"`
	ProfitFactor float64 `json:"profit_factor"`
	Payoff       float64 `json:"payoff"`
}

func (m Metrics) String() string {
	return fmt.Sprintf("return: %.4f, sharpe: %.4f, sortino: %.4f, calmar: %.4f, maxDD: %.4f, winRate: %.4f, trades: %d",
		m.TotalReturn, m.SharpeRatio, m.SortinoRatio, m.CalmarRatio, m.MaxDrawdown, m.WinRate, m.Trades)
}

// Compute calculates the metrics of a return sequence.
// Non-finite returns are ignored and degenerate ratios are reported as zero.
func Compute(returns []float64) Metrics {
	values := lo.Filter(returns, func(r float64, _ int) bool { return isFinite(r) })
	if len(values) == 0 {
		return Metrics{}
	}

	n := float64(len(values))
	mean, stdDev := stat.PopMeanStdDev(values, nil)
	excess := mean - RiskFreeRate/PeriodsPerYear
	annualize := math.Sqrt(PeriodsPerYear)

	var sharpe float64
	if stdDev > 0 {
		sharpe = excess / stdDev * annualize
	}

	var sortino float64
	if downside := DownsideDeviation(values); downside > 0 {
		sortino = excess / downside * annualize
	}

	maxDrawdown := MaxDrawdown(values)
	var calmar float64
	if maxDrawdown > 0 {
		calmar = mean * PeriodsPerYear / maxDrawdown
	}

	wins := lo.CountBy(values, func(r float64) bool { return r > 0 })

	return Metrics{
		TotalReturn:  finite(lo.Sum(values)),
		SharpeRatio:  finite(sharpe),
		SortinoRatio: finite(sortino),
		CalmarRatio:  finite(calmar),
		MaxDrawdown:  finite(maxDrawdown),
		WinRate:      finite(float64(wins) / n),
		Trades:       len(values),
		ProfitFactor: finite(ProfitFactor(values)),
		Payoff:       finite(Payoff(values)),
	}
}

// DownsideDeviation is the root mean square of the negative returns,
// divided by the full return count
func DownsideDeviation(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		if r < 0 {
			sum += r * r
		}
	}
	return math.Sqrt(sum / float64(len(returns)))
}

// MaxDrawdown compounds a unit value through the returns and reports the
// largest peak-to-trough decline as a fraction in [0, 1]
func MaxDrawdown(returns []float64) float64 {
	value, peak, maxDrawdown := 1.0, 1.0, 0.0
	for _, r := range returns {
		value = math.Max(value*(1+r), 0)
		if value > peak {
			peak = value
		}
		if drawdown := (peak - value) / peak; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}
	return maxDrawdown
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// finite maps overflow to the nearest representable value and NaN to zero
func finite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	}
	return v
}
