// Package optimizer searches the strategy parameter space with a genetic
// algorithm, scoring every candidate by replaying it over historical bars.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/raykavin/stratevo/pkg/metric"
	"github.com/raykavin/stratevo/pkg/strategy"
)

var (
	ErrInvalidConfig = errors.New("invalid optimizer config")
	ErrEmptyResult   = errors.New("empty result")
)

// WorstScore is assigned to candidates without any fitness signal
const WorstScore = -math.MaxFloat64

// MetricName defines the objective a run maximizes
type MetricName string

const (
	// MetricTotalReturn represents the simple sum of trade returns
	MetricTotalReturn MetricName = "total_return"
	// MetricSharpe represents the annualized Sharpe ratio
	MetricSharpe MetricName = "sharpe"
	// MetricSortino represents the annualized Sortino ratio
	MetricSortino MetricName = "sortino"
	// MetricCalmar represents the Calmar ratio
	MetricCalmar MetricName = "calmar"
	// MetricMaxDrawdown represents the maximum drawdown, lower is better
	MetricMaxDrawdown MetricName = "max_drawdown"
	// MetricWinRate represents the fraction of winning trades
	MetricWinRate MetricName = "win_rate"
)

// MetricNames lists every supported objective
var MetricNames = []MetricName{
	MetricTotalReturn, MetricSharpe, MetricSortino, MetricCalmar, MetricMaxDrawdown, MetricWinRate,
}

// ParseMetricName validates an objective name
func ParseMetricName(value string) (MetricName, error) {
	name := MetricName(strings.ToLower(strings.TrimSpace(value)))
	for _, known := range MetricNames {
		if name == known {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: unknown objective %q", ErrInvalidConfig, value)
}

// Value extracts the raw metric named by m
func (m MetricName) Value(metrics metric.Metrics) float64 {
	switch m {
	case MetricTotalReturn:
		return metrics.TotalReturn
	case MetricSharpe:
		return metrics.SharpeRatio
	case MetricSortino:
		return metrics.SortinoRatio
	case MetricCalmar:
		return metrics.CalmarRatio
	case MetricMaxDrawdown:
		return metrics.MaxDrawdown
	case MetricWinRate:
		return metrics.WinRate
	}
	return 0
}

// Score maps metrics onto a value where higher is always better.
// Drawdown is negated and a run without trades scores WorstScore.
func (m MetricName) Score(metrics metric.Metrics) float64 {
	if metrics.Trades == 0 {
		return WorstScore
	}
	if m == MetricMaxDrawdown {
		return -metrics.MaxDrawdown
	}
	return m.Value(metrics)
}

// EvaluatedCandidate pairs a configuration with its measured performance
type EvaluatedCandidate struct {
	Config  strategy.Config `json:"config"`
	Metrics metric.Metrics  `json:"metrics"`
	Score   float64         `json:"score"`
}

// HasSignal reports whether the candidate produced at least one trade
func (c EvaluatedCandidate) HasSignal() bool { return c.Metrics.Trades > 0 }

// Evaluator defines the interface for scoring a configuration
type Evaluator interface {
	// Evaluate replays cfg and returns its performance metrics
	Evaluate(ctx context.Context, cfg strategy.Config) (metric.Metrics, error)
}

// Optimizer defines the interface for search algorithms
type Optimizer interface {
	// Optimize runs the search and returns the best candidate seen
	Optimize(ctx context.Context) (EvaluatedCandidate, error)
	// History returns the statistics of every completed generation
	History() []GenerationStats
}
