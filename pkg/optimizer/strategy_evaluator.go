package optimizer

import (
	"context"
	"fmt"
	"time"

	"github.com/raykavin/stratevo/pkg/backtest"
	"github.com/raykavin/stratevo/pkg/core"
	"github.com/raykavin/stratevo/pkg/logger"
	"github.com/raykavin/stratevo/pkg/metric"
	"github.com/raykavin/stratevo/pkg/strategy"
)

// BacktestEvaluator evaluates a configuration by simulating it over a shared,
// read-only bar sequence
type BacktestEvaluator struct {
	simulator *backtest.Simulator
	bars      []core.Candle
	logger    logger.Logger
}

// NewBacktestEvaluator creates a new evaluator for backtesting configurations
func NewBacktestEvaluator(simulator *backtest.Simulator, bars []core.Candle, logger logger.Logger) *BacktestEvaluator {
	if simulator == nil {
		simulator = backtest.NewSimulator(nil, logger)
	}
	return &BacktestEvaluator{
		simulator: simulator,
		bars:      bars,
		logger:    logger,
	}
}

// Evaluate runs a backtest with the given configuration and returns performance metrics
func (e *BacktestEvaluator) Evaluate(_ context.Context, cfg strategy.Config) (metric.Metrics, error) {
	startTime := time.Now()

	metrics := metric.Compute(e.simulator.Simulate(cfg, e.bars))

	if e.logger != nil {
		e.logger.WithFields(map[string]any{
			"candidate": cfg.Name,
			"trades":    metrics.Trades,
			"duration":  time.Since(startTime).String(),
		}).Trace("candidate evaluated")
	}

	return metrics, nil
}

// Trades replays cfg and returns the individual trades
func (e *BacktestEvaluator) Trades(cfg strategy.Config) []backtest.Trade {
	return e.simulator.Run(cfg, e.bars)
}

// evaluateCandidate scores one configuration. Errors and panics are contained
// and degrade the candidate to the worst score.
func evaluateCandidate(
	ctx context.Context,
	evaluator Evaluator,
	objective MetricName,
	cfg strategy.Config,
	log logger.Logger,
) (result EvaluatedCandidate) {
	result = EvaluatedCandidate{Config: cfg, Score: WorstScore}

	defer func() {
		if r := recover(); r != nil {
			if log != nil {
				log.WithField("candidate", cfg.Name).Errorf("evaluation panicked: %v", r)
			}
			result = EvaluatedCandidate{Config: cfg, Score: WorstScore}
		}
	}()

	metrics, err := evaluator.Evaluate(ctx, cfg)
	if err != nil {
		if log != nil {
			log.WithError(fmt.Errorf("evaluate %s: %w", cfg.Name, err)).Warn("candidate degraded to worst score")
		}
		return result
	}

	result.Metrics = metrics
	result.Score = objective.Score(metrics)
	return result
}
