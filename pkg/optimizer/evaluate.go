package optimizer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/raykavin/stratevo/pkg/logger"
	"github.com/raykavin/stratevo/pkg/strategy"
)

// EvaluatePopulation scores every configuration using at most parallelism
// workers and returns the results in population order. It returns only once
// every candidate is evaluated; cancellation of ctx does not interrupt it.
func EvaluatePopulation(
	ctx context.Context,
	evaluator Evaluator,
	objective MetricName,
	population []strategy.Config,
	parallelism int,
	log logger.Logger,
) []EvaluatedCandidate {
	results := make([]EvaluatedCandidate, len(population))
	evalCtx := context.WithoutCancel(ctx)

	var group errgroup.Group
	if parallelism > 0 {
		group.SetLimit(parallelism)
	}

	for i, cfg := range population {
		i, cfg := i, cfg
		group.Go(func() error {
			// each worker owns its slot
			results[i] = evaluateCandidate(evalCtx, evaluator, objective, cfg, log)
			return nil
		})
	}

	_ = group.Wait()
	return results
}
