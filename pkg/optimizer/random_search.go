package optimizer

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// RandomSearch samples every generation independently from the bounds.
// It shares the evaluation budget and bookkeeping of Genetic, which makes
// it a baseline for judging whether recombination pays off.
type RandomSearch struct {
	config    *Config
	evaluator Evaluator
	rng       *rand.Rand

	mu      sync.RWMutex
	history []GenerationStats
}

// NewRandomSearch creates a new random search optimizer
func NewRandomSearch(config *Config, evaluator Evaluator) (*RandomSearch, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if evaluator == nil {
		return nil, fmt.Errorf("%w: evaluator cannot be nil", ErrInvalidConfig)
	}

	return &RandomSearch{
		config:    config,
		evaluator: evaluator,
		rng:       rand.New(rand.NewSource(config.Seed)),
	}, nil
}

// History returns a copy of the per-generation statistics
func (r *RandomSearch) History() []GenerationStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	history := make([]GenerationStats, len(r.history))
	copy(history, r.history)
	return history
}

// Optimize runs the random search optimization process
func (r *RandomSearch) Optimize(ctx context.Context) (EvaluatedCandidate, error) {
	cfg := r.config
	r.logf("Starting random search with %d batches of %d candidates", cfg.Generations, cfg.PopulationSize)

	var (
		best    EvaluatedCandidate
		hasBest bool
	)

	for batch := 0; batch < cfg.Generations; batch++ {
		if err := ctx.Err(); err != nil {
			if !hasBest {
				return EvaluatedCandidate{}, err
			}
			return best, err
		}

		startTime := time.Now()
		population := Initialize(cfg.PopulationSize, cfg.Bounds, r.rng)
		for i := range population {
			population[i].Name = fmt.Sprintf("r%d-c%d", batch, i)
		}

		evaluated := EvaluatePopulation(ctx, r.evaluator, cfg.Objective, population, cfg.workers(), cfg.Logger)
		for _, candidate := range evaluated {
			if !hasBest || candidate.Score > best.Score {
				best = candidate
				hasBest = true
			}
		}

		stats := newGenerationStats(batch, evaluated, best, time.Since(startTime))
		r.mu.Lock()
		r.history = append(r.history, stats)
		r.mu.Unlock()

		if cfg.OnGeneration != nil {
			cfg.OnGeneration(stats)
		}
	}

	r.logf("Random search completed, best %s scored %.4f", best.Config.Name, best.Score)
	return best, nil
}

func (r *RandomSearch) logf(format string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Infof(format, args...)
	}
}
