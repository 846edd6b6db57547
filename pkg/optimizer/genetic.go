package optimizer

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/raykavin/stratevo/pkg/backtest"
	"github.com/raykavin/stratevo/pkg/core"
	"github.com/raykavin/stratevo/pkg/strategy"
)

// State is the phase of an optimization run
type State int

const (
	StateInitializing State = iota
	StateEvaluating
	StateSelecting
	StateRecombining
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateEvaluating:
		return "evaluating"
	case StateSelecting:
		return "selecting"
	case StateRecombining:
		return "recombining"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// GenerationStats summarizes one evaluated generation
type GenerationStats struct {
	Generation int                `json:"generation"`
	Best       float64            `json:"best"`
	Mean       float64            `json:"mean"`
	Worst      float64            `json:"worst"`
	NoSignal   int                `json:"no_signal"`
	BestEver   EvaluatedCandidate `json:"best_ever"`
	Duration   time.Duration      `json:"duration"`
}

// newGenerationStats summarizes evaluated; Mean only covers candidates that traded
func newGenerationStats(generation int, evaluated []EvaluatedCandidate, bestEver EvaluatedCandidate, duration time.Duration) GenerationStats {
	stats := GenerationStats{
		Generation: generation,
		Best:       WorstScore,
		Worst:      WorstScore,
		BestEver:   bestEver,
		Duration:   duration,
	}
	if len(evaluated) == 0 {
		return stats
	}

	scores := lo.Map(evaluated, func(c EvaluatedCandidate, _ int) float64 { return c.Score })
	stats.Best = lo.Max(scores)
	stats.Worst = lo.Min(scores)

	signal := lo.Filter(evaluated, func(c EvaluatedCandidate, _ int) bool { return c.HasSignal() })
	stats.NoSignal = len(evaluated) - len(signal)
	if len(signal) > 0 {
		stats.Mean = lo.SumBy(signal, func(c EvaluatedCandidate) float64 { return c.Score }) / float64(len(signal))
	}

	return stats
}

// Genetic implements the evolutionary search
type Genetic struct {
	config    *Config
	evaluator Evaluator
	rng       *rand.Rand

	mu      sync.RWMutex
	state   State
	history []GenerationStats
}

// NewGenetic creates a genetic optimizer, failing fast on invalid configuration
func NewGenetic(config *Config, evaluator Evaluator) (*Genetic, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if evaluator == nil {
		return nil, fmt.Errorf("%w: evaluator cannot be nil", ErrInvalidConfig)
	}

	return &Genetic{
		config:    config,
		evaluator: evaluator,
		rng:       rand.New(rand.NewSource(config.Seed)),
		state:     StateInitializing,
	}, nil
}

// State returns the current phase of the run
func (g *Genetic) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// History returns a copy of the per-generation statistics
func (g *Genetic) History() []GenerationStats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	history := make([]GenerationStats, len(g.history))
	copy(history, g.history)
	return history
}

func (g *Genetic) setState(state State) {
	g.mu.Lock()
	g.state = state
	g.mu.Unlock()
}

// Optimize runs the configured number of generations and returns the best
// candidate ever evaluated. Cancellation is honoured between generations; the
// best candidate found so far is returned alongside the context error.
func (g *Genetic) Optimize(ctx context.Context) (EvaluatedCandidate, error) {
	cfg := g.config
	g.setState(StateInitializing)
	population := Initialize(cfg.PopulationSize, cfg.Bounds, g.rng)

	g.logf("Starting genetic search: %d generations of %d candidates, objective %s",
		cfg.Generations, cfg.PopulationSize, cfg.Objective)

	var (
		best    EvaluatedCandidate
		hasBest bool
	)

	for generation := 0; generation < cfg.Generations; generation++ {
		if err := ctx.Err(); err != nil {
			g.setState(StateDone)
			g.logf("Search cancelled before generation %d", generation)
			if !hasBest {
				return EvaluatedCandidate{}, err
			}
			return best, err
		}

		startTime := time.Now()
		g.setState(StateEvaluating)
		evaluated := EvaluatePopulation(ctx, g.evaluator, cfg.Objective, population, cfg.workers(), cfg.Logger)

		// strictly greater: an equal later score keeps the incumbent
		for _, candidate := range evaluated {
			if !hasBest || candidate.Score > best.Score {
				best = candidate
				hasBest = true
			}
		}

		stats := newGenerationStats(generation, evaluated, best, time.Since(startTime))
		g.record(stats)

		if generation == cfg.Generations-1 {
			break
		}

		g.setState(StateSelecting)
		pool := g.breedingPool(evaluated)

		g.setState(StateRecombining)
		population = g.recombine(pool, generation+1)
	}

	g.setState(StateDone)
	g.logf("Search completed, best %s scored %.4f", best.Config.Name, best.Score)
	return best, nil
}

func (g *Genetic) record(stats GenerationStats) {
	g.mu.Lock()
	g.history = append(g.history, stats)
	g.mu.Unlock()

	g.logf("Generation %d: best %.4f, mean %.4f, no signal %d, best ever %s (%.4f)",
		stats.Generation, stats.Best, stats.Mean, stats.NoSignal, stats.BestEver.Config.Name, stats.BestEver.Score)

	if g.config.OnGeneration != nil {
		g.config.OnGeneration(stats)
	}
}

// breedingPool selects the parents of the next generation; a population too
// small to halve falls back to its single best candidate
func (g *Genetic) breedingPool(evaluated []EvaluatedCandidate) []strategy.Config {
	pool := Select(evaluated, g.config.Objective)
	if len(pool) == 0 && len(evaluated) > 0 {
		pool = []strategy.Config{Rank(evaluated, g.config.Objective)[0].Config}
	}
	return pool
}

// recombine carries the elite over unchanged and fills the rest of the
// population with mutated children of uniformly drawn parents
func (g *Genetic) recombine(pool []strategy.Config, generation int) []strategy.Config {
	size := g.config.PopulationSize
	next := make([]strategy.Config, 0, size)

	elite := min(g.config.Elitism, len(pool), size)
	for _, cfg := range pool[:elite] {
		next = append(next, cfg.Clone())
	}

	for len(next) < size {
		first := pool[g.rng.Intn(len(pool))]
		second := pool[g.rng.Intn(len(pool))]

		child := Crossover(first, second, g.rng)
		child = Mutate(child, g.config.Bounds, g.config.MutationRate, g.rng)
		next = append(next, child.WithName(fmt.Sprintf("g%d-c%d", generation, len(next))))
	}

	return next
}

func (g *Genetic) logf(format string, args ...any) {
	if g.config.Logger != nil {
		g.config.Logger.Infof(format, args...)
	}
}

// Optimize searches bounds for the configuration that maximizes the objective
// over bars, using the default entry rule
func Optimize(ctx context.Context, bars []core.Candle, config *Config) (EvaluatedCandidate, error) {
	if err := config.Validate(); err != nil {
		return EvaluatedCandidate{}, err
	}

	simulator := backtest.NewSimulator(nil, config.Logger)
	evaluator := NewBacktestEvaluator(simulator, bars, config.Logger)

	genetic, err := NewGenetic(config, evaluator)
	if err != nil {
		return EvaluatedCandidate{}, err
	}
	return genetic.Optimize(ctx)
}
