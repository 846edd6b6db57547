package optimizer

import (
	"fmt"
	"math"
	"runtime"

	"github.com/raykavin/stratevo/pkg/logger"
	"github.com/raykavin/stratevo/pkg/strategy"
)

// Config holds configuration for the optimization process
type Config struct {
	// Search space for every candidate
	Bounds strategy.Bounds
	// Objective to maximize
	Objective MetricName
	// Number of generations to evaluate
	Generations int
	// Number of candidates per generation
	PopulationSize int
	// Per-field mutation probability
	MutationRate float64
	// Seed of the random generator driving every stochastic operator
	Seed int64
	// Number of parallel evaluations, zero means one per CPU
	Parallelism int
	// Number of top candidates carried unchanged into the next generation
	Elitism int
	// Logger instance
	Logger logger.Logger
	// Called after every generation is evaluated
	OnGeneration func(stats GenerationStats)
}

// NewConfig creates a default configuration
func NewConfig() *Config {
	return &Config{
		Bounds:         strategy.DefaultBounds(),
		Objective:      MetricSharpe,
		Generations:    20,
		PopulationSize: 30,
		MutationRate:   0.1,
		Seed:           1,
		Parallelism:    0,
		Elitism:        1,
	}
}

// WithBounds sets the search space
func (c *Config) WithBounds(bounds strategy.Bounds) *Config {
	c.Bounds = bounds
	return c
}

// WithObjective sets the metric to maximize
func (c *Config) WithObjective(objective MetricName) *Config {
	c.Objective = objective
	return c
}

// WithGenerations sets the number of generations
func (c *Config) WithGenerations(generations int) *Config {
	c.Generations = generations
	return c
}

// WithPopulationSize sets the number of candidates per generation
func (c *Config) WithPopulationSize(size int) *Config {
	c.PopulationSize = size
	return c
}

// WithMutationRate sets the per-field mutation probability
func (c *Config) WithMutationRate(rate float64) *Config {
	c.MutationRate = rate
	return c
}

// WithSeed sets the random seed
func (c *Config) WithSeed(seed int64) *Config {
	c.Seed = seed
	return c
}

// WithParallelism sets the number of parallel evaluations
func (c *Config) WithParallelism(n int) *Config {
	c.Parallelism = n
	return c
}

// WithElitism sets how many top candidates survive unchanged
func (c *Config) WithElitism(n int) *Config {
	c.Elitism = n
	return c
}

// WithLogger sets the logger
func (c *Config) WithLogger(logger logger.Logger) *Config {
	c.Logger = logger
	return c
}

// WithOnGeneration sets the generation observer
func (c *Config) WithOnGeneration(fn func(stats GenerationStats)) *Config {
	c.OnGeneration = fn
	return c
}

// Validate rejects configurations that must not start a run
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: config cannot be nil", ErrInvalidConfig)
	}
	if c.PopulationSize == 0 {
		return fmt.Errorf("%w: population size is zero", ErrEmptyResult)
	}
	if c.PopulationSize < 0 {
		return fmt.Errorf("%w: population size must be positive, got %d", ErrInvalidConfig, c.PopulationSize)
	}
	if c.Generations <= 0 {
		return fmt.Errorf("%w: generations must be positive, got %d", ErrInvalidConfig, c.Generations)
	}
	if c.MutationRate < 0 || c.MutationRate > 1 || math.IsNaN(c.MutationRate) {
		return fmt.Errorf("%w: mutation rate must lie within [0, 1], got %v", ErrInvalidConfig, c.MutationRate)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("%w: parallelism must not be negative", ErrInvalidConfig)
	}
	if c.Elitism < 0 {
		return fmt.Errorf("%w: elitism must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseMetricName(string(c.Objective)); err != nil {
		return err
	}
	if err := c.Bounds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// workers resolves the effective parallelism
func (c *Config) workers() int {
	if c.Parallelism > 0 {
		return c.Parallelism
	}
	return runtime.GOMAXPROCS(0)
}
