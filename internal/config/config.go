// Package config loads the CLI configuration from a YAML file and
// STRATEVO_ prefixed environment variables using Viper
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/stratevo/pkg/logger"
	"github.com/raykavin/stratevo/pkg/optimizer"
	"github.com/raykavin/stratevo/pkg/strategy"
)

// EnvPrefix prefixes every environment override, e.g. STRATEVO_OPTIMIZER_SEED
const EnvPrefix = "STRATEVO"

// Config holds the application configuration
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Optimizer OptimizerConfig `mapstructure:"optimizer"`
	Bounds    BoundsConfig    `mapstructure:"bounds"`
	Log       LogConfig       `mapstructure:"log"`
	Output    OutputConfig    `mapstructure:"output"`
}

// DataConfig locates the historical bars
type DataConfig struct {
	File      string `mapstructure:"file"`
	Pair      string `mapstructure:"pair"`
	Timeframe string `mapstructure:"timeframe"`
	Resample  string `mapstructure:"resample"`
	Window    string `mapstructure:"window"`
}

// OptimizerConfig holds the search parameters
type OptimizerConfig struct {
	Method       string  `mapstructure:"method"`
	Objective    string  `mapstructure:"objective"`
	Generations  int     `mapstructure:"generations"`
	Population   int     `mapstructure:"population"`
	MutationRate float64 `mapstructure:"mutation_rate"`
	Seed         int64   `mapstructure:"seed"`
	Parallelism  int     `mapstructure:"parallelism"`
	Elitism      int     `mapstructure:"elitism"`
}

// BoundsConfig mirrors strategy.Bounds with plain option names
type BoundsConfig struct {
	MaxPositionSize      strategy.Range    `mapstructure:"max_position_size"`
	StopLossPercent      strategy.Range    `mapstructure:"stop_loss_percent"`
	TakeProfitPercent    strategy.Range    `mapstructure:"take_profit_percent"`
	MaxDrawdownLimit     strategy.Range    `mapstructure:"max_drawdown_limit"`
	FastPeriod           strategy.IntRange `mapstructure:"fast_period"`
	SlowPeriod           strategy.IntRange `mapstructure:"slow_period"`
	RiskLevels           []string          `mapstructure:"risk_levels"`
	RebalanceFrequencies []string          `mapstructure:"rebalance_frequencies"`
	Indicators           []string          `mapstructure:"indicators"`
}

// LogConfig configures the console logger
type LogConfig struct {
	Level   string `mapstructure:"level"`
	Colored bool   `mapstructure:"colored"`
	JSON    bool   `mapstructure:"json"`
	Layout  string `mapstructure:"layout"`
}

// OutputConfig names optional artifacts of a run
type OutputConfig struct {
	History string `mapstructure:"history"`
	Store   string `mapstructure:"store"`
}

// Method names accepted by optimizer.method
const (
	MethodGenetic = "genetic"
	MethodRandom  = "random"
)

func setDefaults(v *viper.Viper) {
	defaults := optimizer.NewConfig()
	bounds := strategy.DefaultBounds()

	v.SetDefault("data.file", "")
	v.SetDefault("data.pair", "BTCUSDT")
	v.SetDefault("data.timeframe", "1d")
	v.SetDefault("data.resample", "")
	v.SetDefault("data.window", "")

	v.SetDefault("optimizer.method", MethodGenetic)
	v.SetDefault("optimizer.objective", string(defaults.Objective))
	v.SetDefault("optimizer.generations", defaults.Generations)
	v.SetDefault("optimizer.population", defaults.PopulationSize)
	v.SetDefault("optimizer.mutation_rate", defaults.MutationRate)
	v.SetDefault("optimizer.seed", defaults.Seed)
	v.SetDefault("optimizer.parallelism", defaults.Parallelism)
	v.SetDefault("optimizer.elitism", defaults.Elitism)

	setRange := func(key string, r strategy.Range) {
		v.SetDefault(key+".min", r.Min)
		v.SetDefault(key+".max", r.Max)
	}
	setIntRange := func(key string, r strategy.IntRange) {
		v.SetDefault(key+".min", r.Min)
		v.SetDefault(key+".max", r.Max)
	}
	setRange("bounds.max_position_size", bounds.MaxPositionSize)
	setRange("bounds.stop_loss_percent", bounds.StopLossPercent)
	setRange("bounds.take_profit_percent", bounds.TakeProfitPercent)
	setRange("bounds.max_drawdown_limit", bounds.MaxDrawdownLimit)
	setIntRange("bounds.fast_period", bounds.FastPeriod)
	setIntRange("bounds.slow_period", bounds.SlowPeriod)

	riskLevels := make([]string, len(bounds.RiskLevels))
	for i, level := range bounds.RiskLevels {
		riskLevels[i] = string(level)
	}
	frequencies := make([]string, len(bounds.RebalanceFrequencies))
	for i, freq := range bounds.RebalanceFrequencies {
		frequencies[i] = string(freq)
	}
	v.SetDefault("bounds.risk_levels", riskLevels)
	v.SetDefault("bounds.rebalance_frequencies", frequencies)
	v.SetDefault("bounds.indicators", bounds.Indicators)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.colored", true)
	v.SetDefault("log.json", false)
	v.SetDefault("log.layout", time.DateTime)

	v.SetDefault("output.history", "")
	v.SetDefault("output.store", "")
}

// New returns a Viper instance carrying defaults and environment overrides
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file at path, if any, over the defaults.
// Environment variables take precedence over the file.
func Load(path string) (*Config, error) {
	return LoadWith(New(), path)
}

// LoadWith is Load on a caller-supplied Viper instance
func LoadWith(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// WriteDefault saves the default configuration to path
func WriteDefault(path string) error {
	v := viper.New()
	setDefaults(v)
	for _, key := range v.AllKeys() {
		v.Set(key, v.Get(key))
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("could not save default configuration: %w", err)
	}
	return nil
}

// ToBounds converts the bounds section into validated strategy bounds
func (c *Config) ToBounds() (strategy.Bounds, error) {
	bounds := strategy.Bounds{
		MaxPositionSize:   c.Bounds.MaxPositionSize,
		StopLossPercent:   c.Bounds.StopLossPercent,
		TakeProfitPercent: c.Bounds.TakeProfitPercent,
		MaxDrawdownLimit:  c.Bounds.MaxDrawdownLimit,
		FastPeriod:        c.Bounds.FastPeriod,
		SlowPeriod:        c.Bounds.SlowPeriod,
		Indicators:        c.Bounds.Indicators,
	}

	var errs []error
	for _, name := range c.Bounds.RiskLevels {
		level, err := strategy.ParseRiskLevel(name)
		errs = append(errs, err)
		bounds.RiskLevels = append(bounds.RiskLevels, level)
	}
	for _, name := range c.Bounds.RebalanceFrequencies {
		freq, err := strategy.ParseRebalanceFrequency(name)
		errs = append(errs, err)
		bounds.RebalanceFrequencies = append(bounds.RebalanceFrequencies, freq)
	}
	if err := errors.Join(errs...); err != nil {
		return strategy.Bounds{}, err
	}

	if err := bounds.Validate(); err != nil {
		return strategy.Bounds{}, err
	}
	return bounds, nil
}

// ToOptimizer builds the optimizer configuration
func (c *Config) ToOptimizer(log logger.Logger) (*optimizer.Config, error) {
	bounds, err := c.ToBounds()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", optimizer.ErrInvalidConfig, err)
	}

	objective, err := optimizer.ParseMetricName(c.Optimizer.Objective)
	if err != nil {
		return nil, err
	}

	switch c.Optimizer.Method {
	case MethodGenetic, MethodRandom:
	default:
		return nil, fmt.Errorf("%w: unknown method %q", optimizer.ErrInvalidConfig, c.Optimizer.Method)
	}

	config := optimizer.NewConfig().
		WithBounds(bounds).
		WithObjective(objective).
		WithGenerations(c.Optimizer.Generations).
		WithPopulationSize(c.Optimizer.Population).
		WithMutationRate(c.Optimizer.MutationRate).
		WithSeed(c.Optimizer.Seed).
		WithParallelism(c.Optimizer.Parallelism).
		WithElitism(c.Optimizer.Elitism).
		WithLogger(log)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Window parses data.window; an empty value means the whole history
func (c *Config) Window() (time.Duration, error) {
	if c.Data.Window == "" {
		return 0, nil
	}
	window, err := str2duration.ParseDuration(c.Data.Window)
	if err != nil {
		return 0, fmt.Errorf("invalid window %q: %w", c.Data.Window, err)
	}
	if window < 0 {
		return 0, fmt.Errorf("invalid window %q: must not be negative", c.Data.Window)
	}
	return window, nil
}
