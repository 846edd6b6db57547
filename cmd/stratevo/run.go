package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/raykavin/stratevo/internal/config"
	"github.com/raykavin/stratevo/pkg/backtest"
	"github.com/raykavin/stratevo/pkg/core"
	"github.com/raykavin/stratevo/pkg/exchange"
	"github.com/raykavin/stratevo/pkg/logger"
	"github.com/raykavin/stratevo/pkg/logger/zerolog"
	"github.com/raykavin/stratevo/pkg/metric"
	"github.com/raykavin/stratevo/pkg/optimizer"
	"github.com/raykavin/stratevo/pkg/storage"
)

const defaultConfigPath = "./stratevo.yaml"

// loadConfig reads the configuration file and applies the flags that were set
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	overrides := []struct {
		flag  string
		apply func()
	}{
		{"data", func() { cfg.Data.File = dataFile }},
		{"pair", func() { cfg.Data.Pair = pair }},
		{"timeframe", func() { cfg.Data.Timeframe = timeframe }},
		{"resample", func() { cfg.Data.Resample = resample }},
		{"window", func() { cfg.Data.Window = window }},
		{"log-level", func() { cfg.Log.Level = logLevel }},
		{"generations", func() { cfg.Optimizer.Generations = generations }},
		{"population", func() { cfg.Optimizer.Population = population }},
		{"mutation", func() { cfg.Optimizer.MutationRate = mutation }},
		{"seed", func() { cfg.Optimizer.Seed = seed }},
		{"objective", func() { cfg.Optimizer.Objective = objective }},
		{"method", func() { cfg.Optimizer.Method = method }},
		{"parallel", func() { cfg.Optimizer.Parallelism = parallel }},
		{"elitism", func() { cfg.Optimizer.Elitism = elitism }},
		{"output", func() { cfg.Output.History = outputFile }},
		{"store", func() { cfg.Output.Store = storeFile }},
	}
	for _, override := range overrides {
		if f := flags.Lookup(override.flag); f != nil && f.Changed {
			override.apply()
		}
	}

	if cfg.Data.File == "" {
		return nil, errors.New("no data file: use --data or data.file")
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (logger.Logger, error) {
	return zerolog.New(os.Stderr, zerolog.Options{
		Level:          cfg.Log.Level,
		DateTimeLayout: cfg.Log.Layout,
		Colored:        cfg.Log.Colored,
		JSON:           cfg.Log.JSON,
	})
}

// loadBars reads the CSV feed and trims it to the configured window
func loadBars(ctx context.Context, cfg *config.Config, log logger.Logger) ([]core.Candle, error) {
	feed, err := exchange.NewCSVFeed(cfg.Data.Resample, exchange.PairFeed{
		Pair:      cfg.Data.Pair,
		File:      cfg.Data.File,
		Timeframe: cfg.Data.Timeframe,
	})
	if err != nil {
		return nil, err
	}

	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}
	if window > 0 {
		feed.Limit(window)
	}

	var source core.BarSource = feed
	bars, err := source.CandlesByPeriod(ctx, cfg.Data.Pair, time.Time{}, time.Time{})
	if err != nil {
		return nil, err
	}

	if len(bars) > 0 {
		log.WithFields(map[string]any{
			"pair":  cfg.Data.Pair,
			"bars":  len(bars),
			"start": bars[0].Time.Format(time.DateOnly),
			"end":   bars[len(bars)-1].Time.Format(time.DateOnly),
		}).Info("historical data loaded")
	} else {
		log.Warnf("no bars loaded for %s", cfg.Data.Pair)
	}
	return bars, nil
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	optConfig, err := cfg.ToOptimizer(log)
	if err != nil {
		return err
	}

	bars, err := loadBars(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	var store *storage.RunStorage
	runID := time.Now().UTC().Format("20060102-150405")
	if cfg.Output.Store != "" {
		if store, err = storage.FromFile(cfg.Output.Store); err != nil {
			return err
		}
		defer store.Close()
	}

	progressBar := progressbar.Default(int64(optConfig.Generations))
	optConfig.WithOnGeneration(func(stats optimizer.GenerationStats) {
		if err := progressBar.Add(1); err != nil {
			log.Warnf("update progressbar fail: %v", err)
		}
		if store != nil {
			if err := store.SaveGeneration(runID, stats); err != nil {
				log.WithError(err).Warn("failed to persist generation")
			}
		}
	})

	evaluator := optimizer.NewBacktestEvaluator(backtest.NewSimulator(nil, log), bars, log)

	var search optimizer.Optimizer
	switch cfg.Optimizer.Method {
	case config.MethodRandom:
		search, err = optimizer.NewRandomSearch(optConfig, evaluator)
	default:
		search, err = optimizer.NewGenetic(optConfig, evaluator)
	}
	if err != nil {
		return err
	}

	best, runErr := search.Optimize(cmd.Context())
	_ = progressBar.Finish()
	fmt.Println()

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if runErr != nil {
		log.Warn("optimization interrupted, reporting the best candidate so far")
		if best.Config.Name == "" {
			return runErr
		}
	}

	returns := backtest.Returns(evaluator.Trades(best.Config))
	rng := rand.New(rand.NewSource(optConfig.Seed))
	if err := optimizer.PrintSummary(os.Stdout, best, returns, rng); err != nil {
		return err
	}

	if cfg.Output.History != "" {
		if err := optimizer.SaveHistoryToCSV(search.History(), cfg.Output.History); err != nil {
			return err
		}
		log.Infof("generation history saved to %s", cfg.Output.History)
	}

	if store != nil {
		if err := store.SaveBest(runID, best); err != nil {
			return err
		}
		log.Infof("run %s saved to %s", runID, cfg.Output.Store)
	}

	return runErr
}

func runBacktest(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	bounds, err := cfg.ToBounds()
	if err != nil {
		return err
	}

	bars, err := loadBars(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}

	candidate := bounds.Midpoint("midpoint")
	trades := backtest.NewSimulator(nil, log).Run(candidate, bars)
	for _, trade := range trades {
		log.Debug(trade.String())
	}

	objective, err := optimizer.ParseMetricName(cfg.Optimizer.Objective)
	if err != nil {
		return err
	}

	returns := backtest.Returns(trades)
	metrics := metric.Compute(returns)
	evaluated := optimizer.EvaluatedCandidate{
		Config:  candidate,
		Metrics: metrics,
		Score:   objective.Score(metrics),
	}

	return optimizer.PrintSummary(os.Stdout, evaluated, returns, rand.New(rand.NewSource(cfg.Optimizer.Seed)))
}

func runInit(_ *cobra.Command, args []string) error {
	path := defaultConfigPath
	if len(args) > 0 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.WriteDefault(path); err != nil {
		return err
	}
	fmt.Printf("default configuration written to %s\n", path)
	return nil
}
