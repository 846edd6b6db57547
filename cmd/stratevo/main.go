package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Command line flags
var (
	configPath  string
	dataFile    string
	pair        string
	timeframe   string
	resample    string
	window      string
	logLevel    string
	generations int
	population  int
	mutation    float64
	seed        int64
	objective   string
	method      string
	parallel    int
	elitism     int
	outputFile  string
	storeFile   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "stratevo",
		Short:         "Evolve trading strategy parameters over historical data",
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (e.g. ./stratevo.yaml)")
	rootCmd.PersistentFlags().StringVarP(&dataFile, "data", "d", "", "CSV file with historical bars (e.g. ./btc.csv)")
	rootCmd.PersistentFlags().StringVarP(&pair, "pair", "p", "", "Trading pair (e.g. BTCUSDT)")
	rootCmd.PersistentFlags().StringVarP(&timeframe, "timeframe", "t", "", "Timeframe of the CSV file (e.g. 1h)")
	rootCmd.PersistentFlags().StringVar(&resample, "resample", "", "Resample bars to a coarser timeframe (e.g. 4h)")
	rootCmd.PersistentFlags().StringVarP(&window, "window", "w", "", "Keep only the trailing window of bars (e.g. 180d)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(buildOptimizeCmd(), buildBacktestCmd(), buildInitCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func buildOptimizeCmd() *cobra.Command {
	optimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search the configured bounds for the best strategy configuration",
		RunE:  runOptimize,
	}

	optimizeCmd.Flags().IntVarP(&generations, "generations", "g", 0, "Number of generations")
	optimizeCmd.Flags().IntVarP(&population, "population", "n", 0, "Candidates per generation")
	optimizeCmd.Flags().Float64VarP(&mutation, "mutation", "m", 0, "Per-field mutation probability")
	optimizeCmd.Flags().Int64VarP(&seed, "seed", "s", 0, "Random seed")
	optimizeCmd.Flags().StringVarP(&objective, "objective", "O", "", "Objective (total_return, sharpe, sortino, calmar, max_drawdown, win_rate)")
	optimizeCmd.Flags().StringVar(&method, "method", "", "Search method (genetic, random)")
	optimizeCmd.Flags().IntVar(&parallel, "parallel", 0, "Parallel evaluations (0 = one per CPU)")
	optimizeCmd.Flags().IntVar(&elitism, "elitism", 0, "Candidates carried unchanged into the next generation")
	optimizeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write generation history to a CSV file")
	optimizeCmd.Flags().StringVar(&storeFile, "store", "", "Persist the run to a BuntDB file")

	return optimizeCmd
}

func buildBacktestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backtest",
		Short: "Simulate the configuration at the midpoint of the configured bounds",
		RunE:  runBacktest,
	}
}

func buildInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}
}
