package optimizer

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"

	"github.com/raykavin/stratevo/pkg/metric"
)

// bootstrapSamples is the resample count behind the printed confidence intervals
const bootstrapSamples = 10000

var historyHeader = []string{
	"generation", "best", "mean", "worst", "no_signal",
	"best_ever", "best_ever_score", "duration",
}

// SaveHistoryToCSV saves the per-generation statistics to a CSV file
func SaveHistoryToCSV(history []GenerationStats, filePath string) error {
	// Create file
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	return WriteHistoryCSV(file, history)
}

// WriteHistoryCSV writes the per-generation statistics as CSV
func WriteHistoryCSV(w io.Writer, history []GenerationStats) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(historyHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, stats := range history {
		row := []string{
			strconv.Itoa(stats.Generation),
			formatScore(stats.Best),
			formatScore(stats.Mean),
			formatScore(stats.Worst),
			strconv.Itoa(stats.NoSignal),
			stats.BestEver.Config.Name,
			formatScore(stats.BestEver.Score),
			stats.Duration.String(),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// formatScore leaves the worst-score sentinel blank
func formatScore(value float64) string {
	if value == WorstScore {
		return ""
	}
	return strconv.FormatFloat(value, 'f', 4, 64)
}

// PrintCandidate renders a candidate's configuration and metrics as a table
func PrintCandidate(w io.Writer, candidate EvaluatedCandidate) {
	cfg := candidate.Config
	m := candidate.Metrics

	score := "no signal"
	if candidate.HasSignal() {
		score = fmt.Sprintf("%.4f", candidate.Score)
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Parameter", "Value"})
	table.AppendBulk([][]string{
		{"Name", cfg.Name},
		{"Risk Level", string(cfg.RiskLevel)},
		{"Max Position Size", fmt.Sprintf("%.4f", cfg.MaxPositionSize)},
		{"Stop Loss", fmt.Sprintf("%.2f %%", cfg.StopLossPercent)},
		{"Take Profit", fmt.Sprintf("%.2f %%", cfg.TakeProfitPercent)},
		{"Max Drawdown Limit", fmt.Sprintf("%.4f", cfg.MaxDrawdownLimit)},
		{"Rebalance", string(cfg.RebalanceFrequency)},
		{"Moving Averages", fmt.Sprintf("%d / %d", cfg.FastPeriod, cfg.SlowPeriod)},
		{"Indicators", strings.Join(cfg.Indicators, ", ")},
		{"Score", score},
		{"Trades", strconv.Itoa(m.Trades)},
		{"Total Return", fmt.Sprintf("%.2f %%", m.TotalReturn*100)},
		{"Sharpe", fmt.Sprintf("%.4f", m.SharpeRatio)},
		{"Sortino", fmt.Sprintf("%.4f", m.SortinoRatio)},
		{"Calmar", fmt.Sprintf("%.4f", m.CalmarRatio)},
		{"Max Drawdown", fmt.Sprintf("%.2f %%", m.MaxDrawdown*100)},
		{"Win Rate", fmt.Sprintf("%.2f %%", m.WinRate*100)},
		{"Payoff", fmt.Sprintf("%.4f", m.Payoff)},
		{"Profit Factor", fmt.Sprintf("%.4f", m.ProfitFactor)},
	})
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT})
	table.Render()
}

// PrintSummary renders the candidate table followed by a histogram of its
// trade returns and bootstrap confidence intervals drawn with rng
func PrintSummary(w io.Writer, candidate EvaluatedCandidate, returns []float64, rng *rand.Rand) error {
	PrintCandidate(w, candidate)

	if len(returns) == 0 {
		_, err := fmt.Fprintln(w, "no closed trades")
		return err
	}

	fmt.Fprintln(w, "------ RETURN -------")
	returnsPercent := make([]float64, len(returns))
	for i, r := range returns {
		returnsPercent[i] = r * 100
	}
	hist := histogram.Hist(15, returnsPercent)
	if err := histogram.Fprint(w, hist, histogram.Linear(10)); err != nil {
		return fmt.Errorf("failed to print histogram: %w", err)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "------ CONFIDENCE INTERVAL (95%) -------")
	returnsInterval := metric.Bootstrap(returns, metric.Mean, bootstrapSamples, 0.95, rng)
	payoffInterval := metric.Bootstrap(returns, metric.Payoff, bootstrapSamples, 0.95, rng)
	profitFactorInterval := metric.Bootstrap(returns, metric.ProfitFactor, bootstrapSamples, 0.95, rng)

	fmt.Fprintf(w, "RETURN:      %.2f%% (%.2f%% ~ %.2f%%)\n",
		returnsInterval.Mean*100, returnsInterval.Lower*100, returnsInterval.Upper*100)
	fmt.Fprintf(w, "PAYOFF:      %.2f (%.2f ~ %.2f)\n",
		payoffInterval.Mean, payoffInterval.Lower, payoffInterval.Upper)
	_, err := fmt.Fprintf(w, "PROF.FACTOR: %.2f (%.2f ~ %.2f)\n",
		profitFactorInterval.Mean, profitFactorInterval.Lower, profitFactorInterval.Upper)
	return err
}
