package backtest

import (
	"math"
	"sync"

	"github.com/raykavin/stratevo/pkg/core"
	"github.com/raykavin/stratevo/pkg/indicator"
	"github.com/raykavin/stratevo/pkg/strategy"
)

// RSI filter parameters
const (
	RSIPeriod     = 14
	RSIOverbought = 70.0
	RSIOversold   = 30.0
)

// EntryRule decides, bar by bar, whether a flat simulator should open a position.
// Implementations must be deterministic and safe for concurrent use.
type EntryRule interface {
	// Lookback is the minimum number of bars the rule needs for cfg
	Lookback(cfg strategy.Config) int
	// Signals returns one direction per bar; bars before the lookback are Flat
	Signals(cfg strategy.Config, bars []core.Candle) []Direction
}

// CrossoverRule enters long when the fast moving average crosses over the
// slow one and short on the cross under. Indicators in the config act as filters.
type CrossoverRule struct {
	mu        sync.RWMutex
	providers map[string]core.SignalProvider
}

// NewCrossoverRule creates the default rule with the built-in signal providers registered
func NewCrossoverRule() *CrossoverRule {
	return &CrossoverRule{providers: indicator.Providers()}
}

// Register adds or replaces a named signal provider
func (r *CrossoverRule) Register(name string, provider core.SignalProvider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.providers == nil {
		r.providers = make(map[string]core.SignalProvider)
	}
	r.providers[name] = provider
}

// Lookback implements EntryRule
func (r *CrossoverRule) Lookback(cfg strategy.Config) int {
	need := cfg.SlowPeriod
	if cfg.HasIndicator(strategy.IndicatorRSI) && need < RSIPeriod+1 {
		need = RSIPeriod + 1
	}
	// one extra bar to compare against the previous averages
	return need + 1
}

// Signals implements EntryRule
func (r *CrossoverRule) Signals(cfg strategy.Config, bars []core.Candle) []Direction {
	signals := make([]Direction, len(bars))
	lookback := r.Lookback(cfg)
	if len(bars) < lookback || cfg.FastPeriod < 2 || cfg.SlowPeriod < 2 {
		return signals
	}

	closes := core.Closes(bars)
	maType := indicator.TypeSMA
	if cfg.HasIndicator(strategy.IndicatorEMA) {
		maType = indicator.TypeEMA
	}
	fast := core.Series[float64](indicator.MA(closes, cfg.FastPeriod, maType))
	slow := core.Series[float64](indicator.MA(closes, cfg.SlowPeriod, maType))

	var rsi []float64
	if cfg.HasIndicator(strategy.IndicatorRSI) {
		rsi = indicator.RSI(closes, RSIPeriod)
	}
	filters := r.filters(cfg)

	for i := lookback - 1; i < len(bars); i++ {
		f, s := fast[:i+1], slow[:i+1]
		var dir Direction
		switch {
		case f.Crossover(s):
			dir = Long
		case f.Crossunder(s):
			dir = Short
		default:
			continue
		}

		if rsi != nil && !rsiAllows(dir, rsi[i]) {
			continue
		}
		if len(filters) > 0 && !providersAgree(dir, filters, bars[:i+1]) {
			continue
		}
		signals[i] = dir
	}

	return signals
}

// filters returns the registered providers named in cfg, in indicator order
func (r *CrossoverRule) filters(cfg strategy.Config) []core.SignalProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filters []core.SignalProvider
	for _, name := range cfg.Indicators {
		if provider, ok := r.providers[name]; ok {
			filters = append(filters, provider)
		}
	}
	return filters
}

func rsiAllows(dir Direction, value float64) bool {
	if math.IsNaN(value) {
		return false
	}
	if dir == Long {
		return value < RSIOverbought
	}
	return value > RSIOversold
}

func providersAgree(dir Direction, providers []core.SignalProvider, history []core.Candle) bool {
	start := len(history) - indicator.SignalWindow
	if start < 0 {
		start = 0
	}
	recent := history[start:]

	for _, provider := range providers {
		signal := provider.Signal(recent)
		if signal*float64(dir) <= 0 {
			return false
		}
	}
	return true
}
