package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/stratevo/pkg/core"
	"github.com/raykavin/stratevo/pkg/strategy"
)

// stubRule signals fixed directions at fixed bar indexes
type stubRule struct {
	lookback int
	at       map[int]Direction
}

func (r stubRule) Lookback(strategy.Config) int { return r.lookback }

func (r stubRule) Signals(_ strategy.Config, bars []core.Candle) []Direction {
	signals := make([]Direction, len(bars))
	for i, dir := range r.at {
		if i < len(bars) {
			signals[i] = dir
		}
	}
	return signals
}

type bar struct{ close, low, high float64 }

func makeBars(values ...bar) []core.Candle {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]core.Candle, len(values))
	for i, v := range values {
		candles[i] = core.Candle{
			Pair:  "BTCUSDT",
			Time:  start.Add(time.Duration(i) * time.Hour),
			Open:  v.close,
			Close: v.close,
			Low:   v.low,
			High:  v.high,
		}
	}
	return candles
}

func testConfig() strategy.Config {
	return strategy.Config{
		Name:              "test",
		RiskLevel:         strategy.RiskMedium,
		MaxPositionSize:   0.1,
		StopLossPercent:   5,
		TakeProfitPercent: 10,
		MaxDrawdownLimit:  0.2,
		FastPeriod:        3,
		SlowPeriod:        10,
		Indicators:        []string{strategy.IndicatorSMA},
	}
}

func TestSimulator_TieBreak(t *testing.T) {
	t.Run("long exits at the lower level", func(t *testing.T) {
		sim := NewSimulator(stubRule{lookback: 1, at: map[int]Direction{1: Long}}, nil)
		bars := makeBars(bar{100, 99, 101}, bar{100, 99, 101}, bar{100, 94, 111})

		trades := sim.Run(testConfig(), bars)
		require.Len(t, trades, 1)
		assert.InDelta(t, 95.0, trades[0].ExitPrice, 1e-9)
		assert.InDelta(t, -0.05, trades[0].Return, 1e-9)
		assert.Equal(t, ExitStopLoss, trades[0].Reason)
		assert.Equal(t, 1, trades[0].EntryIndex)
		assert.Equal(t, 2, trades[0].ExitIndex)
	})

	t.Run("short exits at the higher level", func(t *testing.T) {
		sim := NewSimulator(stubRule{lookback: 1, at: map[int]Direction{1: Short}}, nil)
		bars := makeBars(bar{100, 99, 101}, bar{100, 99, 101}, bar{100, 89, 106})

		trades := sim.Run(testConfig(), bars)
		require.Len(t, trades, 1)
		assert.InDelta(t, 105.0, trades[0].ExitPrice, 1e-9)
		assert.InDelta(t, -0.05, trades[0].Return, 1e-9)
		assert.Equal(t, ExitStopLoss, trades[0].Reason)
	})
}

func TestSimulator_Exits(t *testing.T) {
	tests := []struct {
		name   string
		dir    Direction
		exit   bar
		price  float64
		ret    float64
		reason ExitReason
	}{
		{"long take profit", Long, bar{108, 101, 112}, 110, 0.10, ExitTakeProfit},
		{"long stop loss", Long, bar{96, 94, 99}, 95, -0.05, ExitStopLoss},
		{"short take profit", Short, bar{92, 88, 99}, 90, 0.10, ExitTakeProfit},
		{"short stop loss", Short, bar{104, 101, 106}, 105, -0.05, ExitStopLoss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := NewSimulator(stubRule{lookback: 1, at: map[int]Direction{0: tt.dir}}, nil)
			bars := makeBars(bar{100, 99, 101}, bar{100, 98, 102}, tt.exit)

			trades := sim.Run(testConfig(), bars)
			require.Len(t, trades, 1)
			assert.Equal(t, tt.dir, trades[0].Direction)
			assert.InDelta(t, tt.price, trades[0].ExitPrice, 1e-9)
			assert.InDelta(t, tt.ret, trades[0].Return, 1e-9)
			assert.Equal(t, tt.reason, trades[0].Reason)
			assert.Equal(t, 2, trades[0].ExitIndex)
		})
	}
}

func TestSimulator_EntryBarIsNotChecked(t *testing.T) {
	sim := NewSimulator(stubRule{lookback: 1, at: map[int]Direction{0: Long}}, nil)
	// the entry bar itself spans the stop level
	bars := makeBars(bar{100, 90, 101}, bar{100, 99, 101}, bar{100, 99, 111})

	trades := sim.Run(testConfig(), bars)
	require.Len(t, trades, 1)
	assert.Equal(t, ExitTakeProfit, trades[0].Reason)
	assert.Equal(t, 2, trades[0].ExitIndex)
}

func TestSimulator_OneActionPerBar(t *testing.T) {
	sim := NewSimulator(stubRule{lookback: 1, at: map[int]Direction{0: Long, 1: Short, 2: Short, 3: Short}}, nil)
	bars := makeBars(
		bar{100, 99, 101},
		bar{100, 99, 111}, // long closes, short signal ignored
		bar{100, 99, 101}, // short opens
		bar{100, 89, 101}, // short closes at target
	)

	trades := sim.Run(testConfig(), bars)
	require.Len(t, trades, 2)
	assert.Equal(t, Long, trades[0].Direction)
	assert.Equal(t, Short, trades[1].Direction)
	assert.Equal(t, 2, trades[1].EntryIndex)
	assert.InDelta(t, 0.10, trades[1].Return, 1e-9)
}

func TestSimulator_OpenPositionDiscarded(t *testing.T) {
	sim := NewSimulator(stubRule{lookback: 1, at: map[int]Direction{0: Long}}, nil)
	bars := makeBars(bar{100, 99, 101}, bar{101, 99, 102}, bar{102, 100, 103})

	assert.Empty(t, sim.Run(testConfig(), bars))
	assert.Empty(t, sim.Simulate(testConfig(), bars))
}

func TestSimulator_InsufficientBars(t *testing.T) {
	sim := NewSimulator(nil, nil)
	cfg := testConfig()

	assert.Empty(t, sim.Simulate(cfg, nil))
	assert.Empty(t, sim.Simulate(cfg, makeBars(bar{100, 99, 101})))

	short := make([]bar, cfg.SlowPeriod)
	for i := range short {
		short[i] = bar{100, 99, 101}
	}
	assert.Empty(t, sim.Simulate(cfg, makeBars(short...)))
}

func TestSimulator_Deterministic(t *testing.T) {
	sim := NewSimulator(nil, nil)
	cfg := testConfig()
	cfg.StopLossPercent = 2
	cfg.TakeProfitPercent = 3
	bars := makeBars(waveBars(300)...)

	first := sim.Simulate(cfg, bars)
	second := sim.Simulate(cfg, bars)
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
}
