package backtest

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/stratevo/pkg/core"
	"github.com/raykavin/stratevo/pkg/strategy"
)

// waveBars builds a sine wave of closes so moving averages cross repeatedly
func waveBars(n int) []bar {
	values := make([]bar, n)
	for i := range values {
		c := 100 + 10*math.Sin(float64(i)/8)
		values[i] = bar{c, c - 1.5, c + 1.5}
	}
	return values
}

// vBars falls for half the bars then rises
func vBars(n int) []bar {
	values := make([]bar, n)
	for i := range values {
		c := 150 - float64(i)
		if i >= n/2 {
			c = 150 - float64(n/2) + 2*float64(i-n/2)
		}
		values[i] = bar{c, c - 1, c + 1}
	}
	return values
}

func directions(signals []Direction, dir Direction) []int {
	var idx []int
	for i, s := range signals {
		if s == dir {
			idx = append(idx, i)
		}
	}
	return idx
}

func TestCrossoverRule_Lookback(t *testing.T) {
	rule := NewCrossoverRule()
	cfg := testConfig()

	assert.Equal(t, 11, rule.Lookback(cfg))

	cfg.SlowPeriod = 5
	cfg.FastPeriod = 2
	cfg.Indicators = []string{strategy.IndicatorSMA, strategy.IndicatorRSI}
	assert.Equal(t, RSIPeriod+2, rule.Lookback(cfg))
}

func TestCrossoverRule_LongAfterReversal(t *testing.T) {
	rule := NewCrossoverRule()
	cfg := testConfig()
	bars := makeBars(vBars(60)...)

	signals := rule.Signals(cfg, bars)
	require.Len(t, signals, len(bars))

	longs := directions(signals, Long)
	require.NotEmpty(t, longs)
	assert.Greater(t, longs[0], 30)
	for _, i := range directions(signals, Short) {
		assert.Less(t, i, 30)
	}
	for i := 0; i < rule.Lookback(cfg)-1; i++ {
		assert.Equal(t, Flat, signals[i])
	}
}

func TestCrossoverRule_EMA(t *testing.T) {
	rule := NewCrossoverRule()
	cfg := testConfig()
	cfg.Indicators = []string{strategy.IndicatorEMA}
	bars := makeBars(waveBars(200)...)

	signals := rule.Signals(cfg, bars)
	assert.NotEmpty(t, directions(signals, Long))
	assert.NotEmpty(t, directions(signals, Short))
}

func TestCrossoverRule_ProviderFilter(t *testing.T) {
	rule := NewCrossoverRule()
	rule.Register("bearish", core.SignalFunc(func([]core.Candle) float64 { return -1 }))
	rule.Register("bullish", core.SignalFunc(func([]core.Candle) float64 { return 1 }))
	bars := makeBars(waveBars(200)...)

	base := rule.Signals(testConfig(), bars)

	cfg := testConfig()
	cfg.Indicators = append(cfg.Indicators, "bullish")
	bullish := rule.Signals(cfg, bars)
	assert.Equal(t, directions(base, Long), directions(bullish, Long))
	assert.Empty(t, directions(bullish, Short))

	cfg = testConfig()
	cfg.Indicators = append(cfg.Indicators, "bearish")
	bearish := rule.Signals(cfg, bars)
	assert.Empty(t, directions(bearish, Long))
	assert.Equal(t, directions(base, Short), directions(bearish, Short))

	cfg = testConfig()
	cfg.Indicators = append(cfg.Indicators, "unknown")
	assert.Equal(t, base, rule.Signals(cfg, bars))
}

func TestCrossoverRule_ShortInput(t *testing.T) {
	rule := NewCrossoverRule()
	cfg := testConfig()
	bars := makeBars(vBars(cfg.SlowPeriod)...)

	signals := rule.Signals(cfg, bars)
	require.Len(t, signals, len(bars))
	assert.Empty(t, directions(signals, Long))
	assert.Empty(t, directions(signals, Short))
}

func TestRSIAllows(t *testing.T) {
	assert.True(t, rsiAllows(Long, 50))
	assert.False(t, rsiAllows(Long, RSIOverbought))
	assert.True(t, rsiAllows(Short, 50))
	assert.False(t, rsiAllows(Short, RSIOversold))
	assert.False(t, rsiAllows(Long, math.NaN()))
}
