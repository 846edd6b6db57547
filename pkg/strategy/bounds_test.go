package strategy

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBounds_Valid(t *testing.T) {
	require.NoError(t, DefaultBounds().Validate())
}

func TestBounds_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(b *Bounds)
	}{
		{"min greater than max", func(b *Bounds) { b.StopLossPercent = Range{Min: 5, Max: 1} }},
		{"nan bound", func(b *Bounds) { b.TakeProfitPercent.Max = math.NaN() }},
		{"infinite bound", func(b *Bounds) { b.MaxDrawdownLimit.Max = math.Inf(1) }},
		{"zero stop loss", func(b *Bounds) { b.StopLossPercent.Min = 0 }},
		{"zero take profit", func(b *Bounds) { b.TakeProfitPercent.Min = 0 }},
		{"position above one", func(b *Bounds) { b.MaxPositionSize.Max = 1.5 }},
		{"position zero", func(b *Bounds) { b.MaxPositionSize.Min = 0 }},
		{"int min greater than max", func(b *Bounds) { b.SlowPeriod = IntRange{Min: 50, Max: 30} }},
		{"fast period too short", func(b *Bounds) { b.FastPeriod.Min = 1 }},
		{"fast overlaps slow", func(b *Bounds) { b.FastPeriod.Max = b.SlowPeriod.Min }},
		{"no risk levels", func(b *Bounds) { b.RiskLevels = nil }},
		{"unknown risk level", func(b *Bounds) { b.RiskLevels = []RiskLevel{"extreme"} }},
		{"no rebalance", func(b *Bounds) { b.RebalanceFrequencies = nil }},
		{"unknown rebalance", func(b *Bounds) { b.RebalanceFrequencies = []RebalanceFrequency{"hourly"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bounds := DefaultBounds()
			tt.modify(&bounds)
			require.ErrorIs(t, bounds.Validate(), ErrInvalidBounds)
		})
	}
}

func TestBounds_SampleWithinBounds(t *testing.T) {
	bounds := DefaultBounds()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		cfg := bounds.Sample("c", rng)
		require.NoError(t, bounds.Check(cfg))
		assert.Equal(t, DefaultIndicators, cfg.Indicators)
	}
}

func TestBounds_SampleDegenerateRange(t *testing.T) {
	bounds := DefaultBounds()
	bounds.StopLossPercent = Range{Min: 2, Max: 2}
	bounds.FastPeriod = IntRange{Min: 5, Max: 5}
	rng := rand.New(rand.NewSource(1))

	cfg := bounds.Sample("c", rng)
	assert.Equal(t, 2.0, cfg.StopLossPercent)
	assert.Equal(t, 5, cfg.FastPeriod)
}

func TestBounds_Check(t *testing.T) {
	bounds := DefaultBounds()
	cfg := bounds.Midpoint("mid")
	require.NoError(t, bounds.Check(cfg))

	cfg.StopLossPercent = bounds.StopLossPercent.Max + 1
	require.ErrorIs(t, bounds.Check(cfg), ErrInvalidBounds)

	cfg = bounds.Midpoint("mid")
	cfg.RiskLevel = "extreme"
	require.ErrorIs(t, bounds.Check(cfg), ErrInvalidBounds)
}

func TestConfig_CloneIsIndependent(t *testing.T) {
	cfg := DefaultBounds().Midpoint("mid")
	clone := cfg.Clone()
	clone.Indicators[0] = "changed"

	assert.Equal(t, IndicatorSMA, cfg.Indicators[0])
	assert.False(t, cfg.Equal(clone))
}

func TestConfig_WithName(t *testing.T) {
	cfg := DefaultBounds().Midpoint("mid")
	renamed := cfg.WithName("other")

	assert.Equal(t, "mid", cfg.Name)
	assert.Equal(t, "other", renamed.Name)
	assert.True(t, renamed.HasIndicator(IndicatorRSI))
}

func TestParseRiskLevel(t *testing.T) {
	level, err := ParseRiskLevel("HIGH")
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, level)

	_, err = ParseRiskLevel("wild")
	require.ErrorIs(t, err, ErrInvalidBounds)
}
