package indicator

import (
	"math"

	"github.com/raykavin/stratevo/pkg/core"
)

// SuperTrendLine holds the trailing band and the trend it implies for every bar.
// Bars before the ATR warm-up carry a NaN value and a zero trend.
type SuperTrendLine struct {
	Values []float64
	Trend  []int
}

// Last returns the final band value and trend
func (l SuperTrendLine) Last() (float64, int) {
	if len(l.Values) == 0 {
		return math.NaN(), 0
	}
	return l.Values[len(l.Values)-1], l.Trend[len(l.Trend)-1]
}

// SuperTrend trails price with ATR bands around the bar median.
// The upper band only moves down and the lower band only moves up while
// the previous close stays inside them; a close through the opposite band
// flips the trend.
func SuperTrend(candles []core.Candle, atrPeriod int, factor float64) SuperTrendLine {
	n := len(candles)
	line := SuperTrendLine{Values: make([]float64, n), Trend: make([]int, n)}
	for i := range line.Values {
		line.Values[i] = math.NaN()
	}
	if atrPeriod < 1 || n <= atrPeriod {
		return line
	}

	high := make([]float64, n)
	low := make([]float64, n)
	for i, c := range candles {
		high[i] = c.High
		low[i] = c.Low
	}
	closes := core.Closes(candles)
	atr := ATR(high, low, closes, atrPeriod)

	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := atrPeriod; i < n; i++ {
		median := (high[i] + low[i]) / 2
		upper[i] = median + factor*atr[i]
		lower[i] = median - factor*atr[i]

		if i == atrPeriod {
			line.Trend[i] = 1
			if closes[i] < median {
				line.Trend[i] = -1
			}
		} else {
			if closes[i-1] <= upper[i-1] {
				upper[i] = math.Min(upper[i], upper[i-1])
			}
			if closes[i-1] >= lower[i-1] {
				lower[i] = math.Max(lower[i], lower[i-1])
			}

			line.Trend[i] = line.Trend[i-1]
			switch {
			case line.Trend[i] < 0 && closes[i] > upper[i-1]:
				line.Trend[i] = 1
			case line.Trend[i] > 0 && closes[i] < lower[i-1]:
				line.Trend[i] = -1
			}
		}

		if line.Trend[i] > 0 {
			line.Values[i] = lower[i]
		} else {
			line.Values[i] = upper[i]
		}
	}
	return line
}
