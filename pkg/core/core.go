package core

import (
	"context"
	"time"
)

// BarSource supplies an ordered, gap-free sequence of candles for a pair and time range.
type BarSource interface {
	CandlesByPeriod(ctx context.Context, pair string, start, end time.Time) ([]Candle, error)
}

// SignalProvider turns recent bars into a numeric signal.
// Positive values favour long entries, negative values favour short entries
// and zero means no opinion. Implementations must be safe for concurrent use.
type SignalProvider interface {
	Signal(recent []Candle) float64
}

// SignalFunc adapts a plain function to the SignalProvider interface
type SignalFunc func(recent []Candle) float64

// Signal implements SignalProvider
func (f SignalFunc) Signal(recent []Candle) float64 { return f(recent) }
