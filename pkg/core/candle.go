package core

import (
	"fmt"
	"strconv"
	"time"
)

// Candle represents one historical OHLCV time step.
// Sequences handed to the simulator are ordered by Time and gap-free.
type Candle struct {
	Pair   string
	Time   time.Time
	Open   float64
	Close  float64
	Low    float64
	High   float64
	Volume float64

	// Additional columns from CSV inputs, available to signal providers
	Metadata map[string]float64
}

// ToSlice converts a candle to a string slice for serialization
// with the specified decimal precision
func (c Candle) ToSlice(precision int) []string {
	return []string{
		fmt.Sprintf("%d", c.Time.Unix()),
		strconv.FormatFloat(c.Open, 'f', precision, 64),
		strconv.FormatFloat(c.Close, 'f', precision, 64),
		strconv.FormatFloat(c.Low, 'f', precision, 64),
		strconv.FormatFloat(c.High, 'f', precision, 64),
		strconv.FormatFloat(c.Volume, 'f', precision, 64),
	}
}

// Closes extracts the close prices of a candle sequence
func Closes(candles []Candle) Series[float64] {
	closes := make(Series[float64], len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}
	return closes
}

// CheckOrdered returns ErrUnorderedBars when timestamps are not strictly increasing
func CheckOrdered(candles []Candle) error {
	for i := 1; i < len(candles); i++ {
		if !candles[i].Time.After(candles[i-1].Time) {
			return fmt.Errorf("%w: bar %d at %s", ErrUnorderedBars, i, candles[i].Time.Format(time.RFC3339))
		}
	}
	return nil
}
