// Package backtest replays a strategy configuration over historical bars
// and produces the sequence of realized trade returns.
package backtest

import "fmt"

// Direction is the side of a position or entry signal
type Direction int

const (
	Short Direction = -1
	Flat  Direction = 0
	Long  Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	default:
		return "FLAT"
	}
}

// ExitReason records which protective level closed a position
type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
)

// Trade is one closed position
type Trade struct {
	Direction  Direction  `json:"direction"`
	EntryIndex int        `json:"entry_index"`
	EntryPrice float64    `json:"entry_price"`
	ExitIndex  int        `json:"exit_index"`
	ExitPrice  float64    `json:"exit_price"`
	Return     float64    `json:"return"`
	Reason     ExitReason `json:"reason"`
}

func (t Trade) String() string {
	return fmt.Sprintf("%s [%d] %.4f -> [%d] %.4f (%s) %.4f%%",
		t.Direction, t.EntryIndex, t.EntryPrice, t.ExitIndex, t.ExitPrice, t.Reason, t.Return*100)
}

// Returns extracts the realized returns in trade order
func Returns(trades []Trade) []float64 {
	returns := make([]float64, len(trades))
	for i, t := range trades {
		returns[i] = t.Return
	}
	return returns
}
