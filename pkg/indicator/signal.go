package indicator

import (
	"math"

	"github.com/raykavin/stratevo/pkg/core"
)

// Names of the signal providers shipped with the package
const (
	SignalMACD       = "macd"
	SignalMomentum   = "momentum"
	SignalSuperTrend = "supertrend"
)

// Parameters used by the built-in providers
const (
	macdFast         = 12
	macdSlow         = 26
	macdSignal       = 9
	momentumPeriod   = 10
	superTrendPeriod = 10
	superTrendFactor = 3.0
)

// SignalWindow is the number of trailing bars handed to a provider,
// enough for every built-in provider to warm up.
const SignalWindow = 64

// Providers returns the built-in signal providers keyed by indicator name
func Providers() map[string]core.SignalProvider {
	return map[string]core.SignalProvider{
		SignalMACD:       core.SignalFunc(MACDSignal),
		SignalMomentum:   core.SignalFunc(MomentumSignal),
		SignalSuperTrend: core.SignalFunc(SuperTrendSignal),
	}
}

// MACDSignal returns the last MACD histogram value
func MACDSignal(recent []core.Candle) float64 {
	if len(recent) < macdSlow+macdSignal {
		return 0
	}
	_, _, hist := MACD(core.Closes(recent), macdFast, macdSlow, macdSignal)
	return finiteOrZero(hist[len(hist)-1])
}

// MomentumSignal returns the close-to-close change over the momentum period
func MomentumSignal(recent []core.Candle) float64 {
	if len(recent) <= momentumPeriod {
		return 0
	}
	mom := Momentum(core.Closes(recent), momentumPeriod)
	return finiteOrZero(mom[len(mom)-1])
}

// SuperTrendSignal returns +1 in a SuperTrend uptrend and -1 in a downtrend
func SuperTrendSignal(recent []core.Candle) float64 {
	value, trend := SuperTrend(recent, superTrendPeriod, superTrendFactor).Last()
	if math.IsNaN(value) {
		return 0
	}
	return float64(trend)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
