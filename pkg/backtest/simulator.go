package backtest

import (
	"math"

	"github.com/raykavin/stratevo/pkg/core"
	"github.com/raykavin/stratevo/pkg/logger"
	"github.com/raykavin/stratevo/pkg/strategy"
)

// Simulator replays bars for a single configuration. It holds no
// per-run state, so one Simulator may serve many goroutines.
type Simulator struct {
	rule EntryRule
	log  logger.Logger
}

// NewSimulator creates a simulator driven by rule; a nil rule selects the
// default crossover rule and log may be nil
func NewSimulator(rule EntryRule, log logger.Logger) *Simulator {
	if rule == nil {
		rule = NewCrossoverRule()
	}
	return &Simulator{rule: rule, log: log}
}

// Rule returns the entry rule driving the simulator
func (s *Simulator) Rule() EntryRule { return s.rule }

// Simulate returns the realized return of every closed trade, in order
func (s *Simulator) Simulate(cfg strategy.Config, bars []core.Candle) []float64 {
	return Returns(s.Run(cfg, bars))
}

// position is the open trade tracked while walking the bars
type position struct {
	direction  Direction
	entryIndex int
	entryPrice float64
	stop       float64
	target     float64
}

func openPosition(cfg strategy.Config, dir Direction, index int, price float64) position {
	sl := cfg.StopLossPercent / 100
	tp := cfg.TakeProfitPercent / 100
	p := position{direction: dir, entryIndex: index, entryPrice: price}
	if dir == Long {
		p.stop = price * (1 - sl)
		p.target = price * (1 + tp)
	} else {
		p.stop = price * (1 + sl)
		p.target = price * (1 - tp)
	}
	return p
}

// exit checks the bar range against the protective levels. When both levels
// are touched, longs leave at the lower level and shorts at the higher one.
func (p position) exit(bar core.Candle) (float64, ExitReason, bool) {
	var stopHit, targetHit bool
	if p.direction == Long {
		stopHit = bar.Low <= p.stop
		targetHit = bar.High >= p.target
	} else {
		stopHit = bar.High >= p.stop
		targetHit = bar.Low <= p.target
	}

	switch {
	case stopHit && targetHit:
		price := math.Min(p.stop, p.target)
		if p.direction == Short {
			price = math.Max(p.stop, p.target)
		}
		return price, p.reasonAt(price), true
	case stopHit:
		return p.stop, ExitStopLoss, true
	case targetHit:
		return p.target, ExitTakeProfit, true
	}
	return 0, "", false
}

func (p position) reasonAt(price float64) ExitReason {
	if price == p.target {
		return ExitTakeProfit
	}
	return ExitStopLoss
}

func (p position) close(index int, price float64, reason ExitReason) Trade {
	return Trade{
		Direction:  p.direction,
		EntryIndex: p.entryIndex,
		EntryPrice: p.entryPrice,
		ExitIndex:  index,
		ExitPrice:  price,
		Return:     float64(p.direction) * (price - p.entryPrice) / p.entryPrice,
		Reason:     reason,
	}
}

// Run walks the bars once and returns every closed trade.
// Fewer bars than the rule's lookback yields no trades.
// A position still open after the last bar is discarded.
func (s *Simulator) Run(cfg strategy.Config, bars []core.Candle) []Trade {
	lookback := s.rule.Lookback(cfg)
	if len(bars) < lookback || len(bars) < 2 {
		if s.log != nil {
			s.log.Debugf("%s: %d bars is below lookback %d, no trades", cfg.Name, len(bars), lookback)
		}
		return nil
	}

	signals := s.rule.Signals(cfg, bars)

	var (
		trades []Trade
		open   *position
	)

	for i, bar := range bars {
		// one action per bar: a bar that closes a position cannot open another
		if open != nil {
			if price, reason, ok := open.exit(bar); ok {
				trades = append(trades, open.close(i, price, reason))
				open = nil
			}
			continue
		}

		if i >= len(signals) || bar.Close <= 0 {
			continue
		}
		if dir := signals[i]; dir != Flat {
			p := openPosition(cfg, dir, i, bar.Close)
			open = &p
		}
	}

	if open != nil && s.log != nil {
		s.log.Debugf("%s: discarding %s position opened at bar %d", cfg.Name, open.direction, open.entryIndex)
	}

	return trades
}
