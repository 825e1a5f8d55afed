package strategy

import (
	"finch/internal/indicator"
	"finch/internal/series"
)

// MACDCrossover：MACD 线上穿信号线买入，下穿卖出。
type MACDCrossover struct {
	paramStore
}

func macdDefaults() Params {
	return Params{
		"fast_period":   12,
		"slow_period":   26,
		"signal_period": 9,
	}
}

// NewMACDCrossover 构造 MACD 交叉策略。
func NewMACDCrossover(params Params) *MACDCrossover {
	return &MACDCrossover{paramStore: newParamStore(params, macdDefaults())}
}

func (s *MACDCrossover) Name() string { return "MACD Strategy" }

func (s *MACDCrossover) Description() string {
	return "Generates buy signals when the MACD line crosses above the signal line, " +
		"and sell signals when it crosses below."
}

func (s *MACDCrossover) DefaultParams() Params { return macdDefaults() }

func (s *MACDCrossover) Execute(snap series.Snapshot) *Signal {
	last, ok := snap.Last()
	if !ok {
		return nil
	}
	prev, ok := snap.Prev()
	if !ok {
		return nil
	}

	lastMACD, ok1 := last.Value(indicator.ColMACD)
	lastSignal, ok2 := last.Value(indicator.ColMACDSignal)
	prevMACD, ok3 := prev.Value(indicator.ColMACD)
	prevSignal, ok4 := prev.Value(indicator.ColMACDSignal)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}

	switch {
	case prevMACD <= prevSignal && lastMACD > lastSignal:
		return &Signal{
			Action:    ActionBuy,
			Price:     last.Close,
			Timestamp: last.OpenTime,
			Reason:    "MACD crossed above signal line",
		}
	case prevMACD >= prevSignal && lastMACD < lastSignal:
		return &Signal{
			Action:    ActionSell,
			Price:     last.Close,
			Timestamp: last.OpenTime,
			Reason:    "MACD crossed below signal line",
		}
	}
	return nil
}
