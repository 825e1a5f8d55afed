package strategy

import (
	"fmt"

	"finch/internal/indicator"
	"finch/internal/series"
)

// RSIThreshold：RSI 从超卖区向上回归买入，从超买区向下回落卖出。
type RSIThreshold struct {
	paramStore
}

func rsiDefaults() Params {
	return Params{
		"rsi_period": 14,
		"oversold":   30.0,
		"overbought": 70.0,
	}
}

// NewRSIThreshold 构造 RSI 阈值策略。
func NewRSIThreshold(params Params) *RSIThreshold {
	return &RSIThreshold{paramStore: newParamStore(params, rsiDefaults())}
}

func (s *RSIThreshold) Name() string { return "RSI Strategy" }

func (s *RSIThreshold) Description() string {
	return "Generates buy signals when RSI rises out of the oversold zone, " +
		"and sell signals when RSI falls out of the overbought zone."
}

func (s *RSIThreshold) DefaultParams() Params { return rsiDefaults() }

func (s *RSIThreshold) Execute(snap series.Snapshot) *Signal {
	last, ok := snap.Last()
	if !ok {
		return nil
	}
	prev, ok := snap.Prev()
	if !ok {
		return nil
	}

	lastRSI, ok1 := last.Value(indicator.ColRSI)
	prevRSI, ok2 := prev.Value(indicator.ColRSI)
	if !ok1 || !ok2 {
		return nil
	}

	p := s.Params()
	oversold, _ := p.Float("oversold")
	overbought, _ := p.Float("overbought")

	switch {
	case prevRSI < oversold && lastRSI >= oversold:
		return &Signal{
			Action:    ActionBuy,
			Price:     last.Close,
			Timestamp: last.OpenTime,
			Reason:    fmt.Sprintf("RSI rising out of oversold zone (%.2f -> %.2f)", prevRSI, lastRSI),
		}
	case prevRSI > overbought && lastRSI <= overbought:
		return &Signal{
			Action:    ActionSell,
			Price:     last.Close,
			Timestamp: last.OpenTime,
			Reason:    fmt.Sprintf("RSI falling out of overbought zone (%.2f -> %.2f)", prevRSI, lastRSI),
		}
	}
	return nil
}
