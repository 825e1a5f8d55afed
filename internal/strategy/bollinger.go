package strategy

import (
	"fmt"

	"finch/internal/indicator"
	"finch/internal/series"
)

// BollingerTouch：收盘价贴近下轨买入、贴近上轨卖出。单行判断，不做交叉；
// 两个条件同时成立时先检查的买入胜出。
type BollingerTouch struct {
	paramStore
}

func bollingerDefaults() Params {
	return Params{
		"period":        20,
		"std_dev":       2.0,
		"band_touch_pct": 0.5,
	}
}

// NewBollingerTouch 构造布林带触轨策略。
func NewBollingerTouch(params Params) *BollingerTouch {
	return &BollingerTouch{paramStore: newParamStore(params, bollingerDefaults())}
}

func (s *BollingerTouch) Name() string { return "Bollinger Bands Strategy" }

func (s *BollingerTouch) Description() string {
	return "Generates buy signals when price touches the lower Bollinger Band, " +
		"and sell signals when price touches the upper Bollinger Band."
}

func (s *BollingerTouch) DefaultParams() Params { return bollingerDefaults() }

func (s *BollingerTouch) Execute(snap series.Snapshot) *Signal {
	if snap.Len() < 2 {
		return nil
	}
	last, _ := snap.Last()

	upper, ok1 := last.Value(indicator.ColBBUpper)
	lower, ok2 := last.Value(indicator.ColBBLower)
	if !ok1 || !ok2 || last.Close == 0 {
		return nil
	}

	p := s.Params()
	touchPct, _ := p.Float("band_touch_pct")

	lowerDist := (last.Close - lower) / last.Close * 100
	upperDist := (upper - last.Close) / last.Close * 100

	switch {
	case lowerDist <= touchPct:
		return &Signal{
			Action:    ActionBuy,
			Price:     last.Close,
			Timestamp: last.OpenTime,
			Reason:    fmt.Sprintf("Price touched lower Bollinger Band (distance: %.2f%%)", lowerDist),
		}
	case upperDist <= touchPct:
		return &Signal{
			Action:    ActionSell,
			Price:     last.Close,
			Timestamp: last.OpenTime,
			Reason:    fmt.Sprintf("Price touched upper Bollinger Band (distance: %.2f%%)", upperDist),
		}
	}
	return nil
}
