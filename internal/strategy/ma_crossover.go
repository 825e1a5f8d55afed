package strategy

import (
	"fmt"

	"finch/internal/indicator"
	"finch/internal/series"
)

// MACrossover：快线 SMA 上穿慢线 SMA 买入，下穿卖出。
// 只比较最后一行与倒数第二行（两点交叉，不做多行趋势判断）。
type MACrossover struct {
	paramStore
}

func maCrossoverDefaults() Params {
	return Params{
		"fast_period": 20,
		"slow_period": 50,
	}
}

// NewMACrossover 构造均线交叉策略，未给出的参数用默认值补齐。
func NewMACrossover(params Params) *MACrossover {
	return &MACrossover{paramStore: newParamStore(params, maCrossoverDefaults())}
}

func (s *MACrossover) Name() string { return "Simple Moving Average Crossover" }

func (s *MACrossover) Description() string {
	return "Generates buy signals when fast MA crosses above slow MA, " +
		"and sell signals when fast MA crosses below slow MA."
}

func (s *MACrossover) DefaultParams() Params { return maCrossoverDefaults() }

func (s *MACrossover) Execute(snap series.Snapshot) *Signal {
	last, ok := snap.Last()
	if !ok {
		return nil
	}
	prev, ok := snap.Prev()
	if !ok {
		return nil
	}

	p := s.Params()
	fastPeriod, _ := p.Int("fast_period")
	slowPeriod, _ := p.Int("slow_period")
	fastCol := indicator.SMAColumn(fastPeriod)
	slowCol := indicator.SMAColumn(slowPeriod)

	lastFast, ok1 := last.Value(fastCol)
	lastSlow, ok2 := last.Value(slowCol)
	prevFast, ok3 := prev.Value(fastCol)
	prevSlow, ok4 := prev.Value(slowCol)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}

	switch {
	case prevFast <= prevSlow && lastFast > lastSlow:
		return &Signal{
			Action:    ActionBuy,
			Price:     last.Close,
			Timestamp: last.OpenTime,
			Reason:    fmt.Sprintf("%s crossed above %s", fastCol, slowCol),
		}
	case prevFast >= prevSlow && lastFast < lastSlow:
		return &Signal{
			Action:    ActionSell,
			Price:     last.Close,
			Timestamp: last.OpenTime,
			Reason:    fmt.Sprintf("%s crossed below %s", fastCol, slowCol),
		}
	}
	return nil
}
