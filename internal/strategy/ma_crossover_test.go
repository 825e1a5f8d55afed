package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/indicator"
	"finch/internal/market"
	"finch/internal/series"
)

func TestMACrossoverBuyAndSell(t *testing.T) {
	s := NewMACrossover(Params{"fast_period": 2, "slow_period": 3})

	buy := s.Execute(snapshotOf(
		row(60_000, 10, map[string]float64{"sma_2": 5, "sma_3": 6}),
		row(120_000, 12, map[string]float64{"sma_2": 7, "sma_3": 6}),
	))
	require.NotNil(t, buy)
	assert.Equal(t, ActionBuy, buy.Action)
	assert.Equal(t, 12.0, buy.Price)
	assert.Equal(t, int64(120_000), buy.Timestamp)
	assert.Equal(t, "sma_2 crossed above sma_3", buy.Reason)

	sell := s.Execute(snapshotOf(
		row(60_000, 10, map[string]float64{"sma_2": 7, "sma_3": 6}),
		row(120_000, 9, map[string]float64{"sma_2": 5, "sma_3": 6}),
	))
	require.NotNil(t, sell)
	assert.Equal(t, ActionSell, sell.Action)
	assert.Equal(t, "sma_2 crossed below sma_3", sell.Reason)
}

func TestMACrossoverEqualSeriesNeverSignals(t *testing.T) {
	s := NewMACrossover(Params{"fast_period": 2, "slow_period": 3})

	rows := make([]indicator.Row, 0, 10)
	for i := 0; i < 10; i++ {
		v := float64(10 + i)
		rows = append(rows, row(int64(i+1)*60_000, v, map[string]float64{"sma_2": v, "sma_3": v}))
	}
	for end := 2; end <= len(rows); end++ {
		assert.Nil(t, s.Execute(snapshotOf(rows[:end]...)), "window ending at %d", end)
	}
}

func TestMACrossoverSingleCrossingSignalsOnce(t *testing.T) {
	s := NewMACrossover(Params{"fast_period": 2, "slow_period": 3})

	// fast-slow 差值只在第 4 行（下标 3）由负转正
	diffs := []float64{-2, -1, -0.5, 1, 2, 3}
	rows := make([]indicator.Row, len(diffs))
	for i, d := range diffs {
		rows[i] = row(int64(i+1)*60_000, 100, map[string]float64{"sma_2": 50 + d, "sma_3": 50})
	}

	var signals []*Signal
	for end := 2; end <= len(rows); end++ {
		if sig := s.Execute(snapshotOf(rows[:end]...)); sig != nil {
			signals = append(signals, sig)
		}
	}
	require.Len(t, signals, 1)
	assert.Equal(t, ActionBuy, signals[0].Action)
	assert.Equal(t, int64(4*60_000), signals[0].Timestamp, "signal timestamped at the crossing row")
}

// 与数据流水线联动的完整场景：收盘价 [10,10,10,10,10,9,8,7,20,20]，
// 周期 {2,3}，第 9 根收盘后快线上穿慢线。
func TestMACrossoverEndToEndThroughStore(t *testing.T) {
	closes := []float64{10, 10, 10, 10, 10, 9, 8, 7, 20, 20}
	candles := make([]market.Candle, len(closes))
	for i, c := range closes {
		candles[i] = market.Candle{
			OpenTime: int64(i+1) * 60_000,
			Open:     c, High: c, Low: c, Close: c, Volume: 1,
		}
	}

	store := series.New(50, indicator.Config{SMAPeriods: []int{2, 3}})
	require.NoError(t, store.LoadHistory(candles[:3]))

	s := NewMACrossover(Params{"fast_period": 2, "slow_period": 3})

	var buys []*Signal
	for _, c := range candles[3:] {
		require.NoError(t, store.ApplyUpdate(market.CandleUpdate{Candle: c, Closed: true}))
		if sig := s.Execute(store.Snapshot(10)); sig != nil && sig.Action == ActionBuy {
			buys = append(buys, sig)
		}
	}

	require.Len(t, buys, 1)
	assert.Equal(t, 20.0, buys[0].Price)
	assert.Equal(t, candles[8].OpenTime, buys[0].Timestamp, "buy lands on the ninth candle")
}
