package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/indicator"
)

func rsiRow(openTime int64, close, rsi float64) indicator.Row {
	return row(openTime, close, map[string]float64{indicator.ColRSI: rsi})
}

func TestRSIThresholdBuyOnOversoldExit(t *testing.T) {
	s := NewRSIThreshold(nil)

	sig := s.Execute(snapshotOf(rsiRow(60_000, 100, 25), rsiRow(120_000, 104, 32)))
	require.NotNil(t, sig)
	assert.Equal(t, ActionBuy, sig.Action)
	assert.Equal(t, 104.0, sig.Price)
	assert.Equal(t, int64(120_000), sig.Timestamp)

	// 停留在超卖区内不触发
	assert.Nil(t, s.Execute(snapshotOf(rsiRow(60_000, 100, 20), rsiRow(120_000, 101, 25))))
	// 从中性区上行不触发
	assert.Nil(t, s.Execute(snapshotOf(rsiRow(60_000, 100, 45), rsiRow(120_000, 104, 55))))
	// 精确落在阈值上（prev == oversold）不算从下方回归
	assert.Nil(t, s.Execute(snapshotOf(rsiRow(60_000, 100, 30), rsiRow(120_000, 104, 35))))
}

func TestRSIThresholdSellOnOverboughtExit(t *testing.T) {
	s := NewRSIThreshold(nil)

	sig := s.Execute(snapshotOf(rsiRow(60_000, 100, 78), rsiRow(120_000, 96, 64)))
	require.NotNil(t, sig)
	assert.Equal(t, ActionSell, sig.Action)

	assert.Nil(t, s.Execute(snapshotOf(rsiRow(60_000, 100, 80), rsiRow(120_000, 99, 75))))
}

func TestRSIThresholdCustomThresholds(t *testing.T) {
	s := NewRSIThreshold(Params{"oversold": 25.0})

	// 27 已在定制阈值之上，默认阈值下这会触发
	assert.Nil(t, s.Execute(snapshotOf(rsiRow(60_000, 100, 27), rsiRow(120_000, 104, 33))))

	sig := s.Execute(snapshotOf(rsiRow(60_000, 100, 22), rsiRow(120_000, 104, 26)))
	require.NotNil(t, sig)
	assert.Equal(t, ActionBuy, sig.Action)
}

func TestRSIThresholdUndefinedRSI(t *testing.T) {
	s := NewRSIThreshold(nil)
	assert.Nil(t, s.Execute(snapshotOf(
		row(60_000, 100, nil),
		rsiRow(120_000, 104, 35),
	)), "missing previous RSI yields no signal")
}
