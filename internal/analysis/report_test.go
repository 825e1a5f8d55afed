package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/market"
)

func syntheticCandles(n int) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		c := 100 + 5*math.Sin(float64(i)/7)
		out[i] = market.Candle{
			OpenTime: int64(i+1) * 60_000,
			Open:     c,
			High:     c + 1,
			Low:      c - 1,
			Close:    c,
			Volume:   10,
		}
	}
	return out
}

func TestBuildReportEmptyInput(t *testing.T) {
	_, err := BuildReport(nil, Settings{})
	require.Error(t, err)
}

func TestBuildReportCoversAllMetrics(t *testing.T) {
	rep, err := BuildReport(syntheticCandles(300), Settings{Symbol: "BTCUSDT", Interval: "1m"})
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", rep.Symbol)
	assert.Equal(t, 300, rep.Count)
	for _, key := range []string{"ema_fast", "ema_mid", "ema_slow", "rsi", "macd", "atr", "stoch_k"} {
		m, ok := rep.Metrics[key]
		require.True(t, ok, key)
		assert.False(t, math.IsNaN(m.Latest), key)
	}
}

func TestBuildReportRSIStates(t *testing.T) {
	up := make([]market.Candle, 60)
	for i := range up {
		c := 100 + float64(i)
		up[i] = market.Candle{OpenTime: int64(i+1) * 60_000, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1}
	}
	rep, err := BuildReport(up, Settings{})
	require.NoError(t, err)
	assert.Equal(t, "overbought", rep.Metrics["rsi"].State, "monotone rally pins RSI high")

	down := make([]market.Candle, 60)
	for i := range down {
		c := 200 - float64(i)
		down[i] = market.Candle{OpenTime: int64(i+1) * 60_000, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1}
	}
	rep, err = BuildReport(down, Settings{})
	require.NoError(t, err)
	assert.Equal(t, "oversold", rep.Metrics["rsi"].State)
}

func TestBuildReportEMAState(t *testing.T) {
	up := make([]market.Candle, 120)
	for i := range up {
		c := 100 + float64(i)
		up[i] = market.Candle{OpenTime: int64(i+1) * 60_000, Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 1}
	}
	rep, err := BuildReport(up, Settings{EMA: EMASettings{Fast: 10, Mid: 20, Slow: 50}})
	require.NoError(t, err)
	assert.Equal(t, "above", rep.Metrics["ema_fast"].State, "price leads its EMA in a steady rally")
}
