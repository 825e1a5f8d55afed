package indicator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/market"
)

func candlesFromCloses(closes ...float64) []market.Candle {
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		out[i] = market.Candle{
			OpenTime: int64(i) * 60_000,
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			Volume:   1,
		}
	}
	return out
}

func TestComputeSMA(t *testing.T) {
	cfg := Config{SMAPeriods: []int{3}}
	rows := Compute(candlesFromCloses(1, 2, 3, 4, 5), cfg)
	require.Len(t, rows, 5)

	_, ok := rows[0].Value(SMAColumn(3))
	assert.False(t, ok, "sma_3 must be undefined before 3 candles exist")
	_, ok = rows[1].Value(SMAColumn(3))
	assert.False(t, ok)

	v, ok := rows[2].Value(SMAColumn(3))
	require.True(t, ok)
	assert.InDelta(t, 2.0, v, 1e-12)
	v, ok = rows[4].Value(SMAColumn(3))
	require.True(t, ok)
	assert.InDelta(t, 4.0, v, 1e-12)
}

func TestComputeEMASeededByFirstClose(t *testing.T) {
	cfg := Config{EMAPeriods: []int{12}}
	rows := Compute(candlesFromCloses(10, 16), cfg)
	require.Len(t, rows, 2)

	v, ok := rows[0].Value(EMAColumn(12))
	require.True(t, ok)
	assert.InDelta(t, 10.0, v, 1e-12, "first EMA equals first close")

	alpha := 2.0 / 13.0
	v, ok = rows[1].Value(EMAColumn(12))
	require.True(t, ok)
	assert.InDelta(t, alpha*16+(1-alpha)*10, v, 1e-12)
}

func TestComputeRSIRollingMean(t *testing.T) {
	cfg := Config{RSIPeriod: 2}
	rows := Compute(candlesFromCloses(1, 2, 3, 2), cfg)
	require.Len(t, rows, 4)

	for i := 0; i < 2; i++ {
		_, ok := rows[i].Value(ColRSI)
		assert.False(t, ok, "row %d lacks two full deltas", i)
	}

	// window [+1,+1]: avg loss is zero, value stays undefined instead of 100
	_, ok := rows[2].Value(ColRSI)
	assert.False(t, ok)

	// window [+1,-1]: avg gain 0.5, avg loss 0.5 -> RSI 50
	v, ok := rows[3].Value(ColRSI)
	require.True(t, ok)
	assert.InDelta(t, 50.0, v, 1e-12)
}

func TestComputeMACDFromEMAs(t *testing.T) {
	closes := []float64{10, 11, 13, 12, 14, 15, 13, 16}
	cfg := Config{EMAPeriods: []int{12, 26}, MACDFast: 12, MACDSlow: 26, MACDSignal: 9}
	rows := Compute(candlesFromCloses(closes...), cfg)

	for i, row := range rows {
		fast, ok := row.Value(EMAColumn(12))
		require.True(t, ok)
		slow, ok := row.Value(EMAColumn(26))
		require.True(t, ok)
		macdVal, ok := row.Value(ColMACD)
		require.True(t, ok, "macd defined on every row")
		assert.InDelta(t, fast-slow, macdVal, 1e-12, "row %d", i)

		signal, ok := row.Value(ColMACDSignal)
		require.True(t, ok)
		hist, ok := row.Value(ColMACDHistogram)
		require.True(t, ok)
		assert.InDelta(t, macdVal-signal, hist, 1e-12)
	}

	first, _ := rows[0].Value(ColMACD)
	assert.Zero(t, first, "both EMAs are seeded with the first close")
}

func TestComputeBollingerSampleStd(t *testing.T) {
	cfg := Config{BollingerPeriod: 3, BollingerWidth: 2}
	rows := Compute(candlesFromCloses(1, 2, 3), cfg)

	_, ok := rows[1].Value(ColBBMiddle)
	assert.False(t, ok)

	mid, ok := rows[2].Value(ColBBMiddle)
	require.True(t, ok)
	assert.InDelta(t, 2.0, mid, 1e-12)
	std, ok := rows[2].Value(ColBBStd)
	require.True(t, ok)
	assert.InDelta(t, 1.0, std, 1e-12, "sample std dev divides by n-1")
	upper, _ := rows[2].Value(ColBBUpper)
	lower, _ := rows[2].Value(ColBBLower)
	assert.InDelta(t, 4.0, upper, 1e-12)
	assert.InDelta(t, 0.0, lower, 1e-12)
}

func TestComputeATRFirstRowFallback(t *testing.T) {
	candles := []market.Candle{
		{OpenTime: 0, Open: 9, High: 10, Low: 8, Close: 9, Volume: 1},
		{OpenTime: 60_000, Open: 9, High: 9.5, Low: 9, Close: 9.2, Volume: 1},
	}
	cfg := Config{ATRPeriod: 1}
	rows := Compute(candles, cfg)

	v, ok := rows[0].Value(ColATR)
	require.True(t, ok)
	assert.InDelta(t, 2.0, v, 1e-12, "no previous close, TR degrades to high-low")

	// max(|9.5-9|, |9.5-9|, |9-9|) = 0.5
	v, ok = rows[1].Value(ColATR)
	require.True(t, ok)
	assert.InDelta(t, 0.5, v, 1e-12)
}

func TestComputeStochastic(t *testing.T) {
	candles := []market.Candle{
		{OpenTime: 0, High: 10, Low: 8, Close: 9},
		{OpenTime: 60_000, High: 11, Low: 9, Close: 10},
		{OpenTime: 120_000, High: 12, Low: 10, Close: 11.5},
	}
	cfg := Config{StochKPeriod: 2, StochDPeriod: 2}
	rows := Compute(candles, cfg)

	_, ok := rows[0].Value(ColStochK)
	assert.False(t, ok)

	// window rows 0..1: low 8, high 11 -> %K = 100*(10-8)/3
	v, ok := rows[1].Value(ColStochK)
	require.True(t, ok)
	assert.InDelta(t, 100*2.0/3.0, v, 1e-9)

	// %D needs two defined %K rows
	_, ok = rows[1].Value(ColStochD)
	assert.False(t, ok)
	k2, ok := rows[2].Value(ColStochK)
	require.True(t, ok)
	d2, ok := rows[2].Value(ColStochD)
	require.True(t, ok)
	k1, _ := rows[1].Value(ColStochK)
	assert.InDelta(t, (k1+k2)/2, d2, 1e-9)
}

func TestComputeFlatWindowDegeneracy(t *testing.T) {
	rows := Compute(candlesFromCloses(5, 5, 5, 5, 5), Config{
		SMAPeriods:      []int{2},
		RSIPeriod:       2,
		StochKPeriod:    2,
		StochDPeriod:    2,
		BollingerPeriod: 2,
		BollingerWidth:  2,
	})
	last := rows[len(rows)-1]

	_, ok := last.Value(ColStochK)
	assert.False(t, ok, "flat window leaves %K undefined")
	_, ok = last.Value(ColRSI)
	assert.False(t, ok, "zero average loss leaves RSI undefined")

	mid, ok := last.Value(ColBBMiddle)
	require.True(t, ok)
	upper, _ := last.Value(ColBBUpper)
	lower, _ := last.Value(ColBBLower)
	assert.InDelta(t, mid, upper, 1e-12)
	assert.InDelta(t, mid, lower, 1e-12)
}

func TestComputeDeterministic(t *testing.T) {
	candles := candlesFromCloses(3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5)
	a := Compute(candles, DefaultConfig())
	b := Compute(candles, DefaultConfig())
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Candle, b[i].Candle)
		assert.Equal(t, a[i].Values, b[i].Values)
	}
}

func TestComputeNeverEmitsNaN(t *testing.T) {
	candles := candlesFromCloses(5, 5, 5, 5, 5, 5, 5, 5)
	for _, row := range Compute(candles, DefaultConfig()) {
		for name, v := range row.Values {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "column %s", name)
		}
	}
}

func TestComputeEmptyInput(t *testing.T) {
	assert.Nil(t, Compute(nil, DefaultConfig()))
}
