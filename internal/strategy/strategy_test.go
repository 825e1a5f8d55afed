package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"finch/internal/indicator"
	"finch/internal/market"
	"finch/internal/series"
)

func row(openTime int64, close float64, values map[string]float64) indicator.Row {
	if values == nil {
		values = map[string]float64{}
	}
	return indicator.Row{
		Candle: market.Candle{OpenTime: openTime, Open: close, High: close, Low: close, Close: close, Volume: 1},
		Values: values,
	}
}

func snapshotOf(rows ...indicator.Row) series.Snapshot {
	return series.Snapshot{Rows: rows}
}

func allStrategies() []Strategy {
	return []Strategy{
		NewMACrossover(nil),
		NewRSIThreshold(nil),
		NewMACDCrossover(nil),
		NewBollingerTouch(nil),
	}
}

func TestExecuteNeedsAtLeastTwoRows(t *testing.T) {
	single := snapshotOf(row(60_000, 10, nil))
	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			assert.Nil(t, s.Execute(series.Snapshot{}))
			assert.Nil(t, s.Execute(single))
		})
	}
}

func TestExecuteMissingColumnsIsSoft(t *testing.T) {
	snap := snapshotOf(row(60_000, 10, nil), row(120_000, 11, nil))
	for _, s := range allStrategies() {
		t.Run(s.Name(), func(t *testing.T) {
			assert.Nil(t, s.Execute(snap), "undefined indicators must yield no signal, not an error")
		})
	}
}

func TestParamsCoercion(t *testing.T) {
	p := Params{"a": 3, "b": 2.5, "c": "7", "d": int64(4), "junk": struct{}{}}

	v, ok := p.Int("a")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	f, ok := p.Float("b")
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)
	f, ok = p.Float("c")
	assert.True(t, ok)
	assert.Equal(t, 7.0, f)
	v, ok = p.Int("d")
	assert.True(t, ok)
	assert.Equal(t, 4, v)
	_, ok = p.Float("junk")
	assert.False(t, ok)
	_, ok = p.Float("absent")
	assert.False(t, ok)
}

func TestSetParamsMergesAndCopies(t *testing.T) {
	s := NewRSIThreshold(Params{"oversold": 25})

	got := s.Params()
	assert.Equal(t, 25, got["oversold"])
	assert.Equal(t, 70.0, got["overbought"], "unset keys keep defaults")
	assert.Equal(t, 14, got["rsi_period"])

	// 返回的是拷贝，改它不影响策略
	got["overbought"] = 10.0
	fresh := s.Params()
	assert.Equal(t, 70.0, fresh["overbought"])

	s.SetParams(Params{"overbought": 65.0})
	fresh = s.Params()
	assert.Equal(t, 65.0, fresh["overbought"])
	assert.Equal(t, 25, fresh["oversold"])
}

func TestUnknownParamKeysAreKeptButIgnored(t *testing.T) {
	s := NewMACrossover(Params{"fast_period": 2, "slow_period": 3, "future_knob": "x"})
	got := s.Params()
	assert.Equal(t, "x", got["future_knob"])

	snap := snapshotOf(
		row(60_000, 10, map[string]float64{"sma_2": 1, "sma_3": 2}),
		row(120_000, 11, map[string]float64{"sma_2": 3, "sma_3": 2}),
	)
	sig := s.Execute(snap)
	assert.NotNil(t, sig, "unknown keys must not change evaluation")
}
