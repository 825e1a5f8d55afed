package binance

import (
	"testing"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/market"
)

func TestDropUnclosed(t *testing.T) {
	now := time.UnixMilli(10 * 60_000)
	candles := []market.Candle{
		{OpenTime: 7 * 60_000, Close: 1},
		{OpenTime: 8 * 60_000, Close: 2},
		{OpenTime: 9 * 60_000, Close: 3},
	}

	t.Run("forming candle dropped", func(t *testing.T) {
		got := dropUnclosed(candles, time.Minute, now.Add(-time.Second))
		require.Len(t, got, 2)
		assert.Equal(t, int64(8*60_000), got[len(got)-1].OpenTime)
	})

	t.Run("closed candle kept", func(t *testing.T) {
		got := dropUnclosed(candles, time.Minute, now)
		assert.Len(t, got, 3)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, dropUnclosed(nil, time.Minute, now))
	})
}

func TestConvertKlineEvent(t *testing.T) {
	ev := &binance.WsKlineEvent{
		Symbol: "btcusdt",
		Kline: binance.WsKline{
			StartTime: 60_000,
			EndTime:   119_999,
			Interval:  "1M",
			Open:      "100.0",
			High:      "101.0",
			Low:       "99.5",
			Close:     "100.5",
			Volume:    "12.3",
			IsFinal:   true,
		},
	}
	ce, ok := convertKlineEvent(ev)
	require.True(t, ok)
	assert.Equal(t, "BTCUSDT", ce.Symbol)
	assert.Equal(t, "1m", ce.Interval)
	assert.True(t, ce.Update.Closed)
	assert.Equal(t, int64(60_000), ce.Update.OpenTime)
	assert.InDelta(t, 100.5, ce.Update.Close, 1e-9)

	_, ok = convertKlineEvent(nil)
	assert.False(t, ok)
}

func TestConfigDefaults(t *testing.T) {
	cfg := (&Config{}).withDefaults()
	assert.Equal(t, "https://api.binance.com", cfg.RESTBaseURL)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
}
