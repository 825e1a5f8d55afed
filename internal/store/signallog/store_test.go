package signallog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/strategy"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "signals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestAppendAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Append(ctx, "BTCUSDT", "1m", strategy.KeyRSI, strategy.Signal{
		Action:    strategy.ActionBuy,
		Price:     100.5,
		Timestamp: 60_000,
		Reason:    "RSI crossed above oversold",
	}, strategy.Params{"rsi_period": 14, "oversold": 30.0})
	require.NoError(t, err)
	assert.NotEmpty(t, first.SignalID)

	second, err := s.Append(ctx, "BTCUSDT", "1m", strategy.KeyRSI, strategy.Signal{
		Action:    strategy.ActionSell,
		Price:     110,
		Timestamp: 120_000,
	}, nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.SignalID, second.SignalID)

	recs, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "sell", recs[0].Action, "newest first")
	assert.Equal(t, "buy", recs[1].Action)
	assert.Contains(t, string(recs[1].Params), "rsi_period")
}

func TestRecentLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := s.Append(ctx, "ETHUSDT", "5m", strategy.KeyMACD, strategy.Signal{
			Action:    strategy.ActionBuy,
			Price:     float64(i + 1),
			Timestamp: int64(i+1) * 60_000,
		}, nil)
		require.NoError(t, err)
	}

	recs, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.InDelta(t, 5.0, recs[0].Price, 1e-9)
}
