package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finch/internal/strategy"
)

func TestPaperAccountBuySellRoundTrip(t *testing.T) {
	a := NewPaperAccount(1000, 0)

	require.True(t, a.Apply(strategy.Signal{Action: strategy.ActionBuy, Price: 100, Timestamp: 1}))
	assert.InDelta(t, 0.0, a.QuoteBalance(), 1e-9)
	assert.InDelta(t, 10.0, a.BaseBalance(), 1e-9)

	require.True(t, a.Apply(strategy.Signal{Action: strategy.ActionSell, Price: 110, Timestamp: 2}))
	assert.InDelta(t, 1100.0, a.QuoteBalance(), 1e-9)
	assert.InDelta(t, 0.0, a.BaseBalance(), 1e-9)

	trades := a.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, strategy.ActionBuy, trades[0].Action)
	assert.Equal(t, strategy.ActionSell, trades[1].Action)
}

func TestPaperAccountIgnoresRedundantSignals(t *testing.T) {
	a := NewPaperAccount(1000, 0)

	assert.False(t, a.Apply(strategy.Signal{Action: strategy.ActionSell, Price: 100}), "nothing to sell yet")
	require.True(t, a.Apply(strategy.Signal{Action: strategy.ActionBuy, Price: 100}))
	assert.False(t, a.Apply(strategy.Signal{Action: strategy.ActionBuy, Price: 90}), "already fully invested")
	assert.Len(t, a.Trades(), 1)
}

func TestPaperAccountFees(t *testing.T) {
	a := NewPaperAccount(1000, 0.001)

	require.True(t, a.Apply(strategy.Signal{Action: strategy.ActionBuy, Price: 100}))
	// 1000 * 0.1% = 1 手续费，剩余 999 买入 9.99
	assert.InDelta(t, 9.99, a.BaseBalance(), 1e-9)

	require.True(t, a.Apply(strategy.Signal{Action: strategy.ActionSell, Price: 100}))
	// 999 回款，0.999 手续费
	assert.InDelta(t, 998.001, a.QuoteBalance(), 1e-9)
}

func TestPaperAccountEquity(t *testing.T) {
	a := NewPaperAccount(1000, 0)
	assert.InDelta(t, 1000.0, a.Equity(123), 1e-9)

	require.True(t, a.Apply(strategy.Signal{Action: strategy.ActionBuy, Price: 100}))
	assert.InDelta(t, 1200.0, a.Equity(120), 1e-9)
	assert.InDelta(t, 800.0, a.Equity(80), 1e-9)
}

func TestPaperAccountRejectsBadPrice(t *testing.T) {
	a := NewPaperAccount(1000, 0)
	assert.False(t, a.Apply(strategy.Signal{Action: strategy.ActionBuy, Price: 0}))
	assert.False(t, a.Apply(strategy.Signal{Action: "hold", Price: 10}))
}
