package backtest

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"finch/internal/broker"
	"finch/internal/indicator"
	"finch/internal/logger"
	"finch/internal/market"
	"finch/internal/series"
	"finch/internal/strategy"
)

// 回测把历史 K 线按"先整表预热、再逐根收线"的方式重放，
// 与实盘引擎走同一条 store→snapshot→strategy 路径。

// Options 配置一次回测。
type Options struct {
	Symbol      string
	Interval    string
	StrategyKey string
	Params      strategy.Params

	Warmup     int // 预热根数，默认 50
	Lookback   int
	MaxCandles int
	Indicators indicator.Config

	InitialBalance float64
	FeeRate        float64
}

// EquityPoint 是资金曲线上的一个点，按收线价折算净值。
type EquityPoint struct {
	Timestamp int64   `json:"timestamp"`
	Equity    float64 `json:"equity"`
}

// Stats 汇总收益与风控指标。
type Stats struct {
	InitialBalance float64   `json:"initial_balance"`
	FinalEquity    float64   `json:"final_equity"`
	Profit         float64   `json:"profit"`
	ReturnPct      float64   `json:"return_pct"`
	WinRate        float64   `json:"win_rate"`
	MaxDrawdownPct float64   `json:"max_drawdown_pct"`
	Candles        int       `json:"candles"`
	Signals        int       `json:"signals"`
	Trades         int       `json:"trades"`
	Wins           int       `json:"wins"`
	Losses         int       `json:"losses"`
	FinishedAt     time.Time `json:"finished_at"`
}

// Result 是一次回测的完整输出。
type Result struct {
	ID       string            `json:"id"`
	Symbol   string            `json:"symbol"`
	Interval string            `json:"interval"`
	Strategy string            `json:"strategy"`
	Signals  []strategy.Signal `json:"signals"`
	Trades   []broker.Trade    `json:"trades"`
	Equity   []EquityPoint     `json:"equity"`
	Stats    Stats             `json:"stats"`
}

const defaultWarmup = 50

// Run 在给定 K 线序列上重放一条策略。candles 需按时间升序且全部已收线。
func Run(candles []market.Candle, opts Options) (Result, error) {
	if opts.Warmup <= 0 {
		opts.Warmup = defaultWarmup
	}
	if opts.Lookback <= 0 {
		opts.Lookback = series.DefaultLookback
	}
	if len(candles) <= opts.Warmup {
		return Result{}, fmt.Errorf("backtest: need more than %d candles, got %d", opts.Warmup, len(candles))
	}

	reg := strategy.NewRegistry()
	if len(opts.Params) > 0 {
		if err := reg.Configure(opts.StrategyKey, opts.Params); err != nil {
			return Result{}, err
		}
	}
	inst, err := reg.Get(opts.StrategyKey)
	if err != nil {
		return Result{}, err
	}

	store := series.New(opts.MaxCandles, opts.Indicators)
	if err := store.LoadHistory(candles[:opts.Warmup]); err != nil {
		return Result{}, err
	}
	account := broker.NewPaperAccount(opts.InitialBalance, opts.FeeRate)

	res := Result{
		ID:       uuid.NewString(),
		Symbol:   opts.Symbol,
		Interval: opts.Interval,
		Strategy: opts.StrategyKey,
	}
	for _, c := range candles[opts.Warmup:] {
		if err := store.ApplyUpdate(market.CandleUpdate{Candle: c, Closed: true}); err != nil {
			return Result{}, fmt.Errorf("backtest: apply candle open=%d: %w", c.OpenTime, err)
		}
		if sig := inst.Execute(store.Snapshot(opts.Lookback)); sig != nil {
			res.Signals = append(res.Signals, *sig)
			account.Apply(*sig)
		}
		res.Equity = append(res.Equity, EquityPoint{Timestamp: c.OpenTime, Equity: account.Equity(c.Close)})
	}

	res.Trades = account.Trades()
	res.Stats = summarize(account, res)
	logger.Infof("[backtest] %s %s %s: return=%.2f%% trades=%d", opts.Symbol, opts.Interval, opts.StrategyKey,
		res.Stats.ReturnPct, res.Stats.Trades)
	return res, nil
}

func summarize(account *broker.PaperAccount, res Result) Stats {
	st := Stats{
		InitialBalance: account.InitialBalance(),
		Candles:        len(res.Equity),
		Signals:        len(res.Signals),
		Trades:         len(res.Trades),
		FinishedAt:     time.Now(),
	}
	if len(res.Equity) > 0 {
		st.FinalEquity = res.Equity[len(res.Equity)-1].Equity
	} else {
		st.FinalEquity = st.InitialBalance
	}
	st.Profit = st.FinalEquity - st.InitialBalance
	if st.InitialBalance > 0 {
		st.ReturnPct = st.Profit / st.InitialBalance * 100
	}

	// 按买卖配对统计胜负，未平仓的尾仓不计
	var entry *broker.Trade
	for i := range res.Trades {
		tr := res.Trades[i]
		switch tr.Action {
		case strategy.ActionBuy:
			entry = &res.Trades[i]
		case strategy.ActionSell:
			if entry == nil {
				continue
			}
			if tr.Price > entry.Price {
				st.Wins++
			} else {
				st.Losses++
			}
			entry = nil
		}
	}
	if rounds := st.Wins + st.Losses; rounds > 0 {
		st.WinRate = float64(st.Wins) / float64(rounds) * 100
	}

	peak := st.InitialBalance
	for _, p := range res.Equity {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak > 0 {
			if dd := (peak - p.Equity) / peak * 100; dd > st.MaxDrawdownPct {
				st.MaxDrawdownPct = dd
			}
		}
	}
	return st
}
