package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"finch/internal/logger"
	"finch/internal/market"
	"finch/internal/series"
	"finch/internal/strategy"
)

// 实盘引擎：历史预热 → 订阅增量 → 收线后评估策略 → 信号分发。
// 形成中的 K 线只更新 live 帧，不触发评估。

// Envelope 是分发给各 Sink 的信号及其上下文。
type Envelope struct {
	Symbol   string          `json:"symbol"`
	Interval string          `json:"interval"`
	Strategy string          `json:"strategy"`
	Signal   strategy.Signal `json:"signal"`
	Params   strategy.Params `json:"params"`
}

// Sink 消费一条已触发信号。失败只影响自身，不阻断其它 Sink。
type Sink interface {
	OnSignal(ctx context.Context, env Envelope) error
}

// Options 配置一个引擎实例。
type Options struct {
	Symbol       string
	Interval     string
	StrategyKey  string
	HistoryLimit int // 预热拉取根数，默认取 store 容量
	Lookback     int // 评估窗口，默认 series.DefaultLookback
	Buffer       int // 订阅通道缓冲
}

// Stats 是引擎的运行计数。
type Stats struct {
	CandlesClosed int64  `json:"candles_closed"`
	LiveUpdates   int64  `json:"live_updates"`
	Signals       int64  `json:"signals"`
	DroppedStale  int64  `json:"dropped_stale"`
	LastError     string `json:"last_error,omitempty"`
}

type Engine struct {
	opts     Options
	source   market.Source
	store    *series.Store
	registry *strategy.Registry
	sinks    []Sink

	candlesClosed atomic.Int64
	liveUpdates   atomic.Int64
	signals       atomic.Int64
	droppedStale  atomic.Int64
	lastErr       atomic.Pointer[string]
}

// New 组装引擎。strategyKey 必须已在 registry 注册。
func New(opts Options, source market.Source, store *series.Store, registry *strategy.Registry, sinks ...Sink) (*Engine, error) {
	opts.Symbol = strings.ToUpper(strings.TrimSpace(opts.Symbol))
	opts.Interval = strings.ToLower(strings.TrimSpace(opts.Interval))
	if opts.Symbol == "" || opts.Interval == "" {
		return nil, fmt.Errorf("engine: symbol and interval are required")
	}
	if opts.Lookback <= 0 {
		opts.Lookback = series.DefaultLookback
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = series.DefaultMaxCandles
	}
	if _, err := registry.Get(opts.StrategyKey); err != nil {
		return nil, err
	}
	return &Engine{
		opts:     opts,
		source:   source,
		store:    store,
		registry: registry,
		sinks:    sinks,
	}, nil
}

// Warmup 拉取历史 K 线并整表载入。
func (e *Engine) Warmup(ctx context.Context) error {
	candles, err := e.source.FetchHistory(ctx, e.opts.Symbol, e.opts.Interval, e.opts.HistoryLimit)
	if err != nil {
		return fmt.Errorf("engine: fetch history: %w", err)
	}
	if err := e.store.LoadHistory(candles); err != nil {
		return fmt.Errorf("engine: load history: %w", err)
	}
	logger.Infof("[engine] warmed up %s %s with %d candles", e.opts.Symbol, e.opts.Interval, len(candles))
	return nil
}

// Run 订阅增量并阻塞处理，直到 ctx 取消或流关闭。
func (e *Engine) Run(ctx context.Context) error {
	events, err := e.source.Subscribe(ctx, e.opts.Symbol, e.opts.Interval, market.SubscribeOptions{
		Buffer: e.opts.Buffer,
		OnConnect: func() {
			logger.Infof("[engine] stream connected %s %s", e.opts.Symbol, e.opts.Interval)
		},
		OnDisconnect: func(err error) {
			if err != nil {
				logger.Warnf("[engine] stream disconnected: %v", err)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("engine: subscribe: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.handleEvent(ctx, ev)
		}
	}
}

func (e *Engine) handleEvent(ctx context.Context, ev market.CandleEvent) {
	if ev.Symbol != e.opts.Symbol || ev.Interval != e.opts.Interval {
		return
	}
	if err := e.store.ApplyUpdate(ev.Update); err != nil {
		if errors.Is(err, series.ErrStaleCandle) {
			e.droppedStale.Add(1)
			logger.Debugf("[engine] drop stale candle open=%d", ev.Update.OpenTime)
			return
		}
		e.setLastErr(err)
		logger.Warnf("[engine] apply update: %v", err)
		return
	}
	if !ev.Update.Closed {
		e.liveUpdates.Add(1)
		return
	}
	e.candlesClosed.Add(1)
	e.evaluate(ctx)
}

// evaluate 取快照跑一次策略，命中则广播给所有 Sink。
func (e *Engine) evaluate(ctx context.Context) {
	inst, err := e.registry.Get(e.opts.StrategyKey)
	if err != nil {
		e.setLastErr(err)
		return
	}
	snap := e.store.Snapshot(e.opts.Lookback)
	sig := inst.Execute(snap)
	if sig == nil {
		return
	}
	e.signals.Add(1)
	env := Envelope{
		Symbol:   e.opts.Symbol,
		Interval: e.opts.Interval,
		Strategy: e.opts.StrategyKey,
		Signal:   *sig,
		Params:   inst.Params(),
	}
	for _, sink := range e.sinks {
		if err := sink.OnSignal(ctx, env); err != nil {
			e.setLastErr(err)
			logger.Errorf("[engine] sink %T: %v", sink, err)
		}
	}
}

// Stats 返回当前计数快照。
func (e *Engine) Stats() Stats {
	st := Stats{
		CandlesClosed: e.candlesClosed.Load(),
		LiveUpdates:   e.liveUpdates.Load(),
		Signals:       e.signals.Load(),
		DroppedStale:  e.droppedStale.Load(),
	}
	if p := e.lastErr.Load(); p != nil {
		st.LastError = *p
	}
	return st
}

func (e *Engine) setLastErr(err error) {
	msg := err.Error()
	e.lastErr.Store(&msg)
}
