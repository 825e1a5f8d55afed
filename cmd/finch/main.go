package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"finch/internal/backtest"
	"finch/internal/broker"
	"finch/internal/config"
	"finch/internal/engine"
	"finch/internal/gateway/binance"
	"finch/internal/gateway/notifier"
	"finch/internal/logger"
	"finch/internal/market"
	"finch/internal/series"
	"finch/internal/store/signallog"
	"finch/internal/strategy"
	httpapi "finch/internal/transport/http"
)

func main() {
	cfgPath := flag.String("config", envOr("FINCH_CONFIG", "configs/finch.yaml"), "配置文件路径")
	mode := flag.String("mode", "live", "运行模式: live 或 backtest")
	flag.Parse()

	watcher, err := config.Watch(*cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	cfg := watcher.Current()

	logFile, err := setupLogOutput(cfg.Log.File)
	if err != nil {
		log.Fatalf("初始化日志文件失败: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.Log.Level)
	logger.Infof("✓ 配置加载成功（symbol=%s interval=%s strategy=%s）",
		cfg.Market.Symbol, cfg.Market.Interval, cfg.Strategy.Active)

	switch *mode {
	case "live":
		if err := runLive(watcher); err != nil && !isShutdown(err) {
			log.Fatalf("运行失败: %v", err)
		}
	case "backtest":
		if err := runBacktest(cfg); err != nil {
			log.Fatalf("回测失败: %v", err)
		}
	default:
		log.Fatalf("未知运行模式: %s", *mode)
	}
}

func runLive(watcher *config.Watcher) error {
	cfg := watcher.Current()

	registry := strategy.NewRegistry()
	strategyKey, err := resolveStrategyKey(registry, cfg.Strategy.Active)
	if err != nil {
		return err
	}
	applyStrategyParams(registry, cfg)
	watcher.Subscribe(func(next *config.Config) {
		applyStrategyParams(registry, next)
	})

	store := series.New(cfg.Market.MaxCandles, cfg.Market.Indicators.ToPipeline())
	source, err := binance.New(binance.Config{
		RESTBaseURL:  cfg.Exchange.RESTBaseURL,
		HTTPTimeout:  cfg.Exchange.HTTPTimeout(),
		ProxyEnabled: cfg.Exchange.ProxyEnabled,
		RESTProxyURL: cfg.Exchange.RESTProxyURL,
		WSProxyURL:   cfg.Exchange.WSProxyURL,
	})
	if err != nil {
		return err
	}
	defer source.Close()

	account := broker.NewPaperAccount(cfg.Paper.InitialBalance, cfg.Paper.FeeRate)

	journal, err := signallog.Open(cfg.Storage.SignalDB)
	if err != nil {
		return err
	}
	defer journal.Close()

	sinks := []engine.Sink{
		engine.NotifierSink{Notifier: notifier.Log{}},
		engine.JournalSink{Store: journal},
		engine.BrokerSink{Account: account},
	}
	if cfg.Telegram.Enabled {
		sinks = append(sinks, engine.NotifierSink{
			Notifier: notifier.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID),
		})
	}

	eng, err := engine.New(engine.Options{
		Symbol:       cfg.Market.Symbol,
		Interval:     cfg.Market.Interval,
		StrategyKey:  strategyKey,
		HistoryLimit: cfg.Market.HistoryLimit,
		Lookback:     cfg.Market.Lookback,
	}, source, store, registry, sinks...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := eng.Warmup(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })
	if cfg.HTTP.Enabled {
		srv, err := httpapi.NewServer(cfg.HTTP.Listen, httpapi.Deps{
			Symbol:   cfg.Market.Symbol,
			Interval: cfg.Market.Interval,
			Registry: registry,
			Store:    store,
			Engine:   eng,
			Source:   source,
			Journal:  journal,
			Account:  account,
		})
		if err != nil {
			return err
		}
		g.Go(func() error {
			logger.Infof("HTTP API listening on %s", srv.Addr())
			return srv.Start(gctx)
		})
	}
	return g.Wait()
}

func runBacktest(cfg *config.Config) error {
	candles, err := loadBacktestCandles(cfg)
	if err != nil {
		return err
	}
	registry := strategy.NewRegistry()
	strategyKey, err := resolveStrategyKey(registry, cfg.Strategy.Active)
	if err != nil {
		return err
	}
	res, err := backtest.Run(candles, backtest.Options{
		Symbol:         cfg.Market.Symbol,
		Interval:       cfg.Market.Interval,
		StrategyKey:    strategyKey,
		Params:         cfg.StrategyParams(strategyKey),
		Warmup:         cfg.Backtest.Warmup,
		Lookback:       cfg.Market.Lookback,
		MaxCandles:     cfg.Market.MaxCandles,
		Indicators:     cfg.Market.Indicators.ToPipeline(),
		InitialBalance: cfg.Paper.InitialBalance,
		FeeRate:        cfg.Paper.FeeRate,
	})
	if err != nil {
		return err
	}
	logger.Infof("回测 %s 完成: final=%.2f return=%.2f%% win_rate=%.1f%% max_dd=%.2f%% trades=%d",
		res.ID, res.Stats.FinalEquity, res.Stats.ReturnPct, res.Stats.WinRate,
		res.Stats.MaxDrawdownPct, res.Stats.Trades)
	if cfg.Backtest.ChartPath != "" {
		if err := backtest.WriteChartFile(cfg.Backtest.ChartPath, res, candles); err != nil {
			return err
		}
		logger.Infof("图表已写入 %s", cfg.Backtest.ChartPath)
	}
	return nil
}

// loadBacktestCandles 优先读 CSV，未配置时退回 REST 拉取。
func loadBacktestCandles(cfg *config.Config) ([]market.Candle, error) {
	if cfg.Backtest.CSVPath != "" {
		return backtest.LoadCSV(cfg.Backtest.CSVPath)
	}
	source, err := binance.New(binance.Config{
		RESTBaseURL:  cfg.Exchange.RESTBaseURL,
		HTTPTimeout:  cfg.Exchange.HTTPTimeout(),
		ProxyEnabled: cfg.Exchange.ProxyEnabled,
		RESTProxyURL: cfg.Exchange.RESTProxyURL,
	})
	if err != nil {
		return nil, err
	}
	defer source.Close()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Exchange.HTTPTimeout())
	defer cancel()
	return source.FetchHistory(ctx, cfg.Market.Symbol, cfg.Market.Interval, cfg.Market.HistoryLimit)
}

// resolveStrategyKey 容忍配置里大小写不一致的策略名。
func resolveStrategyKey(registry *strategy.Registry, name string) (string, error) {
	for _, key := range registry.ListAvailable() {
		if strings.EqualFold(key, name) {
			return key, nil
		}
	}
	return "", strategy.ErrUnknownStrategy
}

func applyStrategyParams(registry *strategy.Registry, cfg *config.Config) {
	for _, key := range registry.ListAvailable() {
		params := cfg.StrategyParams(key)
		if len(params) == 0 {
			continue
		}
		if err := registry.Configure(key, params); err != nil {
			logger.Warnf("应用策略参数失败 (%s): %v", key, err)
		}
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func isShutdown(err error) bool {
	return err == nil || errors.Is(err, context.Canceled)
}
