package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"finch/internal/indicator"
	"finch/internal/series"
	"finch/internal/strategy"
)

// Config 是进程级配置，来自 YAML 文件。
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Market   MarketConfig   `mapstructure:"market"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Paper    PaperConfig    `mapstructure:"paper"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Backtest BacktestConfig `mapstructure:"backtest"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type ExchangeConfig struct {
	RESTBaseURL        string `mapstructure:"rest_base_url"`
	HTTPTimeoutSeconds int    `mapstructure:"http_timeout_seconds"`
	ProxyEnabled       bool   `mapstructure:"proxy_enabled"`
	RESTProxyURL       string `mapstructure:"rest_proxy_url"`
	WSProxyURL         string `mapstructure:"ws_proxy_url"`
}

func (c ExchangeConfig) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

type MarketConfig struct {
	Symbol       string `mapstructure:"symbol"`
	Interval     string `mapstructure:"interval"`
	HistoryLimit int    `mapstructure:"history_limit"`
	MaxCandles   int    `mapstructure:"max_candles"`
	Lookback     int    `mapstructure:"lookback"`

	Indicators IndicatorConfig `mapstructure:"indicators"`
}

type IndicatorConfig struct {
	SMAPeriods      []int   `mapstructure:"sma_periods"`
	EMAPeriods      []int   `mapstructure:"ema_periods"`
	RSIPeriod       int     `mapstructure:"rsi_period"`
	MACDFast        int     `mapstructure:"macd_fast"`
	MACDSlow        int     `mapstructure:"macd_slow"`
	MACDSignal      int     `mapstructure:"macd_signal"`
	BollingerPeriod int     `mapstructure:"bollinger_period"`
	BollingerWidth  float64 `mapstructure:"bollinger_width"`
	ATRPeriod       int     `mapstructure:"atr_period"`
	StochKPeriod    int     `mapstructure:"stoch_k_period"`
	StochDPeriod    int     `mapstructure:"stoch_d_period"`
}

// ToPipeline 转成指标管线配置，零值字段由管线自行补默认。
func (c IndicatorConfig) ToPipeline() indicator.Config {
	return indicator.Config{
		SMAPeriods:      c.SMAPeriods,
		EMAPeriods:      c.EMAPeriods,
		RSIPeriod:       c.RSIPeriod,
		MACDFast:        c.MACDFast,
		MACDSlow:        c.MACDSlow,
		MACDSignal:      c.MACDSignal,
		BollingerPeriod: c.BollingerPeriod,
		BollingerWidth:  c.BollingerWidth,
		ATRPeriod:       c.ATRPeriod,
		StochKPeriod:    c.StochKPeriod,
		StochDPeriod:    c.StochDPeriod,
	}
}

type StrategyConfig struct {
	Active string                    `mapstructure:"active"`
	Params map[string]map[string]any `mapstructure:"params"`
}

type PaperConfig struct {
	InitialBalance float64 `mapstructure:"initial_balance"`
	FeeRate        float64 `mapstructure:"fee_rate"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

type StorageConfig struct {
	SignalDB string `mapstructure:"signal_db"`
}

type BacktestConfig struct {
	CSVPath   string `mapstructure:"csv_path"`
	Warmup    int    `mapstructure:"warmup"`
	ChartPath string `mapstructure:"chart_path"`
}

// Load 读取并校验配置文件。
func Load(path string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Exchange.HTTPTimeoutSeconds <= 0 {
		c.Exchange.HTTPTimeoutSeconds = 15
	}
	if c.Market.Symbol == "" {
		c.Market.Symbol = "BTCUSDT"
	}
	if c.Market.Interval == "" {
		c.Market.Interval = "1m"
	}
	if c.Market.MaxCandles <= 0 {
		c.Market.MaxCandles = series.DefaultMaxCandles
	}
	if c.Market.HistoryLimit <= 0 {
		c.Market.HistoryLimit = c.Market.MaxCandles
	}
	if c.Market.Lookback <= 0 {
		c.Market.Lookback = series.DefaultLookback
	}
	if c.Strategy.Active == "" {
		c.Strategy.Active = strategy.KeyMACrossover
	}
	if c.Paper.InitialBalance <= 0 {
		c.Paper.InitialBalance = 1000
	}
	if c.HTTP.Listen == "" {
		c.HTTP.Listen = ":8080"
	}
	if c.Storage.SignalDB == "" {
		c.Storage.SignalDB = "data/signals.db"
	}
	if c.Backtest.Warmup <= 0 {
		c.Backtest.Warmup = 50
	}
}

func (c *Config) validate() error {
	c.Market.Symbol = strings.ToUpper(strings.TrimSpace(c.Market.Symbol))
	c.Market.Interval = strings.ToLower(strings.TrimSpace(c.Market.Interval))
	if c.Market.Lookback > c.Market.MaxCandles {
		return fmt.Errorf("market.lookback (%d) cannot exceed market.max_candles (%d)",
			c.Market.Lookback, c.Market.MaxCandles)
	}
	if c.Paper.FeeRate < 0 || c.Paper.FeeRate >= 1 {
		return fmt.Errorf("paper.fee_rate must be in [0, 1), got %g", c.Paper.FeeRate)
	}
	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram enabled but bot_token/chat_id missing")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug/info/warn/error, got %q", c.Log.Level)
	}
	return nil
}

// StrategyParams 返回某个策略在配置里的参数段。
// viper 会把 YAML 键统一成小写，这里按大小写不敏感匹配。
func (c *Config) StrategyParams(name string) strategy.Params {
	for key, raw := range c.Strategy.Params {
		if !strings.EqualFold(key, name) {
			continue
		}
		out := make(strategy.Params, len(raw))
		for k, v := range raw {
			out[k] = v
		}
		return out
	}
	return nil
}
