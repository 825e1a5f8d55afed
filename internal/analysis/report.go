package analysis

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"finch/internal/market"
)

// 面向运维接口的市场快照报告。这里刻意用 talib 的平滑口径
// （Wilder RSI 等），和策略管线的滚动均值口径是两套东西，
// 只做人工观察，不参与信号判定。

// Settings 控制报告里各指标的参数。
type Settings struct {
	Symbol   string      `json:"symbol"`
	Interval string      `json:"interval"`
	EMA      EMASettings `json:"ema"`
	RSI      RSISettings `json:"rsi"`
}

// EMASettings 描述趋势 EMA 的三条周期。
type EMASettings struct {
	Fast int `json:"fast,omitempty"`
	Mid  int `json:"mid,omitempty"`
	Slow int `json:"slow,omitempty"`
}

// RSISettings 描述 RSI 周期与阈值。
type RSISettings struct {
	Period     int     `json:"period,omitempty"`
	Oversold   float64 `json:"oversold,omitempty"`
	Overbought float64 `json:"overbought,omitempty"`
}

// Metric 保存单个指标的最新值与离散状态。
type Metric struct {
	Latest float64 `json:"latest"`
	State  string  `json:"state,omitempty"`
	Note   string  `json:"note,omitempty"`
}

// Report 汇总单个 symbol+interval 的指标读数。
type Report struct {
	Symbol   string            `json:"symbol"`
	Interval string            `json:"interval"`
	Count    int               `json:"count"`
	Metrics  map[string]Metric `json:"metrics"`
}

// BuildReport 对一段已收线 K 线计算报告。K 线需按时间升序。
func BuildReport(candles []market.Candle, cfg Settings) (Report, error) {
	rep := Report{
		Symbol:   cfg.Symbol,
		Interval: cfg.Interval,
		Count:    len(candles),
		Metrics:  make(map[string]Metric),
	}
	if len(candles) == 0 {
		return rep, fmt.Errorf("analysis: no candles")
	}

	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}
	lastClose := closes[len(closes)-1]

	if cfg.EMA.Fast <= 0 {
		cfg.EMA.Fast = 21
	}
	if cfg.EMA.Mid <= 0 {
		cfg.EMA.Mid = 50
	}
	if cfg.EMA.Slow <= 0 {
		cfg.EMA.Slow = 200
	}
	for name, period := range map[string]int{
		"ema_fast": cfg.EMA.Fast,
		"ema_mid":  cfg.EMA.Mid,
		"ema_slow": cfg.EMA.Slow,
	} {
		v := lastValid(talib.Ema(closes, period))
		rep.Metrics[name] = Metric{
			Latest: round4(v),
			State:  relativeState(lastClose, v),
			Note:   fmt.Sprintf("EMA%d vs price", period),
		}
	}

	if cfg.RSI.Period <= 0 {
		cfg.RSI.Period = 14
	}
	if cfg.RSI.Oversold == 0 {
		cfg.RSI.Oversold = 30
	}
	if cfg.RSI.Overbought == 0 {
		cfg.RSI.Overbought = 70
	}
	rsiVal := lastValid(talib.Rsi(closes, cfg.RSI.Period))
	rsiState := "neutral"
	switch {
	case rsiVal >= cfg.RSI.Overbought:
		rsiState = "overbought"
	case rsiVal <= cfg.RSI.Oversold:
		rsiState = "oversold"
	}
	rep.Metrics["rsi"] = Metric{
		Latest: round4(rsiVal),
		State:  rsiState,
		Note:   fmt.Sprintf("period=%d thresholds=%.1f/%.1f", cfg.RSI.Period, cfg.RSI.Oversold, cfg.RSI.Overbought),
	}

	macd, signal, hist := talib.Macd(closes, 12, 26, 9)
	histVal := lastValid(hist)
	macdState := "flat"
	switch {
	case histVal > 0:
		macdState = "bullish"
	case histVal < 0:
		macdState = "bearish"
	}
	rep.Metrics["macd"] = Metric{
		Latest: round4(lastValid(macd)),
		State:  macdState,
		Note:   fmt.Sprintf("signal=%.4f hist=%.4f", lastValid(signal), histVal),
	}

	atrVal := lastValid(talib.Atr(highs, lows, closes, 14))
	rep.Metrics["atr"] = Metric{
		Latest: round4(atrVal),
		State:  "volatility",
		Note:   "period=14",
	}

	k, d := talib.Stoch(highs, lows, closes, 14, 3, talib.SMA, 3, talib.SMA)
	kVal := lastValid(k)
	rep.Metrics["stoch_k"] = Metric{
		Latest: round4(kVal),
		State:  stochasticState(kVal),
		Note:   fmt.Sprintf("d=%.2f", lastValid(d)),
	}

	return rep, nil
}

func lastValid(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		v := series[i]
		if !math.IsNaN(v) && !math.IsInf(v, 0) && v != 0 {
			return v
		}
	}
	return 0
}

func relativeState(price, ref float64) string {
	if ref == 0 {
		return "unknown"
	}
	switch {
	case price > ref*1.002:
		return "above"
	case price < ref*0.998:
		return "below"
	default:
		return "touch"
	}
}

func stochasticState(v float64) string {
	switch {
	case v >= 80:
		return "overbought"
	case v <= 20:
		return "oversold"
	default:
		return "neutral"
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
