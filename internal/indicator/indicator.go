package indicator

import (
	"fmt"
	"math"

	"finch/internal/market"
)

// 指标流水线：对一段按 OpenTime 升序排列的 K 线做全量重算。
// 同一输入序列永远得到同一输出，不做增量缓存。

// Config 描述全部指标参数，零值字段回退到默认值。
type Config struct {
	SMAPeriods      []int   `json:"sma_periods"`
	EMAPeriods      []int   `json:"ema_periods"`
	RSIPeriod       int     `json:"rsi_period"`
	MACDFast        int     `json:"macd_fast"`
	MACDSlow        int     `json:"macd_slow"`
	MACDSignal      int     `json:"macd_signal"`
	BollingerPeriod int     `json:"bollinger_period"`
	BollingerWidth  float64 `json:"bollinger_width"`
	ATRPeriod       int     `json:"atr_period"`
	StochKPeriod    int     `json:"stoch_k_period"`
	StochDPeriod    int     `json:"stoch_d_period"`
}

// DefaultConfig 返回与经典参数一致的配置。
func DefaultConfig() Config {
	return Config{
		SMAPeriods:      []int{20, 50, 200},
		EMAPeriods:      []int{12, 26},
		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerWidth:  2.0,
		ATRPeriod:       14,
		StochKPeriod:    14,
		StochDPeriod:    3,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if len(c.SMAPeriods) == 0 {
		c.SMAPeriods = def.SMAPeriods
	}
	if len(c.EMAPeriods) == 0 {
		c.EMAPeriods = def.EMAPeriods
	}
	if c.RSIPeriod <= 0 {
		c.RSIPeriod = def.RSIPeriod
	}
	if c.MACDFast <= 0 {
		c.MACDFast = def.MACDFast
	}
	if c.MACDSlow <= 0 {
		c.MACDSlow = def.MACDSlow
	}
	if c.MACDSignal <= 0 {
		c.MACDSignal = def.MACDSignal
	}
	if c.BollingerPeriod <= 1 {
		c.BollingerPeriod = def.BollingerPeriod
	}
	if c.BollingerWidth <= 0 {
		c.BollingerWidth = def.BollingerWidth
	}
	if c.ATRPeriod <= 0 {
		c.ATRPeriod = def.ATRPeriod
	}
	if c.StochKPeriod <= 0 {
		c.StochKPeriod = def.StochKPeriod
	}
	if c.StochDPeriod <= 0 {
		c.StochDPeriod = def.StochDPeriod
	}
	return c
}

// 固定列名。SMA/EMA 列带周期后缀。
const (
	ColRSI           = "rsi"
	ColMACD          = "macd"
	ColMACDSignal    = "macd_signal"
	ColMACDHistogram = "macd_histogram"
	ColBBMiddle      = "bb_middle"
	ColBBStd         = "bb_std"
	ColBBUpper       = "bb_upper"
	ColBBLower       = "bb_lower"
	ColATR           = "atr"
	ColStochK        = "stoch_k"
	ColStochD        = "stoch_d"
)

// SMAColumn 返回指定周期的 SMA 列名，如 sma_20。
func SMAColumn(period int) string { return fmt.Sprintf("sma_%d", period) }

// EMAColumn 返回指定周期的 EMA 列名，如 ema_12。
func EMAColumn(period int) string { return fmt.Sprintf("ema_%d", period) }

// Row 是一根 K 线加上其衍生指标列。缺少足够回看窗口的列不出现在 Values 中。
type Row struct {
	market.Candle
	Values map[string]float64 `json:"values"`
}

// Value 读取指标列；未定义（预热不足、除零退化）返回 ok=false。
func (r Row) Value(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Clone 返回值拷贝，内部 map 不共享。
func (r Row) Clone() Row {
	values := make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return Row{Candle: r.Candle, Values: values}
}

// Compute 按固定顺序计算全部指标列：SMA → EMA → RSI → MACD → Bollinger →
// ATR → Stochastic。每个子计算只依赖原始 OHLCV，互不读写中间状态。
func Compute(candles []market.Candle, cfg Config) []Row {
	if len(candles) == 0 {
		return nil
	}
	cfg = cfg.withDefaults()

	n := len(candles)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}

	rows := make([]Row, n)
	for i, c := range candles {
		rows[i] = Row{Candle: c, Values: make(map[string]float64, 16)}
	}
	set := func(i int, name string, v float64) {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			rows[i].Values[name] = v
		}
	}

	for _, period := range cfg.SMAPeriods {
		series := rollingMean(closes, period)
		name := SMAColumn(period)
		for i, v := range series {
			set(i, name, v)
		}
	}

	for _, period := range cfg.EMAPeriods {
		series := ema(closes, period)
		name := EMAColumn(period)
		for i, v := range series {
			set(i, name, v)
		}
	}

	for i, v := range rsi(closes, cfg.RSIPeriod) {
		set(i, ColRSI, v)
	}

	macdLine, signalLine, histogram := macd(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	for i := range macdLine {
		set(i, ColMACD, macdLine[i])
		set(i, ColMACDSignal, signalLine[i])
		set(i, ColMACDHistogram, histogram[i])
	}

	middle, std, upper, lower := bollinger(closes, cfg.BollingerPeriod, cfg.BollingerWidth)
	for i := range middle {
		set(i, ColBBMiddle, middle[i])
		set(i, ColBBStd, std[i])
		set(i, ColBBUpper, upper[i])
		set(i, ColBBLower, lower[i])
	}

	for i, v := range atr(highs, lows, closes, cfg.ATRPeriod) {
		set(i, ColATR, v)
	}

	stochK, stochD := stochastic(highs, lows, closes, cfg.StochKPeriod, cfg.StochDPeriod)
	for i := range stochK {
		set(i, ColStochK, stochK[i])
		set(i, ColStochD, stochD[i])
	}

	return rows
}
