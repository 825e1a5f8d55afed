package indicator

import "math"

// 滚动窗口计算。未定义的位置用 NaN 占位，由调用方决定是否落列。
// 窗口内含 NaN 时结果为 NaN（与完整窗口语义一致）。

func rollingMean(vals []float64, period int) []float64 {
	out := nanSlice(len(vals))
	if period <= 0 || period > len(vals) {
		return out
	}
	for i := period - 1; i < len(vals); i++ {
		sum := 0.0
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(vals[j]) {
				ok = false
				break
			}
			sum += vals[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// ema 用首个值作种子：ema[0]=v[0]，之后 ema[i]=α·v[i]+(1-α)·ema[i-1]，
// α=2/(period+1)。没有预热截断，所有行都有值。
func ema(vals []float64, period int) []float64 {
	out := nanSlice(len(vals))
	if len(vals) == 0 || period <= 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	out[0] = vals[0]
	for i := 1; i < len(vals); i++ {
		out[i] = alpha*vals[i] + (1-alpha)*out[i-1]
	}
	return out
}

// rsi 使用涨跌幅的简单滚动均值（非 Wilder 平滑）。
// 平均跌幅为零时该行未定义，不钳位到 100。
func rsi(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if len(closes) < 2 || period <= 0 {
		return out
	}
	gains := nanSlice(len(closes))
	losses := nanSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
			losses[i] = 0
		} else {
			gains[i] = 0
			losses[i] = -delta
		}
	}
	avgGain := rollingMean(gains, period)
	avgLoss := rollingMean(losses, period)
	for i := range out {
		if math.IsNaN(avgGain[i]) || math.IsNaN(avgLoss[i]) || avgLoss[i] == 0 {
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

func macd(closes []float64, fast, slow, signal int) (macdLine, signalLine, histogram []float64) {
	n := len(closes)
	macdLine = nanSlice(n)
	if n == 0 {
		return macdLine, nanSlice(n), nanSlice(n)
	}
	fastEMA := ema(closes, fast)
	slowEMA := ema(closes, slow)
	for i := 0; i < n; i++ {
		macdLine[i] = fastEMA[i] - slowEMA[i]
	}
	signalLine = ema(macdLine, signal)
	histogram = nanSlice(n)
	for i := 0; i < n; i++ {
		histogram[i] = macdLine[i] - signalLine[i]
	}
	return macdLine, signalLine, histogram
}

// bollinger 的标准差为样本标准差（除以 n-1）。
func bollinger(closes []float64, period int, width float64) (middle, std, upper, lower []float64) {
	n := len(closes)
	middle = rollingMean(closes, period)
	std = nanSlice(n)
	upper = nanSlice(n)
	lower = nanSlice(n)
	if period <= 1 || period > n {
		return middle, std, upper, lower
	}
	for i := period - 1; i < n; i++ {
		mean := middle[i]
		if math.IsNaN(mean) {
			continue
		}
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mean
			sum += d * d
		}
		sd := math.Sqrt(sum / float64(period-1))
		std[i] = sd
		upper[i] = mean + width*sd
		lower[i] = mean - width*sd
	}
	return middle, std, upper, lower
}

// atr 的真实波幅：max(|h-l|, |h-prevClose|, |l-prevClose|)；
// 首行没有前收盘价，退化为 h-l。
func atr(highs, lows, closes []float64, period int) []float64 {
	n := len(highs)
	tr := nanSlice(n)
	if n == 0 {
		return tr
	}
	tr[0] = highs[0] - lows[0]
	for i := 1; i < n; i++ {
		hl := math.Abs(highs[i] - lows[i])
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return rollingMean(tr, period)
}

// stochastic 的 %K 在窗口最高价等于最低价时未定义；%D 是 %K 的简单均值，
// 窗口内任一 %K 未定义则 %D 未定义。
func stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) (k, d []float64) {
	n := len(highs)
	k = nanSlice(n)
	if kPeriod <= 0 || kPeriod > n {
		return k, nanSlice(n)
	}
	for i := kPeriod - 1; i < n; i++ {
		lowest := math.Inf(1)
		highest := math.Inf(-1)
		for j := i - kPeriod + 1; j <= i; j++ {
			lowest = math.Min(lowest, lows[j])
			highest = math.Max(highest, highs[j])
		}
		if highest == lowest {
			continue
		}
		k[i] = 100 * (closes[i] - lowest) / (highest - lowest)
	}
	d = rollingMean(k, dPeriod)
	return k, d
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
