package ta

import "math"

// EMA returns the exponential moving average series. Values before the first
// full window are NaN; the first EMA value is seeded with a simple average.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 || len(values) < period {
		return out
	}
	start := firstValid(values)
	if start < 0 || len(values)-start < period {
		return out
	}
	sum := 0.0
	for i := start; i < start+period; i++ {
		sum += values[i]
	}
	out[start+period-1] = sum / float64(period)
	k := 2.0 / float64(period+1)
	for i := start + period; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// RSI returns the Wilder relative strength index series. Values before index
// `period` are NaN.
func RSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}
	gain, loss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	avgGain := gain / float64(period)
	avgLoss := loss / float64(period)
	out[period] = rsiValue(avgGain, avgLoss)
	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		g, l := 0.0, 0.0
		if d > 0 {
			g = d
		} else {
			l = -d
		}
		avgGain = (avgGain*float64(period-1) + g) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + l) / float64(period)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// MACD returns EMA(fast) minus EMA(slow) over the input series.
func MACD(closes []float64, fast, slow int) []float64 {
	f := EMA(closes, fast)
	s := EMA(closes, slow)
	out := nanSlice(len(closes))
	for i := range closes {
		out[i] = f[i] - s[i]
	}
	return out
}

// MACDSignal returns the EMA of the MACD series. NaN warmup values in the
// input are skipped before seeding.
func MACDSignal(macd []float64, period int) []float64 {
	return EMA(macd, period)
}

// ATR returns the Wilder average true range series. Values before index
// `period` are NaN.
func ATR(highs, lows, closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(highs) != len(lows) || len(lows) != len(closes) || len(closes) < period+1 {
		return out
	}
	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += trueRange(highs[i], lows[i], closes[i-1])
	}
	out[period] = sum / float64(period)
	for i := period + 1; i < len(closes); i++ {
		tr := trueRange(highs[i], lows[i], closes[i-1])
		out[i] = (out[i-1]*float64(period-1) + tr) / float64(period)
	}
	return out
}

func trueRange(high, low, prevClose float64) float64 {
	tr := high - low
	tr = math.Max(tr, math.Abs(high-prevClose))
	return math.Max(tr, math.Abs(low-prevClose))
}

// SwingLow returns the minimum value over the last `lookback` elements, or
// NaN if the slice is shorter than the window.
func SwingLow(lows []float64, lookback int) float64 {
	if lookback <= 0 || len(lows) < lookback {
		return math.NaN()
	}
	m := lows[len(lows)-1]
	for i := len(lows) - lookback; i < len(lows); i++ {
		if lows[i] < m {
			m = lows[i]
		}
	}
	return m
}

// SwingHigh returns the maximum value over the last `lookback` elements, or
// NaN if the slice is shorter than the window.
func SwingHigh(highs []float64, lookback int) float64 {
	if lookback <= 0 || len(highs) < lookback {
		return math.NaN()
	}
	m := highs[len(highs)-1]
	for i := len(highs) - lookback; i < len(highs); i++ {
		if highs[i] > m {
			m = highs[i]
		}
	}
	return m
}

// Last returns the final value of a series, or NaN for an empty one.
func Last(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	return vals[len(vals)-1]
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstValid(vals []float64) int {
	for i, v := range vals {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}
