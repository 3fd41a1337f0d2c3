// Package indicator 提供策略与回测共用的技术指标计算。
//
// 所有函数都是纯函数：输入不足以覆盖回看周期时返回约定的哨兵值
// （而非 error），调用方需在使用前检查历史是否充足。
package indicator

import (
	"math"
	"sort"
)

const (
	// DefaultRSIPeriod RSI 默认回看周期。
	DefaultRSIPeriod = 14
	// DefaultATRPeriod ATR 默认回看周期。
	DefaultATRPeriod = 14
	// DefaultBollingerPeriod 布林带默认回看周期。
	DefaultBollingerPeriod = 20
	// DefaultADXPeriod ADX 默认回看周期。
	DefaultADXPeriod = 14

	macdFastPeriod = 12
	macdSlowPeriod = 26
)

// Bands 表示布林带三条轨道。
type Bands struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// SMA 返回序列末尾 period 个值的算术平均。历史不足返回 0。
func SMA(series []float64, period int) float64 {
	if period <= 0 || len(series) < period {
		return 0
	}
	var sum float64
	for _, v := range series[len(series)-period:] {
		sum += v
	}
	return sum / float64(period)
}

// EMA 以回看窗口首个值为种子，对剩余窗口应用标准递推
// ema = (price - prev) * k + prev，k = 2/(period+1)。历史不足返回 0。
func EMA(series []float64, period int) float64 {
	if period <= 0 || len(series) < period {
		return 0
	}
	window := series[len(series)-period:]
	k := 2.0 / float64(period+1)
	ema := window[0]
	for _, price := range window[1:] {
		ema = (price-ema)*k + ema
	}
	return ema
}

// RSI 基于最近 period 次收盘变动计算相对强弱。
// 需要 period+1 个收盘价；历史不足返回中性值 50，平均亏损为 0 时返回 100。
func RSI(series []float64, period int) float64 {
	if period <= 0 || len(series) < period+1 {
		return 50
	}
	var gains, losses float64
	start := len(series) - period
	for i := start; i < len(series); i++ {
		delta := series[i] - series[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses += -delta
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ATR 对最近 period 根 K 线的真实波幅取平均。
// 真实波幅 = max(high-low, |high-prevClose|, |low-prevClose|)。
// 需要 period+1 根 K 线，否则返回 0。
func ATR(highs, lows, closes []float64, period int) float64 {
	n := len(closes)
	if period <= 0 || n < period+1 || len(highs) != n || len(lows) != n {
		return 0
	}
	var sum float64
	for i := n - period; i < n; i++ {
		prevClose := closes[i-1]
		tr := highs[i] - lows[i]
		if hc := math.Abs(highs[i] - prevClose); hc > tr {
			tr = hc
		}
		if lc := math.Abs(lows[i] - prevClose); lc > tr {
			tr = lc
		}
		sum += tr
	}
	return sum / float64(period)
}

// BollingerBands 中轨为 SMA(period)，带宽为 2 倍窗口总体标准差。
// 历史不足返回零值 Bands。
func BollingerBands(series []float64, period int) Bands {
	if period <= 0 || len(series) < period {
		return Bands{}
	}
	middle := SMA(series, period)
	window := series[len(series)-period:]
	var variance float64
	for _, v := range window {
		diff := v - middle
		variance += diff * diff
	}
	stdDev := math.Sqrt(variance / float64(period))
	return Bands{
		Upper:  middle + 2*stdDev,
		Middle: middle,
		Lower:  middle - 2*stdDev,
	}
}

// MACD 返回 EMA(12)-EMA(26) 与信号线。
//
// 注意：信号线是 macd*0.9 的近似，并非标准的 MACD 九周期 EMA。
// 下游阈值与历史回测均依赖该近似值，修正前需要产品侧确认。
func MACD(series []float64) (macd, signal float64) {
	macd = EMA(series, macdFastPeriod) - EMA(series, macdSlowPeriod)
	signal = macd * 0.9
	return macd, signal
}

// ADX 是简化的趋势强度分值，并非教科书上的 ADX：
// 最近 period 根 K 线中每根 high>low 记 25 分后取平均，无平滑、无方向分量。
// 保留该占位公式以维持决策行为一致，替换需要显式确认。历史不足返回 0。
func ADX(highs, lows []float64, period int) float64 {
	n := len(highs)
	if period <= 0 || n < period || len(lows) != n {
		return 0
	}
	var sum float64
	for i := n - period; i < n; i++ {
		if highs[i] > lows[i] {
			sum += 25
		}
	}
	return sum / float64(period)
}

// SupportResistance 按升序排序后取 20%/80% 百分位处的值（向下取整，不插值）。
// 空序列返回 (0, 0)。
func SupportResistance(series []float64) (support, resistance float64) {
	if len(series) == 0 {
		return 0, 0
	}
	sorted := make([]float64, len(series))
	copy(sorted, series)
	sort.Float64s(sorted)
	n := len(sorted)
	supportIdx := int(math.Floor(0.2 * float64(n)))
	resistanceIdx := int(math.Floor(0.8 * float64(n)))
	if supportIdx >= n {
		supportIdx = n - 1
	}
	if resistanceIdx >= n {
		resistanceIdx = n - 1
	}
	return sorted[supportIdx], sorted[resistanceIdx]
}
