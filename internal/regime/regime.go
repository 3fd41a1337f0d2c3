// Package regime 将趋势强度与波动率映射为离散的市场状态。
package regime

// Regime 表示一种粗粒度市场状态。
type Regime string

const (
	Bullish Regime = "bullish"
	Bearish Regime = "bearish"
	Range   Regime = "range"
)

// Classify 按固定阈值分类：trendStrength > 60 看多、< 40 看空、其余震荡。
// 每根 K 线独立分类，无滞回。实盘策略把 RSI 直接作为 trendStrength 传入。
func Classify(trendStrength, volatilityPct float64) Regime {
	switch {
	case trendStrength > 60:
		return Bullish
	case trendStrength < 40:
		return Bearish
	default:
		return Range
	}
}
