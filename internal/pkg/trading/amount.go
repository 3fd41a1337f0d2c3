// Package trading provides trading calculation utilities.
package trading

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// VolatilityCutThresholdPct 波动率超过该值时仓位减半。
	VolatilityCutThresholdPct = 3.0
	// SentimentCutThreshold 情绪分低于该值时仓位乘 0.7。
	SentimentCutThreshold = -0.5

	volatilityCutFactor = 0.5
	sentimentCutFactor  = 0.7
)

func decFromFloat(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func decToFloat(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

// PriceChangePct 返回相对入场价的涨跌幅（百分比）。入场价非正时返回 0。
func PriceChangePct(entry, current float64) float64 {
	if entry <= 0 {
		return 0
	}
	entryDec := decFromFloat(entry)
	diff := decFromFloat(current).Sub(entryDec)
	return decToFloat(diff.Div(entryDec).Mul(decimal.NewFromInt(100)))
}

// Pnl 返回平仓盈亏 (current - entry) * quantity。
func Pnl(entry, current, quantity float64) float64 {
	diff := decFromFloat(current).Sub(decFromFloat(entry))
	return decToFloat(diff.Mul(decFromFloat(quantity)))
}

// Quantity 按下单金额与价格换算数量，价格非正返回 0。
func Quantity(amount, price float64) float64 {
	if price <= 0 {
		return 0
	}
	return decToFloat(decFromFloat(amount).Div(decFromFloat(price)))
}

// AdjustAmount 做风险缩放：高波动先砍半，负面情绪再乘 0.7。
// 两个折扣相互独立、可叠乘；返回值标记各折扣是否生效。
func AdjustAmount(base, volatilityPct, sentiment float64) (amount float64, volCut, sentimentCut bool) {
	adjusted := decFromFloat(base)
	if volatilityPct > VolatilityCutThresholdPct {
		adjusted = adjusted.Mul(decFromFloat(volatilityCutFactor))
		volCut = true
	}
	if sentiment < SentimentCutThreshold {
		adjusted = adjusted.Mul(decFromFloat(sentimentCutFactor))
		sentimentCut = true
	}
	return decToFloat(adjusted), volCut, sentimentCut
}
