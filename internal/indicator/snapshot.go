package indicator

import (
	"marlin/internal/market"
)

// Snapshot 汇总单根 K 线评估点上的全部指标值，只读、每根重新计算。
type Snapshot struct {
	ShortMA       float64 `json:"short_ma"`
	LongMA        float64 `json:"long_ma"`
	RSI           float64 `json:"rsi"`
	ATR           float64 `json:"atr"`
	Bollinger     Bands   `json:"bollinger"`
	MACD          float64 `json:"macd"`
	MACDSignal    float64 `json:"macd_signal"`
	ADX           float64 `json:"adx"`
	Support       float64 `json:"support"`
	Resistance    float64 `json:"resistance"`
	VolatilityPct float64 `json:"volatility_pct"`
}

// ComputeSnapshot 在序列末尾计算一次指标快照。
// ok 为 false 表示历史不足以覆盖快照里任一指标的回看周期，
// 调用方应视作"本根持有"而不是错误。
func ComputeSnapshot(candles []market.Candle, shortPeriod, longPeriod int) (Snapshot, bool) {
	if shortPeriod <= 0 || longPeriod <= 0 {
		return Snapshot{}, false
	}
	// 回看最长的是 MACD 慢线 EMA(26)；RSI 与 ATR 各需 period+1 根。
	// 少于 need 时部分指标还停在哨兵值上，不能交给策略比较。
	need := longPeriod
	for _, p := range []int{
		shortPeriod,
		DefaultRSIPeriod + 1,
		DefaultATRPeriod + 1,
		DefaultBollingerPeriod,
		macdSlowPeriod,
	} {
		if p > need {
			need = p
		}
	}
	if len(candles) < need {
		return Snapshot{}, false
	}

	closes := market.Closes(candles)
	highs := market.Highs(candles)
	lows := market.Lows(candles)

	snap := Snapshot{
		ShortMA:   SMA(closes, shortPeriod),
		LongMA:    SMA(closes, longPeriod),
		RSI:       RSI(closes, DefaultRSIPeriod),
		ATR:       ATR(highs, lows, closes, DefaultATRPeriod),
		Bollinger: BollingerBands(closes, DefaultBollingerPeriod),
		ADX:       ADX(highs, lows, DefaultADXPeriod),
	}
	snap.MACD, snap.MACDSignal = MACD(closes)
	snap.Support, snap.Resistance = SupportResistance(closes)

	// 波动率 = ATR 相对收盘价的百分比。
	if last := closes[len(closes)-1]; last > 0 {
		snap.VolatilityPct = snap.ATR / last * 100
	}
	return snap, true
}
