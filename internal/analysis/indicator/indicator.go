// Package indicator 为展示类接口计算常用指标报告。
//
// 这里用 talib 输出标准教科书口径，仅供 API/前端展示；
// 策略与回测使用 internal/indicator 的简化公式，两者口径刻意不同。
package indicator

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"marlin/internal/market"
)

// Settings 描述计算指标所需的最小配置。
type Settings struct {
	Symbol    string
	Interval  string
	EMAFast   int
	EMASlow   int
	RSIPeriod int
}

// IndicatorValue 保存单个指标的最新值、序列与状态。
type IndicatorValue struct {
	Latest float64   `json:"latest"`
	Series []float64 `json:"series,omitempty"`
	State  string    `json:"state,omitempty"`
	Note   string    `json:"note,omitempty"`
}

// Report 汇总单个 symbol+interval 的指标输出。
type Report struct {
	Symbol   string                    `json:"symbol"`
	Interval string                    `json:"interval"`
	Count    int                       `json:"count"`
	Values   map[string]IndicatorValue `json:"values"`
}

// ComputeAll 计算常用指标并返回结构化报告。
func ComputeAll(candles []market.Candle, cfg Settings) (Report, error) {
	rep := Report{
		Symbol:   cfg.Symbol,
		Interval: cfg.Interval,
		Count:    len(candles),
		Values:   make(map[string]IndicatorValue),
	}
	if len(candles) == 0 {
		return rep, fmt.Errorf("no candles")
	}
	closes := market.Closes(candles)
	highs := market.Highs(candles)
	lows := market.Lows(candles)
	lastClose := closes[len(closes)-1]

	if cfg.EMAFast <= 0 {
		cfg.EMAFast = 12
	}
	if cfg.EMASlow <= 0 {
		cfg.EMASlow = 26
	}
	if cfg.RSIPeriod <= 0 {
		cfg.RSIPeriod = 14
	}

	emaFast := talib.Ema(closes, cfg.EMAFast)
	emaSlow := talib.Ema(closes, cfg.EMASlow)
	rep.Values["ema_fast"] = IndicatorValue{
		Latest: lastFinite(emaFast),
		Series: sanitizeSeries(emaFast),
		State:  relativeState(lastClose, lastFinite(emaFast)),
		Note:   fmt.Sprintf("EMA%d vs price", cfg.EMAFast),
	}
	rep.Values["ema_slow"] = IndicatorValue{
		Latest: lastFinite(emaSlow),
		Series: sanitizeSeries(emaSlow),
		State:  relativeState(lastClose, lastFinite(emaSlow)),
		Note:   fmt.Sprintf("EMA%d vs price", cfg.EMASlow),
	}

	rsiSeries := talib.Rsi(closes, cfg.RSIPeriod)
	rsiVal := lastFinite(rsiSeries)
	rsiState := "neutral"
	switch {
	case rsiVal >= 70:
		rsiState = "overbought"
	case rsiVal <= 30:
		rsiState = "oversold"
	}
	rep.Values["rsi"] = IndicatorValue{
		Latest: rsiVal,
		Series: sanitizeSeries(rsiSeries),
		State:  rsiState,
		Note:   fmt.Sprintf("period=%d", cfg.RSIPeriod),
	}

	macd, signal, hist := talib.Macd(closes, 12, 26, 9)
	histVal := lastFinite(hist)
	macdState := "flat"
	switch {
	case histVal > 0:
		macdState = "bullish"
	case histVal < 0:
		macdState = "bearish"
	}
	rep.Values["macd"] = IndicatorValue{
		Latest: lastFinite(macd),
		Series: sanitizeSeries(hist),
		State:  macdState,
		Note:   fmt.Sprintf("signal=%.4f", lastFinite(signal)),
	}

	atrSeries := talib.Atr(highs, lows, closes, 14)
	rep.Values["atr"] = IndicatorValue{
		Latest: lastFinite(atrSeries),
		Series: sanitizeSeries(atrSeries),
		State:  "volatility",
		Note:   "period=14",
	}

	return rep, nil
}

func sanitizeSeries(series []float64) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[i] = 0
			continue
		}
		out[i] = v
	}
	return out
}

// lastFinite 返回序列末尾最近的可用值。
// talib 在回看未满时用 NaN 填充，0 是合法的指标值（如柱状图穿越零轴），
// 因此只跳过 NaN/Inf，不跳过 0。
func lastFinite(series []float64) float64 {
	for i := len(series) - 1; i >= 0; i-- {
		if !math.IsNaN(series[i]) && !math.IsInf(series[i], 0) {
			return series[i]
		}
	}
	return 0
}

func relativeState(price, ema float64) string {
	switch {
	case ema == 0:
		return "unknown"
	case price > ema:
		return "above"
	case price < ema:
		return "below"
	default:
		return "at"
	}
}
