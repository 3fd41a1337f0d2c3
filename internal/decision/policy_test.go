package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"marlin/internal/config"
	"marlin/internal/market"
)

func testRisk() config.RiskConfig {
	return config.RiskConfig{
		ShortMAPeriod:     3,
		LongMAPeriod:      5,
		TradeAmount:       100,
		StopLossPercent:   5,
		TakeProfitPercent: 10,
		MaxDailyLoss:      100,
	}
}

func candlesFromCloses(closes []float64) []market.Candle {
	out := make([]market.Candle, len(closes))
	const hourMillis = int64(3600_000)
	for i, c := range closes {
		out[i] = market.Candle{
			OpenTime:  int64(i) * hourMillis,
			CloseTime: int64(i+1) * hourMillis,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
		}
	}
	return out
}

// 构造 34 根温和上行 K 线：变动为 +2/-1 交替，
// RSI ≈ 66.7（看多且低于超买线）、短均线在长均线上方、MACD 为正。
func bullishCandles() []market.Candle {
	closes := make([]float64, 34)
	closes[0] = 100
	for i := 1; i < 34; i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] + 2
		} else {
			closes[i] = closes[i-1] - 1
		}
	}
	return candlesFromCloses(closes)
}

// 构造 34 根单边下行 K 线：RSI = 0，均线空头排列。
func bearishCandles() []market.Candle {
	closes := make([]float64, 34)
	for i := range closes {
		closes[i] = 130 - float64(i)
	}
	return candlesFromCloses(closes)
}

func hasEvent(records []Record, eventType string) bool {
	for _, r := range records {
		if r.EventType == eventType {
			return true
		}
	}
	return false
}

func TestLivePolicy_CircuitBreaker(t *testing.T) {
	p := NewLivePolicy()

	t.Run("Loss Magnitude Trips Breaker", func(t *testing.T) {
		res := p.Evaluate(Input{
			Candles:          bullishCandles(),
			Risk:             testRisk(),
			Position:         Flat(),
			TodayRealizedPnl: -105,
		})
		assert.True(t, res.Halt)
		assert.Equal(t, ActionHold, res.Intent.Action)
		assert.True(t, hasEvent(res.Records, EventCircuitBreaker))
		assert.True(t, res.Position == Flat())
	})

	t.Run("Breaker Precedes All Signals", func(t *testing.T) {
		// 即便止损条件同时满足，熔断后也不再产生卖出。
		res := p.Evaluate(Input{
			Candles:          candlesFromCloses([]float64{97}),
			Risk:             testRisk(),
			Position:         Position{EntryPrice: 200, EntryQuantity: 1, Long: true},
			TodayRealizedPnl: -100,
		})
		assert.True(t, res.Halt)
		assert.Equal(t, ActionHold, res.Intent.Action)
		assert.True(t, res.Position.IsLong())
	})

	t.Run("Loss Below Limit Does Not Trip", func(t *testing.T) {
		res := p.Evaluate(Input{
			Candles:          bullishCandles(),
			Risk:             testRisk(),
			Position:         Flat(),
			TodayRealizedPnl: -99.9,
		})
		assert.False(t, res.Halt)
	})

	t.Run("Zero Limit Disables Breaker", func(t *testing.T) {
		risk := testRisk()
		risk.MaxDailyLoss = 0
		res := p.Evaluate(Input{
			Candles:          bullishCandles(),
			Risk:             risk,
			Position:         Flat(),
			TodayRealizedPnl: -10000,
		})
		assert.False(t, res.Halt)
	})
}

func TestLivePolicy_ProtectiveExits(t *testing.T) {
	p := NewLivePolicy()
	long := Position{EntryPrice: 100, EntryQuantity: 2, Long: true}

	t.Run("Stop Loss Fires On Short History", func(t *testing.T) {
		// 保护性离场只依赖入场价与收盘价，指标历史不足也要执行。
		risk := testRisk()
		risk.StopLossPercent = 2
		res := p.Evaluate(Input{
			Candles:  candlesFromCloses([]float64{97}),
			Risk:     risk,
			Position: long,
		})
		assert.Equal(t, ActionSell, res.Intent.Action)
		assert.Equal(t, "stop loss", res.Intent.Reason)
		assert.InDelta(t, -6.0, res.Intent.Pnl, 1e-9)
		assert.False(t, res.Position.IsLong())
	})

	t.Run("Take Profit Fires", func(t *testing.T) {
		res := p.Evaluate(Input{
			Candles:  candlesFromCloses([]float64{111}),
			Risk:     testRisk(),
			Position: long,
		})
		assert.Equal(t, ActionSell, res.Intent.Action)
		assert.Equal(t, "take profit", res.Intent.Reason)
		assert.InDelta(t, 22.0, res.Intent.Pnl, 1e-9)
	})

	t.Run("Within Band Holds On Short History", func(t *testing.T) {
		res := p.Evaluate(Input{
			Candles:  candlesFromCloses([]float64{101}),
			Risk:     testRisk(),
			Position: long,
		})
		assert.Equal(t, ActionHold, res.Intent.Action)
		assert.Equal(t, "insufficient history", res.Intent.Reason)
		assert.True(t, res.Position.IsLong())
	})
}

func TestLivePolicy_BullishEntry(t *testing.T) {
	p := NewLivePolicy()

	t.Run("All Gates Pass Produces Buy", func(t *testing.T) {
		candles := bullishCandles()
		res := p.Evaluate(Input{
			Candles:  candles,
			Risk:     testRisk(),
			Position: Flat(),
		})
		assert.Equal(t, ActionBuy, res.Intent.Action)
		assert.Equal(t, "bullish trend entry", res.Intent.Reason)
		last := candles[len(candles)-1]
		assert.Equal(t, last.Close, res.Intent.Price)
		assert.InDelta(t, 100.0, res.Intent.TotalValue, 1e-6)
		assert.True(t, res.Position.IsLong())
		assert.Equal(t, last.Close, res.Position.EntryPrice)
		assert.Equal(t, last.CloseTime, res.Position.EntryTime)
		assert.True(t, hasEvent(res.Records, EventSignal))
		assert.True(t, hasEvent(res.Records, EventExecution))
	})

	t.Run("Negative Sentiment Scales Entry", func(t *testing.T) {
		res := p.Evaluate(Input{
			Candles:   bullishCandles(),
			Risk:      testRisk(),
			Position:  Flat(),
			Sentiment: -0.6,
		})
		assert.Equal(t, ActionBuy, res.Intent.Action)
		assert.InDelta(t, 70.0, res.Intent.TotalValue, 1e-6)
		assert.True(t, hasEvent(res.Records, EventRiskAdjustment))
	})

	t.Run("Already Long Holds", func(t *testing.T) {
		candles := bullishCandles()
		last := candles[len(candles)-1]
		res := p.Evaluate(Input{
			Candles:  candles,
			Risk:     testRisk(),
			Position: Position{EntryPrice: last.Close, EntryQuantity: 1, Long: true},
		})
		assert.Equal(t, ActionHold, res.Intent.Action)
		assert.True(t, res.Position.IsLong())
	})
}

func TestLivePolicy_BearishExit(t *testing.T) {
	p := NewLivePolicy()
	candles := bearishCandles()
	last := candles[len(candles)-1]

	t.Run("Long In Bearish Regime Sells", func(t *testing.T) {
		// 入场价贴近现价，避免先触发止损/止盈。
		res := p.Evaluate(Input{
			Candles:  candles,
			Risk:     testRisk(),
			Position: Position{EntryPrice: last.Close - 1, EntryQuantity: 1, Long: true},
		})
		assert.Equal(t, ActionSell, res.Intent.Action)
		assert.Equal(t, "bearish regime exit", res.Intent.Reason)
		assert.False(t, res.Position.IsLong())
	})

	t.Run("Flat In Bearish Regime Holds", func(t *testing.T) {
		res := p.Evaluate(Input{
			Candles:  candles,
			Risk:     testRisk(),
			Position: Flat(),
		})
		assert.Equal(t, ActionHold, res.Intent.Action)
		assert.Equal(t, "no signal", res.Intent.Reason)
	})
}

func TestLivePolicy_SafetyGate(t *testing.T) {
	p := NewLivePolicy()

	// 收盘不动但振幅巨大：波动率远超安全闸。
	candles := make([]market.Candle, 30)
	for i := range candles {
		candles[i] = market.Candle{
			OpenTime:  int64(i) * 3600_000,
			CloseTime: int64(i+1) * 3600_000,
			Open:      100,
			High:      110,
			Low:       90,
			Close:     100,
			Volume:    100,
		}
	}

	res := p.Evaluate(Input{
		Candles:  candles,
		Risk:     testRisk(),
		Position: Flat(),
	})
	assert.Equal(t, ActionHold, res.Intent.Action)
	assert.Equal(t, "volatility safety gate", res.Intent.Reason)
	assert.True(t, hasEvent(res.Records, EventSafetyGate))
	// 高波动也同时触发了仓位减半记录。
	assert.True(t, hasEvent(res.Records, EventRiskAdjustment))
}

func TestLivePolicy_WeakeningMomentumExit(t *testing.T) {
	p := NewLivePolicy()

	// 变动为 -2/+1.5 交替：RSI ≈ 42.9（震荡区间内但转弱），
	// 短均线低于长均线，ADX 仍在趋势闸之上，走兜底离场。
	closes := make([]float64, 34)
	closes[0] = 150
	for i := 1; i < 34; i++ {
		if i%2 == 1 {
			closes[i] = closes[i-1] - 2
		} else {
			closes[i] = closes[i-1] + 1.5
		}
	}
	candles := candlesFromCloses(closes)
	last := candles[len(candles)-1]

	res := p.Evaluate(Input{
		Candles:  candles,
		Risk:     testRisk(),
		Position: Position{EntryPrice: last.Close + 0.5, EntryQuantity: 1, Long: true},
	})
	assert.Equal(t, ActionSell, res.Intent.Action)
	assert.Equal(t, "weakening momentum", res.Intent.Reason)
	assert.False(t, res.Position.IsLong())
}

func TestLivePolicy_LongerLookbacksGateEvaluation(t *testing.T) {
	p := NewLivePolicy()

	// 16 根已覆盖双均线与 RSI，但布林带与 MACD 慢线仍停在哨兵值。
	// 收盘 100/101 交替令 RSI = 50（震荡市），偶数根收平令 ADX 低于趋势闸：
	// 这正是持仓会被零值上轨误判为"触顶离场"的窗口，必须按历史不足持有。
	candles := make([]market.Candle, 16)
	for i := range candles {
		px := 100.0
		high, low := px, px
		if i%2 == 1 {
			px = 101
			high, low = px+1, px-1
		}
		candles[i] = market.Candle{
			OpenTime:  int64(i) * 3600_000,
			CloseTime: int64(i+1) * 3600_000,
			Open:      px, High: high, Low: low, Close: px, Volume: 100,
		}
	}
	last := candles[len(candles)-1]

	res := p.Evaluate(Input{
		Candles:  candles,
		Risk:     testRisk(),
		Position: Position{EntryPrice: last.Close, EntryQuantity: 1, Long: true},
	})
	assert.Equal(t, ActionHold, res.Intent.Action)
	assert.Equal(t, "insufficient history", res.Intent.Reason)
	assert.True(t, res.Position.IsLong())
	assert.Empty(t, res.Records)
}

func TestLivePolicy_PositionInvariants(t *testing.T) {
	p := NewLivePolicy()
	candle := candlesFromCloses([]float64{100})[0]

	t.Run("Sell While Flat Panics", func(t *testing.T) {
		assert.Panics(t, func() {
			p.closeLong(Result{Position: Flat()}, candle, "stop loss")
		})
	})

	t.Run("Buy While Long Panics", func(t *testing.T) {
		assert.Panics(t, func() {
			p.openLong(Result{Position: Position{EntryPrice: 99, Long: true}}, candle, 100, "bullish trend entry")
		})
	})
}

func TestLivePolicy_Deterministic(t *testing.T) {
	p := NewLivePolicy()
	in := Input{
		Candles:  bullishCandles(),
		Risk:     testRisk(),
		Position: Flat(),
	}
	first := p.Evaluate(in)
	second := p.Evaluate(in)
	assert.Equal(t, first.Intent, second.Intent)
	assert.Equal(t, first.Position, second.Position)
}
