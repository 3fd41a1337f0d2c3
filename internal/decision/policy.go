package decision

import (
	"fmt"
	"math"

	"marlin/internal/indicator"
	"marlin/internal/market"
	"marlin/internal/pkg/trading"
	"marlin/internal/regime"
)

const (
	// safetyGateVolatilityPct 波动率达到该值时本根禁止一切策略信号。
	safetyGateVolatilityPct = 8.0
	// adxTrendGate 趋势强度闸（简化 ADX 分值）。
	adxTrendGate = 20.0
)

// LivePolicy 是实盘评估使用的规则策略。
//
// 每根 K 线按固定顺序评估：熔断 → 保护性离场 → 仓位缩放 →
// 波动安全闸 → 市场状态信号 → 动能衰减兜底离场。
// 回测使用独立的简化双均线策略（见 internal/backtest），两者刻意不合并。
type LivePolicy struct{}

// NewLivePolicy 构造实盘策略实例。
func NewLivePolicy() *LivePolicy {
	return &LivePolicy{}
}

// Evaluate 对最新一根 K 线做一次完整评估。
// 指标历史不足一律视作持有，不是错误；唯一的硬性约束是
// 空仓不得卖出、持仓不得买入，违反即程序缺陷，直接 panic。
func (p *LivePolicy) Evaluate(in Input) Result {
	res := Result{Position: in.Position}

	// 1. 当日亏损熔断：幅度达到阈值即停机，本根不再产生任何动作。
	if in.Risk.MaxDailyLoss > 0 && math.Abs(in.TodayRealizedPnl) >= in.Risk.MaxDailyLoss {
		res.Halt = true
		res.Intent = holdIntent("daily loss circuit breaker tripped")
		res.Records = append(res.Records, Record{
			Level:     LevelError,
			EventType: EventCircuitBreaker,
			Message: fmt.Sprintf("daily realized pnl %.2f reached limit %.2f, disabling bot",
				in.TodayRealizedPnl, in.Risk.MaxDailyLoss),
			Details: CircuitBreakerDetails{
				TodayRealizedPnl: in.TodayRealizedPnl,
				MaxDailyLoss:     in.Risk.MaxDailyLoss,
			},
		})
		return res
	}

	if len(in.Candles) == 0 {
		res.Intent = holdIntent("insufficient history")
		return res
	}
	last := in.Candles[len(in.Candles)-1]
	price := last.Close

	// 2. 保护性离场优先于一切策略信号，只依赖入场价与当前收盘价。
	if in.Position.IsLong() {
		change := trading.PriceChangePct(in.Position.EntryPrice, price)
		if change <= -in.Risk.StopLossPercent {
			return p.closeLong(res, last, "stop loss")
		}
		if change >= in.Risk.TakeProfitPercent {
			return p.closeLong(res, last, "take profit")
		}
	}

	snap, ok := indicator.ComputeSnapshot(in.Candles, in.Risk.ShortMAPeriod, in.Risk.LongMAPeriod)
	if !ok {
		res.Intent = holdIntent("insufficient history")
		return res
	}

	// 3. 风险缩放：高波动砍半，负面情绪再乘 0.7，两者独立叠乘。
	amount, volCut, sentCut := trading.AdjustAmount(in.Risk.TradeAmount, snap.VolatilityPct, in.Sentiment)
	if volCut || sentCut {
		res.Records = append(res.Records, Record{
			Level:     LevelInfo,
			EventType: EventRiskAdjustment,
			Message:   fmt.Sprintf("trade amount adjusted %.2f -> %.2f", in.Risk.TradeAmount, amount),
			Details: RiskAdjustmentDetails{
				BaseAmount:     in.Risk.TradeAmount,
				AdjustedAmount: amount,
				VolatilityPct:  snap.VolatilityPct,
				Sentiment:      in.Sentiment,
				VolatilityCut:  volCut,
				SentimentCut:   sentCut,
			},
		})
	}

	// 4. 波动安全闸：极端波动下本根不交易。
	if snap.VolatilityPct >= safetyGateVolatilityPct {
		res.Intent = holdIntent("volatility safety gate")
		res.Records = append(res.Records, Record{
			Level:     LevelWarn,
			EventType: EventSafetyGate,
			Message:   fmt.Sprintf("volatility %.2f%% above gate, signals suppressed", snap.VolatilityPct),
			Details: SafetyGateDetails{
				VolatilityPct: snap.VolatilityPct,
				ThresholdPct:  safetyGateVolatilityPct,
			},
		})
		return res
	}

	// 5. 按市场状态出信号。趋势强度直接取 RSI。
	reg := regime.Classify(snap.RSI, snap.VolatilityPct)
	switch reg {
	case regime.Bullish:
		if !in.Position.IsLong() &&
			snap.ADX > adxTrendGate &&
			snap.ShortMA > snap.LongMA &&
			snap.RSI > 40 && snap.RSI < 70 &&
			snap.MACD > snap.MACDSignal {
			res.Records = append(res.Records, signalRecord(reg, ActionBuy, snap))
			return p.openLong(res, last, amount, "bullish trend entry")
		}
	case regime.Bearish:
		if in.Position.IsLong() &&
			(snap.ShortMA < snap.LongMA || snap.RSI < 40 || snap.MACD < snap.MACDSignal) {
			res.Records = append(res.Records, signalRecord(reg, ActionSell, snap))
			return p.closeLong(res, last, "bearish regime exit")
		}
	case regime.Range:
		if snap.ADX < adxTrendGate {
			if !in.Position.IsLong() && price <= snap.Bollinger.Lower && snap.RSI < 30 {
				res.Records = append(res.Records, signalRecord(reg, ActionBuy, snap))
				return p.openLong(res, last, amount, "range rebound at lower band")
			}
			if in.Position.IsLong() && (price >= snap.Bollinger.Upper || snap.RSI > 70) {
				res.Records = append(res.Records, signalRecord(reg, ActionSell, snap))
				return p.closeLong(res, last, "range exit at upper band")
			}
		}
	}

	// 兜底离场：均线走弱叠加 RSI 转弱。
	if in.Position.IsLong() && snap.ShortMA < snap.LongMA && snap.RSI < 45 {
		res.Records = append(res.Records, signalRecord(reg, ActionSell, snap))
		return p.closeLong(res, last, "weakening momentum")
	}

	res.Intent = holdIntent("no signal")
	return res
}

func (p *LivePolicy) openLong(res Result, c market.Candle, amount float64, reason string) Result {
	if res.Position.IsLong() {
		panic("decision: buy while position already long")
	}
	quantity := trading.Quantity(amount, c.Close)
	res.Intent = TradeIntent{
		Action:     ActionBuy,
		Price:      c.Close,
		Quantity:   quantity,
		TotalValue: quantity * c.Close,
		Reason:     reason,
	}
	res.Position = Position{
		EntryPrice:    c.Close,
		EntryQuantity: quantity,
		EntryTime:     c.CloseTime,
		Long:          true,
	}
	res.Records = append(res.Records, executionRecord(res.Intent))
	return res
}

func (p *LivePolicy) closeLong(res Result, c market.Candle, reason string) Result {
	if !res.Position.IsLong() {
		panic("decision: sell while position flat")
	}
	quantity := res.Position.EntryQuantity
	res.Intent = TradeIntent{
		Action:     ActionSell,
		Price:      c.Close,
		Quantity:   quantity,
		TotalValue: quantity * c.Close,
		Pnl:        trading.Pnl(res.Position.EntryPrice, c.Close, quantity),
		Reason:     reason,
	}
	res.Position = Flat()
	res.Records = append(res.Records, executionRecord(res.Intent))
	return res
}

func holdIntent(reason string) TradeIntent {
	return TradeIntent{Action: ActionHold, Reason: reason}
}

func signalRecord(reg regime.Regime, action Action, snap indicator.Snapshot) Record {
	return Record{
		Level:     LevelInfo,
		EventType: EventSignal,
		Message:   fmt.Sprintf("%s signal in %s regime", action, reg),
		Details: SignalDetails{
			Regime:     string(reg),
			Action:     action,
			RSI:        snap.RSI,
			ShortMA:    snap.ShortMA,
			LongMA:     snap.LongMA,
			MACD:       snap.MACD,
			MACDSignal: snap.MACDSignal,
			ADX:        snap.ADX,
		},
	}
}

func executionRecord(intent TradeIntent) Record {
	return Record{
		Level:     LevelInfo,
		EventType: EventExecution,
		Message:   fmt.Sprintf("%s %.6f @ %.2f (%s)", intent.Action, intent.Quantity, intent.Price, intent.Reason),
		Details: ExecutionDetails{
			Action:     intent.Action,
			Price:      intent.Price,
			Quantity:   intent.Quantity,
			TotalValue: intent.TotalValue,
			Pnl:        intent.Pnl,
		},
	}
}
