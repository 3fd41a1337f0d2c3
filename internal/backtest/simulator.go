package backtest

import (
	"marlin/internal/config"
	"marlin/internal/indicator"
	"marlin/internal/market"
	"marlin/internal/pkg/trading"
)

// Simulator 用简化双均线策略回放一段完整历史。
// 纯函数式：相同输入必然产出相同流水与指标，可跨标的并行、单次内严格串行。
type Simulator struct {
	risk           config.RiskConfig
	initialBalance float64
}

// NewSimulator 构造回测器。
func NewSimulator(risk config.RiskConfig, initialBalance float64) *Simulator {
	return &Simulator{risk: risk, initialBalance: initialBalance}
}

// Run 逐根回放 K 线，返回按时间排序的流水与绩效指标。
//
// 状态机：空仓时金叉（prevShort<=prevLong 且 short>long）买入；
// 持仓时先查止损/止盈，再查死叉（prevShort>=prevLong 且 short<long）卖出。
func (s *Simulator) Run(candles []market.Candle) ([]Trade, Metrics) {
	var (
		ledger   []Trade
		position position
	)
	closes := market.Closes(candles)
	shortP := s.risk.ShortMAPeriod
	longP := s.risk.LongMAPeriod

	for i := range candles {
		// 当前与前一根的长短均线全部有定义之前跳过。
		if i < longP {
			continue
		}
		shortMA := indicator.SMA(closes[:i+1], shortP)
		longMA := indicator.SMA(closes[:i+1], longP)
		prevShort := indicator.SMA(closes[:i], shortP)
		prevLong := indicator.SMA(closes[:i], longP)
		c := candles[i]

		if position.long {
			change := trading.PriceChangePct(position.entryPrice, c.Close)
			switch {
			case change <= -s.risk.StopLossPercent:
				ledger = append(ledger, position.close(c, "stop loss"))
				continue
			case change >= s.risk.TakeProfitPercent:
				ledger = append(ledger, position.close(c, "take profit"))
				continue
			}
			if prevShort >= prevLong && shortMA < longMA {
				ledger = append(ledger, position.close(c, "bearish crossover"))
			}
			continue
		}

		if prevShort <= prevLong && shortMA > longMA {
			ledger = append(ledger, position.open(c, s.risk.TradeAmount))
		}
	}

	completed := PairTrades(ledger)
	return ledger, ComputeMetrics(completed, s.initialBalance)
}

// PairTrades 按位置两两配对流水 (i, i+1) 为完整往返。
// 非 buy/sell 交替的畸形配对被静默丢弃，与历史行为保持一致。
func PairTrades(ledger []Trade) []CompletedTrade {
	var out []CompletedTrade
	for i := 0; i+1 < len(ledger); i += 2 {
		entry, exit := ledger[i], ledger[i+1]
		if entry.Action != "buy" || exit.Action != "sell" {
			continue
		}
		out = append(out, CompletedTrade{
			EntryPrice: entry.Price,
			ExitPrice:  exit.Price,
			Quantity:   entry.Quantity,
			Pnl:        trading.Pnl(entry.Price, exit.Price, entry.Quantity),
			EntryTime:  entry.Timestamp,
			ExitTime:   exit.Timestamp,
		})
	}
	return out
}

// position 是回测内部的两状态仓位。
type position struct {
	long       bool
	entryPrice float64
	quantity   float64
}

func (p *position) open(c market.Candle, amount float64) Trade {
	if p.long {
		panic("backtest: buy while position already long")
	}
	quantity := trading.Quantity(amount, c.Close)
	p.long = true
	p.entryPrice = c.Close
	p.quantity = quantity
	return Trade{
		Action:     "buy",
		Price:      c.Close,
		Quantity:   quantity,
		TotalValue: quantity * c.Close,
		Reason:     "bullish crossover",
		Timestamp:  c.CloseTime,
	}
}

func (p *position) close(c market.Candle, reason string) Trade {
	if !p.long {
		panic("backtest: sell while position flat")
	}
	trade := Trade{
		Action:     "sell",
		Price:      c.Close,
		Quantity:   p.quantity,
		TotalValue: p.quantity * c.Close,
		Pnl:        trading.Pnl(p.entryPrice, c.Close, p.quantity),
		Reason:     reason,
		Timestamp:  c.CloseTime,
	}
	*p = position{}
	return trade
}
