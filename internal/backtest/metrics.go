package backtest

import "math"

// ComputeMetrics 从完整往返序列推导绩效指标。
// 余额曲线以 initialBalance 为起点逐笔推进；回撤取峰值到谷底的最大跌幅。
func ComputeMetrics(completed []CompletedTrade, initialBalance float64) Metrics {
	m := Metrics{TotalTrades: len(completed)}
	if len(completed) == 0 {
		return m
	}

	var (
		balance     = initialBalance
		peak        = initialBalance
		consecutive int
	)
	returns := make([]float64, 0, len(completed))
	for _, t := range completed {
		m.TotalPnl += t.Pnl
		if t.Pnl > 0 {
			m.WinningTrades++
			consecutive = 0
		} else {
			m.LosingTrades++
			consecutive++
			if consecutive > m.MaxConsecutiveLosses {
				m.MaxConsecutiveLosses = consecutive
			}
		}

		balance += t.Pnl
		if balance > peak {
			peak = balance
		}
		if dd := peak - balance; dd > m.MaxDrawdown {
			m.MaxDrawdown = dd
		}

		if initialBalance > 0 {
			returns = append(returns, t.Pnl/initialBalance)
		}
	}

	m.WinRate = float64(m.WinningTrades) / float64(len(completed))
	m.AvgPnl = m.TotalPnl / float64(len(completed))
	m.SharpeRatio = sharpe(returns)
	return m
}

// sharpe = mean(returns)/stddev(returns)，标准差为 0 时返回 0。
func sharpe(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	var variance float64
	for _, r := range returns {
		diff := r - mean
		variance += diff * diff
	}
	stdDev := math.Sqrt(variance / float64(len(returns)))
	if stdDev == 0 {
		return 0
	}
	return mean / stdDev
}
