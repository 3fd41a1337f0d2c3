// Package backtest 将历史 K 线逐根推演为交易流水与绩效指标。
//
// 回测策略是刻意简化的双均线交叉两状态机（外加止损/止盈），
// 与实盘的 regime/ADX/波动闸策略并存为两个命名策略；
// 哪个行为是规范版本属于产品决策，这里不做合并。
package backtest

import "time"

const (
	RunStatusPending = "pending"
	RunStatusRunning = "running"
	RunStatusDone    = "done"
	RunStatusFailed  = "failed"
)

// Trade 是回测流水中的一条买入或卖出记录。
type Trade struct {
	Action     string  `json:"action"` // buy/sell
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	TotalValue float64 `json:"total_value"`
	Pnl        float64 `json:"pnl,omitempty"`
	Reason     string  `json:"reason"`
	Timestamp  int64   `json:"timestamp"`
}

// CompletedTrade 是按位置配对出的一次完整往返。
type CompletedTrade struct {
	EntryPrice float64 `json:"entry_price"`
	ExitPrice  float64 `json:"exit_price"`
	Quantity   float64 `json:"quantity"`
	Pnl        float64 `json:"pnl"`
	EntryTime  int64   `json:"entry_time"`
	ExitTime   int64   `json:"exit_time"`
}

// Metrics 汇总一次回测的绩效，全部从有序流水重新推导。
// 零笔完整交易时所有字段为 0，不产生除零。
type Metrics struct {
	TotalPnl             float64 `json:"total_pnl"`
	WinRate              float64 `json:"win_rate"`
	AvgPnl               float64 `json:"avg_pnl"`
	MaxDrawdown          float64 `json:"max_drawdown"`
	TotalTrades          int     `json:"total_trades"`
	WinningTrades        int     `json:"winning_trades"`
	LosingTrades         int     `json:"losing_trades"`
	SharpeRatio          float64 `json:"sharpe_ratio"`
	MaxConsecutiveLosses int     `json:"max_consecutive_losses"`
}

// Run 表示一次已持久化的回测任务。
type Run struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Status      string    `json:"status"`
	Candles     int       `json:"candles"`
	Message     string    `json:"message,omitempty"`
	Metrics     Metrics   `json:"metrics"`
	CreatedAt   time.Time `json:"created_at"`
	CompletedAt time.Time `json:"completed_at"`
}
