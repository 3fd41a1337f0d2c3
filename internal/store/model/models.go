package model

import (
	"gorm.io/datatypes"
)

// BotStateModel 对应 bot_states 表，每个 symbol 一行。
// is_active 只有两类写入方：熔断器置 false，人工接口置 true。
type BotStateModel struct {
	ID             int64  `gorm:"column:id;primaryKey"`
	Symbol         string `gorm:"column:symbol;uniqueIndex"`
	IsActive       bool   `gorm:"column:is_active"`
	DisabledReason string `gorm:"column:disabled_reason"`
	UpdatedAtUnix  int64  `gorm:"column:updated_at"`
}

func (BotStateModel) TableName() string { return "bot_states" }

// TradeModel 对应 trades 表，实盘成交流水，只追加。
type TradeModel struct {
	ID         int64   `gorm:"column:id;primaryKey"`
	Symbol     string  `gorm:"column:symbol;index"`
	Action     string  `gorm:"column:action"`
	Price      float64 `gorm:"column:price"`
	Quantity   float64 `gorm:"column:quantity"`
	TotalValue float64 `gorm:"column:total_value"`
	Pnl        float64 `gorm:"column:pnl"`
	Reason     string  `gorm:"column:reason"`
	Timestamp  int64   `gorm:"column:timestamp;index"`
}

func (TradeModel) TableName() string { return "trades" }

// PortfolioSnapshotModel 对应 portfolio_snapshots 表，记录每次成交后的资金状态。
type PortfolioSnapshotModel struct {
	ID          int64   `gorm:"column:id;primaryKey"`
	Symbol      string  `gorm:"column:symbol;index"`
	Balance     float64 `gorm:"column:balance"`
	PositionQty float64 `gorm:"column:position_qty"`
	EntryPrice  float64 `gorm:"column:entry_price"`
	Timestamp   int64   `gorm:"column:timestamp;index"`
}

func (PortfolioSnapshotModel) TableName() string { return "portfolio_snapshots" }

// DecisionLogModel 对应 decision_logs 表，策略每根 K 线产生的结构化审计记录。
// Details 是事件类型对应的固定结构序列化结果，不是开放 map。
type DecisionLogModel struct {
	ID        int64          `gorm:"column:id;primaryKey"`
	Symbol    string         `gorm:"column:symbol;index"`
	Level     string         `gorm:"column:level"`
	EventType string         `gorm:"column:event_type;index"`
	Message   string         `gorm:"column:message"`
	Details   datatypes.JSON `gorm:"column:details;type:TEXT"`
	Timestamp int64          `gorm:"column:timestamp;index"`
}

func (DecisionLogModel) TableName() string { return "decision_logs" }

// BacktestRunModel 对应 backtest_runs 表。
type BacktestRunModel struct {
	ID              string         `gorm:"column:id;primaryKey"`
	Symbol          string         `gorm:"column:symbol;index"`
	Status          string         `gorm:"column:status"`
	Candles         int            `gorm:"column:candles"`
	Message         string         `gorm:"column:message"`
	MetricsJSON     datatypes.JSON `gorm:"column:metrics_json;type:TEXT"`
	CreatedAtUnix   int64          `gorm:"column:created_at"`
	CompletedAtUnix int64          `gorm:"column:completed_at"`
}

func (BacktestRunModel) TableName() string { return "backtest_runs" }

// BacktestTradeModel 对应 backtest_trades 表，单次回测的模拟流水。
type BacktestTradeModel struct {
	ID         int64   `gorm:"column:id;primaryKey"`
	RunID      string  `gorm:"column:run_id;index"`
	Action     string  `gorm:"column:action"`
	Price      float64 `gorm:"column:price"`
	Quantity   float64 `gorm:"column:quantity"`
	TotalValue float64 `gorm:"column:total_value"`
	Pnl        float64 `gorm:"column:pnl"`
	Reason     string  `gorm:"column:reason"`
	Timestamp  int64   `gorm:"column:timestamp"`
}

func (BacktestTradeModel) TableName() string { return "backtest_trades" }
