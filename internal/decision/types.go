// Package decision 实现逐根 K 线评估的规则化交易策略。
//
// 策略本身不持有任何可变全局状态：当前仓位、风控配置、当日已实现盈亏
// 均由调用方传入，更新后的仓位随结果返回，由调用方负责持久化。
package decision

import (
	"marlin/internal/config"
	"marlin/internal/market"
)

// Action 表示一次评估的产出动作。
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionHold Action = "hold"
)

// Position 是两状态仓位机：Flat 或 Long。
// 每个交易对仅存在一个实例，由调用方独占持有。
type Position struct {
	EntryPrice    float64 `json:"entry_price"`
	EntryQuantity float64 `json:"entry_quantity"`
	EntryTime     int64   `json:"entry_time"`
	Long          bool    `json:"long"`
}

// Flat 返回空仓状态。
func Flat() Position {
	return Position{}
}

// IsLong 报告仓位是否持多。
func (p Position) IsLong() bool {
	return p.Long
}

// TradeIntent 是单次评估的唯一交易产出。
// Pnl 仅在 Sell 时有意义；Reason 是必需的审计线索，不是装饰。
type TradeIntent struct {
	Action     Action  `json:"action"`
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	TotalValue float64 `json:"total_value"`
	Pnl        float64 `json:"pnl,omitempty"`
	Reason     string  `json:"reason"`
}

// Input 聚合一次实盘评估所需的全部外部状态。
type Input struct {
	Candles          []market.Candle
	Risk             config.RiskConfig
	Position         Position
	Sentiment        float64
	TodayRealizedPnl float64
}

// Result 携带动作、更新后的仓位与结构化审计记录。
// Halt 为 true 表示当日亏损熔断触发，调用方应将机器人置为停用。
type Result struct {
	Intent   TradeIntent
	Position Position
	Halt     bool
	Records  []Record
}
