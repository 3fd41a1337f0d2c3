package decision

// 记录级别。
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// 事件类型。每种事件类型对应一种固定的 Details 结构，而非开放 map。
const (
	EventCircuitBreaker = "circuit_breaker"
	EventRiskAdjustment = "risk_adjustment"
	EventSafetyGate     = "safety_gate"
	EventSignal         = "signal"
	EventExecution      = "execution"
)

// Record 是策略在决策点产出的结构化审计记录。
type Record struct {
	Level     string        `json:"level"`
	EventType string        `json:"event_type"`
	Message   string        `json:"message"`
	Details   RecordDetails `json:"details,omitempty"`
}

// RecordDetails 由各事件类型的固定结构实现。
type RecordDetails interface {
	recordDetails()
}

// CircuitBreakerDetails 熔断事件的元数据。
type CircuitBreakerDetails struct {
	TodayRealizedPnl float64 `json:"today_realized_pnl"`
	MaxDailyLoss     float64 `json:"max_daily_loss"`
}

func (CircuitBreakerDetails) recordDetails() {}

// RiskAdjustmentDetails 仓位缩放事件的元数据。
type RiskAdjustmentDetails struct {
	BaseAmount     float64 `json:"base_amount"`
	AdjustedAmount float64 `json:"adjusted_amount"`
	VolatilityPct  float64 `json:"volatility_pct"`
	Sentiment      float64 `json:"sentiment"`
	VolatilityCut  bool    `json:"volatility_cut"`
	SentimentCut   bool    `json:"sentiment_cut"`
}

func (RiskAdjustmentDetails) recordDetails() {}

// SafetyGateDetails 高波动安全闸事件的元数据。
type SafetyGateDetails struct {
	VolatilityPct float64 `json:"volatility_pct"`
	ThresholdPct  float64 `json:"threshold_pct"`
}

func (SafetyGateDetails) recordDetails() {}

// SignalDetails 策略信号事件的元数据。
type SignalDetails struct {
	Regime     string  `json:"regime"`
	Action     Action  `json:"action"`
	RSI        float64 `json:"rsi"`
	ShortMA    float64 `json:"short_ma"`
	LongMA     float64 `json:"long_ma"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	ADX        float64 `json:"adx"`
}

func (SignalDetails) recordDetails() {}

// ExecutionDetails 成交事件的元数据。
type ExecutionDetails struct {
	Action     Action  `json:"action"`
	Price      float64 `json:"price"`
	Quantity   float64 `json:"quantity"`
	TotalValue float64 `json:"total_value"`
	Pnl        float64 `json:"pnl,omitempty"`
}

func (ExecutionDetails) recordDetails() {}
