package config

import "strings"

// Config 是 marlin 的主配置载体。全部字段封闭枚举，不使用开放 map。
type Config struct {
	App       AppConfig       `yaml:"app"`
	Exchange  ExchangeConfig  `yaml:"exchange"`
	Sentiment SentimentConfig `yaml:"sentiment"`
	Risk      RiskConfig      `yaml:"risk"`
	Backtest  BacktestConfig  `yaml:"backtest"`
	Store     StoreConfig     `yaml:"store"`
}

type AppConfig struct {
	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	LogPath  string `yaml:"log_path"`
	HTTPAddr string `yaml:"http_addr"`
}

// ExchangeConfig 描述 K 线来源。
type ExchangeConfig struct {
	Name               string `yaml:"name"`
	RESTBaseURL        string `yaml:"rest_base_url"`
	Symbol             string `yaml:"symbol"`
	Interval           string `yaml:"interval"`
	CandleLimit        int    `yaml:"candle_limit"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds"`
}

type SentimentConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// RiskConfig 是策略与回测共用的风控参数，单次评估内不可变。
type RiskConfig struct {
	ShortMAPeriod     int     `yaml:"short_ma_period"`
	LongMAPeriod      int     `yaml:"long_ma_period"`
	TradeAmount       float64 `yaml:"trade_amount"`
	StopLossPercent   float64 `yaml:"stop_loss_percent"`
	TakeProfitPercent float64 `yaml:"take_profit_percent"`
	MaxDailyLoss      float64 `yaml:"max_daily_loss"`
}

type BacktestConfig struct {
	InitialBalance float64 `yaml:"initial_balance"`
	ReportDir      string  `yaml:"report_dir"`
	MaxConcurrent  int     `yaml:"max_concurrent"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
}

// keySet 用于追踪配置文件中显式设置的字段路径。
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault 描述单个字段的默认值设置规则。
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
