package config

// 默认值常量
const (
	defaultAppEnv      = "dev"
	defaultAppLogLevel = "info"
	defaultAppLogPath  = ""
	defaultAppHTTPAddr = ":9984"

	defaultExchangeName     = "binance"
	defaultExchangeREST     = "https://api.binance.com"
	defaultExchangeSymbol   = "BTCUSDT"
	defaultExchangeInterval = "1h"
	defaultExchangeLimit    = 100
	defaultExchangeTimeout  = 10

	defaultRiskShortMA     = 10
	defaultRiskLongMA      = 20
	defaultRiskTradeAmount = 100
	defaultRiskStopLoss    = 2
	defaultRiskTakeProfit  = 5
	defaultRiskDailyLoss   = 100

	defaultBacktestBalance    = 10000
	defaultBacktestReportDir  = "data/reports"
	defaultBacktestConcurrent = 2

	defaultStorePath = "data/marlin.db"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Exchange.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Backtest.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
}

func (e *ExchangeConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("exchange.name", &e.Name, defaultExchangeName),
		stringFieldDefault("exchange.rest_base_url", &e.RESTBaseURL, defaultExchangeREST),
		stringFieldDefault("exchange.symbol", &e.Symbol, defaultExchangeSymbol),
		stringFieldDefault("exchange.interval", &e.Interval, defaultExchangeInterval),
		intFieldDefault("exchange.candle_limit", &e.CandleLimit, defaultExchangeLimit),
		intFieldDefault("exchange.http_timeout_seconds", &e.HTTPTimeoutSeconds, defaultExchangeTimeout),
	)
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("risk.short_ma_period", &r.ShortMAPeriod, defaultRiskShortMA),
		intFieldDefault("risk.long_ma_period", &r.LongMAPeriod, defaultRiskLongMA),
		floatFieldDefault("risk.trade_amount", &r.TradeAmount, defaultRiskTradeAmount),
		floatFieldDefault("risk.stop_loss_percent", &r.StopLossPercent, defaultRiskStopLoss),
		floatFieldDefault("risk.take_profit_percent", &r.TakeProfitPercent, defaultRiskTakeProfit),
		floatFieldDefault("risk.max_daily_loss", &r.MaxDailyLoss, defaultRiskDailyLoss),
	)
}

func (b *BacktestConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		floatFieldDefault("backtest.initial_balance", &b.InitialBalance, defaultBacktestBalance),
		stringFieldDefault("backtest.report_dir", &b.ReportDir, defaultBacktestReportDir),
		intFieldDefault("backtest.max_concurrent", &b.MaxConcurrent, defaultBacktestConcurrent),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && *target == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && *target == 0
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && *target == 0
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
