package config

import (
	"fmt"
	"strings"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if err := c.Exchange.validate(); err != nil {
		return err
	}
	if err := c.Risk.validate(); err != nil {
		return err
	}
	if err := c.Backtest.validate(); err != nil {
		return err
	}
	return nil
}

func (e *ExchangeConfig) validate() error {
	if strings.TrimSpace(e.Symbol) == "" {
		return fmt.Errorf("exchange.symbol is required")
	}
	if strings.TrimSpace(e.Interval) == "" {
		return fmt.Errorf("exchange.interval is required")
	}
	if e.CandleLimit <= 0 {
		return fmt.Errorf("exchange.candle_limit must be > 0")
	}
	return nil
}

func (r *RiskConfig) validate() error {
	if r.ShortMAPeriod <= 0 {
		return fmt.Errorf("risk.short_ma_period must be > 0")
	}
	if r.LongMAPeriod <= 0 {
		return fmt.Errorf("risk.long_ma_period must be > 0")
	}
	if r.ShortMAPeriod >= r.LongMAPeriod {
		return fmt.Errorf("risk.short_ma_period must be smaller than risk.long_ma_period")
	}
	if r.TradeAmount <= 0 {
		return fmt.Errorf("risk.trade_amount must be > 0")
	}
	if r.StopLossPercent <= 0 {
		return fmt.Errorf("risk.stop_loss_percent must be > 0")
	}
	if r.TakeProfitPercent <= 0 {
		return fmt.Errorf("risk.take_profit_percent must be > 0")
	}
	if r.MaxDailyLoss < 0 {
		return fmt.Errorf("risk.max_daily_loss must be >= 0")
	}
	return nil
}

func (b *BacktestConfig) validate() error {
	if b.InitialBalance <= 0 {
		return fmt.Errorf("backtest.initial_balance must be > 0")
	}
	if b.MaxConcurrent <= 0 {
		return fmt.Errorf("backtest.max_concurrent must be > 0")
	}
	return nil
}
