package app

import (
	"context"
	"fmt"
	"time"

	"marlin/internal/config"
	"marlin/internal/decision"
	"marlin/internal/logger"
	"marlin/internal/market"
	"marlin/internal/store/model"
	"marlin/internal/store/sqlite"
)

// RiskProvider 返回当前生效的风控配置（支持热更新）。
type RiskProvider func() config.RiskConfig

// LiveService 驱动单个交易对的实盘评估循环。
// 核心策略无任何 I/O：本服务负责聚合外部状态、调用 Evaluate、落库结果。
type LiveService struct {
	symbol      string
	interval    string
	candleLimit int
	seedBalance float64

	source    market.Source
	sentiment *market.SentimentService
	store     *sqlite.Store
	risk      RiskProvider
	policy    *decision.LivePolicy
}

// LiveServiceConfig 描述 LiveService 的依赖。
type LiveServiceConfig struct {
	Symbol      string
	Interval    string
	CandleLimit int
	SeedBalance float64
	Source      market.Source
	Sentiment   *market.SentimentService
	Store       *sqlite.Store
	Risk        RiskProvider
}

func NewLiveService(cfg LiveServiceConfig) (*LiveService, error) {
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("live service requires symbol")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("live service requires candle source")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("live service requires store")
	}
	if cfg.Risk == nil {
		return nil, fmt.Errorf("live service requires risk provider")
	}
	if cfg.CandleLimit <= 0 {
		cfg.CandleLimit = 100
	}
	return &LiveService{
		symbol:      cfg.Symbol,
		interval:    cfg.Interval,
		candleLimit: cfg.CandleLimit,
		seedBalance: cfg.SeedBalance,
		source:      cfg.Source,
		sentiment:   cfg.Sentiment,
		store:       cfg.Store,
		risk:        cfg.Risk,
		policy:      decision.NewLivePolicy(),
	}, nil
}

// RunOnce 执行一轮完整评估。上游失败原样上抛，由调度器在下一根 K 线自然重试。
func (s *LiveService) RunOnce(ctx context.Context) error {
	state, err := s.store.BotState(ctx, s.symbol)
	if err != nil {
		return fmt.Errorf("load bot state failed: %w", err)
	}
	if !state.IsActive {
		logger.Debugf("bot disabled for %s (%s), skip evaluation", s.symbol, state.DisabledReason)
		return nil
	}

	candles, err := s.source.FetchHistory(ctx, s.symbol, s.interval, s.candleLimit)
	if err != nil {
		return fmt.Errorf("fetch candles failed: %w", err)
	}

	var sentiment float64
	if s.sentiment != nil {
		sentiment = s.sentiment.Score(ctx)
	}

	position, err := s.currentPosition(ctx)
	if err != nil {
		return err
	}
	todayPnl, err := s.store.RealizedPnlSince(ctx, s.symbol, localMidnight(time.Now()))
	if err != nil {
		return fmt.Errorf("load today pnl failed: %w", err)
	}

	res := s.policy.Evaluate(decision.Input{
		Candles:          candles,
		Risk:             s.risk(),
		Position:         position,
		Sentiment:        sentiment,
		TodayRealizedPnl: todayPnl,
	})

	if err := s.store.AppendDecisionRecords(ctx, s.symbol, res.Records); err != nil {
		logger.Warnf("append decision records failed: %v", err)
	}
	if res.Halt {
		logger.Errorf("circuit breaker tripped for %s, disabling bot", s.symbol)
		if err := s.store.SetActive(ctx, s.symbol, false, res.Intent.Reason); err != nil {
			return fmt.Errorf("disable bot failed: %w", err)
		}
		return nil
	}
	if res.Intent.Action == decision.ActionHold {
		logger.Debugf("%s hold: %s", s.symbol, res.Intent.Reason)
		return nil
	}
	return s.persistExecution(ctx, res)
}

// currentPosition 从最近一条成交恢复仓位：最后一条是 buy 即持多。
func (s *LiveService) currentPosition(ctx context.Context) (decision.Position, error) {
	last, err := s.store.LatestTrade(ctx, s.symbol)
	if err != nil {
		return decision.Flat(), fmt.Errorf("load latest trade failed: %w", err)
	}
	if last == nil || last.Action != string(decision.ActionBuy) {
		return decision.Flat(), nil
	}
	return decision.Position{
		EntryPrice:    last.Price,
		EntryQuantity: last.Quantity,
		EntryTime:     last.Timestamp,
		Long:          true,
	}, nil
}

func (s *LiveService) persistExecution(ctx context.Context, res decision.Result) error {
	intent := res.Intent
	now := time.Now().UnixMilli()
	trade := &model.TradeModel{
		Symbol:     s.symbol,
		Action:     string(intent.Action),
		Price:      intent.Price,
		Quantity:   intent.Quantity,
		TotalValue: intent.TotalValue,
		Pnl:        intent.Pnl,
		Reason:     intent.Reason,
		Timestamp:  now,
	}
	if err := s.store.InsertTrade(ctx, trade); err != nil {
		return fmt.Errorf("insert trade failed: %w", err)
	}

	balance, err := s.currentBalance(ctx)
	if err != nil {
		return err
	}
	snap := &model.PortfolioSnapshotModel{
		Symbol:    s.symbol,
		Timestamp: now,
	}
	switch intent.Action {
	case decision.ActionBuy:
		snap.Balance = balance - intent.TotalValue
		snap.PositionQty = res.Position.EntryQuantity
		snap.EntryPrice = res.Position.EntryPrice
	case decision.ActionSell:
		snap.Balance = balance + intent.TotalValue
	}
	if err := s.store.InsertSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("insert snapshot failed: %w", err)
	}
	logger.Infof("%s executed %s %.6f @ %.2f (%s), balance %.2f",
		s.symbol, intent.Action, intent.Quantity, intent.Price, intent.Reason, snap.Balance)
	return nil
}

func (s *LiveService) currentBalance(ctx context.Context) (float64, error) {
	snap, err := s.store.LatestSnapshot(ctx, s.symbol)
	if err != nil {
		return 0, fmt.Errorf("load latest snapshot failed: %w", err)
	}
	if snap == nil {
		return s.seedBalance, nil
	}
	return snap.Balance, nil
}

// localMidnight 返回本地时区当日零点，熔断器的当日盈亏从这里起算。
func localMidnight(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location())
}
