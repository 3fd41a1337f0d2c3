package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"marlin/internal/backtest"
	"marlin/internal/config"
	"marlin/internal/logger"
	"marlin/internal/market"
	"marlin/internal/store/sqlite"
)

// BacktestService 负责发起回测、落库结果并渲染资金曲线报告。
type BacktestService struct {
	store          *sqlite.Store
	source         market.Source
	reportDir      string
	initialBalance float64
	maxConcurrent  int
}

// BacktestServiceConfig 描述 BacktestService 的依赖。
type BacktestServiceConfig struct {
	Store          *sqlite.Store
	Source         market.Source
	ReportDir      string
	InitialBalance float64
	MaxConcurrent  int
}

func NewBacktestService(cfg BacktestServiceConfig) (*BacktestService, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("backtest service requires store")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("backtest service requires candle source")
	}
	if cfg.InitialBalance <= 0 {
		return nil, fmt.Errorf("backtest service requires positive initial balance")
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	return &BacktestService{
		store:          cfg.Store,
		source:         cfg.Source,
		reportDir:      cfg.ReportDir,
		initialBalance: cfg.InitialBalance,
		maxConcurrent:  cfg.MaxConcurrent,
	}, nil
}

// Request 描述一次回测请求。
type Request struct {
	Symbol   string
	Interval string
	Limit    int
	Risk     config.RiskConfig
}

// Run 同步执行一次回测并返回落库后的任务。
// 回测内部严格串行；并行只发生在不同 run 之间（见 RunAll）。
func (s *BacktestService) Run(ctx context.Context, req Request) (backtest.Run, error) {
	if req.Symbol == "" {
		return backtest.Run{}, fmt.Errorf("backtest requires symbol")
	}
	if req.Interval == "" {
		req.Interval = "1h"
	}
	if req.Limit <= 0 {
		req.Limit = 500
	}

	run := backtest.Run{
		ID:        uuid.NewString(),
		Symbol:    req.Symbol,
		Status:    backtest.RunStatusRunning,
		CreatedAt: time.Now(),
	}
	if err := s.store.InsertRun(ctx, run); err != nil {
		return backtest.Run{}, fmt.Errorf("insert run failed: %w", err)
	}

	candles, err := s.source.FetchHistory(ctx, req.Symbol, req.Interval, req.Limit)
	if err != nil {
		run.Status = backtest.RunStatusFailed
		run.Message = err.Error()
		run.CompletedAt = time.Now()
		_ = s.store.UpdateRun(ctx, run)
		return run, fmt.Errorf("fetch history failed: %w", err)
	}
	run.Candles = len(candles)

	sim := backtest.NewSimulator(req.Risk, s.initialBalance)
	ledger, metrics := sim.Run(candles)
	run.Metrics = metrics
	run.Status = backtest.RunStatusDone
	run.CompletedAt = time.Now()

	if err := s.store.InsertBacktestTrades(ctx, run.ID, ledger); err != nil {
		return run, fmt.Errorf("insert backtest trades failed: %w", err)
	}
	if s.reportDir != "" {
		completed := backtest.PairTrades(ledger)
		if path, err := backtest.WriteReport(s.reportDir, run, completed, s.initialBalance); err != nil {
			logger.Warnf("write backtest report failed: %v", err)
		} else {
			logger.Infof("backtest report written: %s", path)
		}
	}
	if err := s.store.UpdateRun(ctx, run); err != nil {
		return run, fmt.Errorf("update run failed: %w", err)
	}
	logger.Infof("backtest %s done: trades=%d pnl=%.2f win_rate=%.2f",
		run.ID, metrics.TotalTrades, metrics.TotalPnl, metrics.WinRate)
	return run, nil
}

// RunAll 并行回测多个交易对，单个 run 内部仍然串行。
func (s *BacktestService) RunAll(ctx context.Context, symbols []string, interval string, limit int, risk config.RiskConfig) ([]backtest.Run, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	runs := make([]backtest.Run, len(symbols))
	for i, symbol := range symbols {
		g.Go(func() error {
			run, err := s.Run(gctx, Request{Symbol: symbol, Interval: interval, Limit: limit, Risk: risk})
			if err != nil {
				return err
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}
