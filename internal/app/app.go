// Package app 负责装配并运行 marlin 的全部组件。
package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"marlin/internal/config"
	"marlin/internal/gateway/binance"
	"marlin/internal/logger"
	"marlin/internal/market"
	"marlin/internal/scheduler"
	"marlin/internal/store/sqlite"
)

// App 聚合实盘循环、回测服务与 HTTP 接口。
type App struct {
	cfg        *config.Config
	store      *sqlite.Store
	source     market.Source
	sentiment  *market.SentimentService
	riskWatch  *config.RiskWatcher
	live       *LiveService
	backtest   *BacktestService
	httpRunner func(ctx context.Context) error
}

// NewApp 按配置装配应用。configPath 用于风控热更新监听。
func NewApp(cfg *config.Config, configPath string) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	store, err := sqlite.NewStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store failed: %w", err)
	}

	source := binance.New(binance.Config{
		RESTBaseURL: cfg.Exchange.RESTBaseURL,
		HTTPTimeout: time.Duration(cfg.Exchange.HTTPTimeoutSeconds) * time.Second,
	})

	var sentiment *market.SentimentService
	if cfg.Sentiment.Enabled {
		if cfg.Sentiment.Endpoint != "" {
			sentiment = market.NewSentimentServiceWithEndpoint(cfg.Sentiment.Endpoint)
		} else {
			sentiment = market.NewSentimentService()
		}
	}

	riskWatch, err := config.NewRiskWatcher(configPath)
	if err != nil {
		return nil, fmt.Errorf("start risk watcher failed: %w", err)
	}
	riskFn := RiskProvider(riskWatch.Risk)

	live, err := NewLiveService(LiveServiceConfig{
		Symbol:      cfg.Exchange.Symbol,
		Interval:    cfg.Exchange.Interval,
		CandleLimit: cfg.Exchange.CandleLimit,
		SeedBalance: cfg.Backtest.InitialBalance,
		Source:      source,
		Sentiment:   sentiment,
		Store:       store,
		Risk:        riskFn,
	})
	if err != nil {
		return nil, err
	}

	backtest, err := NewBacktestService(BacktestServiceConfig{
		Store:          store,
		Source:         source,
		ReportDir:      cfg.Backtest.ReportDir,
		InitialBalance: cfg.Backtest.InitialBalance,
		MaxConcurrent:  cfg.Backtest.MaxConcurrent,
	})
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		store:     store,
		source:    source,
		sentiment: sentiment,
		riskWatch: riskWatch,
		live:      live,
		backtest:  backtest,
	}, nil
}

// Store 暴露给 HTTP 层复用同一连接。
func (a *App) Store() *sqlite.Store { return a.store }

// Source 返回 K 线来源。
func (a *App) Source() market.Source { return a.source }

// Backtest 返回回测服务。
func (a *App) Backtest() *BacktestService { return a.backtest }

// Risk 返回当前风控配置。
func (a *App) Risk() config.RiskConfig { return a.riskWatch.Risk() }

// SetHTTPRunner 注入 HTTP Server 的运行函数，避免 app 与传输层互相依赖。
func (a *App) SetHTTPRunner(run func(ctx context.Context) error) {
	a.httpRunner = run
}

// Run 阻塞运行实盘循环与 HTTP 服务，任一失败即整体退出。
func (a *App) Run(ctx context.Context) error {
	interval, ok := scheduler.ParseIntervalDuration(a.cfg.Exchange.Interval)
	if !ok {
		return fmt.Errorf("invalid exchange interval: %s", a.cfg.Exchange.Interval)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sched := scheduler.NewAlignedScheduler(gctx, interval, 5*time.Second)
		sched.RunImmediately = true
		sched.Start(func() {
			if err := a.live.RunOnce(gctx); err != nil {
				logger.Errorf("live evaluation failed: %v", err)
			}
		})
		return nil
	})
	if a.httpRunner != nil {
		g.Go(func() error {
			return a.httpRunner(gctx)
		})
	}
	err := g.Wait()
	if closeErr := a.store.Close(); closeErr != nil {
		logger.Warnf("close store failed: %v", closeErr)
	}
	return err
}
