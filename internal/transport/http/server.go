// Package http 提供管理与查询用的薄 HTTP 层，核心策略不感知传输。
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"marlin/internal/analysis/indicator"
	"marlin/internal/app"
	"marlin/internal/logger"
	"marlin/internal/market"
	"marlin/internal/store/sqlite"
)

// Server 暴露机器人状态、流水与回测接口。
type Server struct {
	addr     string
	symbol   string
	interval string

	store    *sqlite.Store
	backtest *app.BacktestService
	source   market.Source
	risk     app.RiskProvider

	router *gin.Engine
	srv    *http.Server
}

// Config 描述 HTTP Server 的依赖。
type Config struct {
	Addr     string
	Symbol   string
	Interval string
	Store    *sqlite.Store
	Backtest *app.BacktestService
	Source   market.Source
	Risk     app.RiskProvider
}

// NewServer 构建 HTTP Server。
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("http server requires store")
	}
	if cfg.Risk == nil {
		return nil, errors.New("http server requires risk provider")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9984"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	s := &Server{
		addr:     cfg.Addr,
		symbol:   cfg.Symbol,
		interval: cfg.Interval,
		store:    cfg.Store,
		backtest: cfg.Backtest,
		source:   cfg.Source,
		risk:     cfg.Risk,
		router:   router,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	api := s.router.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/trades", s.handleTrades)
	api.GET("/logs", s.handleLogs)
	api.POST("/bot/enable", s.handleEnable)
	api.GET("/analysis", s.handleAnalysis)

	bt := api.Group("/backtest")
	bt.POST("/runs", s.handleRunStart)
	bt.GET("/runs", s.handleRunList)
	bt.GET("/runs/:id", s.handleRunDetail)
}

// Run 阻塞运行直到 ctx 取消。
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{Addr: s.addr, Handler: s.router}
	errCh := make(chan error, 1)
	go func() {
		logger.Infof("http server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) handleStatus(c *gin.Context) {
	ctx := c.Request.Context()
	state, err := s.store.BotState(ctx, s.symbol)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	snap, err := s.store.LatestSnapshot(ctx, s.symbol)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	resp := gin.H{
		"symbol":    s.symbol,
		"interval":  s.interval,
		"is_active": state.IsActive,
		"risk":      s.risk(),
	}
	if state.DisabledReason != "" {
		resp["disabled_reason"] = state.DisabledReason
	}
	if snap != nil {
		resp["balance"] = snap.Balance
		resp["position_qty"] = snap.PositionQty
		resp["entry_price"] = snap.EntryPrice
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTrades(c *gin.Context) {
	limit := queryInt(c, "limit", 100)
	trades, err := s.store.Trades(c.Request.Context(), s.symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (s *Server) handleLogs(c *gin.Context) {
	limit := queryInt(c, "limit", 200)
	logs, err := s.store.DecisionLogs(c.Request.Context(), s.symbol, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// handleEnable 人工重新启用被熔断的机器人。
func (s *Server) handleEnable(c *gin.Context) {
	if err := s.store.SetActive(c.Request.Context(), s.symbol, true, ""); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	logger.Infof("bot re-enabled for %s via api", s.symbol)
	c.JSON(http.StatusOK, gin.H{"is_active": true})
}

func (s *Server) handleAnalysis(c *gin.Context) {
	if s.source == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "candle source unavailable"})
		return
	}
	limit := queryInt(c, "limit", 200)
	candles, err := s.source.FetchHistory(c.Request.Context(), s.symbol, s.interval, limit)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	rep, err := indicator.ComputeAll(candles, indicator.Settings{
		Symbol:   s.symbol,
		Interval: s.interval,
	})
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rep)
}

type runRequest struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
	Limit    int    `json:"limit"`
}

func (s *Server) handleRunStart(c *gin.Context) {
	if s.backtest == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backtest service unavailable"})
		return
	}
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if req.Symbol == "" {
		req.Symbol = s.symbol
	}
	if req.Interval == "" {
		req.Interval = s.interval
	}
	run, err := s.backtest.Run(c.Request.Context(), app.Request{
		Symbol:   req.Symbol,
		Interval: req.Interval,
		Limit:    req.Limit,
		Risk:     s.risk(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "run": run})
		return
	}
	c.JSON(http.StatusOK, run)
}

func (s *Server) handleRunList(c *gin.Context) {
	limit := queryInt(c, "limit", 50)
	runs, err := s.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleRunDetail(c *gin.Context) {
	id := c.Param("id")
	run, err := s.store.GetRun(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	trades, err := s.store.BacktestTrades(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "trades": trades})
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return def
	}
	return v
}
