package main

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"marlin/internal/app"
	mcfg "marlin/internal/config"
	"marlin/internal/logger"
	httpx "marlin/internal/transport/http"
)

func main() {
	ctx := context.Background()
	cfgPath := os.Getenv("MARLIN_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := mcfg.Load(cfgPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("初始化日志文件失败: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	logger.Infof("✓ 配置加载成功（环境=%s，交易对=%s）", cfg.App.Env, cfg.Exchange.Symbol)

	a, err := app.NewApp(cfg, cfgPath)
	if err != nil {
		log.Fatalf("初始化应用失败: %v", err)
	}

	server, err := httpx.NewServer(httpx.Config{
		Addr:     cfg.App.HTTPAddr,
		Symbol:   cfg.Exchange.Symbol,
		Interval: cfg.Exchange.Interval,
		Store:    a.Store(),
		Backtest: a.Backtest(),
		Source:   a.Source(),
		Risk:     a.Risk,
	})
	if err != nil {
		log.Fatalf("初始化 HTTP 服务失败: %v", err)
	}
	a.SetHTTPRunner(server.Run)

	if err := a.Run(ctx); err != nil {
		log.Fatalf("运行失败: %v", err)
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}
