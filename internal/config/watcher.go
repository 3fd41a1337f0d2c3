package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"marlin/internal/logger"
)

// RiskListener 在风控配置热更新时触发。
type RiskListener func(RiskConfig)

// RiskWatcher 监听配置文件并在变更时重载 risk 段。
// 仅 risk 段热更新；其余段需要重启进程。
type RiskWatcher struct {
	path string
	v    *viper.Viper

	mu        sync.RWMutex
	risk      RiskConfig
	loadedAt  time.Time
	listeners []RiskListener
}

// NewRiskWatcher 读取配置文件并开始监听更新。
func NewRiskWatcher(path string) (*RiskWatcher, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("risk watcher requires config path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}
	w := &RiskWatcher{path: path, v: v}
	if err := w.reload(); err != nil {
		return nil, err
	}
	v.OnConfigChange(func(evt fsnotify.Event) {
		if err := w.v.ReadInConfig(); err != nil {
			logger.Errorf("risk config reread failed: %v", err)
			return
		}
		if err := w.reload(); err != nil {
			logger.Errorf("risk config reload failed: %v", err)
			return
		}
		w.notifyListeners()
	})
	v.WatchConfig()
	return w, nil
}

func (w *RiskWatcher) reload() error {
	cfg, err := decode(w.v)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.risk = cfg.Risk
	w.loadedAt = time.Now()
	w.mu.Unlock()
	return nil
}

// Risk 返回当前生效的风控配置快照。
func (w *RiskWatcher) Risk() RiskConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.risk
}

// OnChange 注册热更新回调。
func (w *RiskWatcher) OnChange(fn RiskListener) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

func (w *RiskWatcher) notifyListeners() {
	w.mu.RLock()
	risk := w.risk
	listeners := append([]RiskListener(nil), w.listeners...)
	w.mu.RUnlock()
	for _, fn := range listeners {
		fn(risk)
	}
	logger.Infof("risk config reloaded: short_ma=%d long_ma=%d trade_amount=%.2f",
		risk.ShortMAPeriod, risk.LongMAPeriod, risk.TradeAmount)
}
