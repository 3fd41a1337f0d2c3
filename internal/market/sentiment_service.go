package market

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"marlin/internal/logger"
)

const (
	sentimentEndpoint     = "https://api.alternative.me/fng/?limit=1"
	sentimentTTL          = 30 * time.Minute
	sentimentErrorBackoff = 2 * time.Minute
)

// SentimentData 保存最近一次情绪抓取结果。
// Score 已归一化到 [-1, 1]：-1 极度恐惧，+1 极度贪婪。
type SentimentData struct {
	Score          float64
	Classification string
	UpdatedAt      time.Time
}

// SentimentService 拉取并缓存 Fear & Greed 指数，失败时退避并返回中性分值。
type SentimentService struct {
	endpoint string
	client   *http.Client

	mu        sync.RWMutex
	data      SentimentData
	nextFetch time.Time
}

func NewSentimentService() *SentimentService {
	return &SentimentService{
		endpoint: sentimentEndpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

// NewSentimentServiceWithEndpoint 便于测试时指向本地伪造服务。
func NewSentimentServiceWithEndpoint(endpoint string) *SentimentService {
	s := NewSentimentService()
	if endpoint != "" {
		s.endpoint = endpoint
	}
	return s
}

// Score 返回当前情绪分值。上游不可用时返回中性 0 并保留上次缓存，
// 不在调用内重试，恢复交给下一次评估。
func (s *SentimentService) Score(ctx context.Context) float64 {
	if s == nil {
		return 0
	}
	now := time.Now()
	s.mu.RLock()
	cached := s.data
	next := s.nextFetch
	s.mu.RUnlock()
	if !cached.UpdatedAt.IsZero() && now.Before(next) {
		return cached.Score
	}
	if err := s.refresh(ctx); err != nil {
		logger.Warnf("情绪指数刷新失败: %v", err)
		s.mu.Lock()
		s.nextFetch = now.Add(sentimentErrorBackoff)
		data := s.data
		s.mu.Unlock()
		if data.UpdatedAt.IsZero() {
			return 0
		}
		return data.Score
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Score
}

func (s *SentimentService) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sentiment endpoint status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	first := gjson.GetBytes(body, "data.0")
	if !first.Exists() {
		return fmt.Errorf("sentiment response missing data")
	}
	raw := first.Get("value").Float()
	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}
	s.mu.Lock()
	s.data = SentimentData{
		// 指数区间 0..100，50 为中性。
		Score:          (raw - 50) / 50,
		Classification: first.Get("value_classification").String(),
		UpdatedAt:      time.Now(),
	}
	s.nextFetch = s.data.UpdatedAt.Add(sentimentTTL)
	s.mu.Unlock()
	return nil
}
