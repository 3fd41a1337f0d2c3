package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"marlin/internal/app"
	"marlin/internal/config"
	"marlin/internal/market"
	"marlin/internal/store/model"
	"marlin/internal/store/sqlite"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) FetchHistory(ctx context.Context, symbol, interval string, limit int) ([]market.Candle, error) {
	args := m.Called(ctx, symbol, interval, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]market.Candle), args.Error(1)
}

func flatCandles(n int) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		out[i] = market.Candle{
			OpenTime:  int64(i) * 3600_000,
			CloseTime: int64(i+1) * 3600_000,
			Open:      100, High: 101, Low: 99, Close: 100, Volume: 10,
		}
	}
	return out
}

func newTestServer(t *testing.T, source market.Source) (*Server, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	backtest, err := app.NewBacktestService(app.BacktestServiceConfig{
		Store:          store,
		Source:         source,
		InitialBalance: 10000,
		MaxConcurrent:  1,
	})
	require.NoError(t, err)

	srv, err := NewServer(Config{
		Addr:     ":0",
		Symbol:   "BTCUSDT",
		Interval: "1h",
		Store:    store,
		Backtest: backtest,
		Source:   source,
		Risk: func() config.RiskConfig {
			return config.RiskConfig{
				ShortMAPeriod: 10, LongMAPeriod: 20, TradeAmount: 100,
				StopLossPercent: 2, TakeProfitPercent: 5, MaxDailyLoss: 100,
			}
		},
	})
	require.NoError(t, err)
	return srv, store
}

func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	return rec
}

func TestServer_Status(t *testing.T) {
	srv, store := newTestServer(t, new(MockSource))
	ctx := context.Background()

	rec := doRequest(srv, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "BTCUSDT", resp["symbol"])
	assert.Equal(t, true, resp["is_active"])
	assert.NotContains(t, resp, "balance")

	require.NoError(t, store.InsertSnapshot(ctx, &model.PortfolioSnapshotModel{
		Symbol: "BTCUSDT", Balance: 9500, Timestamp: time.Now().UnixMilli(),
	}))
	rec = doRequest(srv, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 9500.0, resp["balance"])
}

func TestServer_Enable(t *testing.T) {
	srv, store := newTestServer(t, new(MockSource))
	ctx := context.Background()
	require.NoError(t, store.SetActive(ctx, "BTCUSDT", false, "daily loss limit"))

	rec := doRequest(srv, http.MethodPost, "/api/bot/enable", "")
	require.Equal(t, http.StatusOK, rec.Code)

	state, err := store.BotState(ctx, "BTCUSDT")
	require.NoError(t, err)
	assert.True(t, state.IsActive)
	assert.Empty(t, state.DisabledReason)
}

func TestServer_Trades(t *testing.T) {
	srv, store := newTestServer(t, new(MockSource))
	require.NoError(t, store.InsertTrade(context.Background(), &model.TradeModel{
		Symbol: "BTCUSDT", Action: "buy", Price: 100, Quantity: 1,
		TotalValue: 100, Timestamp: time.Now().UnixMilli(),
	}))

	rec := doRequest(srv, http.MethodGet, "/api/trades?limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"action":"buy"`)
}

func TestServer_BacktestRuns(t *testing.T) {
	source := new(MockSource)
	source.On("FetchHistory", mock.Anything, "BTCUSDT", "1h", 500).
		Return(flatCandles(50), nil)
	srv, _ := newTestServer(t, source)

	t.Run("Start Run", func(t *testing.T) {
		rec := doRequest(srv, http.MethodPost, "/api/backtest/runs", `{}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var run map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
		assert.Equal(t, "done", run["status"])
		assert.Equal(t, "BTCUSDT", run["symbol"])
	})

	t.Run("List Runs", func(t *testing.T) {
		rec := doRequest(srv, http.MethodGet, "/api/backtest/runs", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"runs"`)
	})

	t.Run("Missing Run Is 404", func(t *testing.T) {
		rec := doRequest(srv, http.MethodGet, "/api/backtest/runs/unknown", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Invalid Body Is 400", func(t *testing.T) {
		rec := doRequest(srv, http.MethodPost, "/api/backtest/runs", `{"limit":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_Analysis(t *testing.T) {
	source := new(MockSource)
	source.On("FetchHistory", mock.Anything, "BTCUSDT", "1h", 200).
		Return(flatCandles(120), nil)
	srv, _ := newTestServer(t, source)

	rec := doRequest(srv, http.MethodGet, "/api/analysis", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rsi"`)
}
