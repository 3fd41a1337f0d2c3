package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const klinesResponse = `[
  [1700000000000,"100.1","101.5","99.8","100.9","1234.5",1700003599999,"0",10,"0","0","0"],
  [1700003600000,"100.9","102.0","100.5","101.7","987.6",1700007199999,"0",10,"0","0","0"]
]`

func TestSource_FetchHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("Parses Klines In Order", func(t *testing.T) {
		var gotPath, gotQuery string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.RawQuery
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(klinesResponse))
		}))
		defer srv.Close()

		src := New(Config{RESTBaseURL: srv.URL, HTTPTimeout: 2 * time.Second})
		candles, err := src.FetchHistory(ctx, "btcusdt", "1H", 50)
		require.NoError(t, err)
		require.Len(t, candles, 2)

		assert.Equal(t, "/api/v3/klines", gotPath)
		assert.Contains(t, gotQuery, "symbol=BTCUSDT")
		assert.Contains(t, gotQuery, "interval=1h")

		assert.Equal(t, int64(1700000000000), candles[0].OpenTime)
		assert.Equal(t, int64(1700003599999), candles[0].CloseTime)
		assert.InDelta(t, 100.9, candles[0].Close, 1e-9)
		assert.InDelta(t, 101.7, candles[1].Close, 1e-9)
		assert.Less(t, candles[0].OpenTime, candles[1].OpenTime)
	})

	t.Run("Empty Symbol Rejected", func(t *testing.T) {
		src := New(Config{})
		_, err := src.FetchHistory(ctx, " ", "1h", 50)
		assert.Error(t, err)
	})

	t.Run("Empty Interval Rejected", func(t *testing.T) {
		src := New(Config{})
		_, err := src.FetchHistory(ctx, "BTCUSDT", "", 50)
		assert.Error(t, err)
	})

	t.Run("Upstream Error Propagates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"code":-1000,"msg":"unavailable"}`))
		}))
		defer srv.Close()

		src := New(Config{RESTBaseURL: srv.URL})
		_, err := src.FetchHistory(ctx, "BTCUSDT", "1h", 50)
		assert.Error(t, err)
	})
}

func TestParseFloat(t *testing.T) {
	assert.InDelta(t, 1.5, parseFloat(" 1.5 "), 1e-9)
	assert.Equal(t, 0.0, parseFloat("abc"))
	assert.Equal(t, 0.0, parseFloat(""))
}
