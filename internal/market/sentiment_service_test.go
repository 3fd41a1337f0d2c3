package market

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fngServer(t *testing.T, value string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"value":"` + value + `","value_classification":"Greed"}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSentimentService_Score(t *testing.T) {
	ctx := context.Background()

	t.Run("Normalizes To Signed Unit Range", func(t *testing.T) {
		srv := fngServer(t, "75", nil)
		s := NewSentimentServiceWithEndpoint(srv.URL)
		assert.InDelta(t, 0.5, s.Score(ctx), 1e-9)
	})

	t.Run("Extreme Fear Maps To Minus One", func(t *testing.T) {
		srv := fngServer(t, "0", nil)
		s := NewSentimentServiceWithEndpoint(srv.URL)
		assert.InDelta(t, -1.0, s.Score(ctx), 1e-9)
	})

	t.Run("Caches Within TTL", func(t *testing.T) {
		var calls atomic.Int32
		srv := fngServer(t, "60", &calls)
		s := NewSentimentServiceWithEndpoint(srv.URL)
		_ = s.Score(ctx)
		_ = s.Score(ctx)
		_ = s.Score(ctx)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("Upstream Failure Returns Neutral", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		s := NewSentimentServiceWithEndpoint(srv.URL)
		assert.Equal(t, 0.0, s.Score(ctx))
	})

	t.Run("Malformed Body Returns Neutral", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"unexpected":true}`))
		}))
		defer srv.Close()
		s := NewSentimentServiceWithEndpoint(srv.URL)
		assert.Equal(t, 0.0, s.Score(ctx))
	})

	t.Run("Nil Service Is Neutral", func(t *testing.T) {
		var s *SentimentService
		assert.Equal(t, 0.0, s.Score(ctx))
	})
}
