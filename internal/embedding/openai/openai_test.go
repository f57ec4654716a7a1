package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"legalrag/internal/domain"
)

func newTestClient(t *testing.T, url string, batch int) *Client {
	t.Helper()
	t.Setenv("TEST_OPENAI_KEY", "sk-test")
	c, err := NewClient(Config{BaseURL: url, APIKeyEnv: "TEST_OPENAI_KEY", Model: "text-embedding-3-small", BatchSize: batch})
	require.NoError(t, err)
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func embeddingsHandler(t *testing.T, calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "text-embedding-3-small", req.Model)

		type item struct {
			Embedding []float64 `json:"embedding"`
			Index     int       `json:"index"`
		}
		var data []item
		// reversed on purpose: the client must order by index
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, item{Embedding: []float64{float64(len(req.Input[i])), 1}, Index: i})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}
}

func TestNewClient_RequiresKey(t *testing.T) {
	t.Setenv("EMPTY_KEY_ENV", "")
	_, err := NewClient(Config{APIKeyEnv: "EMPTY_KEY_ENV"})
	assert.Error(t, err)
}

func TestEmbedBatch_SplitsAndOrders(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(embeddingsHandler(t, &calls))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 2)
	vecs, err := c.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)
	assert.Equal(t, float32(1), vecs[0][0])
	assert.Equal(t, float32(2), vecs[1][0])
	assert.Equal(t, float32(3), vecs[2][0])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "openai:text-embedding-3-small", c.ModelID())
}

func TestEmbed_RetriesServerErrors(t *testing.T) {
	var calls int32
	ok := embeddingsHandler(t, &calls)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&calls) < 2 {
			atomic.AddInt32(&calls, 1)
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		ok(w, r)
	}))
	defer srv.Close()

	vec, err := newTestClient(t, srv.URL, 8).Embed(context.Background(), "homicidio")
	require.NoError(t, err)
	assert.Equal(t, []float32{9, 1}, vec)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestEmbed_ClientErrorIsEmbeddingServiceKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad model"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL, 8).Embed(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingService)
	assert.True(t, domain.Retryable(err))
}

func TestEmbed_RetryAfterReplacesBackoff(t *testing.T) {
	tests := []struct {
		name       string
		retryAfter string
		want       []time.Duration
	}{
		{name: "server delay", retryAfter: "2", want: []time.Duration{2 * time.Second, 2 * time.Second}},
		{name: "exponential backoff", want: []time.Duration{200 * time.Millisecond, 400 * time.Millisecond}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ok := embeddingsHandler(t, &calls)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if atomic.LoadInt32(&calls) < 2 {
					atomic.AddInt32(&calls, 1)
					if tt.retryAfter != "" {
						w.Header().Set("Retry-After", tt.retryAfter)
					}
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				ok(w, r)
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL, 8)
			var slept []time.Duration
			c.sleep = func(_ context.Context, d time.Duration) error {
				slept = append(slept, d)
				return nil
			}
			_, err := c.Embed(context.Background(), "robo")
			require.NoError(t, err)
			assert.Equal(t, tt.want, slept)
		})
	}
}
