package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zinc-sig/packhost/internal/output"
	"github.com/zinc-sig/packhost/internal/retry"
)

func fastRetry(max int) *retry.Config {
	return &retry.Config{
		MaxRetries:   max,
		InitialDelay: 5 * time.Millisecond,
		MaxDelay:     20 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func notifiedResult() *output.Result {
	r := output.NewResult(output.StatusNotified, "polymath", "build/pack.zip", 120*time.Millisecond)
	r.URL = "https://packs.example.com/abc.zip"
	r.SHA1 = "2fd4e1c67a2d28fced849ee1bb76e7391b93eb12"
	clients := 4
	r.Clients = &clients
	r.Strategy = "advanced"
	return r
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(&Config{URL: "https://hooks.example.com/pack"}, nil, nil)

	assert.Equal(t, http.MethodPost, client.config.Method)
	assert.Equal(t, 30*time.Second, client.config.Timeout)
	assert.Equal(t, retry.DefaultConfig(), client.retry)
}

func TestDeliverPostsPublication(t *testing.T) {
	var (
		received output.Result
		header   http.Header
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Clone()
		assert.Equal(t, http.MethodPut, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	client := NewClient(&Config{
		URL:       server.URL,
		Method:    http.MethodPut,
		Headers:   map[string]string{"X-Env": "staging"},
		AuthType:  "bearer",
		AuthToken: "hook-token",
		Timeout:   5 * time.Second,
	}, fastRetry(0), nil)

	sent := notifiedResult()
	require.NoError(t, client.Deliver(context.Background(), sent))

	assert.Equal(t, "application/json", header.Get("Content-Type"))
	assert.Equal(t, "Bearer hook-token", header.Get("Authorization"))
	assert.Equal(t, "staging", header.Get("X-Env"))
	assert.Equal(t, "notified", header.Get(EventHeader))
	assert.NotEmpty(t, header.Get(DeliveryHeader))

	assert.Equal(t, output.StatusNotified, received.Status)
	assert.Equal(t, sent.URL, received.URL)
	assert.Equal(t, sent.SHA1, received.SHA1)
	assert.Equal(t, "advanced", received.Strategy)
	require.NotNil(t, received.Clients)
	assert.Equal(t, 4, *received.Clients)
}

func TestDeliverAPIKey(t *testing.T) {
	var apiKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey = r.Header.Get("X-API-Key")
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, AuthType: "api-key", AuthToken: "k-123"}, fastRetry(0), nil)
	require.NoError(t, client.Deliver(context.Background(), notifiedResult()))
	assert.Equal(t, "k-123", apiKey)
}

func TestDeliverRetriesWithStableDeliveryID(t *testing.T) {
	var (
		mu         sync.Mutex
		deliveries []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		deliveries = append(deliveries, r.Header.Get(DeliveryHeader))
		n := len(deliveries)
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Timeout: 5 * time.Second}, fastRetry(3), nil)
	require.NoError(t, client.Deliver(context.Background(), notifiedResult()))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, deliveries, 3)
	assert.Equal(t, deliveries[0], deliveries[1])
	assert.Equal(t, deliveries[0], deliveries[2])
}

func TestDeliverFailedUploadEvent(t *testing.T) {
	var event string
	var received output.Result
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		event = r.Header.Get(EventHeader)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	failed := output.NewResult(output.StatusFailed, "minio", "build/pack.zip", time.Second)
	failed.Error = "bucket not found"

	client := NewClient(&Config{URL: server.URL}, fastRetry(0), nil)
	require.NoError(t, client.Deliver(context.Background(), failed))

	assert.Equal(t, "failed", event)
	assert.Equal(t, "bucket not found", received.Error)
	assert.Empty(t, received.URL)
	assert.Nil(t, received.Clients)
}

func TestDeliverDoesNotRetryClientErrors(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Timeout: 5 * time.Second}, fastRetry(3), nil)
	err := client.Deliver(context.Background(), notifiedResult())

	var statusErr *retry.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestDeliverGivesUp(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(&Config{URL: server.URL, Timeout: 5 * time.Second}, fastRetry(2), nil)
	err := client.Deliver(context.Background(), notifiedResult())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.Contains(t, err.Error(), "status 502")
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestDeliverTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(&Config{URL: server.URL, Timeout: 50 * time.Millisecond}, fastRetry(5), nil)

	start := time.Now()
	err := client.Deliver(context.Background(), notifiedResult())
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDeliverNilResult(t *testing.T) {
	client := NewClient(&Config{URL: "http://127.0.0.1:1"}, fastRetry(0), nil)
	assert.Error(t, client.Deliver(context.Background(), nil))
}
