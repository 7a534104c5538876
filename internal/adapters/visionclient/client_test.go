package visionclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spotArchiver/internal/domain"
	"spotArchiver/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{BaseURL: server.URL, Timeout: 5 * time.Second, Logger: &mockLogger{}})
	require.NoError(t, err)
	return client, server
}

func TestClient_ArchiveURL(t *testing.T) {
	client, err := New(Config{Logger: &mockLogger{}})
	require.NoError(t, err)

	got := client.ArchiveURL("BTCUSDT", "1h", domain.Month{Year: 2024, Month: time.March})
	assert.Equal(t,
		"https://data.binance.vision/data/spot/monthly/klines/BTCUSDT/1h/BTCUSDT-1h-2024-03.zip",
		got)
}

func TestClient_FetchMonthlyArchive_Success(t *testing.T) {
	payload := []byte("zip-bytes")
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	})

	data, err := client.FetchMonthlyArchive(context.Background(), "ETHUSDT", "1h", domain.Month{Year: 2024, Month: time.January})
	require.NoError(t, err)
	assert.Equal(t, payload, data)
	assert.Equal(t, "/data/spot/monthly/klines/ETHUSDT/1h/ETHUSDT-1h-2024-01.zip", gotPath)
}

func TestClient_FetchMonthlyArchive_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchMonthlyArchive(context.Background(), "BTCUSDT", "1h", domain.Month{Year: 2024, Month: time.January})
	require.Error(t, err)
	// Confirmed absence, distinct from any transport failure.
	assert.ErrorIs(t, err, ports.ErrArchiveNotFound)
}

func TestClient_FetchMonthlyArchive_ServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchMonthlyArchive(context.Background(), "BTCUSDT", "1h", domain.Month{Year: 2024, Month: time.January})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ports.ErrArchiveNotFound)
}

func TestClient_FetchMonthlyArchive_RateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchMonthlyArchive(context.Background(), "BTCUSDT", "1h", domain.Month{Year: 2024, Month: time.January})
	assert.ErrorIs(t, err, ports.ErrRateLimited)
}

func TestClient_FetchMonthlyArchive_ConnectionFailed(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // refuse all connections

	client, err := New(Config{BaseURL: server.URL, Timeout: time.Second, Logger: &mockLogger{}})
	require.NoError(t, err)

	_, err = client.FetchMonthlyArchive(context.Background(), "BTCUSDT", "1h", domain.Month{Year: 2024, Month: time.January})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrConnectionFailed)
}

func TestClient_FetchMonthlyArchive_ContextCanceled(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.FetchMonthlyArchive(ctx, "BTCUSDT", "1h", domain.Month{Year: 2024, Month: time.January})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrContextCanceled)
}

func TestNew_Defaults(t *testing.T) {
	client, err := New(Config{Logger: &mockLogger{}})
	require.NoError(t, err)
	assert.Equal(t, defaultBaseURL, client.baseURL)
	assert.Equal(t, defaultTimeout, client.httpClient.Timeout)

	_, err = New(Config{})
	assert.Error(t, err)
}
