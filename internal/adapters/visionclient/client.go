package visionclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"spotArchiver/internal/domain"
	"spotArchiver/internal/ports"
)

const (
	defaultBaseURL = "https://data.binance.vision"
	defaultTimeout = 60 * time.Second

	monthlyPathTmpl = "%s/data/spot/monthly/klines/%s/%s/%s-%s-%s.zip"
)

// Client implements the ports.ArchiveSource interface against the public
// data.binance.vision archive host.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     ports.Logger
}

// Config holds configuration specific to the archive host adapter.
type Config struct {
	BaseURL string        // Archive host base URL (default: data.binance.vision)
	Timeout time.Duration // Per-request bound; an expired request is a transport failure
	Logger  ports.Logger
}

// New creates a new archive host client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for vision client")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		logger:     cfg.Logger,
	}, nil
}

// ArchiveURL returns the full URL of one instrument-month archive. Exposed so
// dry runs can print the fetch plan without performing any I/O.
func (c *Client) ArchiveURL(symbol, interval string, month domain.Month) string {
	return fmt.Sprintf(monthlyPathTmpl, c.baseURL, symbol, interval, symbol, interval, month.String())
}

// FetchMonthlyArchive downloads the raw ZIP payload for one instrument-month.
// A 404 response means the archive is confirmed absent for the period and is
// reported by wrapping ports.ErrArchiveNotFound; every other failure is a
// transport error. No retry is performed: a failed month is the caller's to
// skip.
func (c *Client) FetchMonthlyArchive(ctx context.Context, symbol, interval string, month domain.Month) ([]byte, error) {
	url := c.ArchiveURL(symbol, interval, month)
	c.logger.Debug(ctx, "Fetching monthly archive", map[string]interface{}{"url": url})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request for %s: %w", ports.ErrInvalidRequest, url, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.handleError(ctx, err, url)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s %s %s", ports.ErrArchiveNotFound, symbol, interval, month)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: fetching %s", ports.ErrRateLimited, url)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.handleError(ctx, err, url)
	}
	return data, nil
}

// handleError translates transport-level errors into standardized ports errors.
func (c *Client) handleError(ctx context.Context, err error, url string) error {
	fields := map[string]interface{}{"url": url, "originalError": err.Error()}

	var finalErr error
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		finalErr = fmt.Errorf("fetch timed out: %w: %w", ports.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		finalErr = fmt.Errorf("fetch canceled: %w: %w", ports.ErrContextCanceled, err)
	case errors.As(err, &netErr) && netErr.Timeout():
		finalErr = fmt.Errorf("fetch timed out: %w: %w", ports.ErrTimeout, err)
	case strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "no such host") ||
		strings.Contains(err.Error(), "connection reset"):
		finalErr = fmt.Errorf("fetch connection failed: %w: %w", ports.ErrConnectionFailed, err)
	default:
		finalErr = fmt.Errorf("fetch failed: %w", err)
	}
	c.logger.Error(ctx, err, "Archive fetch failed", fields)
	return finalErr
}
