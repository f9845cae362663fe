package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Fetcher reads the raw bytes of an external artifact.
type Fetcher interface {
	Fetch(ctx context.Context, src Source) ([]byte, error)
}

// Settings tune remote fetching.
type Settings struct {
	HTTPTimeout time.Duration
	MaxRetries  int
	BackoffBase time.Duration
	// BreakerFailures is the number of consecutive failures against one host
	// before further requests to it fail fast. Zero disables the breaker.
	BreakerFailures int
}

func DefaultSettings() Settings {
	return Settings{
		HTTPTimeout:     15 * time.Second,
		MaxRetries:      3,
		BackoffBase:     200 * time.Millisecond,
		BreakerFailures: 5,
	}
}

// SourceFetcher reads local files from disk and remote artifacts over HTTP
// with retries and a per-host circuit breaker.
type SourceFetcher struct {
	settings Settings
	client   *http.Client
	logger   *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]byte]
}

func NewSourceFetcher(settings Settings, logger *slog.Logger) *SourceFetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SourceFetcher{
		settings: settings,
		client:   &http.Client{Timeout: settings.HTTPTimeout},
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[[]byte]),
	}
}

func (f *SourceFetcher) Fetch(ctx context.Context, src Source) ([]byte, error) {
	if !src.Remote {
		return os.ReadFile(src.Key)
	}

	cb := f.breaker(src.Key)
	if cb == nil {
		return f.fetchWithRetry(ctx, src.Key)
	}
	return cb.Execute(func() ([]byte, error) {
		return f.fetchWithRetry(ctx, src.Key)
	})
}

func (f *SourceFetcher) breaker(rawURL string) *gobreaker.CircuitBreaker[[]byte] {
	if f.settings.BreakerFailures <= 0 {
		return nil
	}

	host := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if cb, ok := f.breakers[host]; ok {
		return cb
	}

	threshold := uint32(f.settings.BreakerFailures)
	cb := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    host,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warn("circuit breaker state changed", "host", name, "from", from.String(), "to", to.String())
		},
	})
	f.breakers[host] = cb
	return cb
}

// fetchWithRetry retries network errors, 5xx and 429 with exponential
// backoff. Other HTTP errors fail immediately.
func (f *SourceFetcher) fetchWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	backoff := f.settings.BackoffBase
	if backoff <= 0 {
		backoff = 200 * time.Millisecond
	}
	attempts := f.settings.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		body, transient, err := f.get(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if !transient {
			return nil, err
		}
		lastErr = err

		if i == attempts-1 {
			break
		}
		f.logger.Debug("retrying fetch", "url", rawURL, "attempt", i+1, "error", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	if lastErr == nil {
		lastErr = errors.New("fetch failed")
	}
	return nil, lastErr
}

func (f *SourceFetcher) get(ctx context.Context, rawURL string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		return body, false, err
	}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("transient http error %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return nil, false, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
