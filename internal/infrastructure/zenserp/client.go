package zenserp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/logging"
	"github.com/pricelens/backend/internal/metrics"
)

// Config holds Zenserp client settings
type Config struct {
	APIKey            string
	BaseURL           string
	Location          string
	SearchEngine      string
	NumResults        int
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int

	// BreakerFailureThreshold consecutive failures open a domain's breaker for BreakerOpenTimeout
	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = "https://app.zenserp.com/api/v2/search"
	}
	if c.Location == "" {
		c.Location = "United States"
	}
	if c.SearchEngine == "" {
		c.SearchEngine = "google.com"
	}
	if c.NumResults <= 0 {
		c.NumResults = 5
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 5
	}
	if c.Burst <= 0 {
		c.Burst = 10
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BreakerFailureThreshold == 0 {
		c.BreakerFailureThreshold = 5
	}
	if c.BreakerOpenTimeout <= 0 {
		c.BreakerOpenTimeout = 30 * time.Second
	}
	return c
}

// Client handles communication with the Zenserp search API
type Client struct {
	httpClient  *http.Client
	cfg         Config
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[[]domain.SearchHit]
}

// NewClient creates a new Zenserp API client
func NewClient(cfg Config) *Client {
	cfg = cfg.withDefaults()

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cfg:         cfg,
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		backoff:     linearBackoff,
		breakers:    make(map[string]*gobreaker.CircuitBreaker[[]domain.SearchHit]),
	}
}

// linearBackoff waits 500ms, 1s, 1.5s... between attempts
func linearBackoff(attempt int) time.Duration {
	return time.Duration(attempt*500) * time.Millisecond
}

// errNoRetry marks failures that another attempt cannot fix
type errNoRetry struct{ err error }

func (e errNoRetry) Error() string { return e.err.Error() }
func (e errNoRetry) Unwrap() error { return e.err }

// Search runs one query. Every failure is returned as *domain.SearchProviderError.
func (c *Client) Search(ctx context.Context, query domain.SearchQuery) ([]domain.SearchHit, error) {
	if c.cfg.APIKey == "" {
		return nil, &domain.SearchProviderError{Domain: query.Domain, Err: domain.ErrSearchDisabled}
	}

	breaker := c.breakerFor(query.Domain)
	hits, err := breaker.Execute(func() ([]domain.SearchHit, error) {
		return c.searchWithRetry(ctx, query)
	})
	if err != nil {
		var spe *domain.SearchProviderError
		if errors.As(err, &spe) {
			return nil, err
		}
		// breaker open or too many half-open probes
		return nil, &domain.SearchProviderError{Domain: query.Domain, Err: err}
	}
	return hits, nil
}

func (c *Client) searchWithRetry(ctx context.Context, query domain.SearchQuery) ([]domain.SearchHit, error) {
	reqURL := c.buildURL(query)

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, &domain.SearchProviderError{Domain: query.Domain, Err: fmt.Errorf("rate limiter: %w", err)}
		}

		hits, err := c.doSearch(ctx, reqURL, query)
		if err == nil {
			return hits, nil
		}
		lastErr = err

		var stop errNoRetry
		if errors.As(err, &stop) || ctx.Err() != nil {
			break
		}

		logging.Ctx(ctx).Debug().
			Err(err).
			Int("attempt", attempt).
			Str("domain", query.Domain).
			Msg("Search attempt failed")

		if attempt < c.cfg.MaxRetries {
			select {
			case <-ctx.Done():
				return nil, &domain.SearchProviderError{Domain: query.Domain, Err: ctx.Err()}
			case <-time.After(c.backoff(attempt)):
			}
		}
	}

	var spe *domain.SearchProviderError
	if errors.As(lastErr, &spe) {
		return nil, spe
	}
	return nil, &domain.SearchProviderError{Domain: query.Domain, Err: lastErr}
}

// doSearch executes one HTTP request
func (c *Client) doSearch(ctx context.Context, reqURL string, query domain.SearchQuery) ([]domain.SearchHit, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errNoRetry{fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", "PriceLens/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.SearchProviderError{Domain: query.Domain, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &domain.SearchProviderError{Domain: query.Domain, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		spe := &domain.SearchProviderError{
			Domain:     query.Domain,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%s", truncate(string(body), 200)),
		}
		// retry on 5xx and 429, not on other 4xx
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, spe
		}
		return nil, errNoRetry{spe}
	}

	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errNoRetry{&domain.SearchProviderError{
			Domain: query.Domain,
			Err:    fmt.Errorf("failed to decode response: %w", err),
		}}
	}

	return mapHits(&payload, query.Mode), nil
}

func (c *Client) buildURL(query domain.SearchQuery) string {
	q := query.Text
	if query.Domain != "" {
		q = fmt.Sprintf("%s site:%s", q, query.Domain)
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("location", c.cfg.Location)
	params.Set("search_engine", c.cfg.SearchEngine)
	params.Set("num", strconv.Itoa(c.cfg.NumResults))
	params.Set("apikey", c.cfg.APIKey)
	if query.Mode != domain.SearchModeWeb {
		params.Set("tbm", "shop")
	}

	return fmt.Sprintf("%s?%s", c.cfg.BaseURL, params.Encode())
}

// breakerFor returns the circuit breaker guarding one domain
func (c *Client) breakerFor(target string) *gobreaker.CircuitBreaker[[]domain.SearchHit] {
	if target == "" {
		target = "unrestricted"
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cb, ok := c.breakers[target]; ok {
		return cb
	}

	threshold := c.cfg.BreakerFailureThreshold
	cb := gobreaker.NewCircuitBreaker[[]domain.SearchHit](gobreaker.Settings{
		Name:        target,
		MaxRequests: 1,
		Timeout:     c.cfg.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			// caller cancellation says nothing about the provider's health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().
				Str("domain", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Search circuit breaker state changed")
		},
	})
	c.breakers[target] = cb
	return cb
}

// BreakerState reports a domain's circuit breaker state for health output
func (c *Client) BreakerState(target string) string {
	return c.breakerFor(target).State().String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
