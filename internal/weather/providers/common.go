package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/fishing-log/internal/metrics"
	"github.com/i474232898/fishing-log/internal/weather"
)

// BackoffConfig controls exponential backoff behaviour.
// MaxRetries of 0 means a single attempt.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig

	// RateLimit is the maximum outbound requests per second (0 = unlimited).
	RateLimit float64
	Burst     int
}

// DefaultHTTPClientConfig returns a single-attempt configuration for client.
func DefaultHTTPClientConfig(client *http.Client) HTTPClientConfig {
	return HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			MaxRetries:      0,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}
}

var (
	errRateLimited   = errors.New("rate limited")
	errServerError   = errors.New("server error")
	errUnexpected    = errors.New("unexpected status code")
	errCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// maxErrorBody caps how much of a non-2xx reply is kept for diagnostics.
const maxErrorBody = 1 << 10

// statusError is a non-2xx provider reply. It unwraps to one of
// errRateLimited, errServerError or errUnexpected.
type statusError struct {
	kind error
	code int
	body string
}

func (e *statusError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("%v: %d", e.kind, e.code)
	}
	return fmt.Sprintf("%v: %d: %s", e.kind, e.code, e.body)
}

func (e *statusError) Unwrap() error {
	return e.kind
}

// clientError reports whether err is a 4xx reply caused by the request itself.
// Such replies say nothing about provider health.
func clientError(err error) bool {
	return errors.Is(err, errUnexpected)
}

// transport executes provider requests through a circuit breaker and an
// optional rate limiter.
type transport struct {
	name    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

func newTransport(name string, cfg HTTPClientConfig) *transport {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || clientError(err)
		},
	})

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &transport{
		name:    name,
		httpCfg: cfg,
		circuit: cb,
		limiter: limiter,
	}
}

// do executes the request with optional retries, exponential backoff,
// and a circuit breaker. The caller owns the returned body.
func (t *transport) do(ctx context.Context, buildRequest func() (*http.Request, error)) (*http.Response, error) {
	cfg := t.httpCfg
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	var attempt int
	var lastErr error

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if t.limiter != nil {
			if err := t.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limit wait canceled: %w", err)
			}
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}

		// Ensure the request obeys context cancellation.
		req = req.WithContext(ctx)

		start := time.Now()
		result, err := t.circuit.Execute(func() (interface{}, error) {
			resp, execErr := cfg.Client.Do(req)
			if execErr != nil {
				return nil, execErr
			}

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()

				se := &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
				switch {
				case resp.StatusCode == http.StatusTooManyRequests:
					se.kind = errRateLimited
				case resp.StatusCode >= 500:
					se.kind = errServerError
				default:
					se.kind = errUnexpected
				}
				return nil, se
			}

			return resp, nil
		})
		metrics.ObserveProviderRequest(t.name, start, err)

		if err == nil {
			resp, ok := result.(*http.Response)
			if !ok {
				return nil, fmt.Errorf("unexpected result type from circuit breaker")
			}
			return resp, nil
		}

		// If circuit is open, propagate immediately.
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}

		lastErr = err
		if attempt >= cfg.Backoff.MaxRetries || clientError(err) {
			return nil, lastErr
		}

		delay := cfg.Backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > cfg.Backoff.MaxInterval && cfg.Backoff.MaxInterval > 0 {
			delay = cfg.Backoff.MaxInterval
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		attempt++
	}
}

// getJSON issues a GET to rawURL and decodes the JSON body into out. Every
// failure is reported as weather.ErrFetchFailed.
func (t *transport) getJSON(ctx context.Context, rawURL string, out any) error {
	resp, err := t.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", weather.ErrFetchFailed, t.name, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %w", weather.ErrFetchFailed, t.name, err)
	}
	return nil
}

// malformed reports a structurally incomplete response.
func malformed(provider, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w: %s", weather.ErrFetchFailed, provider, weather.ErrMalformedResponse, fmt.Sprintf(format, args...))
}
