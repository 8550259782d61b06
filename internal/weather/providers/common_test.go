package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestTransportRetries(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		failures   int32
		wantCalls  int32
		wantErr    bool
	}{
		{"single attempt by default", 0, 1, 1, true},
		{"recovers within retries", 2, 2, 3, false},
		{"gives up after retries", 1, 5, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := atomic.AddInt32(&calls, 1)
				if n <= tt.failures {
					w.WriteHeader(http.StatusServiceUnavailable)
					return
				}
				w.Write([]byte(`{"ok":true}`))
			}))
			defer srv.Close()

			cfg := DefaultHTTPClientConfig(srv.Client())
			cfg.Backoff.MaxRetries = tt.maxRetries
			cfg.Backoff.InitialInterval = time.Millisecond
			tr := newTransport("test", cfg)

			var out struct {
				OK bool `json:"ok"`
			}
			err := tr.getJSON(context.Background(), srv.URL, &out)

			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("calls = %d, want %d", got, tt.wantCalls)
			}
			if !tt.wantErr && !out.OK {
				t.Error("response body was not decoded")
			}
		})
	}
}

func TestTransportInvalidConfig(t *testing.T) {
	tr := newTransport("test", HTTPClientConfig{})
	if _, err := tr.do(context.Background(), nil); !errors.Is(err, errNoHTTPClient) {
		t.Errorf("error = %v, want errNoHTTPClient", err)
	}

	tr = newTransport("test", HTTPClientConfig{Client: http.DefaultClient})
	if _, err := tr.do(context.Background(), nil); !errors.Is(err, errInvalidConfig) {
		t.Errorf("error = %v, want errInvalidConfig", err)
	}
}

func TestTransportRateLimitHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	cfg := DefaultHTTPClientConfig(srv.Client())
	cfg.RateLimit = 0.001
	tr := newTransport("test", cfg)

	var out struct{}
	if err := tr.getJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("first request should use the burst token: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := tr.getJSON(ctx, srv.URL, &out); err == nil {
		t.Fatal("second request should fail waiting for the limiter")
	}
}

func TestTransportServerErrorsTripBreaker(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	tr := newTransport("test", DefaultHTTPClientConfig(srv.Client()))

	var out struct{}
	for i := 0; i < 6; i++ {
		tr.getJSON(context.Background(), srv.URL, &out)
	}
	err := tr.getJSON(context.Background(), srv.URL, &out)
	if !errors.Is(err, errCircuitOpen) {
		t.Fatalf("error = %v, want errCircuitOpen", err)
	}
	if got := atomic.LoadInt32(&calls); got != 6 {
		t.Errorf("calls = %d, want 6 before the breaker opened", got)
	}
}

func TestTransportClientErrorsKeepBreakerClosed(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"reason":"bad input"}`))
	}))
	defer srv.Close()

	cfg := DefaultHTTPClientConfig(srv.Client())
	cfg.Backoff.MaxRetries = 3
	cfg.Backoff.InitialInterval = time.Millisecond
	tr := newTransport("test", cfg)

	var out struct{}
	for i := 0; i < 10; i++ {
		err := tr.getJSON(context.Background(), srv.URL, &out)
		if errors.Is(err, errCircuitOpen) {
			t.Fatalf("request %d: breaker opened on client errors", i)
		}
		var se *statusError
		if !errors.As(err, &se) || se.code != http.StatusBadRequest || se.body != `{"reason":"bad input"}` {
			t.Fatalf("request %d: error = %v, want the 400 reply", i, err)
		}
	}
	// 4xx replies are not retried.
	if got := atomic.LoadInt32(&calls); got != 10 {
		t.Errorf("calls = %d, want 10", got)
	}
}
