package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	providerRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fishlog_provider_requests_total",
		Help: "Outbound weather provider requests by provider and outcome.",
	}, []string{"provider", "outcome"})

	providerRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fishlog_provider_request_duration_seconds",
		Help:    "Outbound weather provider latency in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fishlog_http_requests_total",
		Help: "Total number of HTTP requests by method, route, and status code.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fishlog_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	spotRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fishlog_spot_refresh_total",
		Help: "Scheduled spot forecast refreshes by outcome.",
	}, []string{"outcome"})

	// lastRefreshTimestamp is 0 until the first successful refresh.
	lastRefreshTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fishlog_last_spot_refresh_timestamp_seconds",
		Help: "Unix timestamp (seconds) of the last successful spot refresh. 0 if none yet.",
	})
)

// ObserveProviderRequest records one outbound provider call.
func ObserveProviderRequest(provider string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	providerRequestsTotal.WithLabelValues(provider, outcome).Inc()
	providerRequestDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}

// ObserveSpotRefresh records one scheduled refresh of a spot.
func ObserveSpotRefresh(err error) {
	if err != nil {
		spotRefreshTotal.WithLabelValues("error").Inc()
		return
	}
	spotRefreshTotal.WithLabelValues("ok").Inc()
	lastRefreshTimestamp.Set(float64(time.Now().Unix()))
}

// Middleware records request counts and latency per matched route. statusOf
// maps a handler error to the status the error handler will send.
func Middleware(statusOf func(error) int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			var fe *fiber.Error
			switch {
			case statusOf != nil:
				status = statusOf(err)
			case errors.As(err, &fe):
				status = fe.Code
			default:
				status = fiber.StatusInternalServerError
			}
		}

		route := c.Route().Path
		httpRequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}
