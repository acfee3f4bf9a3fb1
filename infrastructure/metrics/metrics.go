package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sitepunch.app/sitepunch/timeclock"
)

// ClockOperations counts engine calls by operation and outcome.
var ClockOperations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sitepunch",
	Name:      "clock_operations_total",
	Help:      "Clock engine operations by outcome.",
}, []string{"operation", "outcome"})

// HTTPRequestDuration observes handler latency by route template.
var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "sitepunch",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request latency in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "route", "status"})

// ExportRuns counts pay-period exports per company outcome.
var ExportRuns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sitepunch",
	Name:      "export_runs_total",
	Help:      "Pay-period export runs by outcome.",
}, []string{"outcome"})

// Outcome names the result of a clock operation for the outcome label.
func Outcome(err error) string {
	var verr *timeclock.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, timeclock.ErrAlreadyClockedIn):
		return "already_clocked_in"
	case errors.Is(err, timeclock.ErrNotClockedIn):
		return "not_clocked_in"
	case errors.Is(err, timeclock.ErrUnauthorized):
		return "unauthorized"
	case errors.As(err, &verr):
		return "invalid"
	default:
		return "error"
	}
}

func ObserveClock(operation string, err error) {
	ClockOperations.WithLabelValues(operation, Outcome(err)).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
