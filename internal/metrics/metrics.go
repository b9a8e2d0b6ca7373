// Package metrics holds the prometheus collectors recorded by the API client.
package metrics

import (
	"io"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Refresh outcomes
const (
	RefreshSucceeded = "success"
	RefreshFailed    = "failure"
	RefreshNoToken   = "no_token"
	RefreshDiscarded = "discarded"
)

// Metrics groups the client collectors on a private registry
type Metrics struct {
	Registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	refreshes       *prometheus.CounterVec
	retries         prometheus.Counter
}

// New creates and registers the client collectors
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fraudcheck",
				Subsystem: "client",
				Name:      "requests_total",
				Help:      "Total number of backend requests sent, by response status.",
			},
			[]string{"method", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "fraudcheck",
				Subsystem: "client",
				Name:      "request_duration_seconds",
				Help:      "Duration of backend requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fraudcheck",
				Subsystem: "client",
				Name:      "refresh_total",
				Help:      "Credential refresh attempts, by outcome.",
			},
			[]string{"outcome"},
		),
		retries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "fraudcheck",
				Subsystem: "client",
				Name:      "retries_total",
				Help:      "Requests replayed after a successful credential refresh.",
			},
		),
	}

	m.Registry.MustRegister(m.requests, m.requestDuration, m.refreshes, m.retries)
	return m
}

// ObserveRequest records one round trip. status is 0 for transport failures.
func (m *Metrics) ObserveRequest(method string, status int, duration time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, label).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveRefresh records one refresh attempt
func (m *Metrics) ObserveRefresh(outcome string) {
	m.refreshes.WithLabelValues(outcome).Inc()
}

// ObserveRetry records one replayed request
func (m *Metrics) ObserveRetry() {
	m.retries.Inc()
}

// Refreshes returns the refresh counter for outcome
func (m *Metrics) Refreshes(outcome string) prometheus.Counter {
	return m.refreshes.WithLabelValues(outcome)
}

// Retries returns the retry counter
func (m *Metrics) Retries() prometheus.Counter {
	return m.retries
}

// Write dumps every gathered family in the text exposition format
func (m *Metrics) Write(w io.Writer) error {
	families, err := m.Registry.Gather()
	if err != nil {
		return err
	}

	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
