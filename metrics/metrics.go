// Package metrics exports dispatcher lifecycle events as Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trickstertwo/xtrack"
)

const namespace = "xtrack"

// Observer is an xtrack.Observer that counts dispatches, adapter outcomes
// per platform and relay outcomes.
type Observer struct {
	Dispatches       *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
	AdapterCalls     *prometheus.CounterVec
	RelayRequests    *prometheus.CounterVec
	RelayDuration    prometheus.Histogram
}

var _ xtrack.Observer = (*Observer)(nil)

// NewObserver registers the collectors on reg.
func NewObserver(reg prometheus.Registerer) *Observer {
	f := promauto.With(reg)
	return &Observer{
		Dispatches: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatches_total",
				Help:      "Total number of dispatched conversion events",
			},
			[]string{"event_name"},
		),
		DispatchDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Duration of one fan-out across adapters and relay in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		AdapterCalls: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "adapter_calls_total",
				Help:      "Total number of platform adapter calls by outcome",
			},
			[]string{"platform", "status"},
		),
		RelayRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relay_requests_total",
				Help:      "Total number of server relay attempts by outcome",
			},
			[]string{"status"},
		),
		RelayDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "relay_duration_seconds",
				Help:      "Duration of server relay attempts in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}

func (o *Observer) OnEvent(e xtrack.Event) {
	switch e.Type {
	case xtrack.DispatchStart:
		o.Dispatches.WithLabelValues(string(e.EventName)).Inc()
	case xtrack.DispatchDone:
		o.DispatchDuration.Observe(e.Duration.Seconds())
	case xtrack.AdapterSkipped:
		o.AdapterCalls.WithLabelValues(e.Platform, "skipped").Inc()
	case xtrack.AdapterDone:
		status := "ok"
		switch {
		case errors.Is(e.Err, xtrack.ErrSDKPanic):
			status = "panic"
		case e.Err != nil:
			status = "error"
		}
		o.AdapterCalls.WithLabelValues(e.Platform, status).Inc()
	case xtrack.RelayDone:
		status := "ok"
		if e.Err != nil {
			status = "error"
		}
		o.RelayRequests.WithLabelValues(status).Inc()
		o.RelayDuration.Observe(e.Duration.Seconds())
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
