// Package metrics exports the relay's prometheus collectors. Everything is
// registered on the default registry and served by the router's /metrics
// endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Connections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "aircast",
		Name:      "connections",
		Help:      "Open WebSocket connections by role.",
	}, []string{"role"})

	FramesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aircast",
		Name:      "frames_sent_total",
		Help:      "Audio chunk envelopes delivered to individual players.",
	})

	SendFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "aircast",
		Name:      "send_failures_total",
		Help:      "Per-connection send failures during broadcast.",
	})

	PumpsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "aircast",
		Name:      "pumps_active",
		Help:      "Stream pumps currently running.",
	})

	PumpRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "aircast",
		Name:      "pump_runs_total",
		Help:      "Completed pump runs by result.",
	}, []string{"result"})
)
