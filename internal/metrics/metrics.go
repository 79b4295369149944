// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "parkvision_ws_connections",
		Help: "Currently registered websocket connections.",
	})

	WSBroadcasts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parkvision_ws_broadcasts_total",
		Help: "Broadcast dispatches by scope.",
	}, []string{"scope"})

	WSEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parkvision_ws_evictions_total",
		Help: "Connections evicted after a failed or timed-out delivery.",
	})

	DetectionReports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parkvision_detection_reports_total",
		Help: "Ingested lot occupancy reports by decision.",
	}, []string{"decision"})
)
