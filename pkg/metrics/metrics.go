// Package metrics declares the coachd Prometheus collectors and the registry
// handler exposed at /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsActive tracks currently connected live sessions.
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "coachd",
		Name:      "sessions_active",
		Help:      "Number of live coaching sessions currently connected.",
	})

	// OutboundQueueDepth tracks queued upstream writes across sessions.
	OutboundQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "coachd",
		Name:      "outbound_queue_depth",
		Help:      "Messages waiting in outbound serializer queues.",
	})

	// OutboundWritesTotal counts completed upstream writes.
	OutboundWritesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coachd",
		Name:      "outbound_writes_total",
		Help:      "Total upstream writes performed by outbound serializers.",
	})

	// OutboundWriteFailuresTotal counts upstream write errors, fatal or not.
	OutboundWriteFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coachd",
		Name:      "outbound_write_failures_total",
		Help:      "Total upstream write errors.",
	})

	// ChunksIngestedTotal counts data chunks accepted by the drafter.
	ChunksIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coachd",
		Name:      "chunks_ingested_total",
		Help:      "Total session data chunks ingested into draft contexts.",
	})

	// ReportRepairsTotal counts finalize responses that needed JSON repair.
	ReportRepairsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coachd",
		Name:      "report_repairs_total",
		Help:      "Total final reports recovered via truncated-JSON repair.",
	})

	// ReportsFinalizedTotal counts successfully finalized reports.
	ReportsFinalizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "coachd",
		Name:      "reports_finalized_total",
		Help:      "Total session reports finalized.",
	})
)

var allMetrics = []prometheus.Collector{
	SessionsActive,
	OutboundQueueDepth,
	OutboundWritesTotal,
	OutboundWriteFailuresTotal,
	ChunksIngestedTotal,
	ReportRepairsTotal,
	ReportsFinalizedTotal,
}

// NewRegistry builds a registry with the coachd collectors plus the standard
// process and Go runtime collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(allMetrics...)
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry over HTTP.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
