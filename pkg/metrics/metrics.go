// Package metrics centralizes the Prometheus instrumentation of GrafoDB.
// Collectors are registered on the default registry at init time via
// promauto, so importing the package is enough to expose them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts API requests by method, route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grafodb_http_requests_total",
			Help: "Total number of HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes API latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grafodb_http_request_duration_seconds",
			Help:    "Latency of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// PathQueriesTotal counts graph searches by operation and outcome
	// ("found" or "absent").
	PathQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grafodb_path_queries_total",
			Help: "Total number of path queries executed.",
		},
		[]string{"op", "outcome"},
	)

	// PathQueryDuration observes search latency by operation.
	PathQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grafodb_path_query_duration_seconds",
			Help:    "Latency of path queries.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"op"},
	)

	// NodesTotal tracks the current number of nodes in the graph.
	NodesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "grafodb_nodes_total",
			Help: "Current number of nodes in the graph.",
		},
	)

	// EdgesTotal tracks the current number of edges in the graph.
	EdgesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "grafodb_edges_total",
			Help: "Current number of edges in the graph.",
		},
	)
)
