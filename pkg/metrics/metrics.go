// Package metrics holds the Prometheus collectors exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Node kinds used as the "kind" label of NodesAdded
const (
	KindRoot  = "root"
	KindChild = "child"
)

var (
	NodesAdded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tv_nodes_added_total",
		Help: "Total number of nodes inserted, labelled by kind (root or child).",
	}, []string{"kind"})

	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tv_validation_failures_total",
		Help: "Total number of rejected mutations, labelled by error kind.",
	}, []string{"kind"})

	Resets = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tv_resets_total",
		Help: "Total number of tree resets.",
	})

	TreeSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tv_tree_size",
		Help: "Current number of nodes in the most recently mutated tree.",
	})

	Selections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tv_selections_total",
		Help: "Total number of node selections that resolved to a node.",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tv_http_request_duration_ms",
		Help:    "Preview server request latency in milliseconds.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	}, []string{"method", "status"})

	ExportsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tv_exports_written_total",
		Help: "Total number of export files written, labelled by format.",
	}, []string{"format"})
)
