package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rowsLoaded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripdash_dataset_rows_loaded_total",
		Help: "Raw rows admitted into the working set across all load cycles.",
	})
	rowsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tripdash_dataset_rows_rejected_total",
		Help: "Raw rows dropped by sanitization across all load cycles.",
	})
	datasetReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripdash_dataset_reloads_total",
		Help: "Full dataset load cycles by outcome.",
	}, []string{"outcome"})
	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tripdash_commands_total",
		Help: "Dispatched dashboard commands by tool and outcome.",
	}, []string{"tool", "outcome"})
	remoteQuerySeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tripdash_remote_query_seconds",
		Help:    "Remote row store query latency.",
		Buckets: prometheus.DefBuckets,
	})
)
