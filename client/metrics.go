package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	insertsEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qrzlog_client",
			Name:      "inserts_enqueued_total",
			Help:      "Inserts accepted into the shard executor.",
		},
		[]string{"shard"},
	)

	insertFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qrzlog_client",
			Name:      "insert_failures_total",
			Help:      "Async inserts whose job finally returned an error.",
		},
		[]string{"shard"},
	)
)
