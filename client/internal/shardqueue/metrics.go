package shardqueue

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "qrzlog_client"

var (
	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "shardqueue",
		Name:      "submissions_total",
		Help:      "Jobs accepted into a shard queue.",
	}, []string{"shard"})

	queueFullTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "shardqueue",
		Name:      "queue_full_total",
		Help:      "Submissions rejected because the shard stayed full.",
	}, []string{"shard"})

	queueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: "shardqueue",
		Name:      "queue_depth",
		Help:      "Jobs waiting in a shard after the last completed job.",
	}, []string{"shard"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "shardqueue",
		Name:      "job_run_seconds",
		Help:      "Duration of individual job runs, retries included separately.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"shard"})
)

func labelFor(shard int) string { return strconv.Itoa(shard) }
