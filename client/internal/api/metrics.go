package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	clienterrors "github.com/qrzlog/qrzlog/client/internal/errors"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qrzlog_client",
			Name:      "requests_total",
			Help:      "Logbook API calls by action and outcome kind.",
		},
		[]string{"action", "result"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "qrzlog_client",
			Name:      "request_duration_seconds",
			Help:      "Round-trip time of logbook API calls, response parsing included.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"action"},
	)
)

func observe(action string, err error, start time.Time) {
	result := "ok"
	if err != nil {
		result = clienterrors.KindOf(err).String()
	}
	requestsTotal.WithLabelValues(action, result).Inc()
	requestDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
}
