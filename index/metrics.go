package index

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	errTypeLabel = "error_type"
	kindLabel    = "kind"
)

var (
	buildLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "index_build_latency_seconds",
		Help: "The time to build a spatial index.",
	}, []string{kindLabel})

	buildErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "index_build_errors_total",
		Help: "The errors that occured while building a spatial index.",
	}, []string{kindLabel, errTypeLabel})

	searchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "index_search_latency_seconds",
		Help:    "The time to search a spatial index.",
		Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
	}, []string{kindLabel})
)

func instrumentBuild(kind Kind, start time.Time) {
	buildLatency.
		With(prometheus.Labels{kindLabel: string(kind)}).
		Observe(time.Since(start).Seconds())
}

func instrumentBuildError(kind Kind, err error) {
	buildErrors.
		With(prometheus.Labels{
			kindLabel:    string(kind),
			errTypeLabel: errors.Type(err),
		}).
		Inc()
}

func instrumentSearch(kind Kind, start time.Time) {
	searchLatency.
		With(prometheus.Labels{kindLabel: string(kind)}).
		Observe(time.Since(start).Seconds())
}
