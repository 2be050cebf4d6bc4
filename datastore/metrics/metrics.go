package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queryDurationHist *prometheus.HistogramVec
	queryTotal        *prometheus.CounterVec
	timeSince         = time.Since // for test purposes only

	migrationDurationHist *prometheus.HistogramVec
)

const (
	namespace = "imagedb"
	subsystem = "database"

	queryNameLabel = "name"

	queryDurationName = "query_duration_seconds"
	queryDurationDesc = "A histogram of latencies for database queries."

	queryTotalName = "queries_total"
	queryTotalDesc = "A counter for database queries."

	migrationNameLabel = "migration"
	directionLabel     = "direction"

	migrationDurationName = "migration_duration_seconds"
	migrationDurationDesc = "A histogram of latencies for applied schema migrations."
)

func init() {
	queryDurationHist = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      queryDurationName,
			Help:      queryDurationDesc,
			Buckets:   prometheus.DefBuckets,
		},
		[]string{queryNameLabel},
	)

	queryTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      queryTotalName,
			Help:      queryTotalDesc,
		},
		[]string{queryNameLabel},
	)

	migrationDurationHist = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      migrationDurationName,
			Help:      migrationDurationDesc,
			Buckets:   prometheus.DefBuckets,
		},
		[]string{migrationNameLabel, directionLabel},
	)

	prometheus.MustRegister(queryDurationHist)
	prometheus.MustRegister(queryTotal)
	prometheus.MustRegister(migrationDurationHist)
}

// InstrumentQuery returns a deferrable that records the duration and count of
// a named database query.
func InstrumentQuery(name string) func() {
	start := time.Now()
	return func() {
		queryTotal.WithLabelValues(name).Inc()
		queryDurationHist.WithLabelValues(name).Observe(timeSince(start).Seconds())
	}
}

// InstrumentMigration returns a deferrable that records the duration of a
// schema migration in a given direction ("up" or "down").
func InstrumentMigration(id, direction string) func() {
	start := time.Now()
	return func() {
		migrationDurationHist.WithLabelValues(id, direction).Observe(timeSince(start).Seconds())
	}
}
