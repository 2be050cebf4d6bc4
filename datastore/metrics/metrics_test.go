package metrics

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func mockTimeSince(d time.Duration) func() {
	bkp := timeSince
	timeSince = func(_ time.Time) time.Duration { return d }
	return func() { timeSince = bkp }
}

func TestInstrumentQuery(t *testing.T) {
	queryName := "manifest_find_by_id"

	restore := mockTimeSince(10 * time.Millisecond)
	defer restore()
	InstrumentQuery(queryName)()

	mockTimeSince(20 * time.Millisecond)
	InstrumentQuery(queryName)()

	var expected bytes.Buffer
	expected.WriteString(`
# HELP imagedb_database_queries_total A counter for database queries.
# TYPE imagedb_database_queries_total counter
imagedb_database_queries_total{name="manifest_find_by_id"} 2
# HELP imagedb_database_query_duration_seconds A histogram of latencies for database queries.
# TYPE imagedb_database_query_duration_seconds histogram
imagedb_database_query_duration_seconds_bucket{name="manifest_find_by_id",le="0.005"} 0
imagedb_database_query_duration_seconds_bucket{name="manifest_find_by_id",le="0.01"} 1
imagedb_database_query_duration_seconds_bucket{name="manifest_find_by_id",le="0.025"} 2
imagedb_database_query_duration_seconds_bucket{name="manifest_find_by_id",le="0.05"} 2
imagedb_database_query_duration_seconds_bucket{name="manifest_find_by_id",le="0.1"} 2
imagedb_database_query_duration_seconds_bucket{name="manifest_find_by_id",le="0.25"} 2
imagedb_database_query_duration_seconds_bucket{name="manifest_find_by_id",le="0.5"} 2
imagedb_database_query_duration_seconds_bucket{name="manifest_find_by_id",le="1"} 2
imagedb_database_query_duration_seconds_bucket{name="manifest_find_by_id",le="2.5"} 2
imagedb_database_query_duration_seconds_bucket{name="manifest_find_by_id",le="5"} 2
imagedb_database_query_duration_seconds_bucket{name="manifest_find_by_id",le="10"} 2
imagedb_database_query_duration_seconds_bucket{name="manifest_find_by_id",le="+Inf"} 2
imagedb_database_query_duration_seconds_sum{name="manifest_find_by_id"} 0.03
imagedb_database_query_duration_seconds_count{name="manifest_find_by_id"} 2
`)
	durationFullName := fmt.Sprintf("%s_%s_%s", namespace, subsystem, queryDurationName)
	totalFullName := fmt.Sprintf("%s_%s_%s", namespace, subsystem, queryTotalName)

	err := testutil.GatherAndCompare(prometheus.DefaultGatherer, &expected, durationFullName, totalFullName)
	require.NoError(t, err)
}

func TestInstrumentMigration(t *testing.T) {
	restore := mockTimeSince(15 * time.Millisecond)
	defer restore()
	InstrumentMigration("20260215113402_drop_manifests_index_id", "up")()

	var expected bytes.Buffer
	expected.WriteString(`
# HELP imagedb_database_migration_duration_seconds A histogram of latencies for applied schema migrations.
# TYPE imagedb_database_migration_duration_seconds histogram
imagedb_database_migration_duration_seconds_bucket{direction="up",migration="20260215113402_drop_manifests_index_id",le="0.005"} 0
imagedb_database_migration_duration_seconds_bucket{direction="up",migration="20260215113402_drop_manifests_index_id",le="0.01"} 0
imagedb_database_migration_duration_seconds_bucket{direction="up",migration="20260215113402_drop_manifests_index_id",le="0.025"} 1
imagedb_database_migration_duration_seconds_bucket{direction="up",migration="20260215113402_drop_manifests_index_id",le="0.05"} 1
imagedb_database_migration_duration_seconds_bucket{direction="up",migration="20260215113402_drop_manifests_index_id",le="0.1"} 1
imagedb_database_migration_duration_seconds_bucket{direction="up",migration="20260215113402_drop_manifests_index_id",le="0.25"} 1
imagedb_database_migration_duration_seconds_bucket{direction="up",migration="20260215113402_drop_manifests_index_id",le="0.5"} 1
imagedb_database_migration_duration_seconds_bucket{direction="up",migration="20260215113402_drop_manifests_index_id",le="1"} 1
imagedb_database_migration_duration_seconds_bucket{direction="up",migration="20260215113402_drop_manifests_index_id",le="2.5"} 1
imagedb_database_migration_duration_seconds_bucket{direction="up",migration="20260215113402_drop_manifests_index_id",le="5"} 1
imagedb_database_migration_duration_seconds_bucket{direction="up",migration="20260215113402_drop_manifests_index_id",le="10"} 1
imagedb_database_migration_duration_seconds_bucket{direction="up",migration="20260215113402_drop_manifests_index_id",le="+Inf"} 1
imagedb_database_migration_duration_seconds_sum{direction="up",migration="20260215113402_drop_manifests_index_id"} 0.015
imagedb_database_migration_duration_seconds_count{direction="up",migration="20260215113402_drop_manifests_index_id"} 1
`)
	fullName := fmt.Sprintf("%s_%s_%s", namespace, subsystem, migrationDurationName)

	err := testutil.GatherAndCompare(prometheus.DefaultGatherer, &expected, fullName)
	require.NoError(t, err)
}
