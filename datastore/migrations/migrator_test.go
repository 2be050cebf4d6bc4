package migrations_test

import (
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"

	"github.com/suryatmodulus/microsandbox/datastore/migrations"
	"github.com/suryatmodulus/microsandbox/testutil"
)

func testSource() []*migrations.Migration {
	return []*migrations.Migration{
		{
			Migration: &migrate.Migration{
				Id:   "001_create_widgets_table",
				Up:   []string{"CREATE TABLE IF NOT EXISTS widgets (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)"},
				Down: []string{"DROP TABLE IF EXISTS widgets"},
			},
		},
		{
			Migration: &migrate.Migration{
				Id:   "002_add_widgets_name_index",
				Up:   []string{"CREATE INDEX IF NOT EXISTS idx_widgets_name ON widgets (name)"},
				Down: []string{"DROP INDEX IF EXISTS idx_widgets_name"},
			},
		},
		{
			Migration: &migrate.Migration{
				Id:   "003_create_gadgets_table",
				Up:   []string{"CREATE TABLE IF NOT EXISTS gadgets (id INTEGER PRIMARY KEY AUTOINCREMENT)"},
				Down: []string{"DROP TABLE IF EXISTS gadgets"},
			},
		},
	}
}

func TestMigrator_Version_NoMigrations(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(make([]*migrations.Migration, 0)))

	v, err := m.Version()
	require.NoError(t, err)
	require.Empty(t, v)
}

func TestMigrator_Version(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(testSource()))
	_, err := m.Up()
	require.NoError(t, err)

	latest, err := m.LatestVersion()
	require.NoError(t, err)

	current, err := m.Version()
	require.NoError(t, err)
	require.Equal(t, latest, current)
}

func TestMigrator_LatestVersion(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(testSource()))

	v, err := m.LatestVersion()
	require.NoError(t, err)
	require.Equal(t, "003_create_gadgets_table", v)
}

func TestMigrator_Up(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(testSource()))

	n, err := m.Up()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	currentVersion, err := m.Version()
	require.NoError(t, err)
	require.Equal(t, "003_create_gadgets_table", currentVersion)

	// a second run has nothing to do
	n, err = m.Up()
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestMigrator_UpN(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(testSource()))

	n, err := m.UpN(2)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	v, err := m.Version()
	require.NoError(t, err)
	require.Equal(t, "002_add_widgets_name_index", v)

	// limit of zero applies everything left
	n, err = m.UpN(0)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestMigrator_UpNPlan(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(testSource()))

	plan, err := m.UpNPlan(0)
	require.NoError(t, err)
	require.Equal(t, []string{"001_create_widgets_table", "002_add_widgets_name_index", "003_create_gadgets_table"}, plan)

	// planning must not apply anything
	pending, err := m.HasPending()
	require.NoError(t, err)
	require.True(t, pending)
}

func TestMigrator_Down(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(testSource()))

	_, err := m.Up()
	require.NoError(t, err)

	n, err := m.Down()
	require.NoError(t, err)
	require.Equal(t, 3, n)

	v, err := m.Version()
	require.NoError(t, err)
	require.Empty(t, v)
}

func TestMigrator_DownN(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(testSource()))

	_, err := m.Up()
	require.NoError(t, err)

	n, err := m.DownN(1)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	v, err := m.Version()
	require.NoError(t, err)
	require.Equal(t, "002_add_widgets_name_index", v)
}

func TestMigrator_DownNPlan(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(testSource()))

	_, err := m.Up()
	require.NoError(t, err)

	plan, err := m.DownNPlan(0)
	require.NoError(t, err)
	require.Equal(t, []string{"003_create_gadgets_table", "002_add_widgets_name_index", "001_create_widgets_table"}, plan)
}

func TestMigrator_Status(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(testSource()))

	statuses, err := m.Status()
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	for _, s := range statuses {
		require.False(t, s.Unknown)
		require.Nil(t, s.AppliedAt)
	}

	_, err = m.UpN(1)
	require.NoError(t, err)

	statuses, err = m.Status()
	require.NoError(t, err)
	require.NotNil(t, statuses["001_create_widgets_table"].AppliedAt)
	require.Nil(t, statuses["002_add_widgets_name_index"].AppliedAt)
}

func TestMigrator_Status_UnknownMigration(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(testSource()))
	_, err := m.Up()
	require.NoError(t, err)

	// a build that no longer knows the third migration
	m2 := migrations.NewMigrator(db, migrations.Source(testSource()[:2]))
	statuses, err := m2.Status()
	require.NoError(t, err)
	require.True(t, statuses["003_create_gadgets_table"].Unknown)
	require.NotNil(t, statuses["003_create_gadgets_table"].AppliedAt)
}

func TestMigrator_HasPending(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(testSource()))

	pending, err := m.HasPending()
	require.NoError(t, err)
	require.True(t, pending)

	_, err = m.Up()
	require.NoError(t, err)

	pending, err = m.HasPending()
	require.NoError(t, err)
	require.False(t, pending)
}

func TestMigrator_FindMigrationByID(t *testing.T) {
	db := testutil.NewDB(t)

	m := migrations.NewMigrator(db, migrations.Source(testSource()))

	require.NotNil(t, m.FindMigrationByID("002_add_widgets_name_index"))
	require.Nil(t, m.FindMigrationByID("999_not_there"))
}

func TestMigrator_Up_StatementFailureRollsBack(t *testing.T) {
	db := testutil.NewDB(t)

	src := []*migrations.Migration{
		{
			Migration: &migrate.Migration{
				Id: "001_create_and_fail",
				Up: []string{
					"CREATE TABLE IF NOT EXISTS widgets (id INTEGER PRIMARY KEY AUTOINCREMENT)",
					"INSERT INTO missing_table (id) VALUES (1)",
				},
				Down: []string{"DROP TABLE IF EXISTS widgets"},
			},
		},
	}

	m := migrations.NewMigrator(db, migrations.Source(src))

	n, err := m.Up()
	require.Error(t, err)
	require.Zero(t, n)

	// the failed migration was rolled back as a unit
	var count int
	row := db.QueryRowContext(testutil.NewContextWithLogger(t), "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'widgets'")
	require.NoError(t, row.Scan(&count))
	require.Zero(t, count)

	v, err := m.Version()
	require.NoError(t, err)
	require.Empty(t, v)
}
