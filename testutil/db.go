package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/suryatmodulus/microsandbox/datastore"
	"github.com/suryatmodulus/microsandbox/datastore/migrations"
	"github.com/suryatmodulus/microsandbox/datastore/migrations/schemamigrations"
)

// NewDB opens a fresh database in a per-test temporary directory, with
// foreign key enforcement on. The handle is closed when the test finishes.
func NewDB(t testing.TB) *datastore.DB {
	t.Helper()

	dsn := &datastore.DSN{
		Path:        filepath.Join(t.TempDir(), "imagedb.db"),
		ForeignKeys: true,
	}

	db, err := datastore.Open(dsn, datastore.WithLogger(NewTestLogger(t).WithField("component", "datastore")))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	return db
}

// NewMigratedDB opens a fresh database and applies all schema migrations.
func NewMigratedDB(t testing.TB) *datastore.DB {
	t.Helper()

	db := NewDB(t)

	m := schemamigrations.NewMigrator(db,
		migrations.WithLogger(NewTestLogger(t).WithField("component", "migrations")))

	_, err := m.Up()
	require.NoError(t, err)

	return db
}
