package migrations

import (
	"database/sql"
	"fmt"
	"io"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/sirupsen/logrus"

	"github.com/suryatmodulus/microsandbox/datastore"
	"github.com/suryatmodulus/microsandbox/datastore/metrics"
)

const (
	defaultMigrationTableName = "schema_migrations"
	dialect                   = "sqlite3"
)

// Migrator applies schema migrations against a database. Each migration runs
// inside its own transaction, so a statement failure rolls back the whole
// migration and leaves the previous schema intact.
type Migrator struct {
	db         *sql.DB
	migrations []*Migration
	set        migrate.MigrationSet
	logger     *logrus.Entry
}

// NewMigrator creates a new Migrator for the given database handle.
func NewMigrator(dsdb *datastore.DB, opts ...MigratorOption) *Migrator {
	var db *sql.DB
	if dsdb != nil {
		db = dsdb.DB
	}

	log := logrus.New()
	log.SetOutput(io.Discard)

	m := &Migrator{
		db:         db,
		migrations: allMigrations,
		set:        migrate.MigrationSet{TableName: defaultMigrationTableName},
		logger:     logrus.NewEntry(log),
	}

	for _, o := range opts {
		o(m)
	}

	return m
}

// MigratorOption enables the creation of functional options for the
// configuration of the migrator.
type MigratorOption func(m *Migrator)

// Source allows the migrator to use an alternative source of migrations, used
// for testing.
func Source(a []*Migration) MigratorOption {
	return func(m *Migrator) {
		m.migrations = a
	}
}

// WithTable allows the migrator to record applied migrations in an
// alternative table.
func WithTable(name string) MigratorOption {
	return func(m *Migrator) {
		m.set.TableName = name
	}
}

// WithLogger configures the logger for the migrator.
func WithLogger(l *logrus.Entry) MigratorOption {
	return func(m *Migrator) {
		m.logger = l
	}
}

// Version returns the current applied migration version (if any).
func (m *Migrator) Version() (string, error) {
	records, err := m.set.GetMigrationRecords(m.db, dialect)
	if err != nil {
		return "", err
	}
	if len(records) == 0 {
		return "", nil
	}

	return records[len(records)-1].Id, nil
}

// LatestVersion identifies the version of the most recent migration in the
// repository (if any).
func (m *Migrator) LatestVersion() (string, error) {
	all, err := m.sortedMigrations()
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return "", nil
	}

	return all[len(all)-1].Id, nil
}

// Up applies all pending up migrations. Returns the number of applied
// migrations.
func (m *Migrator) Up() (int, error) {
	return m.UpN(0)
}

// UpN applies up to n pending up migrations. All pending migrations will be
// applied if n is 0. Returns the number of applied migrations.
func (m *Migrator) UpN(n int) (int, error) {
	plan, err := m.plan(migrate.Up, n)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, id := range plan {
		if err := m.apply(id, migrate.Up); err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}

// UpNPlan plans up to n pending up migrations and returns the ordered list of
// migration IDs. All pending migrations will be planned if n is 0.
func (m *Migrator) UpNPlan(n int) ([]string, error) {
	return m.plan(migrate.Up, n)
}

// Down applies all pending down migrations. Returns the number of applied
// migrations.
func (m *Migrator) Down() (int, error) {
	return m.DownN(0)
}

// DownN applies up to n pending down migrations. All migrations will be
// applied if n is 0. Returns the number of applied migrations.
func (m *Migrator) DownN(n int) (int, error) {
	plan, err := m.plan(migrate.Down, n)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, id := range plan {
		if err := m.apply(id, migrate.Down); err != nil {
			return applied, err
		}
		applied++
	}

	return applied, nil
}

// DownNPlan plans up to n pending down migrations and returns the ordered
// list of migration IDs. All pending migrations will be planned if n is 0.
func (m *Migrator) DownNPlan(n int) ([]string, error) {
	return m.plan(migrate.Down, n)
}

// MigrationStatus represents the status of a migration. Unknown will be set
// to true if a migration was applied but is not known by the current build.
type MigrationStatus struct {
	Unknown   bool
	AppliedAt *time.Time
}

// Status returns the status of all migrations, indexed by migration ID.
func (m *Migrator) Status() (map[string]*MigrationStatus, error) {
	applied, err := m.set.GetMigrationRecords(m.db, dialect)
	if err != nil {
		return nil, err
	}
	known, err := m.sortedMigrations()
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]*MigrationStatus, len(applied))
	for _, k := range known {
		statuses[k.Id] = &MigrationStatus{}
	}

	for _, r := range applied {
		if _, ok := statuses[r.Id]; !ok {
			statuses[r.Id] = &MigrationStatus{Unknown: true}
		}

		statuses[r.Id].AppliedAt = &r.AppliedAt
	}

	return statuses, nil
}

// HasPending determines whether all known migrations are applied or not.
func (m *Migrator) HasPending() (bool, error) {
	records, err := m.set.GetMigrationRecords(m.db, dialect)
	if err != nil {
		return false, err
	}

	known, err := m.sortedMigrations()
	if err != nil {
		return false, err
	}

	for _, k := range known {
		if !migrationApplied(records, k.Id) {
			return true, nil
		}
	}

	return false, nil
}

// FindMigrationByID returns the registered migration with the given ID, or
// nil if there is none.
func (m *Migrator) FindMigrationByID(id string) *Migration {
	for _, mig := range m.migrations {
		if mig.Id == id {
			return mig
		}
	}
	return nil
}

func (m *Migrator) plan(direction migrate.MigrationDirection, limit int) ([]string, error) {
	planned, _, err := m.set.PlanMigration(m.db, dialect, m.source(), direction, limit)
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(planned))
	for _, p := range planned {
		result = append(result, p.Id)
	}

	return result, nil
}

// apply executes a single migration in the given direction.
func (m *Migrator) apply(id string, direction migrate.MigrationDirection) error {
	label := "up"
	if direction == migrate.Down {
		label = "down"
	}
	defer metrics.InstrumentMigration(id, label)()

	start := time.Now()
	if _, err := m.set.ExecMax(m.db, dialect, m.source(), direction, 1); err != nil {
		return fmt.Errorf("applying migration %s: %w", id, err)
	}

	m.logger.WithFields(logrus.Fields{
		"migration":   id,
		"direction":   label,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("migration applied")

	return nil
}

func (m *Migrator) source() *migrate.MemoryMigrationSource {
	src := &migrate.MemoryMigrationSource{}

	for _, migration := range m.migrations {
		src.Migrations = append(src.Migrations, migration.Migration)
	}

	return src
}

func (m *Migrator) sortedMigrations() ([]*migrate.Migration, error) {
	return m.source().FindMigrations()
}

func migrationApplied(records []*migrate.MigrationRecord, id string) bool {
	for _, r := range records {
		if r.Id == id {
			return true
		}
	}

	return false
}
