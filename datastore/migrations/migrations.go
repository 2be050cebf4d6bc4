package migrations

import (
	migrate "github.com/rubenv/sql-migrate"
)

var allMigrations []*Migration

// Migration is a single schema migration, identified by a timestamped ID and
// carrying ordered lists of up and down SQL statements. The statement order
// within a migration is significant: statements that depend on the effect of
// an earlier statement (such as dropping a table once nothing references it)
// must appear after it.
type Migration struct {
	*migrate.Migration
}

// Append registers migrations into the package-level migration list. It is
// meant to be called from the init function of individual migration files.
func Append(migrations ...*Migration) []*Migration {
	allMigrations = append(allMigrations, migrations...)
	return allMigrations
}

// Reset clears the package-level migration list. Used for testing.
func Reset() {
	allMigrations = make([]*Migration, 0)
}

// All returns all registered migrations.
func All() []*Migration {
	return allMigrations
}
