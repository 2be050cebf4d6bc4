// Package schemamigrations holds the ordered schema migrations of the image
// metadata database, one file per migration. Importing the package registers
// all of them.
package schemamigrations

import (
	"github.com/suryatmodulus/microsandbox/datastore"
	"github.com/suryatmodulus/microsandbox/datastore/migrations"
)

// NewMigrator creates a migrator backed by the full, registered set of
// schema migrations.
func NewMigrator(db *datastore.DB, opts ...migrations.MigratorOption) *migrations.Migrator {
	return migrations.NewMigrator(db, append([]migrations.MigratorOption{migrations.Source(All())}, opts...)...)
}

// All returns all registered schema migrations.
func All() []*migrations.Migration {
	return migrations.All()
}
