package schemamigrations

import (
	migrate "github.com/rubenv/sql-migrate"

	"github.com/suryatmodulus/microsandbox/datastore/migrations"
)

// Manifests no longer reference rows of the indexes table: index membership
// is resolved from manifest media types at read time. The index_id column is
// removed by rebuilding the manifests table without it, and the indexes table
// is retired afterwards, once nothing references it.
func init() {
	up := &migrations.TableRebuild{
		Table: "manifests",
		Columns: []migrations.ColumnDefinition{
			{Name: "id", Type: "INTEGER", Constraints: "PRIMARY KEY AUTOINCREMENT"},
			{Name: "image_id", Type: "INTEGER", Constraints: "NOT NULL"},
			{Name: "schema_version", Type: "INTEGER", Constraints: "NOT NULL"},
			{Name: "media_type", Type: "TEXT", Constraints: "NOT NULL"},
			{Name: "annotations_json", Type: "TEXT"},
			{Name: "created_at", Type: "TIMESTAMP", Constraints: "NOT NULL DEFAULT CURRENT_TIMESTAMP"},
			{Name: "modified_at", Type: "TIMESTAMP", Constraints: "NOT NULL DEFAULT CURRENT_TIMESTAMP"},
		},
		TableConstraints: []string{
			"FOREIGN KEY (image_id) REFERENCES images (id) ON DELETE CASCADE",
		},
		Indexes: []migrations.IndexDefinition{
			{Name: "idx_manifests_image_id", Columns: []string{"image_id"}},
		},
	}

	// The reverse rebuild restores the column and the indexes table, but the
	// discarded index_id values are not recoverable: restored rows carry NULL.
	down := &migrations.TableRebuild{
		Table: "manifests",
		Columns: []migrations.ColumnDefinition{
			{Name: "id", Type: "INTEGER", Constraints: "PRIMARY KEY AUTOINCREMENT"},
			{Name: "image_id", Type: "INTEGER", Constraints: "NOT NULL"},
			{Name: "index_id", Type: "INTEGER"},
			{Name: "schema_version", Type: "INTEGER", Constraints: "NOT NULL"},
			{Name: "media_type", Type: "TEXT", Constraints: "NOT NULL"},
			{Name: "annotations_json", Type: "TEXT"},
			{Name: "created_at", Type: "TIMESTAMP", Constraints: "NOT NULL DEFAULT CURRENT_TIMESTAMP"},
			{Name: "modified_at", Type: "TIMESTAMP", Constraints: "NOT NULL DEFAULT CURRENT_TIMESTAMP"},
		},
		TableConstraints: []string{
			"FOREIGN KEY (image_id) REFERENCES images (id) ON DELETE CASCADE",
			"FOREIGN KEY (index_id) REFERENCES indexes (id) ON DELETE CASCADE",
		},
		CopyColumns: []string{"id", "image_id", "schema_version", "media_type", "annotations_json", "created_at", "modified_at"},
		Indexes: []migrations.IndexDefinition{
			{Name: "idx_manifests_image_id", Columns: []string{"image_id"}},
			{Name: "idx_manifests_index_id", Columns: []string{"index_id"}},
		},
	}

	m := &migrations.Migration{
		Migration: &migrate.Migration{
			Id: "20260215113402_drop_manifests_index_id_and_indexes_table",
			Up: append(up.Statements(),
				"DROP TABLE IF EXISTS indexes",
			),
			Down: append([]string{
				`CREATE TABLE IF NOT EXISTS indexes (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					image_id INTEGER NOT NULL,
					schema_version INTEGER NOT NULL,
					media_type TEXT NOT NULL,
					annotations_json TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					modified_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (image_id) REFERENCES images (id) ON DELETE CASCADE
				)`,
				"CREATE INDEX IF NOT EXISTS idx_indexes_image_id ON indexes (image_id)",
			}, down.Statements()...),
		},
	}

	migrations.Append(m)
}
