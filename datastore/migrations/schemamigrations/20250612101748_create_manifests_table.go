package schemamigrations

import (
	migrate "github.com/rubenv/sql-migrate"

	"github.com/suryatmodulus/microsandbox/datastore/migrations"
)

func init() {
	m := &migrations.Migration{
		Migration: &migrate.Migration{
			Id: "20250612101748_create_manifests_table",
			Up: []string{
				`CREATE TABLE IF NOT EXISTS manifests (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					image_id INTEGER NOT NULL,
					index_id INTEGER,
					schema_version INTEGER NOT NULL,
					media_type TEXT NOT NULL,
					annotations_json TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					modified_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					FOREIGN KEY (image_id) REFERENCES images (id) ON DELETE CASCADE,
					FOREIGN KEY (index_id) REFERENCES indexes (id) ON DELETE CASCADE
				)`,
				"CREATE INDEX IF NOT EXISTS idx_manifests_image_id ON manifests (image_id)",
				"CREATE INDEX IF NOT EXISTS idx_manifests_index_id ON manifests (index_id)",
			},
			Down: []string{
				"DROP INDEX IF EXISTS idx_manifests_index_id",
				"DROP INDEX IF EXISTS idx_manifests_image_id",
				"DROP TABLE IF EXISTS manifests",
			},
		},
	}

	migrations.Append(m)
}
