package schemamigrations

import (
	migrate "github.com/rubenv/sql-migrate"

	"github.com/suryatmodulus/microsandbox/datastore/migrations"
)

func init() {
	m := &migrations.Migration{
		Migration: &migrate.Migration{
			Id: "20250612101612_create_indexes_table",
			Up: []string{
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
			},
			Down: []string{
				"DROP INDEX IF EXISTS idx_indexes_image_id",
				"DROP TABLE IF EXISTS indexes",
			},
		},
	}

	migrations.Append(m)
}
