package schemamigrations

import (
	migrate "github.com/rubenv/sql-migrate"

	"github.com/suryatmodulus/microsandbox/datastore/migrations"
)

func init() {
	m := &migrations.Migration{
		Migration: &migrate.Migration{
			Id: "20250612101500_create_images_table",
			Up: []string{
				`CREATE TABLE IF NOT EXISTS images (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					reference TEXT NOT NULL UNIQUE,
					size_bytes INTEGER NOT NULL DEFAULT 0,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					last_used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
				)`,
			},
			Down: []string{
				"DROP TABLE IF EXISTS images",
			},
		},
	}

	migrations.Append(m)
}
