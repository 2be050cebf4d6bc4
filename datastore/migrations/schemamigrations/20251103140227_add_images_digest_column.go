package schemamigrations

import (
	migrate "github.com/rubenv/sql-migrate"

	"github.com/suryatmodulus/microsandbox/datastore/migrations"
)

func init() {
	m := &migrations.Migration{
		Migration: &migrate.Migration{
			Id: "20251103140227_add_images_digest_column",
			Up: []string{
				"ALTER TABLE images ADD COLUMN digest TEXT NOT NULL DEFAULT ''",
			},
			Down: []string{
				"ALTER TABLE images DROP COLUMN digest",
			},
		},
	}

	migrations.Append(m)
}
