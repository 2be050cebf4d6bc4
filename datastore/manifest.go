package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/suryatmodulus/microsandbox/datastore/metrics"
)

// ManifestReader is the interface that defines read operations for a manifest store.
type ManifestReader interface {
	FindByID(ctx context.Context, id int64) (*Manifest, error)
	FindAllByImageID(ctx context.Context, imageID int64) ([]*Manifest, error)
}

// ManifestWriter is the interface that defines write operations for a manifest store.
type ManifestWriter interface {
	Create(ctx context.Context, m *Manifest) error
	Delete(ctx context.Context, id int64) error
}

// ManifestStore is the interface that a manifest store should conform to.
type ManifestStore interface {
	ManifestReader
	ManifestWriter
}

// manifestStore is a concrete implementation of a ManifestStore.
type manifestStore struct {
	// db can be either a *sql.DB or *sql.Tx
	db Queryer
}

// NewManifestStore builds a new manifest store.
func NewManifestStore(db Queryer) ManifestStore {
	return &manifestStore{db: db}
}

func scanFullManifest(row *sql.Row) (*Manifest, error) {
	m := new(Manifest)

	if err := row.Scan(&m.ID, &m.ImageID, &m.SchemaVersion, &m.MediaType, &m.AnnotationsJSON, &m.CreatedAt, &m.ModifiedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning manifest: %w", err)
	}

	return m, nil
}

func (s *manifestStore) FindByID(ctx context.Context, id int64) (*Manifest, error) {
	defer metrics.InstrumentQuery("manifest_find_by_id")()
	q := `SELECT
			id,
			image_id,
			schema_version,
			media_type,
			annotations_json,
			created_at,
			modified_at
		FROM
			manifests
		WHERE
			id = ?`

	row := s.db.QueryRowContext(ctx, q, id)

	return scanFullManifest(row)
}

func (s *manifestStore) FindAllByImageID(ctx context.Context, imageID int64) ([]*Manifest, error) {
	defer metrics.InstrumentQuery("manifest_find_all_by_image_id")()
	q := `SELECT
			id,
			image_id,
			schema_version,
			media_type,
			annotations_json,
			created_at,
			modified_at
		FROM
			manifests
		WHERE
			image_id = ?
		ORDER BY
			id`

	rows, err := s.db.QueryContext(ctx, q, imageID)
	if err != nil {
		return nil, fmt.Errorf("finding manifests: %w", err)
	}
	defer rows.Close()

	var mm []*Manifest
	for rows.Next() {
		m := new(Manifest)
		if err := rows.Scan(&m.ID, &m.ImageID, &m.SchemaVersion, &m.MediaType, &m.AnnotationsJSON, &m.CreatedAt, &m.ModifiedAt); err != nil {
			return nil, fmt.Errorf("scanning manifest: %w", err)
		}
		mm = append(mm, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading manifests: %w", err)
	}

	return mm, nil
}

func (s *manifestStore) Create(ctx context.Context, m *Manifest) error {
	defer metrics.InstrumentQuery("manifest_create")()

	if err := ValidateManifestMediaType(m.MediaType); err != nil {
		return err
	}
	if m.AnnotationsJSON.Valid && len(m.AnnotationsJSON.String) > AnnotationsSizeLimit {
		return fmt.Errorf("annotations payload exceeds %d bytes", AnnotationsSizeLimit)
	}

	q := `INSERT INTO manifests (image_id, schema_version, media_type, annotations_json)
			VALUES (?, ?, ?, ?)
		RETURNING
			id, created_at, modified_at`

	row := s.db.QueryRowContext(ctx, q, m.ImageID, m.SchemaVersion, m.MediaType, m.AnnotationsJSON)
	if err := row.Scan(&m.ID, &m.CreatedAt, &m.ModifiedAt); err != nil {
		return fmt.Errorf("creating manifest: %w", err)
	}

	return nil
}

func (s *manifestStore) Delete(ctx context.Context, id int64) error {
	defer metrics.InstrumentQuery("manifest_delete")()
	q := `DELETE FROM manifests WHERE id = ?`

	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("deleting manifest: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting manifest: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
