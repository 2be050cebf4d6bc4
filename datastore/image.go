package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/suryatmodulus/microsandbox/datastore/metrics"
)

// ImageReader is the interface that defines read operations for an image store.
type ImageReader interface {
	FindByID(ctx context.Context, id int64) (*Image, error)
	FindByReference(ctx context.Context, reference string) (*Image, error)
	FindAll(ctx context.Context) ([]*Image, error)
}

// ImageWriter is the interface that defines write operations for an image store.
type ImageWriter interface {
	Create(ctx context.Context, i *Image) error
	MarkUsed(ctx context.Context, i *Image) error
	Delete(ctx context.Context, id int64) error
}

// ImageStore is the interface that an image store should conform to.
type ImageStore interface {
	ImageReader
	ImageWriter
}

// imageStore is a concrete implementation of an ImageStore.
type imageStore struct {
	// db can be either a *sql.DB or *sql.Tx
	db Queryer
}

// NewImageStore builds a new image store.
func NewImageStore(db Queryer) ImageStore {
	return &imageStore{db: db}
}

func scanFullImage(row *sql.Row) (*Image, error) {
	i := new(Image)

	if err := row.Scan(&i.ID, &i.Reference, &i.Digest, &i.SizeBytes, &i.CreatedAt, &i.LastUsedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning image: %w", err)
	}

	return i, nil
}

func (s *imageStore) FindByID(ctx context.Context, id int64) (*Image, error) {
	defer metrics.InstrumentQuery("image_find_by_id")()
	q := `SELECT
			id,
			reference,
			digest,
			size_bytes,
			created_at,
			last_used_at
		FROM
			images
		WHERE
			id = ?`

	row := s.db.QueryRowContext(ctx, q, id)

	return scanFullImage(row)
}

func (s *imageStore) FindByReference(ctx context.Context, reference string) (*Image, error) {
	defer metrics.InstrumentQuery("image_find_by_reference")()
	q := `SELECT
			id,
			reference,
			digest,
			size_bytes,
			created_at,
			last_used_at
		FROM
			images
		WHERE
			reference = ?`

	row := s.db.QueryRowContext(ctx, q, reference)

	return scanFullImage(row)
}

func (s *imageStore) FindAll(ctx context.Context) ([]*Image, error) {
	defer metrics.InstrumentQuery("image_find_all")()
	q := `SELECT
			id,
			reference,
			digest,
			size_bytes,
			created_at,
			last_used_at
		FROM
			images
		ORDER BY
			id`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("finding images: %w", err)
	}
	defer rows.Close()

	var ii []*Image
	for rows.Next() {
		i := new(Image)
		if err := rows.Scan(&i.ID, &i.Reference, &i.Digest, &i.SizeBytes, &i.CreatedAt, &i.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scanning image: %w", err)
		}
		ii = append(ii, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading images: %w", err)
	}

	return ii, nil
}

func (s *imageStore) Create(ctx context.Context, i *Image) error {
	defer metrics.InstrumentQuery("image_create")()
	q := `INSERT INTO images (reference, digest, size_bytes)
			VALUES (?, ?, ?)
		RETURNING
			id, created_at, last_used_at`

	row := s.db.QueryRowContext(ctx, q, i.Reference, i.Digest.String(), i.SizeBytes)
	if err := row.Scan(&i.ID, &i.CreatedAt, &i.LastUsedAt); err != nil {
		return fmt.Errorf("creating image: %w", err)
	}

	return nil
}

func (s *imageStore) MarkUsed(ctx context.Context, i *Image) error {
	defer metrics.InstrumentQuery("image_mark_used")()
	q := `UPDATE
			images
		SET
			last_used_at = CURRENT_TIMESTAMP
		WHERE
			id = ?
		RETURNING
			last_used_at`

	row := s.db.QueryRowContext(ctx, q, i.ID)
	if err := row.Scan(&i.LastUsedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("marking image used: %w", err)
	}

	return nil
}

// Delete removes an image row. Manifest rows that reference it are deleted by
// the cascade on manifests.image_id.
func (s *imageStore) Delete(ctx context.Context, id int64) error {
	defer metrics.InstrumentQuery("image_delete")()
	q := `DELETE FROM images WHERE id = ?`

	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting image: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}
