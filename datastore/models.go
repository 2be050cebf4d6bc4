package datastore

import (
	"database/sql"
	"time"

	"github.com/opencontainers/go-digest"
)

// Image represents a container image pulled into the local store, identified
// by its canonical reference.
type Image struct {
	ID         int64
	Reference  string
	Digest     digest.Digest
	SizeBytes  int64
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Manifest represents an OCI image manifest belonging to an image.
type Manifest struct {
	ID              int64
	ImageID         int64
	SchemaVersion   int
	MediaType       string
	AnnotationsJSON sql.NullString
	CreatedAt       time.Time
	ModifiedAt      time.Time
}
