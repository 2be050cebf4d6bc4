// Package datastore provides access to the SQLite metadata database that
// tracks locally pulled OCI images and their manifests.
package datastore

import "errors"

// ErrNotFound is returned when a row lookup yields no results.
var ErrNotFound = errors.New("record not found")

// AnnotationsSizeLimit is a safety limit on the size of a stored annotations
// payload in bytes.
const AnnotationsSizeLimit = 256000 // 256KB
