package datastore

import (
	"fmt"

	v1 "github.com/opencontainers/image-spec/specs-go/v1"
)

// ErrUnknownMediaType is returned when a manifest carries a media type that
// the store does not recognize.
type ErrUnknownMediaType struct {
	MediaType string
}

func (e ErrUnknownMediaType) Error() string {
	return fmt.Sprintf("unknown media type: %s", e.MediaType)
}

const (
	// MediaTypeDockerManifest is the media type of Docker schema 2 manifests.
	MediaTypeDockerManifest = "application/vnd.docker.distribution.manifest.v2+json"
	// MediaTypeDockerManifestList is the media type of Docker schema 2 manifest lists.
	MediaTypeDockerManifestList = "application/vnd.docker.distribution.manifest.list.v2+json"
)

var knownManifestMediaTypes = map[string]struct{}{
	v1.MediaTypeImageManifest:   {},
	v1.MediaTypeImageIndex:      {},
	MediaTypeDockerManifest:     {},
	MediaTypeDockerManifestList: {},
}

// IsKnownManifestMediaType tells whether mt is one of the manifest media
// types the store accepts.
func IsKnownManifestMediaType(mt string) bool {
	_, ok := knownManifestMediaTypes[mt]
	return ok
}

// ValidateManifestMediaType returns ErrUnknownMediaType if mt is not an
// accepted manifest media type.
func ValidateManifestMediaType(mt string) error {
	if !IsKnownManifestMediaType(mt) {
		return ErrUnknownMediaType{MediaType: mt}
	}
	return nil
}
