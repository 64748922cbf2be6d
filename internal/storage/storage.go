// Package storage provides access to input videos and scratch space for
// processing. It defines the Store interface (port) with implementations
// for local disk and S3-backed input fetching.
package storage

import (
	"context"
	"io"
	"strings"
)

// Store defines the interface for fetching input videos and managing
// temporary files during processing.
type Store interface {
	// FetchVideo resolves a video reference to a local file path. Local
	// paths pass through unchanged; s3://bucket/key references are
	// downloaded into the temp directory. The second return value reports
	// whether the path is a temporary copy the caller should clean up.
	FetchVideo(ctx context.Context, ref string) (path string, temporary bool, err error)

	// SaveTemp saves data to a temporary file and returns the file path.
	// The name parameter is used as a hint for the filename.
	SaveTemp(ctx context.Context, name string, data io.Reader) (path string, err error)

	// CleanupTemp removes the specified temporary files.
	// It continues cleanup even if some files fail to delete.
	CleanupTemp(ctx context.Context, paths []string) error
}

// IsS3Ref reports whether ref names an S3 object.
func IsS3Ref(ref string) bool {
	return strings.HasPrefix(ref, "s3://")
}
