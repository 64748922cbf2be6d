package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Static errors for store operations.
var (
	// ErrS3NotConfigured is returned when an s3:// reference is fetched
	// without S3 configuration.
	ErrS3NotConfigured = errors.New("storage: S3 is not configured")
	// ErrVideoNotFound is returned when a local video reference does not exist.
	ErrVideoNotFound = errors.New("storage: video not found")
)

// LocalStore implements the Store interface using local disk. Video
// references must be local file paths; s3:// references require S3Store.
type LocalStore struct {
	tempDir string
}

// NewLocalStore creates a new LocalStore instance.
// If tempDir is empty, a directory under os.TempDir() is used.
// The directory is created if it doesn't exist.
func NewLocalStore(tempDir string) (*LocalStore, error) {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "lecture-segmenter")
	}

	if err := os.MkdirAll(tempDir, 0750); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	return &LocalStore{tempDir: tempDir}, nil
}

// TempDir returns the temporary directory path.
func (s *LocalStore) TempDir() string {
	return s.tempDir
}

// FetchVideo resolves a local video path. The file must exist; s3://
// references return ErrS3NotConfigured.
func (s *LocalStore) FetchVideo(ctx context.Context, ref string) (string, bool, error) {
	select {
	case <-ctx.Done():
		return "", false, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	if IsS3Ref(ref) {
		return "", false, ErrS3NotConfigured
	}

	if _, err := os.Stat(ref); err != nil {
		if os.IsNotExist(err) {
			return "", false, fmt.Errorf("%w: %s", ErrVideoNotFound, ref)
		}
		return "", false, fmt.Errorf("stat video: %w", err)
	}

	return ref, false, nil
}

// SaveTemp saves data to a temporary file and returns the file path.
// The name is used as a base for the filename with a unique suffix.
func (s *LocalStore) SaveTemp(ctx context.Context, name string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.CreateTemp(s.tempDir, name+"_*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	fileName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(fileName)
		return "", fmt.Errorf("write temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(fileName)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return fileName, nil
}

// CleanupTemp removes the specified temporary files.
// It continues cleanup even if some files fail to delete,
// returning the first error encountered.
func (s *LocalStore) CleanupTemp(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove temp file %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// Verify interface implementation at compile time.
var _ Store = (*LocalStore)(nil)
