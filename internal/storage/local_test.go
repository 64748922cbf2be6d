package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalStore_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "scratch")

	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, dir, store.TempDir())
}

func TestLocalStore_FetchVideo_LocalPathPassesThrough(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	videoPath := filepath.Join(t.TempDir(), "lecture.mp4")
	require.NoError(t, os.WriteFile(videoPath, []byte("fake video"), 0o600))

	path, temporary, err := store.FetchVideo(context.Background(), videoPath)
	require.NoError(t, err)
	assert.Equal(t, videoPath, path)
	assert.False(t, temporary)
}

func TestLocalStore_FetchVideo_MissingFile(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.FetchVideo(context.Background(), "/nonexistent/lecture.mp4")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestLocalStore_FetchVideo_S3RefRejected(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.FetchVideo(context.Background(), "s3://bucket/lecture.mp4")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrS3NotConfigured)
}

func TestLocalStore_SaveTemp(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.SaveTemp(context.Background(), "transcript", strings.NewReader("content"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
	assert.Contains(t, filepath.Base(path), "transcript")
}

func TestLocalStore_SaveTemp_ContextCancelled(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.SaveTemp(ctx, "x", strings.NewReader("data"))
	require.Error(t, err)
}

func TestLocalStore_CleanupTemp(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	path, err := store.SaveTemp(context.Background(), "junk", strings.NewReader("data"))
	require.NoError(t, err)

	err = store.CleanupTemp(context.Background(), []string{path, "/nonexistent/file"})
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestIsS3Ref(t *testing.T) {
	assert.True(t, IsS3Ref("s3://bucket/key.mp4"))
	assert.False(t, IsS3Ref("/var/videos/key.mp4"))
	assert.False(t, IsS3Ref("https://example.com/key.mp4"))
}

func TestParseS3Ref(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		bucket  string
		key     string
		wantErr bool
	}{
		{"valid", "s3://videos/lectures/intro.mp4", "videos", "lectures/intro.mp4", false},
		{"missing key", "s3://videos", "", "", true},
		{"missing bucket", "s3:///intro.mp4", "", "", true},
		{"empty key", "s3://videos/", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := parseS3Ref(tt.ref)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrBadS3Ref)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}
