package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidStoragePath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"simple file", "a1b2c3.jpg", true},
		{"thumb file", "a1b2c3_thumb.jpg", true},
		{"empty", "", false},
		{"absolute", "/etc/passwd", false},
		{"traversal", "../secret.jpg", false},
		{"embedded traversal", "a/../../b.jpg", false},
		{"unsafe chars", "a b.jpg", false},
		{"null byte", "a\x00b.jpg", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidStoragePath(tt.path))
		})
	}
}

func newTestLocalBackend(t *testing.T) *LocalBackend {
	t.Helper()
	dir := t.TempDir()
	return &LocalBackend{
		absBasePath: dir + string(os.PathSeparator),
		urlPrefix:   "/static/uploads/",
	}
}

func TestLocalOwns(t *testing.T) {
	b := newTestLocalBackend(t)

	assert.True(t, b.Owns("/static/uploads/abc.jpg"))
	assert.False(t, b.Owns("https://cdn.example.com/abc.jpg"))
	assert.False(t, b.Owns("/other/abc.jpg"))
}

func TestLocalDeleteForeignLocatorIsNoop(t *testing.T) {
	b := newTestLocalBackend(t)

	err := b.Delete(context.Background(), "https://cdn.example.com/abc.jpg")
	assert.NoError(t, err)
}

func TestLocalDeleteMissingFileIsNoop(t *testing.T) {
	b := newTestLocalBackend(t)

	err := b.Delete(context.Background(), "/static/uploads/doesnotexist.jpg")
	assert.NoError(t, err)
}

func TestLocalDeleteRemovesFile(t *testing.T) {
	b := newTestLocalBackend(t)

	path := filepath.Join(b.absBasePath, "abc123.jpg")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	require.NoError(t, b.Delete(context.Background(), "/static/uploads/abc123.jpg"))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalDeleteRejectsTraversal(t *testing.T) {
	b := newTestLocalBackend(t)

	err := b.Delete(context.Background(), "/static/uploads/../../etc/passwd")
	assert.Error(t, err)
}

func TestNewObjectKey(t *testing.T) {
	k1 := newObjectKey()
	k2 := newObjectKey()

	assert.Len(t, k1, 32)
	assert.NotEqual(t, k1, k2)
	assert.True(t, IsValidStoragePath(k1+".jpg"))
}
