package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/engagement-backend/internal/pkg/apperror"
)

func TestLocalStorage_StoreAndPresign(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, "http://localhost:8080/", 1)
	require.NoError(t, err)

	key, err := s.Store(context.Background(), "updates/c1/l1/doc.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "updates/c1/l1/doc.pdf", key)

	data, err := os.ReadFile(filepath.Join(root, "updates", "c1", "l1", "doc.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	url, err := s.Presign(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/media/updates/c1/l1/doc.pdf", url)
}

func TestLocalStorage_KeyCannotEscapeRoot(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, "", 1)
	require.NoError(t, err)

	key, err := s.Store(context.Background(), "../../etc/passwd", strings.NewReader("x"), 1, "")
	require.NoError(t, err)

	assert.Equal(t, "etc/passwd", key)
	_, err = os.Stat(filepath.Join(root, "etc", "passwd"))
	assert.NoError(t, err)
}

func TestLocalStorage_SizeLimit(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "", 1)
	require.NoError(t, err)

	big := strings.Repeat("a", 1024*1024+1)
	_, err = s.Store(context.Background(), "big.bin", strings.NewReader(big), int64(len(big)), "")

	assert.True(t, apperror.IsValidation(err))
}

func TestLocalStorage_RemoveIsIdempotent(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStorage(root, "", 1)
	require.NoError(t, err)
	ctx := context.Background()

	key, err := s.Store(ctx, "updates/c1/old.pdf", strings.NewReader("%PDF"), 4, "application/pdf")
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, key))
	_, err = os.Stat(filepath.Join(root, "updates", "c1", "old.pdf"))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Remove(ctx, key))
}
