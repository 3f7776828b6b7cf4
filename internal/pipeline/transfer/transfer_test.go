package transfer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TechnicallyShaun/stitch-sync/internal/domain"
)

func TestCopy_SanitizesName(t *testing.T) {
	src := filepath.Join(t.TempDir(), "Design File.DST")
	require.NoError(t, os.WriteFile(src, []byte("stitches"), 0644))
	destDir := t.TempDir()

	res, err := NewCopier().Copy(context.Background(), src, destDir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(destDir, "design-file.dst"), res.Path)
	assert.Equal(t, int64(8), res.Bytes)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "stitches", string(data))

	// The source is never renamed.
	assert.FileExists(t, src)
}

func TestCopy_ReplacesExisting(t *testing.T) {
	src := filepath.Join(t.TempDir(), "rose.pes")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0644))
	destDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(destDir, "rose.pes"), []byte("old version"), 0644))

	res, err := NewCopier().Copy(context.Background(), src, destDir)
	require.NoError(t, err)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCopy_LeavesNoTempFiles(t *testing.T) {
	src := filepath.Join(t.TempDir(), "rose.pes")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))
	destDir := t.TempDir()

	_, err := NewCopier().Copy(context.Background(), src, destDir)
	require.NoError(t, err)

	entries, err := os.ReadDir(destDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "rose.pes", entries[0].Name())
}

func TestCopy_MissingSource(t *testing.T) {
	_, err := NewCopier().Copy(context.Background(), filepath.Join(t.TempDir(), "gone.pes"), t.TempDir())
	assert.ErrorIs(t, err, domain.ErrCopyFailed)
}

func TestCopy_MissingDestination(t *testing.T) {
	src := filepath.Join(t.TempDir(), "rose.pes")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))

	_, err := NewCopier().Copy(context.Background(), src, filepath.Join(t.TempDir(), "unplugged"))
	assert.ErrorIs(t, err, domain.ErrCopyFailed)
	assert.Equal(t, domain.KindCopyFailed, domain.KindOf(err))
}

func TestCopy_DestinationIsDirectory(t *testing.T) {
	src := filepath.Join(t.TempDir(), "rose.pes")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))
	destDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(destDir, "rose.pes"), 0755))

	_, err := NewCopier().Copy(context.Background(), src, destDir)
	assert.ErrorIs(t, err, domain.ErrCopyFailed)
}

func TestCopy_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCopier().Copy(ctx, "a.pes", t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}
