// Package transfer copies designs onto the destination volume.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/TechnicallyShaun/stitch-sync/internal/domain"
	"github.com/TechnicallyShaun/stitch-sync/internal/naming"
)

// Result describes a completed copy.
type Result struct {
	Path  string
	Bytes int64
}

// Copier places a file in a destination directory under its sanitized name.
type Copier struct{}

// NewCopier creates a new Copier.
func NewCopier() *Copier {
	return &Copier{}
}

// Copy writes src into destDir as <sanitized stem>.<ext>, replacing any file
// of that name. The data goes to a temp file in destDir first and is renamed
// into place. Errors wrap domain.ErrCopyFailed.
func (c *Copier) Copy(ctx context.Context, src, destDir string) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	dest := filepath.Join(destDir, naming.FileName(src, naming.Ext(src)))
	n, err := copyAtomic(src, dest)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s -> %s: %v", domain.ErrCopyFailed, src, dest, err)
	}
	return Result{Path: dest, Bytes: n}, nil
}

func copyAtomic(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	info, err := os.Stat(dest)
	if err == nil && info.IsDir() {
		return 0, fmt.Errorf("destination %s is a directory", dest)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".stitch-sync-*.tmp")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, in)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return 0, err
	}

	if err := os.Rename(tmpName, dest); err != nil {
		// FAT volumes on Windows refuse to rename over an existing file.
		if runtime.GOOS != "windows" {
			return 0, err
		}
		if rmErr := os.Remove(dest); rmErr != nil && !os.IsNotExist(rmErr) {
			return 0, err
		}
		if err := os.Rename(tmpName, dest); err != nil {
			return 0, err
		}
	}
	committed = true
	return n, nil
}
