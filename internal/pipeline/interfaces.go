// Package pipeline watches a directory and sends each new or changed design
// to the embroidery machine's USB stick, converting it first when needed.
package pipeline

import (
	"context"
	"time"

	"github.com/TechnicallyShaun/stitch-sync/internal/pipeline/transfer"
	"github.com/TechnicallyShaun/stitch-sync/internal/pipeline/watcher"
)

// FileWatcher detects changed files in a directory.
type FileWatcher interface {
	// Watch starts watching dir and returns a channel that emits a FileEvent
	// for each change, in delivery order.
	Watch(ctx context.Context, dir string) (<-chan watcher.FileEvent, error)
	// Stop stops the file watcher.
	Stop() error
}

// Stabilizer waits for a file to finish writing.
type Stabilizer interface {
	// WaitForStable blocks until the file at the given path has stopped changing.
	WaitForStable(ctx context.Context, path string) error
}

// Converter turns a design into another format.
type Converter interface {
	CanRead(ext string) bool
	CanWrite(ext string) bool
	// Convert blocks until out has been written or the conversion failed.
	Convert(ctx context.Context, in, out string) error
}

// TargetResolver finds the destination directory on the removable volume.
type TargetResolver interface {
	// ResolveTarget returns the directory rel on a mounted volume, or false
	// when there is nowhere to copy to.
	ResolveTarget(ctx context.Context, rel string) (string, bool)
}

// Copier places a file in a destination directory.
type Copier interface {
	Copy(ctx context.Context, src, destDir string) (transfer.Result, error)
}

// Unmounter runs the interactive eject flow.
type Unmounter interface {
	Run(ctx context.Context)
}

// Console provides single-key input.
type Console interface {
	EnterRaw() error
	Restore() error
	// Suspend runs fn with the terminal in normal mode.
	Suspend(fn func()) error
	// PollKey waits up to timeout for one key.
	PollKey(timeout time.Duration) (byte, bool, error)
}
