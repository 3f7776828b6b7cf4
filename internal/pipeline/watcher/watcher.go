// Package watcher reports files created or changed in a directory.
package watcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"
)

// Op is the kind of change that produced an event.
type Op string

const (
	OpCreate Op = "create"
	OpWrite  Op = "write"
	OpMove   Op = "move"
)

// eventBuffer bounds how many notifications queue up while the consumer is
// busy converting.
const eventBuffer = 256

// FileEvent represents a change to one file in the watched directory.
type FileEvent struct {
	Path      string
	Op        Op
	Timestamp time.Time
}

// FileWatcher reports changes in a single directory, non-recursively.
// Events arrive in delivery order on one channel that is closed when the
// watcher stops.
type FileWatcher interface {
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)
	Stop() error
}

// ignored reports whether name is a hidden or editor temp file.
func ignored(name string) bool {
	base := filepath.Base(name)
	return base == "" || strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~")
}
