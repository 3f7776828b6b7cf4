package pipeline

import (
	"iter"
	"os"
	"path/filepath"
	"time"
)

// Snapshot is the metadata a file had when it was last handled.
type Snapshot struct {
	ModTime time.Time
	Size    int64
}

func (s Snapshot) equal(o Snapshot) bool {
	return s.Size == o.Size && s.ModTime.Equal(o.ModTime)
}

// ChangeCache remembers the last snapshot of every path it has reported so
// that repeated notifications for unchanged content are dropped. It lives for
// one watch session and is not safe for concurrent use.
type ChangeCache struct {
	seen map[string]Snapshot
}

// NewChangeCache creates an empty cache.
func NewChangeCache() *ChangeCache {
	return &ChangeCache{seen: make(map[string]Snapshot)}
}

// Filter yields the paths whose current snapshot differs from the recorded
// one, recording each as it is yielded. Missing files are dropped. The
// sequence is lazy: a path is only pulled from paths and examined when the
// consumer asks for it, so anything the consumer records in between is seen.
func (c *ChangeCache) Filter(paths iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		for p := range paths {
			if !c.IsNew(p) {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// IsNew records the current snapshot of path and reports whether it differs
// from the previous one. The first sighting of a path is always new.
func (c *ChangeCache) IsNew(path string) bool {
	key, snap, ok := stat(path)
	if !ok {
		return false
	}
	if prev, seen := c.seen[key]; seen && prev.equal(snap) {
		return false
	}
	c.seen[key] = snap
	return true
}

// Unchanged reports whether path still matches its recorded snapshot,
// without recording anything.
func (c *ChangeCache) Unchanged(path string) bool {
	key, snap, ok := stat(path)
	if !ok {
		return false
	}
	prev, seen := c.seen[key]
	return seen && prev.equal(snap)
}

// Observe records the current snapshot of path without reporting it, so a
// file the pipeline wrote itself does not come back as new.
func (c *ChangeCache) Observe(path string) {
	if key, snap, ok := stat(path); ok {
		c.seen[key] = snap
	}
}

// Len returns the number of tracked paths.
func (c *ChangeCache) Len() int {
	return len(c.seen)
}

func stat(path string) (string, Snapshot, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", Snapshot{}, false
	}
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}
	return key, Snapshot{ModTime: info.ModTime(), Size: info.Size()}, true
}
