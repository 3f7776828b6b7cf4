package pipeline

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/TechnicallyShaun/stitch-sync/internal/pipeline/transfer"
	"github.com/TechnicallyShaun/stitch-sync/internal/pipeline/watcher"
)

type fakeConverter struct {
	mu       sync.Mutex
	readable map[string]bool
	writable map[string]bool
	err      error
	calls    []string
	// during runs while a conversion is in progress.
	during   func()
}

func newFakeConverter(readable, writable []string) *fakeConverter {
	c := &fakeConverter{readable: map[string]bool{}, writable: map[string]bool{}}
	for _, r := range readable {
		c.readable[r] = true
	}
	for _, w := range writable {
		c.writable[w] = true
	}
	return c
}

func (c *fakeConverter) CanRead(ext string) bool  { return c.readable[ext] }
func (c *fakeConverter) CanWrite(ext string) bool { return c.writable[ext] }

func (c *fakeConverter) Convert(ctx context.Context, in, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.calls = append(c.calls, in)
	during := c.during
	c.mu.Unlock()
	if during != nil {
		during()
	}
	if c.err != nil {
		return c.err
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	return os.WriteFile(out, append([]byte("converted:"), data...), 0644)
}

func (c *fakeConverter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

type fakeTargets struct {
	mu    sync.Mutex
	dir   string
	ok    bool
	calls int
	rels  []string
}

func (f *fakeTargets) ResolveTarget(_ context.Context, rel string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.rels = append(f.rels, rel)
	return f.dir, f.ok
}

func (f *fakeTargets) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type countingCopier struct {
	mu    sync.Mutex
	inner *transfer.Copier
	calls int
}

func (c *countingCopier) Copy(ctx context.Context, src, destDir string) (transfer.Result, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Copy(ctx, src, destDir)
}

func (c *countingCopier) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeWatcher struct {
	ch       chan watcher.FileEvent
	mu       sync.Mutex
	stopped  bool
	watchErr error
}

func newFakeWatcher() *fakeWatcher {
	return &fakeWatcher{ch: make(chan watcher.FileEvent, 64)}
}

func (w *fakeWatcher) Watch(context.Context, string) (<-chan watcher.FileEvent, error) {
	if w.watchErr != nil {
		return nil, w.watchErr
	}
	return w.ch, nil
}

func (w *fakeWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	return nil
}

func (w *fakeWatcher) isStopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopped
}

func (w *fakeWatcher) emit(path string) {
	w.ch <- watcher.FileEvent{Path: path, Op: watcher.OpWrite, Timestamp: time.Now()}
}

// statStabilizer only checks that the file exists.
type statStabilizer struct{}

func (statStabilizer) WaitForStable(_ context.Context, path string) error {
	_, err := os.Stat(path)
	return err
}

type fakeConsole struct {
	keys chan byte

	mu        sync.Mutex
	raw       bool
	suspended int
}

func newFakeConsole() *fakeConsole {
	return &fakeConsole{keys: make(chan byte, 8)}
}

func (c *fakeConsole) EnterRaw() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raw = true
	return nil
}

func (c *fakeConsole) Restore() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.raw = false
	return nil
}

func (c *fakeConsole) Suspend(fn func()) error {
	c.mu.Lock()
	c.suspended++
	wasRaw := c.raw
	c.raw = false
	c.mu.Unlock()

	fn()

	c.mu.Lock()
	c.raw = wasRaw
	c.mu.Unlock()
	return nil
}

func (c *fakeConsole) PollKey(timeout time.Duration) (byte, bool, error) {
	select {
	case k := <-c.keys:
		return k, true, nil
	case <-time.After(timeout):
		return 0, false, nil
	}
}

func (c *fakeConsole) isRaw() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw
}

type fakeUnmounter struct {
	mu   sync.Mutex
	runs int
}

func (u *fakeUnmounter) Run(context.Context) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.runs++
}

func (u *fakeUnmounter) runCount() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.runs
}

// syncBuffer is a bytes.Buffer safe to read while the loop writes to it.
type syncBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
