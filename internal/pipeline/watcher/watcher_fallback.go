//go:build !linux

package watcher

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// New returns the fsnotify watcher.
func New() (FileWatcher, error) {
	return NewNotifyWatcher()
}

// NotifyWatcher implements FileWatcher on fsnotify for platforms without
// inotify.
type NotifyWatcher struct {
	w        *fsnotify.Watcher
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewNotifyWatcher creates a new fsnotify-based file watcher.
func NewNotifyWatcher() (*NotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &NotifyWatcher{
		w:      w,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Watch starts watching dir. It may be called once per watcher.
func (n *NotifyWatcher) Watch(ctx context.Context, dir string) (<-chan FileEvent, error) {
	if n.started {
		return nil, errors.New("watcher already started")
	}
	if err := n.w.Add(dir); err != nil {
		return nil, err
	}
	n.started = true

	events := make(chan FileEvent, eventBuffer)
	go n.readEvents(ctx, events)
	return events, nil
}

// Stop stops the watcher and releases resources.
func (n *NotifyWatcher) Stop() error {
	var err error
	n.stopOnce.Do(func() {
		close(n.stopCh)
		err = n.w.Close()
		if n.started {
			<-n.done
		}
	})
	return err
}

func (n *NotifyWatcher) readEvents(ctx context.Context, events chan<- FileEvent) {
	defer close(n.done)
	defer close(events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-n.stopCh:
			return
		case ev, ok := <-n.w.Events:
			if !ok {
				return
			}
			var op Op
			switch {
			case ev.Has(fsnotify.Create):
				op = OpCreate
			case ev.Has(fsnotify.Write):
				op = OpWrite
			default:
				continue
			}
			if ignored(ev.Name) {
				continue
			}
			select {
			case events <- FileEvent{Path: ev.Name, Op: op, Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			case <-n.stopCh:
				return
			}
		case _, ok := <-n.w.Errors:
			// Overflow and similar errors are not fatal: later events still
			// arrive and the change cache catches up.
			if !ok {
				return
			}
		}
	}
}
