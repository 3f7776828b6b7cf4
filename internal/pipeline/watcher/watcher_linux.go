package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const watchMask = unix.IN_CREATE | unix.IN_CLOSE_WRITE | unix.IN_MODIFY | unix.IN_MOVED_TO

// New returns the inotify watcher.
func New() (FileWatcher, error) {
	return NewInotifyWatcher()
}

// InotifyWatcher implements FileWatcher using Linux inotify.
type InotifyWatcher struct {
	fd       int
	wd       int
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	started  bool
}

// NewInotifyWatcher creates a new inotify-based file watcher.
func NewInotifyWatcher() (*InotifyWatcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, err
	}

	return &InotifyWatcher{
		fd:     fd,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}, nil
}

// Watch starts watching dir. It may be called once per watcher.
func (w *InotifyWatcher) Watch(ctx context.Context, dir string) (<-chan FileEvent, error) {
	if w.started {
		return nil, errors.New("watcher already started")
	}
	wd, err := unix.InotifyAddWatch(w.fd, dir, watchMask)
	if err != nil {
		return nil, err
	}
	w.wd = wd
	w.started = true

	events := make(chan FileEvent, eventBuffer)
	go w.readEvents(ctx, dir, events)

	return events, nil
}

// Stop stops the watcher and releases resources. The reader goroutine has
// exited before the descriptor is closed.
func (w *InotifyWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.started {
			<-w.done
			unix.InotifyRmWatch(w.fd, uint32(w.wd))
		}
		err = unix.Close(w.fd)
	})
	return err
}

func (w *InotifyWatcher) readEvents(ctx context.Context, dir string, events chan<- FileEvent) {
	defer close(w.done)
	defer close(events)

	buf := make([]byte, 64*(unix.SizeofInotifyEvent+unix.NAME_MAX+1))

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		n, err := unix.Read(w.fd, buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				// No events available, sleep briefly and retry
				time.Sleep(10 * time.Millisecond)
				continue
			}
			return
		}

		if n < unix.SizeofInotifyEvent {
			continue
		}

		offset := 0
		for offset+unix.SizeofInotifyEvent <= n {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			nameLen := int(event.Len)
			start := offset + unix.SizeofInotifyEvent
			offset = start + nameLen

			if event.Mask&unix.IN_IGNORED != 0 {
				// The watched directory itself is gone.
				return
			}
			if nameLen == 0 || event.Mask&unix.IN_ISDIR != 0 {
				continue
			}

			name := strings.TrimRight(string(buf[start:start+nameLen]), "\x00")
			if ignored(name) {
				continue
			}

			fe := FileEvent{
				Path:      filepath.Join(dir, name),
				Op:        opFromMask(event.Mask),
				Timestamp: time.Now(),
			}
			select {
			case events <- fe:
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			}
		}
	}
}

func opFromMask(mask uint32) Op {
	switch {
	case mask&unix.IN_CREATE != 0:
		return OpCreate
	case mask&unix.IN_MOVED_TO != 0:
		return OpMove
	default:
		return OpWrite
	}
}
