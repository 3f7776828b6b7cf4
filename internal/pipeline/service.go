package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TechnicallyShaun/stitch-sync/internal/console"
	"github.com/TechnicallyShaun/stitch-sync/internal/domain"
	"github.com/TechnicallyShaun/stitch-sync/internal/logging"
	"github.com/TechnicallyShaun/stitch-sync/internal/pipeline/watcher"
)

// KeyPollTimeout bounds how long one loop iteration waits for a key.
const KeyPollTimeout = 100 * time.Millisecond

// ErrWatcherClosed is returned when the watcher stops on its own, usually
// because the watched directory was removed.
var ErrWatcherClosed = errors.New("file watcher stopped unexpectedly")

// Service runs the watch loop: it merges filesystem notifications with
// single-key commands on one goroutine.
type Service struct {
	req        domain.WatchRequest
	watcher    FileWatcher
	stabilizer Stabilizer
	cache      *ChangeCache
	dispatcher *Dispatcher
	keys       Console
	unmount    Unmounter
	out        io.Writer
	logger     logging.Logger
}

// ServiceDeps are the collaborators of a Service. Cache must be the one the
// Dispatcher records converter output in.
type ServiceDeps struct {
	Watcher    FileWatcher
	Stabilizer Stabilizer
	Cache      *ChangeCache
	Dispatcher *Dispatcher
	Console    Console
	Unmounter  Unmounter
	Out        io.Writer
	Logger     logging.Logger
}

// NewService creates the watch loop for one session.
func NewService(req domain.WatchRequest, deps ServiceDeps) *Service {
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.Cache == nil {
		deps.Cache = NewChangeCache()
	}
	return &Service{
		req:        req,
		watcher:    deps.Watcher,
		stabilizer: deps.Stabilizer,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		keys:       deps.Console,
		unmount:    deps.Unmounter,
		out:        deps.Out,
		logger:     deps.Logger,
	}
}

// Run blocks until the user quits, a SIGINT or SIGTERM arrives, or ctx is
// cancelled. A conversion in progress finishes first; nothing new is
// dispatched after a stop request.
func (s *Service) Run(ctx context.Context) error {
	info, err := os.Stat(s.req.Dir)
	if err != nil {
		return fmt.Errorf("%w: watch directory %s: %v", domain.ErrPreconditionFailed, s.req.Dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrPreconditionFailed, s.req.Dir)
	}

	ctx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, err := s.watcher.Watch(ctx, s.req.Dir)
	if err != nil {
		return fmt.Errorf("%w: watch %s: %v", domain.ErrPreconditionFailed, s.req.Dir, err)
	}
	defer func() {
		if err := s.watcher.Stop(); err != nil {
			s.logger.Error("error stopping watcher", err)
		}
	}()

	s.logger.Info("watch started",
		logging.String("dir", s.req.Dir),
		logging.String("preferred_format", s.req.PreferredFormat),
	)
	fmt.Fprintln(s.out, "Press 'q' to quit, 'u' to unmount USB volume")

	if err := s.keys.EnterRaw(); err != nil {
		s.logger.Error("raw mode unavailable", err)
	}
	defer s.keys.Restore()

	for ctx.Err() == nil {
		if !s.drain(ctx, events) {
			if ctx.Err() != nil {
				break
			}
			s.keys.Restore()
			s.logger.Error("watcher closed", ErrWatcherClosed)
			return ErrWatcherClosed
		}
		if ctx.Err() != nil {
			break
		}

		key, ok, err := s.keys.PollKey(KeyPollTimeout)
		if err != nil {
			s.logger.Error("key poll failed", err)
			time.Sleep(KeyPollTimeout)
			continue
		}
		if ok {
			s.handleKey(ctx, key, cancel)
		}
	}

	s.keys.Restore()
	fmt.Fprintln(s.out, "Stopped watching.")
	s.logger.Info("watch stopped", logging.Int("tracked_files", s.cache.Len()))
	return nil
}

// drain takes every event queued right now without blocking and handles each
// distinct path once, in delivery order. It returns false when the event
// channel is closed.
func (s *Service) drain(ctx context.Context, events <-chan watcher.FileEvent) bool {
	var paths []string
	seen := make(map[string]bool)
	open := true

collect:
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				open = false
				break collect
			}
			if !seen[ev.Path] {
				seen[ev.Path] = true
				paths = append(paths, ev.Path)
			}
		default:
			break collect
		}
	}

	for p := range s.cache.Filter(s.settled(ctx, paths)) {
		if ctx.Err() != nil {
			return open
		}
		if err := s.keys.Suspend(func() { s.dispatcher.Dispatch(ctx, p) }); err != nil {
			s.logger.Error("could not re-enter raw mode", err)
		}
	}
	return open
}

// settled yields each path that differs from its recorded snapshot once it
// has stopped changing. It stops when ctx is done.
func (s *Service) settled(ctx context.Context, paths []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, p := range paths {
			if ctx.Err() != nil {
				return
			}
			if s.cache.Unchanged(p) {
				continue
			}
			if err := s.stabilizer.WaitForStable(ctx, p); err != nil {
				if !errors.Is(err, fs.ErrNotExist) && ctx.Err() == nil {
					s.logger.Error("file did not stabilize", err, logging.String("path", p))
				}
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

func (s *Service) handleKey(ctx context.Context, key byte, stop context.CancelFunc) {
	switch key {
	case 'q', 'Q', console.KeyInterrupt:
		s.logger.Info("quit requested")
		stop()
	case 'u', 'U':
		if s.unmount == nil {
			return
		}
		if err := s.keys.Suspend(func() { s.unmount.Run(ctx) }); err != nil {
			s.logger.Error("could not re-enter raw mode", err)
		}
	}
}
