// Package pidfile keeps a single watch session per user.
package pidfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Common errors
var (
	ErrNoPIDFile      = errors.New("no PID file found")
	ErrInvalidPID     = errors.New("invalid PID in file")
	ErrAlreadyRunning = errors.New("another watch session is already running")
)

const (
	fileName = "watch.pid"
	dirPerm  = 0755
	filePerm = 0644
)

// DefaultPath returns <cache dir>/stitch-sync/watch.pid.
func DefaultPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache directory: %w", err)
	}
	return filepath.Join(dir, "stitch-sync", fileName), nil
}

// File is a PID file at a fixed path.
type File struct {
	path string
}

// New returns the PID file at path.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Write stores pid, creating parent directories if needed.
func (f *File) Write(pid int) error {
	if err := os.MkdirAll(filepath.Dir(f.path), dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(strconv.Itoa(pid)+"\n"), filePerm); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	return nil
}

// Read returns the stored PID.
// Returns ErrNoPIDFile if the file doesn't exist.
// Returns ErrInvalidPID if the file contains invalid data.
func (f *File) Read() (int, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, ErrNoPIDFile
		}
		return 0, fmt.Errorf("read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, ErrInvalidPID
	}
	return pid, nil
}

// Remove deletes the file. A missing file is not an error.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove PID file: %w", err)
	}
	return nil
}

// IsRunning reports whether the process named in the file is alive.
// With no file it returns (false, 0, nil); with a stale file (false, pid, nil).
func (f *File) IsRunning() (bool, int, error) {
	pid, err := f.Read()
	if err != nil {
		if errors.Is(err, ErrNoPIDFile) {
			return false, 0, nil
		}
		return false, 0, err
	}

	alive, err := processAlive(pid)
	if err != nil {
		return false, pid, fmt.Errorf("check process: %w", err)
	}
	return alive, pid, nil
}

// CleanStale removes the file if its process is gone or its content is
// unreadable. Returns true if a file was removed.
func (f *File) CleanStale() (bool, error) {
	running, _, err := f.IsRunning()
	if err != nil && !errors.Is(err, ErrInvalidPID) {
		return false, err
	}
	if running {
		return false, nil
	}
	if _, err := os.Stat(f.path); err != nil {
		return false, nil
	}
	if err := f.Remove(); err != nil {
		return false, err
	}
	return true, nil
}

// Acquire claims the file for the current process. It fails with
// ErrAlreadyRunning when a live process other than this one holds it.
func (f *File) Acquire() error {
	if _, err := f.CleanStale(); err != nil {
		return err
	}

	self := os.Getpid()
	running, pid, err := f.IsRunning()
	if err != nil {
		return err
	}
	if running && pid != self {
		return fmt.Errorf("%w (pid %d, %s)", ErrAlreadyRunning, pid, f.path)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), dirPerm); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	fh, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePerm)
	if errors.Is(err, fs.ErrExist) {
		if pid, rerr := f.Read(); rerr == nil && pid == self {
			return nil
		}
		return fmt.Errorf("%w (%s)", ErrAlreadyRunning, f.path)
	}
	if err != nil {
		return fmt.Errorf("create PID file: %w", err)
	}
	if _, err := fh.WriteString(strconv.Itoa(self) + "\n"); err != nil {
		fh.Close()
		return fmt.Errorf("write PID file: %w", err)
	}
	return fh.Close()
}

// Release removes the file if it still names the current process.
func (f *File) Release() error {
	pid, err := f.Read()
	if err != nil {
		if errors.Is(err, ErrNoPIDFile) {
			return nil
		}
		return err
	}
	if pid != os.Getpid() {
		return nil
	}
	return f.Remove()
}
