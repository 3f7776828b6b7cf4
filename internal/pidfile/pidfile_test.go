package pidfile

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// stalePID is near the Linux PID ceiling and almost certainly unused.
const stalePID = 4194300

func newTestFile(t *testing.T) *File {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "state", "watch.pid"))
}

func writeRaw(t *testing.T, f *File, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(f.Path()), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(f.Path(), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaultPath(t *testing.T) {
	path, err := DefaultPath()
	if err != nil {
		t.Skipf("no cache directory: %v", err)
	}
	if filepath.Base(path) != "watch.pid" {
		t.Errorf("expected path to end with watch.pid, got: %s", path)
	}
	if dir := filepath.Base(filepath.Dir(path)); dir != "stitch-sync" {
		t.Errorf("expected parent directory stitch-sync, got: %s", dir)
	}
}

func TestWriteAndRead(t *testing.T) {
	f := newTestFile(t)

	if err := f.Write(12345); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	pid, err := f.Read()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if pid != 12345 {
		t.Errorf("expected PID 12345, got %d", pid)
	}
}

func TestReadNoPIDFile(t *testing.T) {
	_, err := newTestFile(t).Read()
	if !errors.Is(err, ErrNoPIDFile) {
		t.Errorf("expected ErrNoPIDFile, got: %v", err)
	}
}

func TestReadInvalidPID(t *testing.T) {
	for _, content := range []string{"not-a-number\n", "-1\n", "0", ""} {
		f := newTestFile(t)
		writeRaw(t, f, content)

		if _, err := f.Read(); !errors.Is(err, ErrInvalidPID) {
			t.Errorf("content %q: expected ErrInvalidPID, got: %v", content, err)
		}
	}
}

func TestRemoveNonexistent(t *testing.T) {
	if err := newTestFile(t).Remove(); err != nil {
		t.Errorf("expected no error removing nonexistent file, got: %v", err)
	}
}

func TestIsRunningWithCurrentProcess(t *testing.T) {
	f := newTestFile(t)
	if err := f.Write(os.Getpid()); err != nil {
		t.Fatal(err)
	}

	running, pid, err := f.IsRunning()
	if err != nil {
		t.Fatalf("IsRunning failed: %v", err)
	}
	if !running {
		t.Error("expected process to be running")
	}
	if pid != os.Getpid() {
		t.Errorf("expected PID %d, got %d", os.Getpid(), pid)
	}
}

func TestIsRunningWithNoPIDFile(t *testing.T) {
	running, pid, err := newTestFile(t).IsRunning()
	if err != nil {
		t.Fatalf("IsRunning failed: %v", err)
	}
	if running || pid != 0 {
		t.Errorf("expected (false, 0), got (%v, %d)", running, pid)
	}
}

func TestCleanStaleRemovesFile(t *testing.T) {
	f := newTestFile(t)
	writeRaw(t, f, strconv.Itoa(stalePID)+"\n")

	removed, err := f.CleanStale()
	if err != nil {
		t.Fatalf("CleanStale failed: %v", err)
	}
	if !removed {
		t.Skip("stale PID is unexpectedly running, skipping test")
	}
	if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
		t.Error("expected PID file to be removed")
	}
}

func TestCleanStaleRemovesGarbage(t *testing.T) {
	f := newTestFile(t)
	writeRaw(t, f, "garbage")

	removed, err := f.CleanStale()
	if err != nil {
		t.Fatalf("CleanStale failed: %v", err)
	}
	if !removed {
		t.Error("expected unreadable PID file to be removed")
	}
}

func TestCleanStaleDoesNotRemoveRunning(t *testing.T) {
	f := newTestFile(t)
	if err := f.Write(os.Getpid()); err != nil {
		t.Fatal(err)
	}

	removed, err := f.CleanStale()
	if err != nil {
		t.Fatalf("CleanStale failed: %v", err)
	}
	if removed {
		t.Error("expected running process PID file to not be removed")
	}
}

func TestAcquireAndRelease(t *testing.T) {
	f := newTestFile(t)

	if err := f.Acquire(); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	pid, err := f.Read()
	if err != nil || pid != os.Getpid() {
		t.Fatalf("expected own PID in file, got %d (%v)", pid, err)
	}

	// Re-acquiring from the same process is allowed.
	if err := f.Acquire(); err != nil {
		t.Errorf("second Acquire failed: %v", err)
	}

	if err := f.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(f.Path()); !os.IsNotExist(err) {
		t.Error("expected PID file to be removed on release")
	}
}

func TestAcquireReplacesStale(t *testing.T) {
	f := newTestFile(t)
	writeRaw(t, f, strconv.Itoa(stalePID)+"\n")

	err := f.Acquire()
	if errors.Is(err, ErrAlreadyRunning) {
		t.Skip("stale PID is unexpectedly running, skipping test")
	}
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if pid, _ := f.Read(); pid != os.Getpid() {
		t.Errorf("expected own PID, got %d", pid)
	}
}

func TestAcquireHeldByLiveProcess(t *testing.T) {
	f := newTestFile(t)
	// The parent process is alive for the duration of the test.
	ppid := os.Getppid()
	if ppid <= 1 {
		t.Skip("no usable parent process")
	}
	writeRaw(t, f, strconv.Itoa(ppid)+"\n")

	err := f.Acquire()
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got: %v", err)
	}
}

func TestReleaseLeavesForeignFile(t *testing.T) {
	f := newTestFile(t)
	writeRaw(t, f, strconv.Itoa(stalePID)+"\n")

	if err := f.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(f.Path()); err != nil {
		t.Error("expected foreign PID file to remain")
	}
}
