package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func stubStatePaths(t *testing.T) (pidPath, logPath string) {
	t.Helper()
	dir := t.TempDir()
	pidPath = filepath.Join(dir, "watch.pid")
	logPath = filepath.Join(dir, "stitch-sync.log")

	origPID, origLog := pidFilePath, logFilePath
	t.Cleanup(func() {
		pidFilePath, logFilePath = origPID, origLog
	})
	pidFilePath = func() (string, error) { return pidPath, nil }
	logFilePath = func() string { return logPath }
	return pidPath, logPath
}

func TestStatus_NotRunning(t *testing.T) {
	stubStatePaths(t)

	output, err := runRoot(t, testConfigPath(t), "", "status")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if !strings.Contains(output, "Watch session: not running") {
		t.Errorf("unexpected output: %q", output)
	}
	if !strings.Contains(output, "Today: 0 copied, 0 converted, 0 skipped, 0 failed") {
		t.Errorf("expected empty counts, got: %q", output)
	}
}

func TestStatus_RunningWithActivity(t *testing.T) {
	pidPath, logPath := stubStatePaths(t)
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	now := time.Now().Format(time.RFC3339Nano)
	logLine := "time=" + now + ` level=INFO msg="file handled" component=dispatch path=/tmp/rose.pes outcome=copied dest=/media/usb/rose.dst` + "\n"
	if err := os.WriteFile(logPath, []byte(logLine), 0644); err != nil {
		t.Fatal(err)
	}

	output, err := runRoot(t, testConfigPath(t), "", "status")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	for _, want := range []string{
		"running (PID " + strconv.Itoa(os.Getpid()) + ")",
		"Today: 1 copied",
		"Last file: rose.pes (copied",
		"-> /media/usb/rose.dst",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got: %q", want, output)
		}
	}
}

func TestStop_NotRunning(t *testing.T) {
	stubStatePaths(t)

	_, err := runRoot(t, testConfigPath(t), "", "stop")
	if !errors.Is(err, ErrNotRunning) {
		t.Errorf("expected ErrNotRunning, got: %v", err)
	}
}

func TestStop_StalePIDFile(t *testing.T) {
	pidPath, _ := stubStatePaths(t)
	if err := os.WriteFile(pidPath, []byte("4194300\n"), 0644); err != nil {
		t.Fatal(err)
	}

	output, err := runRoot(t, testConfigPath(t), "", "stop")
	if !errors.Is(err, ErrNotRunning) {
		t.Skipf("stale PID is unexpectedly running: %v", err)
	}
	if !strings.Contains(output, "Removed stale PID file") {
		t.Errorf("unexpected output: %q", output)
	}
	if _, err := os.Stat(pidPath); !os.IsNotExist(err) {
		t.Error("expected stale PID file to be removed")
	}
}
