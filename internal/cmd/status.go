package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/stitch-sync/internal/logging"
	"github.com/TechnicallyShaun/stitch-sync/internal/pidfile"
	"github.com/TechnicallyShaun/stitch-sync/internal/status"
)

// stopTimeout is the maximum time to wait for a watch session to exit
const stopTimeout = 10 * time.Second

// ErrNotRunning indicates no watch session is running
var ErrNotRunning = errors.New("no watch session is running")

// Replaced in tests.
var (
	pidFilePath = pidfile.DefaultPath
	logFilePath = func() string {
		c := logging.DefaultConfig()
		return filepath.Join(c.LogDir, c.FileName)
	}
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a watch session is running and today's activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			path, err := pidFilePath()
			if err != nil {
				return err
			}
			running, pid, err := pidfile.New(path).IsRunning()
			if err != nil && !errors.Is(err, pidfile.ErrInvalidPID) {
				return err
			}
			if running {
				fmt.Fprintf(out, "Watch session: running (PID %d)\n", pid)
			} else {
				fmt.Fprintln(out, "Watch session: not running")
			}

			logPath := logFilePath()
			stats, err := status.ParseLogFile(logPath, status.StartOfDay(time.Now()))
			if err != nil {
				return fmt.Errorf("read log: %w", err)
			}

			fmt.Fprintf(out, "Log file: %s\n", logPath)
			fmt.Fprintf(out, "Today: %d copied, %d converted, %d skipped, %d failed\n",
				stats.Copied, stats.Converted, stats.Skipped, stats.Failed)
			if last := stats.Last; last != nil {
				fmt.Fprintf(out, "Last file: %s (%s at %s)\n",
					status.BaseName(last.Path), last.Outcome, status.FormatTimestamp(last.Time))
				if last.Dest != "" {
					fmt.Fprintf(out, "  -> %s\n", last.Dest)
				}
			}
			return nil
		},
	}
}

// NewStopCmd creates the stop command
func NewStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop a watch session running in another terminal",
		Long: `Stop a watch session running in another terminal.

The session finishes the file it is working on before exiting. The PID file
is removed once the process is gone.`,
		Args: cobra.NoArgs,
		RunE: runStop,
	}
}

func runStop(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	path, err := pidFilePath()
	if err != nil {
		return err
	}
	pf := pidfile.New(path)

	removed, err := pf.CleanStale()
	if err != nil {
		return err
	}
	if removed {
		fmt.Fprintln(out, "Removed stale PID file")
		return ErrNotRunning
	}
	running, pid, err := pf.IsRunning()
	if err != nil {
		return err
	}
	if !running {
		return ErrNotRunning
	}

	fmt.Fprintf(out, "Stopping watch session (PID %d)...\n", pid)

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process: %w", err)
	}
	if err := terminate(process); err != nil {
		return fmt.Errorf("signal process: %w", err)
	}

	if !waitForExit(pf, stopTimeout) {
		return fmt.Errorf("watch session (PID %d) did not exit within %s", pid, stopTimeout)
	}

	if err := pf.Remove(); err != nil {
		fmt.Fprintf(out, "Warning: failed to remove PID file: %v\n", err)
	}
	fmt.Fprintln(out, "Watch session stopped")
	return nil
}

// waitForExit polls until the recorded process exits or timeout is reached
func waitForExit(pf *pidfile.File, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	pollInterval := 100 * time.Millisecond

	for time.Now().Before(deadline) {
		running, _, err := pf.IsRunning()
		if err != nil || !running {
			return true
		}
		time.Sleep(pollInterval)
	}
	return false
}
