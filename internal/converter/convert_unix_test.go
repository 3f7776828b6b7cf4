//go:build unix

package converter

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/TechnicallyShaun/stitch-sync/internal/domain"
)

// fakeInkscape mimics `inkscape <in> --export-filename <out>`. The input's
// name selects the behaviour.
const fakeInkscape = `#!/bin/sh
case "$1" in
*fail*) echo "boom" >&2; exit 3 ;;
*noplugin*) echo "Could not detect file format" >&2; exit 1 ;;
*slow*) echo $$ > "$3.pid"; sleep 1 ;;
*killed*) kill -TERM $$ ;;
esac
cp "$1" "$3"
`

func newFakeApp(t *testing.T) (*App, string) {
	t.Helper()
	dir := t.TempDir()
	bin := filepath.Join(dir, "inkscape")
	require.NoError(t, os.WriteFile(bin, []byte(fakeInkscape), 0755))

	work := filepath.Join(dir, "work")
	require.NoError(t, os.Mkdir(work, 0755))
	return &App{Path: bin, pollInterval: 5 * time.Millisecond, dotInterval: 100 * time.Millisecond}, work
}

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte("design"), 0644))
	return p
}

func TestConvert_Success(t *testing.T) {
	app, work := newFakeApp(t)
	in := writeInput(t, work, "Rose.pes")
	out := OutputPath(in, "dst")

	require.NoError(t, app.Convert(context.Background(), in, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "design", string(data))
}

func TestConvert_Failure(t *testing.T) {
	app, work := newFakeApp(t)
	in := writeInput(t, work, "fail.pes")

	err := app.Convert(context.Background(), in, OutputPath(in, "dst"))
	require.ErrorIs(t, err, domain.ErrConversionFailed)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode)
	assert.Contains(t, exitErr.Stderr, "boom")
}

func TestConvert_PluginMissing(t *testing.T) {
	app, work := newFakeApp(t)
	in := writeInput(t, work, "noplugin.pes")

	err := app.Convert(context.Background(), in, OutputPath(in, "dst"))
	assert.ErrorIs(t, err, domain.ErrPluginMissing)
	assert.Equal(t, domain.KindPluginMissing, domain.KindOf(err))
}

func TestConvert_PrintsProgress(t *testing.T) {
	app, work := newFakeApp(t)
	var progress bytes.Buffer
	app.Progress = &progress
	in := writeInput(t, work, "slow.pes")

	require.NoError(t, app.Convert(context.Background(), in, OutputPath(in, "dst")))
	assert.True(t, strings.HasPrefix(progress.String(), "."), "expected progress dots, got %q", progress.String())
	assert.True(t, strings.HasSuffix(progress.String(), "\n"))
}

func TestConvert_NotStartedAfterCancel(t *testing.T) {
	app, work := newFakeApp(t)
	in := writeInput(t, work, "rose.pes")
	out := OutputPath(in, "dst")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, app.Convert(ctx, in, out), context.Canceled)
	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}

func TestConvert_FinishesWhenCancelledMidway(t *testing.T) {
	app, work := newFakeApp(t)
	in := writeInput(t, work, "slow.pes")
	out := OutputPath(in, "dst")

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	require.NoError(t, app.Convert(ctx, in, out))
	_, err := os.Stat(out)
	assert.NoError(t, err)
}

func TestConvert_MissingExecutable(t *testing.T) {
	app := &App{Path: filepath.Join(t.TempDir(), "nope")}
	err := app.Convert(context.Background(), "in.pes", "out.dst")
	assert.ErrorIs(t, err, domain.ErrConversionFailed)
}

func TestConvert_RunsOutsideForegroundGroup(t *testing.T) {
	app, work := newFakeApp(t)
	in := writeInput(t, work, "slow.pes")
	out := OutputPath(in, "dst")

	done := make(chan error, 1)
	go func() { done <- app.Convert(context.Background(), in, out) }()

	var pid int
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(out + ".pid")
		if err != nil {
			return false
		}
		pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	// A Ctrl-C on the terminal goes to our process group; the converter
	// must lead a group of its own.
	pgid, err := unix.Getpgid(pid)
	require.NoError(t, err)
	assert.Equal(t, pid, pgid)
	assert.NotEqual(t, unix.Getpgrp(), pgid)

	require.NoError(t, <-done)
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestConvert_KilledBySignal(t *testing.T) {
	app, work := newFakeApp(t)
	in := writeInput(t, work, "killed.pes")

	err := app.Convert(context.Background(), in, OutputPath(in, "dst"))
	require.ErrorIs(t, err, domain.ErrConversionFailed)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, -1, exitErr.ExitCode)
	assert.Equal(t, "signal: terminated", exitErr.Status)
	assert.Contains(t, err.Error(), "(signal: terminated)")
}
