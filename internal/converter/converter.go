// Package converter drives Inkscape with the ink/stitch extension to turn a
// design in one embroidery format into another.
package converter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/TechnicallyShaun/stitch-sync/internal/domain"
	"github.com/TechnicallyShaun/stitch-sync/internal/naming"
)

// InkscapeDownloadURL is where users are sent when Inkscape is not installed.
const InkscapeDownloadURL = "https://inkscape.org/en/download/"

const (
	defaultPollInterval = 50 * time.Millisecond
	defaultDotInterval  = time.Second
)

// stderr phrases Inkscape prints when no extension can handle the input
var pluginMissingPhrases = []string{
	"extension not found",
	"unknown extension",
	"Could not detect file format",
}

// Formats ink/stitch can read.
var readFormats = toSet(
	"100", "10o", "bro", "dat", "dsb", "dst", "dsz", "emd", "exp", "exy",
	"fxy", "gt", "inb", "jef", "jpx", "ksm", "max", "mit", "new", "pcd",
	"pcm", "pcq", "pcs", "pec", "pes", "phb", "phc", "sew", "shv", "stc",
	"stx", "tap", "tbf", "txt", "u01", "vp3", "xxx", "zxy",
)

// Formats ink/stitch can write, plus the raster formats Inkscape exports itself.
var writeFormats = toSet(
	"csv", "dst", "exp", "jef", "pec", "pes", "svg", "txt", "u01", "vp3",
	"png", "jpg", "jpeg", "tiff", "bmp", "gif", "webp",
)

func toSet(items ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return m
}

// App is an installed Inkscape executable.
type App struct {
	Path string
	// HasPlugin reports whether the ink/stitch extension was found.
	HasPlugin bool
	// Progress receives a dot per second while a conversion runs. Nil discards.
	Progress io.Writer

	pollInterval time.Duration
	dotInterval  time.Duration
}

// ExitError is a failed conversion with the converter's diagnostic output.
type ExitError struct {
	// Kind is domain.ErrPluginMissing or domain.ErrConversionFailed.
	Kind     error
	ExitCode int
	// Status is how the process ended, e.g. "exit status 3" or
	// "signal: interrupt".
	Status   string
	Stderr   string
	Hint     string
}

func (e *ExitError) Error() string {
	msg := e.Kind.Error()
	switch {
	case e.Status != "":
		msg = fmt.Sprintf("%s (%s)", msg, e.Status)
	case e.ExitCode != 0:
		msg = fmt.Sprintf("%s (exit status %d)", msg, e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + firstLine(s)
	}
	if e.Hint != "" {
		msg += "; " + e.Hint
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Kind
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

// NewApp wraps the executable at path and probes for the extension.
func NewApp(path string) *App {
	return &App{
		Path:      path,
		HasPlugin: pluginInstalled(extensionDirs(path)),
	}
}

// FindApp locates Inkscape on PATH or in the platform's usual install
// locations.
func FindApp() (*App, bool) {
	path, ok := locate(exec.LookPath, candidatePaths())
	if !ok {
		return nil, false
	}
	return NewApp(path), true
}

func locate(lookPath func(string) (string, error), candidates []string) (string, bool) {
	if p, err := lookPath("inkscape"); err == nil {
		return p, true
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}

func pluginInstalled(dirs []string) bool {
	for _, d := range dirs {
		if info, err := os.Stat(d); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// CanRead reports whether the converter accepts ext as input.
func (a *App) CanRead(ext string) bool {
	_, ok := readFormats[domain.NormalizeExt(ext)]
	return ok
}

// CanWrite reports whether the converter can produce ext.
func (a *App) CanWrite(ext string) bool {
	_, ok := writeFormats[domain.NormalizeExt(ext)]
	return ok
}

// Convert runs `inkscape <in> --export-filename <out>` and blocks until it
// exits. A conversion that has started always runs to completion; ctx only
// prevents new conversions from starting.
func (a *App) Convert(ctx context.Context, in, out string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.Command(a.Path, in, "--export-filename", out)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Ctrl-C on the terminal must not reach the converter.
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %v", domain.ErrConversionFailed, a.Path, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	waitErr := a.wait(done)
	return classify(waitErr, stderr.String(), out)
}

func (a *App) wait(done <-chan error) error {
	poll := a.pollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	dotEvery := a.dotInterval
	if dotEvery <= 0 {
		dotEvery = defaultDotInterval
	}
	progress := a.Progress
	if progress == nil {
		progress = io.Discard
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	lastDot := time.Now()
	dots := 0
	for {
		select {
		case err := <-done:
			if dots > 0 {
				fmt.Fprintln(progress)
			}
			return err
		case now := <-ticker.C:
			if now.Sub(lastDot) >= dotEvery {
				fmt.Fprint(progress, ".")
				lastDot = now
				dots++
			}
		}
	}
}

func classify(waitErr error, stderr, out string) error {
	code, status := exitStatus(waitErr)
	for _, phrase := range pluginMissingPhrases {
		if strings.Contains(stderr, phrase) {
			return &ExitError{
				Kind:     domain.ErrPluginMissing,
				ExitCode: code,
				Status:   status,
				Stderr:   stderr,
				Hint:     "install ink/stitch from " + PluginInstallURL,
			}
		}
	}
	if waitErr != nil {
		return &ExitError{
			Kind:     domain.ErrConversionFailed,
			ExitCode: code,
			Status:   status,
			Stderr:   stderr,
		}
	}
	if _, err := os.Stat(out); err != nil {
		return &ExitError{
			Kind:   domain.ErrConversionFailed,
			Stderr: stderr,
			Hint:   "no output file was produced",
		}
	}
	return nil
}

// exitStatus returns the exit code and a description of how the process
// ended. A process killed by a signal has code -1.
func exitStatus(err error) (int, string) {
	if err == nil {
		return 0, ""
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), exitErr.String()
	}
	return -1, err.Error()
}

// OutputPath returns where a conversion of in to ext is written: the
// sanitized stem next to the input.
func OutputPath(in, ext string) string {
	return filepath.Join(filepath.Dir(in), naming.FileName(in, ext))
}

// AdjustPreferredFormat downgrades a preferred format the converter cannot
// write to its plain variant, e.g. "jef+" to "jef".
func AdjustPreferredFormat(app *App, preferred string) string {
	preferred = domain.NormalizeExt(preferred)
	if !strings.HasSuffix(preferred, "+") {
		return preferred
	}
	if app != nil && app.CanWrite(preferred) {
		return preferred
	}
	return strings.TrimSuffix(preferred, "+")
}
