package usb

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/TechnicallyShaun/stitch-sync/internal/domain"
	"github.com/TechnicallyShaun/stitch-sync/internal/logging"
	"github.com/TechnicallyShaun/stitch-sync/internal/prompt"
)

// Resolver finds the design folder for a machine on the mounted volumes.
type Resolver struct {
	enum   Enumerator
	p      prompt.Prompter
	out    io.Writer
	logger logging.Logger
}

// NewResolver creates a Resolver. A nil logger discards.
func NewResolver(enum Enumerator, p prompt.Prompter, out io.Writer, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Resolver{enum: enum, p: p, out: out, logger: logger}
}

// ResolveTarget returns the directory rel on the first volume that has it.
// When no volume has it, the user is offered to create it on the first
// volume. An empty rel means the volume root. It returns false when there is
// nowhere to copy to.
func (r *Resolver) ResolveTarget(ctx context.Context, rel string) (string, bool) {
	volumes, err := r.enum.List(ctx)
	if err != nil {
		err = fmt.Errorf("%w: list volumes: %v", domain.ErrDeviceError, err)
		fmt.Fprintf(r.out, "Could not list USB drives: %v\n", err)
		r.logger.Error("volume enumeration failed", err)
		return "", false
	}
	if len(volumes) == 0 {
		fmt.Fprintln(r.out, "No USB drives detected")
		return "", false
	}

	var matches []string
	for _, v := range volumes {
		dir := filepath.Join(v.MountPoint, filepath.FromSlash(rel))
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			matches = append(matches, dir)
		}
	}
	if len(matches) > 1 {
		fmt.Fprintf(r.out, "Multiple USB drives contain %s; using %s\n", displayRel(rel), matches[0])
		r.logger.Info("multiple target candidates", logging.Int("count", len(matches)), logging.String("target", matches[0]))
	}
	if len(matches) > 0 {
		return matches[0], true
	}

	first := volumes[0]
	dir := filepath.Join(first.MountPoint, filepath.FromSlash(rel))
	ok, err := prompt.YesNo(r.p, fmt.Sprintf("%s not found on %s. Create it?", displayRel(rel), volumeLabel(first)), true)
	if err != nil || !ok {
		return "", false
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		err = fmt.Errorf("%w: create %s: %v", domain.ErrDeviceError, dir, err)
		fmt.Fprintf(r.out, "Could not create %s: %v\n", dir, err)
		r.logger.Error("create target failed", err, logging.String("dir", dir))
		return "", false
	}
	r.logger.Info("created target directory", logging.String("dir", dir))
	return dir, true
}

func displayRel(rel string) string {
	if rel == "" {
		return "volume root"
	}
	return rel
}

func volumeLabel(v Volume) string {
	if v.Name != "" && v.Name != v.MountPoint {
		return fmt.Sprintf("%s (%s)", v.Name, v.MountPoint)
	}
	return v.MountPoint
}
