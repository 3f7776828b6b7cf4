package usb

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/TechnicallyShaun/stitch-sync/internal/domain"
	"github.com/TechnicallyShaun/stitch-sync/internal/logging"
	"github.com/TechnicallyShaun/stitch-sync/internal/prompt"
)

// UnmountFlow ejects a volume chosen by the user. Failures are reported and
// never end the session.
type UnmountFlow struct {
	enum   Enumerator
	p      prompt.Prompter
	out    io.Writer
	logger logging.Logger
}

// NewUnmountFlow creates an UnmountFlow. A nil logger discards.
func NewUnmountFlow(enum Enumerator, p prompt.Prompter, out io.Writer, logger logging.Logger) *UnmountFlow {
	if logger == nil {
		logger = logging.Nop()
	}
	return &UnmountFlow{enum: enum, p: p, out: out, logger: logger}
}

// Run lists the volumes and ejects one: the only one, or the one picked
// from a numbered list.
func (f *UnmountFlow) Run(ctx context.Context) {
	volumes, err := f.enum.List(ctx)
	if err != nil {
		err = fmt.Errorf("%w: list volumes: %v", domain.ErrDeviceError, err)
		fmt.Fprintf(f.out, "Could not list USB drives: %v\n", err)
		f.logger.Error("volume enumeration failed", err)
		return
	}

	var target Volume
	switch len(volumes) {
	case 0:
		fmt.Fprintln(f.out, "No USB drives found.")
		return
	case 1:
		target = volumes[0]
	default:
		fmt.Fprintln(f.out, "Multiple USB drives found. Please choose one (or 'q' to quit):")
		labels := make([]string, len(volumes))
		for i, v := range volumes {
			labels[i] = volumeLabel(v)
		}
		idx, err := prompt.Choose(f.p, f.out, labels)
		if errors.Is(err, prompt.ErrCancelled) {
			return
		}
		if err != nil {
			f.logger.Error("volume selection failed", err)
			return
		}
		target = volumes[idx]
	}

	fmt.Fprintf(f.out, "Unmounting %s...\n", volumeLabel(target))
	if err := f.enum.Unmount(ctx, target); err != nil {
		err = fmt.Errorf("%w: unmount %s: %v", domain.ErrDeviceError, target.MountPoint, err)
		fmt.Fprintf(f.out, "Failed to unmount %s: %v\n", target.MountPoint, err)
		f.logger.Error("unmount failed", err, logging.String("volume", target.MountPoint))
		return
	}
	fmt.Fprintf(f.out, "%s unmounted. It is safe to remove the drive.\n", volumeLabel(target))
	f.logger.Info("volume unmounted", logging.String("volume", target.MountPoint))
}
