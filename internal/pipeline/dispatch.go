package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/TechnicallyShaun/stitch-sync/internal/converter"
	"github.com/TechnicallyShaun/stitch-sync/internal/domain"
	"github.com/TechnicallyShaun/stitch-sync/internal/logging"
	"github.com/TechnicallyShaun/stitch-sync/internal/naming"
)

// Dispatcher decides, per detected file, whether to copy it as-is or convert
// it first, and reports the outcome.
type Dispatcher struct {
	req     domain.WatchRequest
	conv    Converter
	targets TargetResolver
	copier  Copier
	cache   *ChangeCache
	out     io.Writer
	logger  logging.Logger

	pluginWarned bool
}

// DispatcherDeps are the collaborators of a Dispatcher. Converter may be nil,
// in which case only files already in an accepted format are handled.
type DispatcherDeps struct {
	Converter Converter
	Targets   TargetResolver
	Copier    Copier
	Cache     *ChangeCache
	Out       io.Writer
	Logger    logging.Logger
}

// NewDispatcher creates a Dispatcher for one watch session.
func NewDispatcher(req domain.WatchRequest, deps DispatcherDeps) *Dispatcher {
	if deps.Cache == nil {
		deps.Cache = NewChangeCache()
	}
	if deps.Out == nil {
		deps.Out = io.Discard
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	return &Dispatcher{
		req:     req,
		conv:    deps.Converter,
		targets: deps.Targets,
		copier:  deps.Copier,
		cache:   deps.Cache,
		out:     deps.Out,
		logger:  deps.Logger,
	}
}

// Dispatch handles one file. It never returns an error: failures are
// reported and come back as a Failed outcome. A cancelled ctx keeps a
// conversion from starting, but a file whose handling has begun is always
// finished: its target lookup and copy ignore cancellation.
func (d *Dispatcher) Dispatch(ctx context.Context, path string) domain.Outcome {
	ext := naming.Ext(path)
	if ext == "" {
		return d.finish(path, domain.Skipped(domain.ReasonNoExtension))
	}

	fmt.Fprintf(d.out, "New file detected: %s\n", filepath.Base(path))

	if d.req.Accepts(ext) {
		return d.finish(path, d.copyOnly(context.WithoutCancel(ctx), path))
	}
	if d.canConvert(ext) {
		return d.finish(path, d.convert(ctx, path))
	}
	return d.finish(path, domain.Skipped(domain.ReasonUnsupportedFormat))
}

func (d *Dispatcher) canConvert(ext string) bool {
	if d.conv == nil || ext == d.req.PreferredFormat {
		return false
	}
	return d.conv.CanRead(ext) && d.conv.CanWrite(d.req.PreferredFormat)
}

func (d *Dispatcher) copyOnly(ctx context.Context, path string) domain.Outcome {
	dest, ok := d.targets.ResolveTarget(ctx, d.req.USBPath)
	if !ok {
		return domain.Skipped(domain.ReasonNoDestination)
	}
	return d.copyTo(ctx, path, dest)
}

func (d *Dispatcher) convert(ctx context.Context, path string) domain.Outcome {
	out := converter.OutputPath(path, d.req.PreferredFormat)
	fmt.Fprintf(d.out, "  Converting to %s...\n", d.req.PreferredFormat)

	start := time.Now()
	err := d.conv.Convert(ctx, path, out)
	elapsed := time.Since(start)
	if err != nil {
		return domain.Failed(domain.KindOf(err), err)
	}
	// The output lands in the watched directory; record it so its own
	// notifications are not dispatched again.
	d.cache.Observe(out)

	fmt.Fprintf(d.out, "  Converted in %s: %s\n", elapsed.Round(100*time.Millisecond), filepath.Base(out))
	d.logger.Info("converted", logging.String("input", path), logging.String("output", out), logging.Duration("elapsed", elapsed))

	ctx = context.WithoutCancel(ctx)
	dest, ok := d.targets.ResolveTarget(ctx, d.req.USBPath)
	if !ok {
		return domain.Converted(out)
	}
	return d.copyTo(ctx, out, dest)
}

func (d *Dispatcher) copyTo(ctx context.Context, src, destDir string) domain.Outcome {
	res, err := d.copier.Copy(ctx, src, destDir)
	if err != nil {
		if !errors.Is(err, domain.ErrCopyFailed) {
			err = fmt.Errorf("%w: %v", domain.ErrCopyFailed, err)
		}
		return domain.Failed(domain.KindCopyFailed, err)
	}
	fmt.Fprintf(d.out, "  Copied to %s (%s)\n", res.Path, humanize.Bytes(uint64(res.Bytes)))
	return domain.Copied(res.Path)
}

func (d *Dispatcher) finish(path string, o domain.Outcome) domain.Outcome {
	fields := []logging.Field{
		logging.String("path", path),
		logging.String("outcome", o.Kind.String()),
	}

	switch o.Kind {
	case domain.OutcomeSkipped:
		if o.Reason != domain.ReasonNoExtension {
			fmt.Fprintf(d.out, "  Skipped: %s\n", o.Reason)
		}
		d.logger.Info("file skipped", append(fields, logging.String("reason", o.Reason))...)
	case domain.OutcomeFailed:
		d.reportFailure(o)
		d.logger.Error("file failed", o.Err, append(fields, logging.String("kind", o.ErrKind.String()))...)
	default:
		d.logger.Info("file handled", append(fields, logging.String("dest", o.Path))...)
	}
	return o
}

func (d *Dispatcher) reportFailure(o domain.Outcome) {
	if o.ErrKind == domain.KindPluginMissing {
		if d.pluginWarned {
			fmt.Fprintln(d.out, "  Error: ink/stitch extension missing, conversion skipped")
			return
		}
		d.pluginWarned = true
		fmt.Fprintf(d.out, "  Error: the ink/stitch extension is not installed or not working.\n")
		fmt.Fprintf(d.out, "  Install it from %s\n", converter.PluginInstallURL)
		return
	}
	fmt.Fprintf(d.out, "  Error (%s): %v\n", o.ErrKind, o.Err)
}
