package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/TechnicallyShaun/stitch-sync/internal/catalog"
	"github.com/TechnicallyShaun/stitch-sync/internal/config"
	"github.com/TechnicallyShaun/stitch-sync/internal/console"
	"github.com/TechnicallyShaun/stitch-sync/internal/converter"
	"github.com/TechnicallyShaun/stitch-sync/internal/domain"
	"github.com/TechnicallyShaun/stitch-sync/internal/logging"
	"github.com/TechnicallyShaun/stitch-sync/internal/pidfile"
	"github.com/TechnicallyShaun/stitch-sync/internal/pipeline"
	"github.com/TechnicallyShaun/stitch-sync/internal/pipeline/stabilizer"
	"github.com/TechnicallyShaun/stitch-sync/internal/pipeline/transfer"
	"github.com/TechnicallyShaun/stitch-sync/internal/pipeline/watcher"
	"github.com/TechnicallyShaun/stitch-sync/internal/usb"
)

// Stabilization settings for designs still being written by a browser.
const (
	stabilizeInterval = 200 * time.Millisecond
	stabilizeChecks   = 2
)

// Replaced in tests.
var (
	findConverter = converter.FindApp
	openBrowser   = browser.OpenURL
)

type watchOptions struct {
	dir          string
	outputFormat string
	machine      string
	noBrowser    bool
}

// NewWatchCmd creates the watch command
func NewWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a directory and send new designs to the USB drive",
		Long: `Watch a directory for new embroidery designs.

Designs already in a format the machine reads are copied to the machine's
folder on a mounted USB drive. Other designs are converted with Inkscape and
the ink/stitch extension first.

Press 'q' to stop, or 'u' to unmount the USB drive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dir, "dir", "d", "", "directory to watch (default from config, then ~/Downloads)")
	cmd.Flags().StringVarP(&opts.outputFormat, "output-format", "o", "", "format to convert designs to")
	cmd.Flags().StringVarP(&opts.machine, "machine", "m", "", "target machine name")
	cmd.Flags().BoolVar(&opts.noBrowser, "no-browser", false, "do not open the Inkscape download page when it is missing")

	return cmd
}

func runWatch(cmd *cobra.Command, opts watchOptions) error {
	out := cmd.OutOrStdout()
	p := prompterFor(cmd)

	store, err := openConfig(cmd)
	if err != nil {
		return err
	}
	cfg, err := store.Config()
	if err != nil {
		return err
	}

	app, err := requireConverter(out, opts.noBrowser)
	if err != nil {
		return err
	}
	app.Progress = out

	machineName := opts.machine
	if machineName == "" {
		machineName = cfg.Machine
	}
	var machine *catalog.Machine
	if machineName != "" {
		cat, err := catalog.Default()
		if err != nil {
			return err
		}
		m, ok, err := cat.InteractiveResolve(machineName, p, out)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("machine '%s' not found (run 'stitch-sync machines' for the list)", machineName)
		}
		machine = &m
	}

	dir := config.ExpandTilde(opts.dir)
	if dir == "" {
		dir = cfg.WatchDir
	}
	req, err := buildRequest(dir, machine, opts.outputFormat, cfg.OutputFormat, app)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logging.LevelInfo
	}
	logConfig := logging.DefaultConfig()
	logConfig.MinLevel = level
	logger, err := logging.New(logConfig)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Close()

	pidPath, err := pidfile.DefaultPath()
	if err != nil {
		return err
	}
	pid := pidfile.New(pidPath)
	if err := pid.Acquire(); err != nil {
		if errors.Is(err, pidfile.ErrAlreadyRunning) {
			return fmt.Errorf("%w: %v", domain.ErrPreconditionFailed, err)
		}
		return err
	}
	defer func() {
		if err := pid.Release(); err != nil {
			logger.Error("failed to remove PID file", err)
		}
	}()

	enum := usb.NewEnumerator()
	printBanner(cmd.Context(), out, req, machine, enum)

	w, err := watcher.New()
	if err != nil {
		return fmt.Errorf("%w: create watcher: %v", domain.ErrPreconditionFailed, err)
	}
	defer w.Stop()

	usbLogger := logger.WithComponent("usb")
	cache := pipeline.NewChangeCache()
	dispatcher := pipeline.NewDispatcher(req, pipeline.DispatcherDeps{
		Converter: app,
		Targets:   usb.NewResolver(enum, p, out, usbLogger),
		Copier:    transfer.NewCopier(),
		Cache:     cache,
		Out:       out,
		Logger:    logger.WithComponent("dispatch"),
	})
	svc := pipeline.NewService(req, pipeline.ServiceDeps{
		Watcher:    w,
		Stabilizer: stabilizer.NewPollStabilizer(stabilizeInterval, stabilizeChecks),
		Cache:      cache,
		Dispatcher: dispatcher,
		Console:    console.Open(os.Stdin),
		Unmounter:  usb.NewUnmountFlow(enum, p, out, usbLogger),
		Out:        out,
		Logger:     logger.WithComponent("watch"),
	})

	return svc.Run(cmd.Context())
}

// requireConverter locates Inkscape. When it is missing the download page is
// opened and the session cannot start.
func requireConverter(out io.Writer, noBrowser bool) (*converter.App, error) {
	app, ok := findConverter()
	if !ok {
		fmt.Fprintf(out, "Inkscape not found. Please download and install it from %s\n", converter.InkscapeDownloadURL)
		if !noBrowser {
			fmt.Fprintln(out, "Opening download page in your browser...")
			if err := openBrowser(converter.InkscapeDownloadURL); err != nil {
				fmt.Fprintf(out, "Could not open a browser: %v\n", err)
			}
		}
		return nil, fmt.Errorf("%w: inkscape not found", domain.ErrPreconditionFailed)
	}
	if !app.HasPlugin {
		fmt.Fprintf(out, "Warning: ink/stitch extension not found. Please install it from %s\n", converter.PluginInstallURL)
	}
	return app, nil
}

// buildRequest settles the accepted and preferred formats. A machine's
// format list wins; the preferred format is the explicit flag, then the
// machine's first format, then the configured default.
func buildRequest(dir string, machine *catalog.Machine, flagFormat, configFormat string, app *converter.App) (domain.WatchRequest, error) {
	var accepted []string
	var usbPath string

	preferred := flagFormat
	if machine != nil {
		accepted = machine.Formats
		if machine.USBPath != nil {
			usbPath = *machine.USBPath
		}
		if preferred == "" && len(accepted) > 0 {
			preferred = accepted[0]
		}
	}
	if preferred == "" {
		preferred = configFormat
	}
	if preferred == "" {
		preferred = domain.DefaultFormat
	}
	if machine == nil || len(accepted) == 0 {
		accepted = []string{preferred}
	}

	preferred = converter.AdjustPreferredFormat(app, preferred)
	return domain.NewWatchRequest(dir, accepted, preferred, usbPath)
}

func printBanner(ctx context.Context, out io.Writer, req domain.WatchRequest, machine *catalog.Machine, enum usb.Enumerator) {
	if machine != nil {
		fmt.Fprintf(out, "Machine: %s\n", machine.Name)
	}
	fmt.Fprintf(out, "Watch directory: %s\n", req.Dir)
	if len(req.AcceptedFormats) == 1 {
		fmt.Fprintf(out, "  Files will be converted to %s\n", req.AcceptedFormats[0])
	} else {
		fmt.Fprintf(out, "  Files will be converted to one of: %s (preferred %s)\n",
			strings.Join(req.AcceptedFormats, ", "), req.PreferredFormat)
	}
	target := "root"
	if req.USBPath != "" {
		target = req.USBPath
	}
	fmt.Fprintf(out, "  Files will be copied into the %s directory on a mounted USB drive\n", target)

	if volumes, err := enum.List(ctx); err == nil {
		for _, v := range volumes {
			fmt.Fprintf(out, "USB drive: %s (%s)\n", v.Name, v.MountPoint)
		}
	}
	fmt.Fprintln(out)
}
