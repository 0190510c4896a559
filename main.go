package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"autoscreen/internal/config"
	"autoscreen/internal/display"
	"autoscreen/internal/layout"
	"autoscreen/internal/x11"
	"autoscreen/internal/xrandr"
)

type options struct {
	configPath string
	backend    string
	dryRun     bool
	list       bool
	watch      bool
	debug      bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", config.DefaultPath(), "path to the YAML config file")
	flag.StringVar(&opts.backend, "backend", "", "override the configured backend (xrandr or randr)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "print layout changes instead of applying them")
	flag.BoolVar(&opts.list, "list", false, "list outputs and their modes, then exit")
	flag.BoolVar(&opts.watch, "watch", false, "re-evaluate on every display change until interrupted")
	flag.BoolVar(&opts.debug, "debug", false, "enable verbose debug logging")
	flag.Parse()

	if err := run(opts); err != nil {
		logFatal(err)
	}
}

// backend is what the entry point needs from either implementation.
type backend interface {
	layout.Backend
	Outputs(ctx context.Context) ([]display.Output, error)
}

func run(opts options) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.backend != "" {
		cfg.Backend = opts.backend
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	config.Normalize(cfg)

	if opts.debug {
		log.Printf("debug: config %s", opts.configPath)
		log.Printf("debug: backend=%s external=%s internal=%s resolutions=%v timeout=%s",
			cfg.Backend, cfg.External, cfg.Internal, cfg.Resolutions, cfg.Timeout())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var b backend
	var conn *x11.Backend
	switch cfg.Backend {
	case config.BackendRandr:
		conn, err = x11.Open(cfg.Display, cfg.Timeout())
		if err != nil {
			return err
		}
		defer conn.Close()
		b = conn
	default:
		b = xrandr.NewClient(xrandr.NewRunner(cfg.Tool, cfg.Timeout()))
	}

	if opts.list {
		outs, err := b.Outputs(ctx)
		if err != nil {
			return err
		}
		return printOutputs(os.Stdout, outs)
	}

	var lb layout.Backend = b
	if opts.dryRun {
		lb = layout.DryRun{Backend: b, Out: os.Stdout}
	}

	if !opts.watch {
		_, err := layout.Run(ctx, lb, cfg, os.Stdout)
		return err
	}

	// Change notifications always come over RandR, whichever backend applies.
	if conn == nil {
		conn, err = x11.Open(cfg.Display, cfg.Timeout())
		if err != nil {
			return err
		}
		defer conn.Close()
	}
	return watch(ctx, conn, layout.NewWatcher(lb, cfg, os.Stdout), opts.debug)
}

// watch evaluates once, then again after every display change.
func watch(ctx context.Context, conn *x11.Backend, w *layout.Watcher, debug bool) error {
	step := func() {
		d, acted, err := w.Step(ctx)
		switch {
		case err != nil:
			log.Printf("watch: %v", err)
		case debug && !acted:
			log.Printf("debug: status unchanged")
		case debug:
			log.Printf("debug: applied %s", d.Action)
		}
	}

	step()
	err := conn.Watch(ctx, step)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// logFatal prints and exits.
func logFatal(err error) {
	log.Printf("fatal: %v", err)
	os.Exit(1)
}
