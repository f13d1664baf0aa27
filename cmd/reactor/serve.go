package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reactor/internal/config"
	"github.com/vango-dev/reactor/internal/devtools"
	rerrors "github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/internal/workload"
	"github.com/vango-dev/reactor/pkg/reactive"
)

func serveCmd(configPath *string) *cobra.Command {
	var (
		port int
		host string
		name string
		size int
		tick time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a workload behind the live graph inspector",
		Long: `Run a workload that writes on every tick and serve the inspector:

  /graph    JSON snapshot of the live graph
  /stats    runtime counters
  /metrics  Prometheus metrics
  /ws       live propagation events

Examples:
  reactor serve
  reactor serve --port=8080 --workload chain
  reactor serve --host=0.0.0.0 --tick 100ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			// Apply command-line overrides
			if port > 0 {
				cfg.Devtools.Port = port
			}
			if host != "" {
				cfg.Devtools.Host = host
			}
			if name != "" {
				cfg.Devtools.Workload = name
			}
			if tick > 0 {
				cfg.Devtools.Tick = tick.String()
			}
			if size > 0 {
				cfg.Bench.Size = size
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from the config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from the config)")
	cmd.Flags().StringVarP(&name, "workload", "w", "", "Workload to drive (default from the config)")
	cmd.Flags().IntVarP(&size, "size", "n", 0, "Graph size (default from the config)")
	cmd.Flags().DurationVarP(&tick, "tick", "t", 0, "Interval between writes (default from the config)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	w, ok := workload.Get(cfg.Devtools.Workload)
	if !ok {
		return rerrors.New("X001").WithDetail(fmt.Sprintf("%q is not a workload.", cfg.Devtools.Workload))
	}

	out := cmd.OutOrStdout()
	logger := cfg.Logger(cmd.ErrOrStderr())
	ins := newInstruments(cfg, true)
	hub := devtools.NewHub(0, logger)

	rt := ins.newRuntime(cfg, "devtools-"+w.Name, logger, hub)
	defer rt.Close()

	inst, err := reactive.RunInScope(rt.Root(), func() *workload.Instance {
		return w.Build(rt, cfg.Bench.Size)
	})
	if err != nil {
		return rerrors.FromError(err)
	}

	srv := devtools.NewServer(devtools.Options{
		Address:  cfg.DevtoolsAddress(),
		Hub:      hub,
		Gatherer: ins.registry,
		Logger:   logger,
	})

	printBanner(out)
	fmt.Fprintln(out, "  serve")
	fmt.Fprintln(out)
	success(out, "Inspecting %q (%d nodes) at http://%s", w.Name, inst.Nodes, cfg.DevtoolsAddress())
	info(out, "Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go hub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		err := srv.Start(ctx)
		cancel()
		errCh <- err
	}()

	// The runtime stays on this goroutine.
	if err := srv.Drive(ctx, rt, cfg.TickInterval(), inst.Step); err != nil {
		return err
	}

	if err := <-errCh; err != nil {
		return rerrors.New("X003").Wrap(err)
	}
	fmt.Fprintln(out, "\n  Shutting down...")
	return nil
}
