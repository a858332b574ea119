package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/RevCBH/medalert/internal/events"
	"github.com/RevCBH/medalert/internal/web"
)

// shutdownTimeout bounds graceful HTTP shutdown
const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command
type ServeOptions struct {
	Addr string
	JSON bool
}

// NewServeCmd creates the serve command.
// Usage: medalert serve [--addr ADDR] [--json]
func NewServeCmd(app *App) *cobra.Command {
	opts := ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the triage API server",
		Long: `Starts the HTTP API that classifies transcripts, keeps per-session
history and escalates high-risk advisories.

Lifecycle events are streamed to browsers at /events. With --json they
are also written to stdout, one JSON object per line.

Press Ctrl+C to stop the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return app.Serve(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "HTTP listen address (overrides config)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Write lifecycle events to stdout as JSON lines")

	return cmd
}

// Serve runs the API server until ctx is cancelled
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg.LogLevel, a.verbose, os.Stderr)

	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}

	rt, err := WireRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn().Err(err).Msg("Runtime shutdown incomplete")
		}
	}()

	rt.Events.Subscribe(events.LogHandler(events.LogConfig{Logger: &log.Logger, IncludePayload: a.verbose}))
	if events.IsJSONMode(opts.JSON, os.Stdout) {
		rt.Events.Subscribe(events.JSONEmitterHandler(events.NewJSONEmitter(os.Stdout)))
	}

	srv, err := web.New(web.Config{
		Addr:       cfg.Server.Addr,
		Sessions:   rt.Sessions,
		Classifier: rt.Classifier,
		Executor:   rt.Executor,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	rt.Events.Subscribe(srv.Hub().Handler())

	if err := srv.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	rt.StartBackground(gctx, g)

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("stop server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
