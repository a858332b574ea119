package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/RevCBH/medalert/internal/cli/tui"
	"github.com/RevCBH/medalert/internal/session"
)

// NewConsoleCmd creates the interactive console command.
// Usage: medalert console [--session ID]
func NewConsoleCmd(app *App) *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Interactive triage console",
		Long: `Opens a terminal console bound to one session. Type a symptom
description and press enter to get an advisory. High-risk advisories
raise an alert and escalate exactly as the API does.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return fmt.Errorf("console requires a terminal; use 'medalert classify' for scripts")
			}
			return app.Console(cmd.Context(), sessionID)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", session.DefaultID, "Session to attach to")

	return cmd
}

// Console runs the TUI until the user quits
func (a *App) Console(ctx context.Context, sessionID string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg.LogLevel, a.verbose, os.Stderr)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, err := WireRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			log.Warn().Err(err).Msg("Runtime shutdown incomplete")
		}
	}()

	sess := rt.Sessions.Get(sessionID)
	model := tui.NewModel(sess, cfg.History.CompactSize)
	model.Rules = rt.Rules.Catalog().Len()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	rt.Events.Subscribe(tui.NewBridge(program, sess.ID()).Handler())

	// Route logs into the console's log pane
	logWriter := tui.NewLogWriter(program)
	defer logWriter.Close()
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: logWriter, NoColor: true, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	g, gctx := errgroup.WithContext(ctx)

	rt.StartBackground(gctx, g)

	_, runErr := program.Run()
	cancel()
	if err := g.Wait(); err != nil {
		return err
	}
	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("console: %w", runErr)
	}
	return nil
}
