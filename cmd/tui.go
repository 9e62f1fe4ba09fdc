package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ecn/internal/auth"
	"github.com/desertthunder/ecn/internal/shared"
	"github.com/desertthunder/ecn/internal/ui"
)

// TUI launches the interactive terminal dashboard. It shares the command-line session.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log-file"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	fileLogger.SetLevel(r.logger.GetLevel())
	r.logger = fileLogger

	if err := r.stores(ctx); err != nil {
		return err
	}

	model := ui.NewModel(ctx, ui.Options{
		Store:      auth.NewStore(auth.CLIKey, r.sessions, fileLogger),
		Auth:       r.authSvc,
		API:        r.api.WithLogger(fileLogger),
		Activities: r.activities,
		Prefs:      ui.LoadPrefs(r.prefsPath),
		PrefsPath:  r.prefsPath,
		Logger:     fileLogger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
