package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotkeys/internal/shared"
	"github.com/desertthunder/spotkeys/internal/ui"
)

// TUI launches the interactive binding editor.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	config, configPath := r.configTarget(cmd)

	// Redirect logs to a file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(filepath.Join(os.TempDir(), "spotkeys-tui.log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, config, configPath, r.engine)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
