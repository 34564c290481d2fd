package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/vidtalk/internal/services"
	"github.com/desertthunder/vidtalk/internal/session"
	"github.com/desertthunder/vidtalk/internal/shared"
	"github.com/desertthunder/vidtalk/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if r.videos == nil || r.session == nil {
		return fmt.Errorf("%w: session not initialized", shared.ErrServiceUnavailable)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(cmd.String("log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if r.store != nil {
		rebound := r.videos == services.VideoService(r.client)
		r.session = session.NewManager(r.api, r.store, fileLogger)
		r.client = services.NewClient(r.api, r.session)
		if rebound {
			r.videos = r.client
		}
	}

	model := ui.NewModel(ctx, r.videos, r.session)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse and discuss videos interactively",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log",
				Usage: "Write logs here while the UI owns the terminal",
				Value: "./tmp/vidtalk-tui.log",
			},
		},
		Action: r.TUI,
	}
}
