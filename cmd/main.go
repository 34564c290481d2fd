package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtalk/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := runner.app().Run(ctx, os.Args)
	stop()
	if closeErr := runner.Close(); closeErr != nil {
		logger.Warn("failed to close cache", "error", closeErr)
	}

	if err != nil {
		logger.Fatalf("application error: %v", err)
	}
}

// app builds the root command. Configuration is loaded in Before so --config is honored.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:    "vidtalk",
		Usage:   "Submit, browse and discuss videos with an AI assistant",
		Version: "0.1.0",
		Writer:  r.output,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to configuration file",
				Value:   r.configPath,
				Sources: cli.EnvVars("VIDTALK_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(r.logger, log.DebugLevel)
			}
			return ctx, r.init(cmd.String("config"))
		},
		Commands: r.register(),
	}
}
