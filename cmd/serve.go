package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/server"
	"github.com/desertthunder/vidtalk/internal/shared"
	"github.com/urfave/cli/v3"
)

const (
	demoEmail    = "demo@example.com"
	demoUsername = "demo"
	demoPassword = "demo"
)

// Serve runs the in-memory backend so the client can be tried without the real service.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	backend := server.NewStubBackend(shared.WithLogger(r.logger, "component", "server"))

	if cmd.Bool("seed") {
		seedBackend(backend)
		r.logger.Info("seeded demo account", "email", demoEmail, "password", demoPassword)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           backend,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("backend listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down", "requests", backend.Requests())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}

func seedBackend(backend *server.StubBackend) {
	userID := backend.AddUser(demoEmail, demoUsername, demoPassword)

	for _, v := range []models.Video{
		{
			YouTubeID:   "dQw4w9WgXcQ",
			Title:       "Never Gonna Give You Up",
			Description: "The official music video.",
			Category:    "Music",
		},
		{
			YouTubeID:   "aircAruvnKk",
			Title:       "But what is a neural network?",
			Description: "An introduction to neural networks.",
			Category:    "Education",
		},
	} {
		v.UserID = models.IntPtr(userID)
		v.Transcription = &models.Transcription{Content: "Transcript of " + v.Title}
		backend.AddVideo(v)
	}
}

// serveCommand starts a local backend for development
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run an in-memory backend for local testing",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address",
				Value: "127.0.0.1:8000",
			},
			&cli.BoolFlag{
				Name:  "seed",
				Usage: "Create a demo account and videos",
			},
		},
		Action: r.Serve,
	}
}
