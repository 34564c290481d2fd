package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/vidtalk/internal/shared"
	"github.com/urfave/cli/v3"
)

type authStatus struct {
	Authenticated bool       `json:"authenticated"`
	Subject       string     `json:"subject,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Expired       bool       `json:"expired"`
	Store         string     `json:"store"`
}

// AuthLogin exchanges email and password for a session token and persists it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")

	r.logger.Info("logging in", "email", email)

	if !r.session.Login(ctx, email, password) {
		r.writePlain("✗ Login failed\n")
		return loginError(shared.ErrAuthFailed, r.session.Err())
	}

	return r.writePlain("✓ Logged in as %s\n", email)
}

// AuthRegister creates an account and signs in as it.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	username := cmd.String("username")
	password := cmd.String("password")

	r.logger.Info("registering", "email", email, "username", username)

	if !r.session.Register(ctx, email, username, password) {
		r.writePlain("✗ Registration failed\n")
		return loginError(shared.ErrRegistrationFailed, r.session.Err())
	}

	return r.writePlain("✓ Registered and logged in as %s\n", username)
}

// AuthLogout clears the stored token. Running it while signed out is not an error.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	wasAuthenticated := r.session.IsAuthenticated()
	r.session.Logout()

	if !wasAuthenticated {
		return r.writePlain("Already logged out\n")
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports the stored session without contacting the backend.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	status := authStatus{
		Authenticated: r.session.IsAuthenticated(),
		Store:         r.config.Session.Store,
	}

	if claims, ok := r.session.Claims(); ok {
		status.Subject = claims.Subject
		if !claims.ExpiresAt.IsZero() {
			expiresAt := claims.ExpiresAt.UTC()
			status.ExpiresAt = &expiresAt
			status.Expired = claims.Expired(time.Now())
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	colorize := shouldColorize(r.output)
	if !status.Authenticated {
		r.writePlain("%s\n", renderStatusLine("Session", statusWarn, "not logged in", colorize))
		return r.writePlain("%s\n", renderStatusLine("Store", statusInfo, status.Store, colorize))
	}

	switch {
	case status.Expired:
		r.writePlain("%s\n", renderStatusLine("Session", statusError, "token expired, log in again", colorize))
	default:
		r.writePlain("%s\n", renderStatusLine("Session", statusOK, "logged in", colorize))
	}
	if status.Subject != "" {
		r.writePlain("%s\n", renderStatusLine("User", statusInfo, status.Subject, colorize))
	}
	if status.ExpiresAt != nil {
		r.writePlain("%s\n", renderStatusLine("Expires", statusInfo, status.ExpiresAt.Format(time.RFC3339), colorize))
	}
	return r.writePlain("%s\n", renderStatusLine("Store", statusInfo, status.Store, colorize))
}

func loginError(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %w", sentinel, cause)
}

// authCommand manages the session token
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Log in, register and manage the stored session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with email and password",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("VIDTALK_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "register",
				Usage: "Create an account and log in",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Display name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Sources:  cli.EnvVars("VIDTALK_PASSWORD"),
						Required: true,
					},
				},
				Action: r.AuthRegister,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored token",
				Action: r.AuthLogout,
			},
			{
				Name:  "status",
				Usage: "Show the stored session",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: r.AuthStatus,
			},
		},
	}
}
