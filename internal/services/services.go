// package services defines the HTTP client for the video discussion API
package services

import (
	"context"

	"github.com/desertthunder/vidtalk/internal/models"
)

// SessionReader exposes a read-only snapshot of the current session.
//
// [session.Manager] satisfies it; tests use a fixed [models.Session].
type SessionReader interface {
	State() models.Session
}

// StaticSession is a [SessionReader] that always returns the same session.
type StaticSession models.Session

// State returns the wrapped session.
func (s StaticSession) State() models.Session {
	return models.Session(s)
}

// VideoService is the authenticated surface consumed by the CLI, TUI and sync task.
type VideoService interface {
	// Videos lists submitted videos, optionally restricted to one category.
	Videos(ctx context.Context, category string) ([]models.Video, error)

	// Video retrieves a single video with its transcription.
	Video(ctx context.Context, id int) (*models.Video, error)

	// CreateVideo submits a URL for ingestion. An empty category lets the server suggest one.
	CreateVideo(ctx context.Context, url, category string) (*models.VideoSubmission, error)

	// Messages lists the discussion for a video in creation order.
	Messages(ctx context.Context, videoID int) ([]models.Message, error)

	// PostMessage adds a message to a video's discussion and returns it with the AI reply.
	PostMessage(ctx context.Context, videoID int, content string, parentID *int) (*models.MessageExchange, error)
}

var _ VideoService = (*Client)(nil)
