package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
)

// Client implements [VideoService] by snapshotting the session for every call.
type Client struct {
	api     *APIService
	session SessionReader
}

// NewClient pairs api with the session that authorizes its calls.
func NewClient(api *APIService, session SessionReader) *Client {
	return &Client{api: api, session: session}
}

// API returns the underlying request builder.
func (c *Client) API() *APIService {
	return c.api
}

func (c *Client) authorized() (models.Session, error) {
	if c.session == nil {
		return models.Session{}, shared.ErrNotAuthenticated
	}
	s := c.session.State()
	if !s.IsAuthenticated() {
		return models.Session{}, fmt.Errorf("%w: log in first", shared.ErrNotAuthenticated)
	}
	return s, nil
}

func (c *Client) Videos(ctx context.Context, category string) ([]models.Video, error) {
	s, err := c.authorized()
	if err != nil {
		return nil, err
	}
	return c.api.Videos(ctx, s, category)
}

func (c *Client) Video(ctx context.Context, id int) (*models.Video, error) {
	s, err := c.authorized()
	if err != nil {
		return nil, err
	}
	return c.api.Video(ctx, s, id)
}

func (c *Client) CreateVideo(ctx context.Context, url, category string) (*models.VideoSubmission, error) {
	s, err := c.authorized()
	if err != nil {
		return nil, err
	}
	return c.api.CreateVideo(ctx, s, url, category)
}

func (c *Client) Messages(ctx context.Context, videoID int) ([]models.Message, error) {
	s, err := c.authorized()
	if err != nil {
		return nil, err
	}
	return c.api.Messages(ctx, s, videoID)
}

func (c *Client) PostMessage(ctx context.Context, videoID int, content string, parentID *int) (*models.MessageExchange, error) {
	s, err := c.authorized()
	if err != nil {
		return nil, err
	}
	return c.api.PostMessage(ctx, s, videoID, content, parentID)
}

// Get issues a raw GET with the current session, authenticated or not.
func (c *Client) Get(ctx context.Context, path string) (*APIResponse, error) {
	return c.api.Get(ctx, path, c.snapshot())
}

// Post issues a raw POST with the current session, authenticated or not.
func (c *Client) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return c.api.Post(ctx, path, data, c.snapshot())
}

func (c *Client) snapshot() models.Session {
	if c.session == nil {
		return models.Session{}
	}
	return c.session.State()
}
