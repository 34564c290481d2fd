package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
)

type createVideoRequest struct {
	URL      string  `json:"url"`
	Category *string `json:"category"`
}

type createMessageRequest struct {
	Content  string `json:"content"`
	VideoID  int    `json:"video_id"`
	ParentID *int   `json:"parent_id,omitempty"`
}

// Videos lists videos, filtered by category when one is given.
func (a *APIService) Videos(ctx context.Context, s models.Session, category string) ([]models.Video, error) {
	endpoint := "/videos"
	if category = shared.NormalizeCategory(category); category != "" {
		endpoint += "?" + url.Values{"category": {category}}.Encode()
	}

	var videos []models.Video
	if err := a.do(ctx, http.MethodGet, endpoint, nil, s, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// Video retrieves a video and its transcription.
func (a *APIService) Video(ctx context.Context, s models.Session, id int) (*models.Video, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: video id must be positive", shared.ErrInvalidArgument)
	}

	var video models.Video
	if err := a.do(ctx, http.MethodGet, fmt.Sprintf("/videos/%d", id), nil, s, &video); err != nil {
		return nil, err
	}
	return &video, nil
}

// CreateVideo submits a video URL. The backend downloads and transcribes it before replying.
func (a *APIService) CreateVideo(ctx context.Context, s models.Session, videoURL, category string) (*models.VideoSubmission, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return nil, fmt.Errorf("%w: video URL is required", shared.ErrMissingArgument)
	}
	if _, err := url.ParseRequestURI(videoURL); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	body := createVideoRequest{URL: videoURL}
	if category = shared.NormalizeCategory(category); category != "" {
		body.Category = &category
	}

	var submission models.VideoSubmission
	if err := a.do(ctx, http.MethodPost, "/videos", body, s, &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

// Messages lists a video's discussion.
func (a *APIService) Messages(ctx context.Context, s models.Session, videoID int) ([]models.Message, error) {
	if videoID <= 0 {
		return nil, fmt.Errorf("%w: video id must be positive", shared.ErrInvalidArgument)
	}

	var messages []models.Message
	if err := a.do(ctx, http.MethodGet, fmt.Sprintf("/messages/%d", videoID), nil, s, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// PostMessage sends content to a video's discussion, optionally as a reply to parentID.
func (a *APIService) PostMessage(ctx context.Context, s models.Session, videoID int, content string, parentID *int) (*models.MessageExchange, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is empty", shared.ErrInvalidInput)
	}
	if videoID <= 0 {
		return nil, fmt.Errorf("%w: video id must be positive", shared.ErrInvalidArgument)
	}

	body := createMessageRequest{Content: content, VideoID: videoID, ParentID: parentID}

	var exchange models.MessageExchange
	if err := a.do(ctx, http.MethodPost, "/messages", body, s, &exchange); err != nil {
		return nil, err
	}
	return &exchange, nil
}
