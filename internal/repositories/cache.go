package repositories

import (
	"fmt"

	"github.com/desertthunder/vidtalk/internal/models"
)

// CacheAdapter implements tasks.VideoCacher over the video and message repositories.
type CacheAdapter struct {
	videos   *VideoRepository
	messages *MessageRepository
}

// NewCacheAdapter creates a new CacheAdapter with the given repositories
func NewCacheAdapter(videos *VideoRepository, messages *MessageRepository) *CacheAdapter {
	return &CacheAdapter{videos: videos, messages: messages}
}

// CacheVideo stores video, keeping a previously cached transcription if video has none.
func (a *CacheAdapter) CacheVideo(video models.Video) error {
	if err := a.videos.Upsert(&video); err != nil {
		return fmt.Errorf("failed to cache video %d: %w", video.ID, err)
	}
	return nil
}

// CacheDiscussion replaces the cached messages for videoID.
func (a *CacheAdapter) CacheDiscussion(videoID int, messages []models.Message) error {
	if err := a.messages.ReplaceForVideo(videoID, messages); err != nil {
		return fmt.Errorf("failed to cache discussion for video %d: %w", videoID, err)
	}
	return nil
}
