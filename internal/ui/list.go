package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/vidtalk/internal/models"
)

var _ list.Item = videoItem{}

// videoItem wraps [models.Video] to implement [list.Item].
type videoItem struct {
	video models.Video
}

func (i videoItem) FilterValue() string { return i.video.Title + " " + i.video.Category }
func (i videoItem) Title() string       { return videoTitle(i.video) }
func (i videoItem) Description() string {
	parts := make([]string, 0, 2)
	if i.video.Category != "" {
		parts = append(parts, i.video.Category)
	}
	if d := strings.TrimSpace(i.video.Description); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, " • ")
}

func videoItems(videos []models.Video) []list.Item {
	items := make([]list.Item, len(videos))
	for i, v := range videos {
		items[i] = videoItem{video: v}
	}
	return items
}

func videoTitle(v models.Video) string {
	if strings.TrimSpace(v.Title) == "" {
		return fmt.Sprintf("Video %d", v.ID)
	}
	return v.Title
}
