package tasks

import (
	"fmt"

	"github.com/desertthunder/vidtalk/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ListVideos Phase = iota
	SyncVideos
	FetchVideos
	ExportVideos
)

func (p Phase) String() string {
	switch p {
	case ListVideos:
		return "list_videos"
	case SyncVideos:
		return "sync_videos"
	case FetchVideos:
		return "fetch_videos"
	case ExportVideos:
		return "export_videos"
	default:
		return ""
	}
}

func listVideosUpdate(category string) ProgressUpdate {
	msg := "Listing videos..."
	if category != "" {
		msg = fmt.Sprintf("Listing videos in %s...", category)
	}
	return ProgressUpdate{Phase: ListVideos, Step: 0, Total: 1, Message: msg}
}

func foundVideosUpdate(videos []models.Video) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListVideos,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d videos", len(videos)),
		Data:    videos,
	}
}

func syncedVideoUpdate(step, total int, res VideoSyncResult) ProgressUpdate {
	if res.Error != nil {
		return ProgressUpdate{
			Phase:   SyncVideos,
			Step:    step,
			Total:   total,
			Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error),
			Data:    res,
		}
	}
	return ProgressUpdate{
		Phase:   SyncVideos,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d messages)", step, total, res.Title, res.Messages),
		Data:    res,
	}
}

func fetchingVideoUpdate(step, total, id int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchVideos,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching video %d...", step, total, id),
	}
}

func exportCompletedUpdate(step, total int, title string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportVideos,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, title, filesCount),
	}
}

func exportFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportVideos,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}
