// package tasks implements cache sync and bulk export on top of the video service.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/services"
	"github.com/desertthunder/vidtalk/internal/shared"
	"golang.org/x/time/rate"
)

const (
	defaultWorkers   = 4
	maxWorkers       = 10
	defaultRateLimit = 5.0
)

// SyncEngine defines the long-running operations over the video service.
type SyncEngine interface {
	// Sync copies videos and their discussions into the local cache.
	Sync(ctx context.Context, progress chan<- ProgressUpdate, opts SyncOpts) (*SyncResult, error)

	// Export writes the given videos (or every listed video when ids is empty) to disk.
	Export(ctx context.Context, progress chan<- ProgressUpdate, ids []int, opts ExportOpts) (*models.BulkExportResult, error)
}

// VideoCacher persists fetched videos and discussions.
type VideoCacher interface {
	CacheVideo(video models.Video) error
	CacheDiscussion(videoID int, messages []models.Message) error
}

// RunRecorder keeps a history of sync runs.
type RunRecorder interface {
	Start(run *models.SyncRun) error
	Update(run *models.SyncRun) error
}

// SyncOpts configures [VideoEngine.Sync].
type SyncOpts struct {
	Category  string  // Only sync videos in this category
	Workers   int     // Concurrent workers (default: 4, max: 10)
	RateLimit float64 // Requests per second (default: 5)
}

// VideoSyncResult is the outcome of syncing one video.
type VideoSyncResult struct {
	VideoID  int
	Title    string
	Messages int
	Error    error
}

// SyncResult contains the outcome of a sync run.
type SyncResult struct {
	Run    *models.SyncRun
	Videos []VideoSyncResult
}

// VideoEngine implements [SyncEngine] over a [services.VideoService].
type VideoEngine struct {
	videos services.VideoService
	cache  VideoCacher
	runs   RunRecorder
	logger *log.Logger
	now    func() time.Time
}

var _ SyncEngine = (*VideoEngine)(nil)

// NewVideoEngine creates a new VideoEngine. cache and runs may be nil when only exporting.
func NewVideoEngine(videos services.VideoService, cache VideoCacher, runs RunRecorder, logger *log.Logger) *VideoEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &VideoEngine{
		videos: videos,
		cache:  cache,
		runs:   runs,
		logger: shared.WithLogger(logger, "component", "tasks"),
		now:    time.Now,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *VideoEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func workerCount(n int) int {
	switch {
	case n <= 0:
		return defaultWorkers
	case n > maxWorkers:
		return maxWorkers
	default:
		return n
	}
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		rps = defaultRateLimit
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// Sync lists videos and caches each one with its transcription and discussion.
//
// Per-video failures are collected in the result; the run is marked partial when any occur.
func (e *VideoEngine) Sync(ctx context.Context, progress chan<- ProgressUpdate, opts SyncOpts) (*SyncResult, error) {
	if e.videos == nil {
		return nil, fmt.Errorf("%w: video service not initialized", shared.ErrServiceUnavailable)
	}
	if e.cache == nil {
		return nil, fmt.Errorf("%w: cache not initialized", shared.ErrServiceUnavailable)
	}

	run := &models.SyncRun{Category: shared.NormalizeCategory(opts.Category), StartedAt: e.now()}
	e.startRun(run)
	result := &SyncResult{Run: run}

	e.sendProgress(progress, listVideosUpdate(run.Category))
	videos, err := e.videos.Videos(ctx, run.Category)
	if err != nil {
		err = fmt.Errorf("failed to list videos: %w", err)
		e.finishRun(run, err)
		return result, err
	}
	run.VideosTotal = len(videos)
	e.sendProgress(progress, foundVideosUpdate(videos))

	limiter := newLimiter(opts.RateLimit)
	jobs := make(chan models.Video, len(videos))
	results := make(chan VideoSyncResult, len(videos))

	var wg sync.WaitGroup
	for i := 0; i < workerCount(opts.Workers); i++ {
		wg.Add(1)
		go e.syncWorker(ctx, &wg, limiter, jobs, results)
	}

	for _, v := range videos {
		jobs <- v
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	for res := range results {
		result.Videos = append(result.Videos, res)
		if res.Error != nil {
			run.VideosFailed++
			e.logger.Warn("video sync failed", "video", res.VideoID, "error", res.Error)
		} else {
			run.VideosSynced++
		}
		e.sendProgress(progress, syncedVideoUpdate(len(result.Videos), run.VideosTotal, res))
	}

	slices.SortFunc(result.Videos, func(a, b VideoSyncResult) int { return a.VideoID - b.VideoID })

	if err := ctx.Err(); err != nil {
		err = fmt.Errorf("sync interrupted: %w", err)
		e.finishRun(run, err)
		return result, err
	}

	e.finishRun(run, nil)
	e.logger.Info("sync finished", "status", run.Status, "synced", run.VideosSynced, "failed", run.VideosFailed)
	return result, nil
}

func (e *VideoEngine) syncWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	jobs <-chan models.Video,
	results chan<- VideoSyncResult,
) {
	defer wg.Done()

	for v := range jobs {
		if ctx.Err() != nil {
			return
		}
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		results <- e.syncVideo(ctx, v)
	}
}

// syncVideo fetches the full video and its messages and stores both.
func (e *VideoEngine) syncVideo(ctx context.Context, listed models.Video) VideoSyncResult {
	res := VideoSyncResult{VideoID: listed.ID, Title: displayTitle(listed)}

	full, err := e.videos.Video(ctx, listed.ID)
	if err != nil {
		res.Error = fmt.Errorf("failed to fetch video: %w", err)
		return res
	}
	if err := e.cache.CacheVideo(*full); err != nil {
		res.Error = err
		return res
	}

	messages, err := e.videos.Messages(ctx, listed.ID)
	if err != nil {
		res.Error = fmt.Errorf("failed to fetch messages: %w", err)
		return res
	}
	if err := e.cache.CacheDiscussion(listed.ID, messages); err != nil {
		res.Error = err
		return res
	}

	res.Messages = len(messages)
	return res
}

func (e *VideoEngine) startRun(run *models.SyncRun) {
	run.Status = models.SyncRunning
	if e.runs == nil {
		return
	}
	if err := e.runs.Start(run); err != nil {
		e.logger.Warn("failed to record sync run", "error", err)
	}
}

func (e *VideoEngine) finishRun(run *models.SyncRun, err error) {
	run.Finish(e.now(), err)
	if e.runs == nil || run.ID == "" {
		return
	}
	if err := e.runs.Update(run); err != nil {
		e.logger.Warn("failed to update sync run", "run", run.ID, "error", err)
	}
}

func displayTitle(v models.Video) string {
	if v.Title == "" {
		return fmt.Sprintf("Video %d", v.ID)
	}
	return v.Title
}
