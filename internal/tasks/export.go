package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/vidtalk/internal/formatter"
	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
)

// ManifestName is the summary file written at the root of a bulk export.
const ManifestName = "export_manifest.json"

// ExportOpts contains configuration for bulk video exports.
type ExportOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: vidtalk_export_{epoch})
	Category   string  // Category filter used when no ids are given
	Workers    int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Requests per second (default: 5)
	Thumbnails bool    // Download YouTube thumbnails for Markdown exports
}

type exportJob struct {
	export *models.VideoExport
}

// Export writes multiple videos concurrently with rate limiting and progress tracking.
//
// Fetching is rate limited on a single producer; writing fans out to a worker pool. A manifest
// summarizing every video is written last.
func (e *VideoEngine) Export(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	ids []int,
	opts ExportOpts,
) (*models.BulkExportResult, error) {
	if e.videos == nil {
		return nil, fmt.Errorf("%w: video service not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if !slices.Contains(formatter.Formats, opts.Format) {
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("vidtalk_export_%d", time.Now().Unix())
	}

	if len(ids) == 0 {
		e.sendProgress(progress, listVideosUpdate(opts.Category))
		videos, err := e.videos.Videos(ctx, opts.Category)
		if err != nil {
			return nil, fmt.Errorf("failed to list videos: %w", err)
		}
		e.sendProgress(progress, foundVideosUpdate(videos))
		for _, v := range videos {
			ids = append(ids, v.ID)
		}
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &models.BulkExportResult{
		Format:          opts.Format,
		TotalVideos:     len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]models.VideoExportResult, 0, len(ids)),
	}

	limiter := newLimiter(opts.RateLimit)
	jobs := make(chan exportJob, len(ids))
	results := make(chan models.VideoExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < workerCount(opts.Workers); i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, jobs, results, opts)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(jobs)
		for i, id := range ids {
			if ctx.Err() != nil {
				return
			}
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			e.sendProgress(progress, fetchingVideoUpdate(i+1, len(ids), id))

			export, err := e.fetchExport(ctx, id)
			if err != nil {
				results <- models.VideoExportResult{
					VideoID: id,
					Title:   fmt.Sprintf("Unknown (%d)", id),
					Error:   err,
				}
				continue
			}
			jobs <- exportJob{export: export}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success() {
			result.SuccessfulExports++
			e.sendProgress(progress, exportCompletedUpdate(completed, len(ids), res.Title, len(res.Files)))
		} else {
			result.FailedExports++
			e.sendProgress(progress, exportFailedUpdate(completed, len(ids), res.Title, res.Error))
		}
	}

	slices.SortFunc(result.Results, func(a, b models.VideoExportResult) int { return a.VideoID - b.VideoID })

	manifestPath := filepath.Join(opts.OutputDir, ManifestName)
	if err := formatter.WriteBulkExportManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("export interrupted: %w", err)
	}
	return result, nil
}

// fetchExport loads a video with its transcription and discussion.
func (e *VideoEngine) fetchExport(ctx context.Context, id int) (*models.VideoExport, error) {
	video, err := e.videos.Video(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video: %w", err)
	}
	messages, err := e.videos.Messages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	return &models.VideoExport{Video: *video, Messages: messages}, nil
}

// exportWorker writes exports from the jobs channel until it closes.
func (e *VideoEngine) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan exportJob,
	results chan<- models.VideoExportResult,
	opts ExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		if ctx.Err() != nil {
			return
		}

		res := models.VideoExportResult{
			VideoID: job.export.Video.ID,
			Title:   displayTitle(job.export.Video),
		}
		res.Files, res.Error = formatter.WriteExport(job.export, opts.Format, opts.OutputDir, opts.Thumbnails)
		results <- res
	}
}
