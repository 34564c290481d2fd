package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/vidtalk/internal/formatter"
	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/repositories"
	"github.com/desertthunder/vidtalk/internal/shared"
	"github.com/desertthunder/vidtalk/internal/tasks"
	"github.com/urfave/cli/v3"
)

// CacheSync copies videos and their discussions into the local cache.
func (r *Runner) CacheSync(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	workers := int(cmd.Int("workers"))
	if workers <= 0 {
		workers = r.config.Sync.Workers
	}

	cache := repositories.NewCacheAdapter(repositories.NewVideoRepository(db), repositories.NewMessageRepository(db))
	engine := tasks.NewVideoEngine(r.videos, cache, repositories.NewSyncRunRepository(db), r.logger)

	progress := make(chan tasks.ProgressUpdate, 16)
	done := r.followProgress(progress)

	result, err := engine.Sync(ctx, progress, tasks.SyncOpts{
		Category:  cmd.String("category"),
		Workers:   workers,
		RateLimit: cmd.Float("rate"),
	})
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	run := result.Run
	r.writePlainln("✓ Sync %s: %d synced, %d failed of %d", run.Status, run.VideosSynced, run.VideosFailed, run.VideosTotal)
	for _, v := range result.Videos {
		if v.Error != nil {
			r.writePlain("  ✗ %d %s: %v\n", v.VideoID, v.Title, v.Error)
		}
	}
	return nil
}

// CacheVideos lists cached videos without contacting the backend.
func (r *Runner) CacheVideos(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	repo := repositories.NewVideoRepository(db)

	var videos []models.Video
	if term := cmd.String("search"); term != "" {
		videos, err = repo.Search(term)
	} else {
		videos, err = repo.List(cmd.String("category"))
	}
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	return r.writeVideos(videos, cmd.Bool("json"))
}

// CacheShow renders a cached video and its discussion.
func (r *Runner) CacheShow(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	db, err := r.database()
	if err != nil {
		return err
	}

	video, err := repositories.NewVideoRepository(db).Get(id)
	if err != nil {
		if errors.Is(err, shared.ErrCacheMiss) {
			return fmt.Errorf("%w: video %d is not cached, run 'vidtalk cache sync'", shared.ErrCacheMiss, id)
		}
		return err
	}

	messages, err := repositories.NewMessageRepository(db).ListForVideo(id)
	if err != nil {
		return fmt.Errorf("failed to read cached messages: %w", err)
	}

	return r.writeExport(&models.VideoExport{Video: *video, Messages: messages}, cmd.String("format"))
}

// CacheStatus shows recent sync runs.
func (r *Runner) CacheStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	runs, err := repositories.NewSyncRunRepository(db).List(int(cmd.Int("limit")))
	if err != nil {
		return fmt.Errorf("failed to read sync history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, true)
	}

	if len(runs) == 0 {
		return r.writePlain("No sync runs yet. Run 'vidtalk cache sync' first.\n")
	}

	r.writePlainHeader("Sync history")

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		category := run.Category
		if category == "" {
			category = "all"
		}
		completed := "-"
		if run.CompletedAt != nil {
			completed = run.CompletedAt.Format(time.DateTime)
		}
		rows = append(rows, []string{
			strconv.Itoa(run.Sequence),
			string(run.Status),
			category,
			strconv.Itoa(run.VideosSynced),
			strconv.Itoa(run.VideosFailed),
			run.StartedAt.Format(time.DateTime),
			completed,
		})
	}

	return r.writePlain("%s\n", renderTable(
		[]string{"#", "Status", "Category", "Synced", "Failed", "Started", "Completed"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft},
	))
}

// CacheClear removes every cached video and discussion. Sync history is kept.
func (r *Runner) CacheClear(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	if err := repositories.NewVideoRepository(db).Purge(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return r.writePlain("✓ Cache cleared\n")
}

// cacheCommand handles the offline copy of videos and discussions
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Keep an offline copy of videos and discussions",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Fetch videos and discussions into the cache",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only sync this category",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Concurrent workers (default from config, max 10)",
					},
					&cli.FloatFlag{
						Name:  "rate",
						Usage: "Requests per second",
						Value: 5,
					},
				},
				Action: r.CacheSync,
			},
			{
				Name:  "videos",
				Usage: "List cached videos",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only list this category",
					},
					&cli.StringFlag{
						Name:  "search",
						Usage: "Match title or description",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: r.CacheVideos,
			},
			{
				Name:  "show",
				Usage: "Show a cached video and its discussion",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: txt, markdown, csv or json",
						Value: formatter.FormatText,
					},
				},
				Action: r.CacheShow,
			},
			{
				Name:  "status",
				Usage: "Show recent sync runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of runs to show",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: r.CacheStatus,
			},
			{
				Name:   "clear",
				Usage:  "Delete cached videos and discussions",
				Action: r.CacheClear,
			},
		},
	}
}
