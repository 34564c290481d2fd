package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/vidtalk/internal/formatter"
	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
	"github.com/desertthunder/vidtalk/internal/tasks"
	"github.com/urfave/cli/v3"
)

// VideosList lists submitted videos, optionally in one category.
func (r *Runner) VideosList(ctx context.Context, cmd *cli.Command) error {
	category := cmd.String("category")

	r.logger.Debug("listing videos", "category", category)

	videos, err := r.videos.Videos(ctx, category)
	if err != nil {
		return fmt.Errorf("failed to list videos: %w", err)
	}

	return r.writeVideos(videos, cmd.Bool("json"))
}

// VideosAdd submits a YouTube URL for transcription.
func (r *Runner) VideosAdd(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}
	if shared.ExtractYouTubeID(url) == "" {
		r.logger.Warn("url does not look like a YouTube link", "url", url)
	}

	r.writePlain("Submitting %s (this can take a while)...\n", url)

	submission, err := r.videos.CreateVideo(ctx, url, cmd.String("category"))
	if err != nil {
		return fmt.Errorf("failed to add video: %w", err)
	}

	r.logger.Info("video submitted", "id", submission.VideoID)
	r.writePlain("✓ %s\n", submission.Message)
	return r.writePlain("  Video ID: %d\n", submission.VideoID)
}

// VideosShow prints a video with its transcription and discussion.
func (r *Runner) VideosShow(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	video, err := r.videos.Video(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch video: %w", err)
	}

	messages, err := r.videos.Messages(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch messages: %w", err)
	}

	return r.writeExport(&models.VideoExport{Video: *video, Messages: messages}, cmd.String("format"))
}

// VideosOpen opens the video on YouTube in the default browser.
func (r *Runner) VideosOpen(ctx context.Context, cmd *cli.Command) error {
	id, err := parseID(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	video, err := r.videos.Video(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to fetch video: %w", err)
	}

	url, err := shared.WatchURL(video.YouTubeID)
	if err != nil {
		return err
	}

	if cmd.Bool("print") {
		return r.writePlain("%s\n", url)
	}

	if err := shared.OpenBrowser(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return r.writePlain("✓ Opened %s\n", url)
}

// VideosExport writes videos and their discussions to disk.
func (r *Runner) VideosExport(ctx context.Context, cmd *cli.Command) error {
	ids := make([]int, 0, cmd.Args().Len())
	for _, arg := range cmd.Args().Slice() {
		id, err := parseID(arg)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}

	workers := int(cmd.Int("workers"))
	if workers <= 0 {
		workers = r.config.Sync.Workers
	}

	engine := tasks.NewVideoEngine(r.videos, nil, nil, r.logger)

	progress := make(chan tasks.ProgressUpdate, 16)
	done := r.followProgress(progress)

	result, err := engine.Export(ctx, progress, ids, tasks.ExportOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		Category:   cmd.String("category"),
		Workers:    workers,
		RateLimit:  cmd.Float("rate"),
		Thumbnails: cmd.Bool("thumbnails"),
	})
	close(progress)
	<-done

	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	r.writePlainln("✓ Exported %d of %d videos to %s", result.SuccessfulExports, result.TotalVideos, result.OutputDirectory)
	if result.ManifestPath != "" {
		r.writePlain("  Manifest: %s\n", result.ManifestPath)
	}
	for _, v := range result.Results {
		if !v.Success() {
			r.writePlain("  ✗ %d %s: %v\n", v.VideoID, v.Title, v.Error)
		}
	}
	return nil
}

func (r *Runner) writeVideos(videos []models.Video, asJSON bool) error {
	if asJSON {
		return r.writeJSON(videos, true)
	}

	if len(videos) == 0 {
		return r.writePlain("No videos found.\n")
	}

	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		added := "-"
		if !v.CreatedAt.IsZero() {
			added = v.CreatedAt.Local().Format(time.DateOnly)
		}
		rows = append(rows, []string{
			strconv.Itoa(v.ID),
			truncate(v.Title, 48),
			v.Category,
			added,
		})
	}

	return r.writePlain("%s\n", renderTable(
		[]string{"ID", "Title", "Category", "Added"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
}

func (r *Runner) writeExport(export *models.VideoExport, format string) error {
	data, err := formatter.Render(export, format)
	if err != nil {
		return err
	}

	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		return r.writePlain("\n")
	}
	return nil
}

func parseID(arg string) (int, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return 0, fmt.Errorf("%w: id", shared.ErrMissingArgument)
	}
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a valid id", shared.ErrInvalidArgument, arg)
	}
	return id, nil
}

// videosCommand browses and submits videos
func videosCommand(r *Runner) *cli.Command {
	idArg := func() []cli.Argument {
		return []cli.Argument{&cli.StringArg{Name: "id"}}
	}

	return &cli.Command{
		Name:  "videos",
		Usage: "Browse, submit and export videos",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List submitted videos",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Only list this category (" + strings.Join(models.Categories, ", ") + ")",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: r.VideosList,
			},
			{
				Name:  "add",
				Usage: "Submit a YouTube URL for transcription",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "url",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "Category to file the video under (suggested by the server when empty)",
					},
				},
				Action: r.VideosAdd,
			},
			{
				Name:      "show",
				Usage:     "Show a video with its transcription and discussion",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: txt, markdown, csv or json",
						Value: formatter.FormatText,
					},
				},
				Action: r.VideosShow,
			},
			{
				Name:      "open",
				Usage:     "Open a video on YouTube",
				Arguments: idArg(),
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "print",
						Usage: "Print the watch URL instead of opening it",
					},
				},
				Action: r.VideosOpen,
			},
			{
				Name:      "export",
				Usage:     "Export videos and discussions to files",
				ArgsUsage: "[video-id...]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: json, csv, markdown or txt",
						Value: formatter.FormatMarkdown,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory (default: vidtalk_export_{timestamp})",
					},
					&cli.StringFlag{
						Name:  "category",
						Usage: "Export every video in this category when no ids are given",
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
					&cli.BoolFlag{
						Name:  "thumbnails",
						Usage: "Download thumbnails for markdown exports",
					},
				},
				Action: r.VideosExport,
			},
		},
	}
}
