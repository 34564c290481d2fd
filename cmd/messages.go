package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/vidtalk/internal/models"
	"github.com/desertthunder/vidtalk/internal/shared"
	"github.com/urfave/cli/v3"
)

// MessagesList prints a video's discussion.
func (r *Runner) MessagesList(ctx context.Context, cmd *cli.Command) error {
	videoID, err := parseID(cmd.StringArg("video-id"))
	if err != nil {
		return err
	}

	messages, err := r.videos.Messages(ctx, videoID)
	if err != nil {
		return fmt.Errorf("failed to fetch messages: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(messages, true)
	}

	if len(messages) == 0 {
		return r.writePlain("No messages yet.\n")
	}

	rows := make([][]string, 0, len(messages))
	for _, m := range messages {
		parent := ""
		if m.ParentID != nil {
			parent = strconv.Itoa(*m.ParentID)
		}
		rows = append(rows, []string{
			strconv.Itoa(m.ID),
			m.Author(),
			parent,
			m.CreatedAt.Local().Format(time.DateTime),
			truncate(strings.Join(strings.Fields(m.Content), " "), 60),
		})
	}

	return r.writePlain("%s\n", renderTable(
		[]string{"ID", "Author", "Reply To", "Sent", "Message"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
	))
}

// MessagesSend posts to a video's discussion and prints the assistant's answer.
func (r *Runner) MessagesSend(ctx context.Context, cmd *cli.Command) error {
	videoID, err := parseID(cmd.StringArg("video-id"))
	if err != nil {
		return err
	}

	content := strings.TrimSpace(cmd.String("content"))
	if content == "" {
		return fmt.Errorf("%w: --content must not be empty", shared.ErrMissingArgument)
	}

	var parentID *int
	if parent := int(cmd.Int("parent")); parent > 0 {
		parentID = models.IntPtr(parent)
	}

	exchange, err := r.videos.PostMessage(ctx, videoID, content, parentID)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(exchange, true)
	}

	r.writePlain("%s (#%d): %s\n", exchange.UserMessage.Author(), exchange.UserMessage.ID, exchange.UserMessage.Content)
	return r.writePlain("%s (#%d): %s\n", exchange.AIResponse.Author(), exchange.AIResponse.ID, exchange.AIResponse.Content)
}

// messagesCommand reads and writes video discussions
func messagesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "messages",
		Usage: "Read and join a video's discussion",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List a video's messages",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "video-id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: r.MessagesList,
			},
			{
				Name:  "send",
				Usage: "Ask about a video; the assistant replies",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "video-id",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "content",
						Aliases:  []string{"m"},
						Usage:    "Message text",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "parent",
						Usage: "Reply to this message id",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output as JSON",
					},
				},
				Action: r.MessagesSend,
			},
		},
	}
}
