package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/desertthunder/vidtalk/internal/services"
	"github.com/desertthunder/vidtalk/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend with the current session
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.client.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	return r.writeResponse(resp, !cmd.Bool("json"))
}

// APIPost makes a direct POST request to the backend with the current session
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	r.logger.Info("POST request", "path", path)

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	resp, err := r.client.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	return r.writeResponse(resp, true)
}

// APIDump fetches every video and its discussion as raw JSON.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	pretty := cmd.Bool("pretty")
	save := cmd.String("save")

	type videoDump struct {
		Video    any `json:"video"`
		Messages any `json:"messages,omitempty"`
	}

	type DumpData struct {
		BaseURL string              `json:"base_url"`
		Videos  []videoDump         `json:"videos"`
		Errors  []map[string]string `json:"errors,omitempty"`
	}

	dump := DumpData{BaseURL: r.client.API().BaseURL(), Videos: []videoDump{}}

	fail := func(endpoint string, resp *services.APIResponse, err error) {
		var detail string
		if err != nil {
			detail = err.Error()
		} else {
			detail = fmt.Sprintf("status %d", resp.StatusCode)
		}
		dump.Errors = append(dump.Errors, map[string]string{"endpoint": endpoint, "error": detail})
		r.logger.Warn("dump request failed", "endpoint", endpoint, "error", detail)
	}

	r.logger.Info("dumping API state")

	resp, err := r.client.Get(ctx, "/videos")
	if err != nil || !resp.OK() {
		fail("/videos", resp, err)
		return r.writeJSON(dump, pretty)
	}

	var listed []struct {
		ID int `json:"id"`
	}
	if err := json.Unmarshal(resp.Body, &listed); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}

	for _, v := range listed {
		entry := videoDump{}

		endpoint := fmt.Sprintf("/videos/%d", v.ID)
		if resp, err := r.client.Get(ctx, endpoint); err == nil && resp.OK() {
			entry.Video = resp.JSONData
		} else {
			fail(endpoint, resp, err)
			continue
		}

		endpoint = fmt.Sprintf("/messages/%d", v.ID)
		if resp, err := r.client.Get(ctx, endpoint); err == nil && resp.OK() {
			entry.Messages = resp.JSONData
		} else {
			fail(endpoint, resp, err)
		}

		dump.Videos = append(dump.Videos, entry)
	}

	if save != "" {
		data, err := shared.MarshalJSON(dump, true)
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := os.WriteFile(save, data, 0644); err != nil {
			r.logger.Warn("failed to save dump", "error", err)
		} else {
			r.logger.Info("dump saved", "file", save)
		}
	}

	return r.writeJSON(dump, pretty)
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	if _, err := r.output.Write(resp.Body); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return r.writePlain("\n")
}

// apiCommand exposes raw requests against the backend
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the backend REST API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "GET a path and print the response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "POST a JSON body to a path",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
			{
				Name:  "dump",
				Usage: "Fetch every video and discussion as JSON",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print JSON output",
						Value: true,
					},
					&cli.StringFlag{
						Name:  "save",
						Usage: "Also write the dump to this file",
					},
				},
				Action: r.APIDump,
			},
		},
	}
}
