package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/desertthunder/bitesized/internal/services"
	"github.com/desertthunder/bitesized/internal/shared"
	"github.com/urfave/cli/v3"
)

// APIGet makes a direct GET request to the backend, authenticated when a backend session is active.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.StringArg("path"))
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.client.Get(ctx, path, r.sessions.Session().BackendToken())
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// APIPost makes a direct POST request with a JSON body to the backend.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := strings.TrimSpace(cmd.StringArg("path"))
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	data := cmd.String("data")
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.client.Post(ctx, path, []byte(data), r.sessions.Session().BackendToken())
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	return r.writeResponse(resp, true)
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}
	return r.writePlain("%s\n", resp.Body)
}
