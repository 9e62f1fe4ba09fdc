package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
)

// APIGet makes a direct authenticated GET request and prints the body.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	session, err := r.session(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)
	resp, err := r.api.WithToken(session.Token).Get(ctx, path)
	if err != nil {
		return err
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, cmd.Bool("pretty"))
	}
	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

type dumpData struct {
	API     string              `json:"api"`
	Members []models.Member     `json:"members"`
	Books   []models.Book       `json:"books"`
	Errors  []map[string]string `json:"errors,omitempty"`
}

// APIDump fetches every member and book into one document.
//
// A failing collection is reported in "errors" and the other is still dumped.
func (r *Runner) APIDump(ctx context.Context, cmd *cli.Command) error {
	session, err := r.session(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("dumping API state")

	dump := dumpData{API: r.api.BaseURL(), Members: []models.Member{}, Books: []models.Book{}}

	members := r.members(session)
	if items, err := members.List(ctx); err == nil {
		dump.Members = items
	} else {
		dump.Errors = append(dump.Errors, map[string]string{"endpoint": members.Routes().List, "error": err.Error()})
		r.logger.Warn("failed to fetch members", "error", err)
	}

	books := r.books(session)
	if items, err := books.List(ctx); err == nil {
		dump.Books = items
	} else {
		dump.Errors = append(dump.Errors, map[string]string{"endpoint": books.Routes().List, "error": err.Error()})
		r.logger.Warn("failed to fetch books", "error", err)
	}

	if save := cmd.String("save"); save != "" {
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

	return r.writeJSON(dump, cmd.Bool("pretty"))
}
