package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ecn/internal/models"
)

// Activity prints the newest audit entries first.
func (r *Runner) Activity(ctx context.Context, cmd *cli.Command) error {
	if err := r.stores(ctx); err != nil {
		return err
	}

	entries, err := r.activities.List(map[string]any{
		"entity": cmd.String("entity"),
		"actor":  cmd.String("actor"),
		"limit":  cmd.Int("limit"),
	})
	if err != nil {
		return fmt.Errorf("failed to list activity: %w", err)
	}

	if cmd.Bool("json") {
		records := make([]models.ActivityRecord, len(entries))
		for i, a := range entries {
			records[i] = a.Record()
		}
		return r.writeJSON(records, cmd.Bool("pretty"))
	}

	if len(entries) == 0 {
		return r.writePlain("No activity recorded.\n")
	}
	r.writePlainHeader("Activity")
	for _, a := range entries {
		r.writePlain("%s  %s\n", a.CreatedAt().Local().Format("2006-01-02 15:04"), a.Summary())
	}
	return nil
}
