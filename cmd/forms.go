package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/services"
	"github.com/desertthunder/ecn/internal/tasks"
	"github.com/desertthunder/ecn/internal/views"
)

// submitForm runs fv in the background, drawing upload progress on one line.
//
// Validation failures are listed field by field and returned unchanged.
func submitForm[T models.Entity, F models.Form](ctx context.Context, r *Runner, fv *views.FormView[T, F]) (services.Result, error) {
	sub := fv.Start(ctx)

	drawn := false
	for percent := range sub.Progress() {
		r.writePlain("\r%s", tasks.UploadUpdate(percent, fv.Schema().Name).Message)
		drawn = true
	}
	if drawn {
		r.writePlain("\n")
	}

	res, err := sub.Wait()
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				r.writePlain("  ✗ %s: %s\n", f.Field, f.Message)
			}
			return res, err
		}
		if n := fv.Notice(); n != nil {
			return res, fmt.Errorf("%s: %w", n.Text, err)
		}
		return res, err
	}

	if n := fv.Notice(); n != nil {
		r.writePlain("✓ %s\n", n)
	}
	return res, nil
}

// confirmer prompts on the runner's input unless skip is set.
func (r *Runner) confirmer(skip bool) views.Confirmer {
	if skip {
		return nil
	}
	return views.ConfirmFunc(func(_ context.Context, p views.Prompt) bool {
		return r.confirm(p.Title + " " + p.Text)
	})
}

// deleteRecord deletes id through a list view and records the outcome.
func deleteRecord[T models.Entity, F models.Form](ctx context.Context, r *Runner, session models.Session, schema views.Schema[T, F], client views.Client[T], id string, skip bool) error {
	lv := views.NewListView(schema, client, r.logger)
	n, err := lv.Delete(ctx, id, r.confirmer(skip))
	if n == nil && err == nil {
		return r.writePlain("Cancelled\n")
	}

	r.record(session, schema.Name, models.ActionDelete, id, err, "")
	if err != nil {
		return fmt.Errorf("%s: %w", n.Text, err)
	}
	return r.writePlain("✓ %s\n", n)
}
