package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ecn/internal/formatter"
	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
	"github.com/desertthunder/ecn/internal/tasks"
	"github.com/desertthunder/ecn/internal/views"
)

// MembersList prints the member directory.
func (r *Runner) MembersList(ctx context.Context, cmd *cli.Command) error {
	session, err := r.session(ctx)
	if err != nil {
		return err
	}

	lv := views.NewListView(views.MemberSchema, r.members(session), r.logger)
	if err := lv.Load(ctx); err != nil {
		return fmt.Errorf("%s: %w", lv.Message(), err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(lv.Items(), cmd.Bool("pretty"))
	}
	if lv.State() == views.Empty {
		return r.writePlain("%s\n", lv.Message())
	}

	data, err := formatter.MembersToText(lv.Items())
	if err != nil {
		return err
	}
	r.writePlainHeader(lv.Title())
	_, err = r.output.Write(data)
	return err
}

// MembersGet prints one member.
func (r *Runner) MembersGet(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: member id", shared.ErrMissingArgument)
	}
	session, err := r.session(ctx)
	if err != nil {
		return err
	}

	m, err := r.members(session).Get(ctx, id)
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(m, cmd.Bool("pretty"))
	}

	r.writePlainHeader(m.Name)
	r.writePlain("ID:           %s\n", m.ID)
	r.writePlain("Father:       %s\n", m.FatherName)
	r.writePlain("Born:         %s\n", shared.FormatDate(m.DOB))
	r.writePlain("Address:      %s\n", m.Address)
	r.writePlain("Phone:        %s\n", m.Phone)
	if m.Email != "" {
		r.writePlain("Email:        %s\n", m.Email)
	}
	r.writePlain("Joined:       %s\n", shared.FormatDate(m.JoiningDate))
	r.writePlain("Status:       %s\n", m.Status)
	return r.writePlain("Role:         %s\n", m.Role)
}

// applyMemberFlags overwrites the fields whose flags were given.
func applyMemberFlags(cmd *cli.Command, f models.MemberForm) (models.MemberForm, error) {
	set := func(name string, dst *string) {
		if cmd.IsSet(name) {
			*dst = cmd.String(name)
		}
	}
	set("name", &f.Name)
	set("father-name", &f.FatherName)
	set("dob", &f.DOB)
	set("address", &f.Address)
	set("phone", &f.Phone)
	set("email", &f.Email)
	set("joining-date", &f.JoiningDate)
	if cmd.IsSet("status") {
		f.Status = models.MemberStatus(cmd.String("status"))
	}
	if cmd.IsSet("role") {
		f.Role = models.MemberRole(cmd.String("role"))
	}
	if cmd.IsSet("image") {
		a, err := models.ReadAttachment(cmd.String("image"))
		if err != nil {
			return f, err
		}
		f.ProfileImage = a
	}
	return f, nil
}

// MembersAdd creates a member from flags.
func (r *Runner) MembersAdd(ctx context.Context, cmd *cli.Command) error {
	session, err := r.session(ctx)
	if err != nil {
		return err
	}

	fv := views.NewAddForm(views.MemberSchema, r.members(session), r.logger)
	form, err := applyMemberFlags(cmd, fv.Form())
	if err != nil {
		return err
	}
	fv.Set(form)

	_, err = submitForm(ctx, r, fv)
	if !errors.Is(err, shared.ErrValidation) {
		r.record(session, "member", models.ActionCreate, "", err, form.Name)
	}
	return err
}

// MembersEdit loads a member, applies the given flags and saves it.
func (r *Runner) MembersEdit(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	session, err := r.session(ctx)
	if err != nil {
		return err
	}

	fv, err := views.NewEditForm(views.MemberSchema, r.members(session), id, r.logger)
	if err != nil {
		return err
	}
	if err := fv.Load(ctx); err != nil {
		if n := fv.Notice(); n != nil {
			return fmt.Errorf("%s: %w", n.Text, err)
		}
		return err
	}

	form, err := applyMemberFlags(cmd, fv.Form())
	if err != nil {
		return err
	}
	fv.Set(form)

	_, err = submitForm(ctx, r, fv)
	if !errors.Is(err, shared.ErrValidation) {
		r.record(session, "member", models.ActionUpdate, id, err, "")
	}
	return err
}

// MembersDelete deletes a member after confirmation.
func (r *Runner) MembersDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: member id", shared.ErrMissingArgument)
	}
	session, err := r.session(ctx)
	if err != nil {
		return err
	}
	return deleteRecord(ctx, r, session, views.MemberSchema, r.members(session), id, cmd.Bool("yes"))
}

// MembersImport adds one member per CSV row. Invalid rows are reported and never sent.
func (r *Runner) MembersImport(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: CSV file", shared.ErrMissingArgument)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := formatter.ParseMembersCSV(f)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return r.writePlain("No rows to import\n")
	}

	if cmd.Bool("dry-run") {
		invalid := 0
		for _, row := range rows {
			if err := row.Form.Validate(); err != nil {
				invalid++
				r.writePlain("✗ row %d %s: %v\n", row.Row, row.Label, err)
			}
		}
		return r.writePlain("%d valid, %d invalid of %d rows\n", len(rows)-invalid, invalid, len(rows))
	}

	session, err := r.session(ctx)
	if err != nil {
		return err
	}

	prog := make(chan tasks.ProgressUpdate, len(rows)+1)
	logged := make(chan struct{})
	go func() {
		defer close(logged)
		for u := range prog {
			r.logger.Debug(u.Message, "phase", u.Phase, "step", u.Step, "total", u.Total)
		}
	}()

	result, err := tasks.BulkImport(ctx, prog, r.members(session), rows, tasks.ImportOpts{
		NumWorkers: cmd.Int("workers"),
		RateLimit:  cmd.Float("rate"),
	})
	close(prog)
	<-logged
	if result == nil {
		return err
	}

	for _, res := range result.Results {
		switch {
		case res.Success:
			r.writePlain("✓ row %d %s\n", res.Row, res.Label)
			r.record(session, "member", models.ActionCreate, "", nil, res.Label)
		case errors.Is(res.Error, shared.ErrValidation):
			r.writePlain("✗ row %d %s: %v\n", res.Row, res.Label, res.Error)
		default:
			r.writePlain("✗ row %d %s: %v\n", res.Row, res.Label, res.Error)
			r.record(session, "member", models.ActionCreate, "", res.Error, res.Label)
		}
	}

	r.writePlainln("Imported %d of %d (%d invalid, %d failed)", result.Succeeded, result.Total, result.Invalid, result.Failed)
	if err != nil {
		return err
	}
	if result.Succeeded < result.Total {
		return fmt.Errorf("%w: %d of %d rows not imported", shared.ErrInvalidInput, result.Total-result.Succeeded, result.Total)
	}
	return nil
}

// MembersExport writes the directory as CSV, markdown, text or JSON.
func (r *Runner) MembersExport(ctx context.Context, cmd *cli.Command) error {
	format, err := exportFormat(cmd)
	if err != nil {
		return err
	}
	session, err := r.session(ctx)
	if err != nil {
		return err
	}

	lv := views.NewListView(views.MemberSchema, r.members(session), r.logger)
	if err := lv.Load(ctx); err != nil {
		return fmt.Errorf("%s: %w", lv.Message(), err)
	}

	data, err := formatter.Members(format, lv.Items())
	if err != nil {
		return err
	}

	out := cmd.String("output")
	if out == "" {
		_, err := r.output.Write(data)
		return err
	}
	if err := formatter.WriteExport(out, data); err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d members to %s\n", len(lv.Items()), out)
}
