package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ecn/internal/formatter"
	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
	"github.com/desertthunder/ecn/internal/views"
)

// BooksList prints the library.
func (r *Runner) BooksList(ctx context.Context, cmd *cli.Command) error {
	session, err := r.session(ctx)
	if err != nil {
		return err
	}

	lv := views.NewListView(views.BookSchema, r.books(session), r.logger)
	if err := lv.Load(ctx); err != nil {
		return fmt.Errorf("%s: %w", lv.Message(), err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(lv.Items(), cmd.Bool("pretty"))
	}
	if lv.State() == views.Empty {
		return r.writePlain("%s\n", lv.Message())
	}

	data, err := formatter.BooksToText(lv.Items())
	if err != nil {
		return err
	}
	r.writePlainHeader(lv.Title())
	_, err = r.output.Write(data)
	return err
}

// BooksAdd uploads a book. The cover and PDF are sent as multipart parts.
func (r *Runner) BooksAdd(ctx context.Context, cmd *cli.Command) error {
	session, err := r.session(ctx)
	if err != nil {
		return err
	}

	fv := views.NewAddForm(views.BookSchema, r.books(session), r.logger)
	form := fv.Form()
	form.Title = cmd.String("title")
	form.Author = cmd.String("author")
	form.Category = models.BookCategory(cmd.String("category"))
	form.PDFLink = cmd.String("pdf-link")

	for name, dst := range map[string]**models.Attachment{"cover": &form.CoverImage, "pdf": &form.PDFFile} {
		if p := cmd.String(name); p != "" {
			a, err := models.ReadAttachment(p)
			if err != nil {
				return err
			}
			*dst = a
		}
	}
	fv.Set(form)

	_, err = submitForm(ctx, r, fv)
	if !errors.Is(err, shared.ErrValidation) {
		r.record(session, "book", models.ActionCreate, "", err, form.Title)
	}
	return err
}

// BooksDelete deletes a book after confirmation.
func (r *Runner) BooksDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: book id", shared.ErrMissingArgument)
	}
	session, err := r.session(ctx)
	if err != nil {
		return err
	}
	return deleteRecord(ctx, r, session, views.BookSchema, r.books(session), id, cmd.Bool("yes"))
}

// BooksExport writes the catalogue, or with --covers a markdown shelf with downloaded covers.
func (r *Runner) BooksExport(ctx context.Context, cmd *cli.Command) error {
	format, err := exportFormat(cmd)
	if err != nil {
		return err
	}
	session, err := r.session(ctx)
	if err != nil {
		return err
	}

	lv := views.NewListView(views.BookSchema, r.books(session), r.logger)
	if err := lv.Load(ctx); err != nil {
		return fmt.Errorf("%s: %w", lv.Message(), err)
	}

	if dir := cmd.String("covers"); dir != "" {
		res, err := formatter.WriteShelfExport(ctx, lv.Items(), dir, r.api.BaseURL(), r.httpClient)
		if err != nil {
			return err
		}
		for _, w := range res.Warnings {
			r.logger.Warn("cover not downloaded", "detail", w)
		}
		return r.writePlain("✓ Wrote %s with %d of %d covers\n", res.Directory, res.Covers, len(lv.Items()))
	}

	data, err := formatter.Books(format, lv.Items())
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
	return r.writePlain("✓ Exported %d books to %s\n", len(lv.Items()), out)
}
