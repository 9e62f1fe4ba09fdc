package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/services"
	"github.com/desertthunder/ecn/internal/shared"
	"github.com/desertthunder/ecn/internal/tasks"
)

type Mode int

const (
	AddMode Mode = iota
	EditMode
)

func (m Mode) String() string {
	if m == EditMode {
		return "edit"
	}
	return "add"
}

// Outcome is what a successful submission leaves behind.
type Outcome struct {
	services.Result
	Notice   Notice
	Redirect string // set in edit mode: the list route to return to
}

// FormView is an add or edit form for one entity.
//
// States move idle → submitting → succeeded | failed and back to idle on the next [FormView.Set].
type FormView[T models.Entity, F models.Form] struct {
	mu sync.RWMutex

	schema Schema[T, F]
	client Client[T]
	logger *log.Logger
	mode   Mode
	id     string

	state  State
	form   F
	errs   *models.ValidationError
	err    error
	notice *Notice
}

// NewAddForm creates an add form holding the schema defaults.
func NewAddForm[T models.Entity, F models.Form, C Client[T]](schema Schema[T, F], client C, logger *log.Logger) *FormView[T, F] {
	if logger == nil {
		logger = log.Default()
	}
	return &FormView[T, F]{schema: schema, client: client, logger: logger, mode: AddMode, form: schema.Defaults()}
}

// NewEditForm creates an edit form for id. Call [FormView.Load] before rendering fields.
func NewEditForm[T models.Entity, F models.Form, C Client[T]](schema Schema[T, F], client C, id string, logger *log.Logger) (*FormView[T, F], error) {
	if !schema.Editable() {
		return nil, fmt.Errorf("%w: edit %s", shared.ErrNotImplemented, schema.Name)
	}
	if id == "" {
		return nil, fmt.Errorf("%w: %s id", shared.ErrMissingArgument, schema.Name)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &FormView[T, F]{
		schema: schema,
		client: client,
		logger: logger,
		mode:   EditMode,
		id:     id,
		state:  Loading,
		form:   schema.Defaults(),
	}, nil
}

// Load fetches the record being edited and prefills the fields. It is a no-op in add mode.
func (v *FormView[T, F]) Load(ctx context.Context) error {
	if v.mode != EditMode {
		return nil
	}

	v.mu.Lock()
	v.state = Loading
	v.mu.Unlock()

	entity, err := v.client.Get(ctx, v.id)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.logger.Error("failed to load record", "entity", v.schema.Name, "id", v.id, "error", err)
		n := failure(v.schema.Messages.FetchFailed, err)
		v.state = Failed
		v.err = err
		v.notice = &n
		return err
	}

	v.form = v.schema.Prefill(entity)
	v.state = Idle
	v.err = nil
	v.notice = nil
	return nil
}

// Set replaces the field values and returns the view to idle.
func (v *FormView[T, F]) Set(form F) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.form = form
	v.state = Idle
	v.errs = nil
	v.err = nil
	v.notice = nil
}

// Submit validates the fields and sends them to the backend.
//
// A validation failure returns a [*models.ValidationError] without any network call and leaves
// the view idle. On success add mode resets to defaults and edit mode sets [Outcome.Redirect].
// On failure the fields keep their values.
func (v *FormView[T, F]) Submit(ctx context.Context, onProgress services.ProgressFunc) (Outcome, error) {
	v.mu.Lock()
	if v.state == Submitting {
		v.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %s already submitting", shared.ErrInvalidInput, v.schema.Name)
	}
	if v.mode == EditMode && v.state == Loading {
		v.mu.Unlock()
		return Outcome{}, fmt.Errorf("%w: %s not loaded", shared.ErrInvalidInput, v.schema.Name)
	}

	form := v.form
	if err := form.Validate(); err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			v.errs = verr
		}
		v.state = Idle
		v.mu.Unlock()
		return Outcome{}, err
	}

	v.state = Submitting
	v.errs = nil
	v.err = nil
	v.notice = nil
	v.mu.Unlock()

	var (
		res services.Result
		err error
	)
	if v.mode == EditMode {
		res, err = v.client.Update(ctx, v.id, form, onProgress)
	} else {
		res, err = v.client.Create(ctx, form, onProgress)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if err != nil {
		v.logger.Error("failed to submit", "entity", v.schema.Name, "mode", v.mode, "error", err)
		fallback := v.schema.Messages.AddFailed
		if v.mode == EditMode {
			fallback = v.schema.Messages.UpdateFailed
		}
		n := failure(fallback, err)
		v.state = Failed
		v.err = err
		v.notice = &n
		return Outcome{}, err
	}

	out := Outcome{Result: res}
	if v.mode == EditMode {
		out.Notice = v.schema.Messages.Updated.withServerText(res.Message)
		out.Redirect = v.schema.ListPath
	} else {
		out.Notice = v.schema.Messages.Added
		v.form = v.schema.Defaults()
	}
	v.state = Succeeded
	v.notice = &out.Notice
	return out, nil
}

// Start runs [FormView.Submit] in the background, streaming upload progress.
func (v *FormView[T, F]) Start(ctx context.Context) *tasks.Submission {
	return tasks.Submit(ctx, func(ctx context.Context, onProgress services.ProgressFunc) (services.Result, error) {
		out, err := v.Submit(ctx, onProgress)
		return out.Result, err
	})
}

func (v *FormView[T, F]) Mode() Mode { return v.mode }

func (v *FormView[T, F]) ID() string { return v.id }

func (v *FormView[T, F]) Schema() Schema[T, F] { return v.schema }

// Heading is the form title, e.g. "Add Member" or "Edit Member".
func (v *FormView[T, F]) Heading() string {
	return headline(v.mode.String()) + " " + v.schema.Title
}

// Action is the dashboard route the form posts to.
func (v *FormView[T, F]) Action() string {
	if v.mode == EditMode {
		return v.schema.editPath(v.id)
	}
	return v.schema.AddPath
}

func (v *FormView[T, F]) Form() F {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.form
}

func (v *FormView[T, F]) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

func (v *FormView[T, F]) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// FieldErrors maps field names to the messages of the last rejected submission.
func (v *FormView[T, F]) FieldErrors() map[string]string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.errs == nil {
		return map[string]string{}
	}
	return v.errs.Messages()
}

// Notice is the last notification raised by the view, if any.
func (v *FormView[T, F]) Notice() *Notice {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.notice == nil {
		return nil
	}
	n := *v.notice
	return &n
}
