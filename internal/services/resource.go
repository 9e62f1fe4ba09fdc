package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
)

// Envelope is the backend's response wrapper: {"success": bool, "message": string, "data": T}.
type Envelope[T any] struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// Decode unwraps the envelope of resp. A bare JSON array is accepted as the data itself.
//
// A 2xx response with "success": false is reported as an [*APIError].
func Decode[T any](resp *APIResponse) (Envelope[T], error) {
	var env Envelope[T]
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 {
		return env, nil
	}

	if body[0] == '[' {
		if err := json.Unmarshal(body, &env.Data); err != nil {
			return env, fmt.Errorf("failed to decode response: %w", err)
		}
		return env, nil
	}

	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("failed to decode response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return env, &APIError{StatusCode: resp.StatusCode, Message: env.Message, Body: resp.Body}
	}
	return env, nil
}

// Result is the outcome of a successful mutation.
type Result struct {
	StatusCode int
	Message    string
}

// Resource is a typed client for one entity's REST routes.
type Resource[T models.Entity] struct {
	api      *APIService
	name     string
	routes   models.Routes
	notFound error
}

// NewResource creates a [Resource] named name (used in errors and logs) over routes.
func NewResource[T models.Entity](api *APIService, name string, routes models.Routes, notFound error) *Resource[T] {
	return &Resource[T]{api: api, name: name, routes: routes, notFound: notFound}
}

// NewMemberResource returns the members client.
func NewMemberResource(api *APIService) *Resource[models.Member] {
	return NewResource[models.Member](api, "member", models.MemberRoutes, shared.ErrMemberNotFound)
}

// NewBookResource returns the books client.
func NewBookResource(api *APIService) *Resource[models.Book] {
	return NewResource[models.Book](api, "book", models.BookRoutes, shared.ErrBookNotFound)
}

func (r *Resource[T]) Name() string { return r.name }

func (r *Resource[T]) Routes() models.Routes { return r.routes }

// WithToken returns a copy authenticated with token.
func (r *Resource[T]) WithToken(token string) *Resource[T] {
	cp := *r
	cp.api = r.api.WithToken(token)
	return &cp
}

func (r *Resource[T]) unsupported(op string) error {
	return fmt.Errorf("%w: %s %s", shared.ErrNotImplemented, op, r.name)
}

// List fetches the full collection.
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	if r.routes.List == "" {
		return nil, r.unsupported("list")
	}
	resp, err := r.api.Get(ctx, r.routes.List)
	if err != nil {
		return nil, err
	}
	env, err := Decode[[]T](resp)
	if err != nil {
		return nil, err
	}
	return env.Data, nil
}

// Get fetches one record by id.
func (r *Resource[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	if r.routes.Get == "" {
		return zero, r.unsupported("get")
	}

	resp, err := r.api.Get(ctx, r.routes.Path(r.routes.Get, id))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return zero, fmt.Errorf("%w: %s: %w", r.notFound, id, err)
		}
		return zero, err
	}

	env, err := Decode[*T](resp)
	if err != nil {
		return zero, err
	}
	if env.Data == nil {
		return zero, fmt.Errorf("%w: %s", r.notFound, id)
	}
	return *env.Data, nil
}

// Create submits form to the create route.
func (r *Resource[T]) Create(ctx context.Context, form models.Form, onProgress ProgressFunc) (Result, error) {
	if r.routes.Create == "" {
		return Result{}, r.unsupported("create")
	}
	return r.submit(ctx, http.MethodPost, r.routes.Create, form, onProgress)
}

// Update submits form to the update route of id.
func (r *Resource[T]) Update(ctx context.Context, id string, form models.Form, onProgress ProgressFunc) (Result, error) {
	if r.routes.Update == "" {
		return Result{}, r.unsupported("update")
	}
	return r.submit(ctx, http.MethodPut, r.routes.Path(r.routes.Update, id), form, onProgress)
}

// Delete removes the record with id.
func (r *Resource[T]) Delete(ctx context.Context, id string) (Result, error) {
	if r.routes.Delete == "" {
		return Result{}, r.unsupported("delete")
	}
	resp, err := r.api.Delete(ctx, r.routes.Path(r.routes.Delete, id))
	if err != nil {
		return Result{}, err
	}
	return result(resp)
}

// submit sends form as multipart when it carries attachments, else as a JSON body.
func (r *Resource[T]) submit(ctx context.Context, method, path string, form models.Form, onProgress ProgressFunc) (Result, error) {
	var (
		resp *APIResponse
		err  error
	)

	if len(form.Attachments()) > 0 {
		mp := MultipartFromForm(form)
		if method == http.MethodPut {
			resp, err = r.api.PutMultipart(ctx, path, mp, onProgress)
		} else {
			resp, err = r.api.PostMultipart(ctx, path, mp, onProgress)
		}
	} else {
		data, merr := json.Marshal(form.Body())
		if merr != nil {
			return Result{}, fmt.Errorf("failed to encode %s: %w", r.name, merr)
		}
		if method == http.MethodPut {
			resp, err = r.api.Put(ctx, path, data)
		} else {
			resp, err = r.api.Post(ctx, path, data)
		}
		if err == nil && onProgress != nil {
			onProgress(100)
		}
	}
	if err != nil {
		return Result{}, err
	}
	return result(resp)
}

func result(resp *APIResponse) (Result, error) {
	env, err := Decode[json.RawMessage](resp)
	if err != nil {
		return Result{}, err
	}
	return Result{StatusCode: resp.StatusCode, Message: env.Message}, nil
}
