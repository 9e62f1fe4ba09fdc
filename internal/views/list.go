package views

import (
	"context"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/ecn/internal/models"
)

// ListView is the state of an entity list: the last fetched collection plus delete and edit actions.
//
// The collection is a cache of the last successful fetch and the deletes applied to it since.
type ListView[T models.Entity] struct {
	mu sync.RWMutex

	client   Client[T]
	logger   *log.Logger
	messages Messages
	title    string
	editPath func(id string) string
	delPath  func(id string) string

	state State
	items []T
	err   error
}

// NewListView creates an idle list over client described by schema.
func NewListView[T models.Entity, F models.Form, C Client[T]](schema Schema[T, F], client C, logger *log.Logger) *ListView[T] {
	if logger == nil {
		logger = log.Default()
	}
	return &ListView[T]{
		client:   client,
		logger:   logger,
		messages: schema.Messages,
		title:    headline(schema.Plural),
		editPath: schema.editPath,
		delPath:  schema.deletePath,
	}
}

// Load fetches the full collection, replacing local state.
//
// An empty collection moves the view to [Empty]; a failure moves it to [Failed] and keeps no items.
func (v *ListView[T]) Load(ctx context.Context) error {
	v.mu.Lock()
	v.state = Loading
	v.err = nil
	v.mu.Unlock()

	items, err := v.client.List(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.logger.Error("failed to load list", "list", v.title, "error", err)
		v.state = Failed
		v.items = nil
		v.err = err
		return err
	}

	v.items = items
	v.settle()
	return nil
}

// settle picks Ready or Empty from the current items. Callers hold the write lock.
func (v *ListView[T]) settle() {
	if len(v.items) == 0 {
		v.state = Empty
	} else {
		v.state = Ready
	}
}

// Delete asks c to confirm, deletes id on the backend and removes every item with exactly that id.
//
// A declined prompt returns a nil notice and no error. On failure the items are left untouched.
func (v *ListView[T]) Delete(ctx context.Context, id string, c Confirmer) (*Notice, error) {
	if c != nil && !c.Confirm(ctx, DeletePrompt) {
		return nil, nil
	}

	if _, err := v.client.Delete(ctx, id); err != nil {
		v.logger.Error("failed to delete", "list", v.title, "id", id, "error", err)
		n := failure(v.messages.DeleteFailed, err)
		return &n, err
	}

	v.mu.Lock()
	v.items = slices.DeleteFunc(slices.Clone(v.items), func(item T) bool {
		return item.EntityID() == id
	})
	if v.state == Ready || v.state == Empty {
		v.settle()
	}
	v.mu.Unlock()

	n := v.messages.Deleted
	return &n, nil
}

// EditPath is the dashboard route of the edit form for id, or "" when the entity is not editable.
//
// Navigation only: the form view fetches the record itself.
func (v *ListView[T]) EditPath(id string) string {
	return v.editPath(id)
}

// DeletePath is the dashboard route of the delete confirmation for id.
func (v *ListView[T]) DeletePath(id string) string {
	return v.delPath(id)
}

// Find returns the loaded item with id.
func (v *ListView[T]) Find(id string) (T, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, item := range v.items {
		if item.EntityID() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Items returns a copy of the loaded collection.
func (v *ListView[T]) Items() []T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return slices.Clone(v.items)
}

func (v *ListView[T]) State() State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

func (v *ListView[T]) Err() error {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

func (v *ListView[T]) Title() string { return v.title }

// Message is the inline text for the current state: loading, not found or the load error.
func (v *ListView[T]) Message() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	switch v.state {
	case Loading:
		return v.messages.Loading
	case Empty:
		return v.messages.NotFound
	case Failed:
		return failure(Notice{Text: v.messages.LoadFailed}, v.err).Text
	default:
		return ""
	}
}
