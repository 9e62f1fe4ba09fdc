// Package authtest holds the behavioral contract every auth.Persister must satisfy.
package authtest

import (
	"context"
	"errors"
	"testing"

	"github.com/desertthunder/ecn/internal/auth"
	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/shared"
)

type CleanupFunc = func()

type PersisterFactory func(t *testing.T) (auth.Persister, CleanupFunc)

// RunPersister exercises load/save/delete semantics and a full Store round-trip.
func RunPersister(t *testing.T, newPersister PersisterFactory) {
	t.Helper()
	ctx := context.Background()

	p, cleanup := newPersister(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	key := "contract-" + shared.GenerateID()

	if _, err := p.Load(ctx, key); !errors.Is(err, shared.ErrSessionMissing) {
		t.Fatalf("Load missing: expected ErrSessionMissing, got %v", err)
	}

	session := models.Session{
		User:  &models.UserProfile{ID: "u1", Name: "Admin", Email: "admin@ecn.org", Role: "admin"},
		Token: "token-1",
	}
	if err := p.Save(ctx, key, session); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := p.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Token != "token-1" || got.User == nil || *got.User != *session.User {
		t.Fatalf("unexpected session: %+v", got)
	}

	// Overwrite semantics.
	session.Token = "token-2"
	if err := p.Save(ctx, key, session); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, err = p.Load(ctx, key)
	if err != nil || got.Token != "token-2" {
		t.Fatalf("expected overwritten session, got %+v err=%v", got, err)
	}

	if err := p.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := p.Load(ctx, key); !errors.Is(err, shared.ErrSessionMissing) {
		t.Fatalf("Load after delete: expected ErrSessionMissing, got %v", err)
	}
	if err := p.Delete(ctx, key); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}

	store := auth.NewStore(key, p, nil)
	store.Restore(ctx)
	if err := store.Login(ctx, *session.User, "token-3"); err != nil {
		t.Fatalf("Store.Login: %v", err)
	}

	restored := auth.NewStore(key, p, nil)
	restored.Restore(ctx)
	if restored.Decide() != auth.Render || restored.Current().Token != "token-3" {
		t.Fatalf("expected restored session, got %+v", restored.Current())
	}

	restored.Logout(ctx)
	if _, err := p.Load(ctx, key); !errors.Is(err, shared.ErrSessionMissing) {
		t.Fatalf("expected logout to remove record, got %v", err)
	}
}
