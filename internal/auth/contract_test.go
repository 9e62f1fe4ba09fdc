package auth_test

import (
	"testing"

	"github.com/desertthunder/ecn/internal/auth"
	"github.com/desertthunder/ecn/internal/auth/authtest"
)

func TestContract_MemoryPersister(t *testing.T) {
	authtest.RunPersister(t, func(t *testing.T) (auth.Persister, authtest.CleanupFunc) {
		t.Helper()
		return auth.NewMemoryPersister(), nil
	})
}
