package testsupport

import (
	"testing"

	"github.com/LesCam/barstock-sub005/internal/config"
	"github.com/LesCam/barstock-sub005/internal/store"
)

// MustOpenStore opens the SQLite snapshot store for a test config and
// registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.SQLite {
	t.Helper()

	s, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open snapshot store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
