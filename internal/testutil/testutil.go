// Package testutil provides shared test helpers for setting up storage media
// and an initialized storage manager.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/starford/notebox/internal/prefs"
	"github.com/starford/notebox/internal/storage"
)

// TestPrefs creates a temporary SQLite preference store that is closed on cleanup.
func TestPrefs(t *testing.T) prefs.Store {
	t.Helper()
	s, err := prefs.OpenSQLite(filepath.Join(t.TempDir(), "prefs.db"), "NotesAppPrefs")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestManager returns a manager initialized with kind over a temporary
// preference store and data directory. The data directory is returned too.
func TestManager(t *testing.T, kind storage.Kind, opts ...storage.ManagerOption) (*storage.Manager, string) {
	t.Helper()
	store := TestPrefs(t)
	dataDir := t.TempDir()
	factory := func(_ context.Context, k storage.Kind) (storage.Backend, error) {
		if k == storage.KindFile {
			return storage.NewFileBackend(dataDir, storage.DefaultFileName, nil)
		}
		return storage.NewPrefsBackend(store, nil), nil
	}
	mgr := storage.NewManager(factory, opts...)
	if err := mgr.Initialize(context.Background(), kind); err != nil {
		t.Fatal(err)
	}
	return mgr, dataDir
}
