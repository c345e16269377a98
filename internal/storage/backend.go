// Package storage implements the note persistence contract, its two
// interchangeable backends, and the manager that migrates between them.
package storage

import (
	"context"

	"github.com/starford/notebox/internal/models"
)

// Backend is the persistence contract every medium implements. The whole
// collection is stored as one blob, so each mutation reads, changes and
// rewrites it in full. A nil error means success; on error the previously
// persisted collection is left intact.
type Backend interface {
	// Save appends n to the collection. Duplicate IDs are not rejected.
	Save(ctx context.Context, n models.Note) error
	// GetAll returns the collection in insertion order. An absent, empty or
	// corrupt medium yields an empty slice, never an error.
	GetAll(ctx context.Context) []models.Note
	// DeleteOne removes every note whose ID is id. It reports false with a
	// nil error when nothing matched.
	DeleteOne(ctx context.Context, id string) (bool, error)
	// Replace removes every note whose ID is id and appends n in a single
	// rewrite. It reports false and writes nothing when id did not match.
	Replace(ctx context.Context, id string, n models.Note) (bool, error)
	// DeleteAll empties the collection. It is idempotent.
	DeleteAll(ctx context.Context) error
	// Name is a display label for the medium.
	Name() string
}

var (
	_ Backend = (*PrefsBackend)(nil)
	_ Backend = (*FileBackend)(nil)
)

// removeID returns notes without any entry whose ID is id, and whether
// anything was removed.
func removeID(notes []models.Note, id string) ([]models.Note, bool) {
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if n.ID != id {
			out = append(out, n)
		}
	}
	return out, len(out) != len(notes)
}
