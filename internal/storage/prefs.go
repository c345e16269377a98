package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/notebox/internal/models"
	"github.com/starford/notebox/internal/prefs"
)

// NotesKey is the preference key holding the serialized collection.
const NotesKey = "notes_list"

// PrefsBackend keeps the whole collection as one JSON string under NotesKey
// in an application-scoped preference store.
type PrefsBackend struct {
	store  prefs.Store
	logger *slog.Logger
}

// NewPrefsBackend returns a backend over store. The store is owned by the
// caller and is not closed by the backend.
func NewPrefsBackend(store prefs.Store, logger *slog.Logger) *PrefsBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrefsBackend{store: store, logger: logger}
}

// Name implements Backend.
func (b *PrefsBackend) Name() string { return "SharedPreferences" }

func (b *PrefsBackend) load(ctx context.Context) ([]models.Note, error) {
	raw, ok, err := b.store.Get(ctx, NotesKey)
	if err != nil {
		return nil, fmt.Errorf("storage: prefs read: %w", err)
	}
	if !ok {
		return []models.Note{}, nil
	}
	return decode([]byte(raw))
}

func (b *PrefsBackend) write(ctx context.Context, notes []models.Note) error {
	data, err := encode(notes)
	if err != nil {
		return err
	}
	if err := b.store.Put(ctx, NotesKey, string(data)); err != nil {
		return fmt.Errorf("storage: prefs write: %w", err)
	}
	return nil
}

// GetAll implements Backend.
func (b *PrefsBackend) GetAll(ctx context.Context) []models.Note {
	notes, err := b.load(ctx)
	if err != nil {
		b.logger.Warn("prefs backend: read failed, treating as empty", slog.String("error", err.Error()))
		return []models.Note{}
	}
	return notes
}

// Save implements Backend.
func (b *PrefsBackend) Save(ctx context.Context, n models.Note) error {
	notes, err := b.load(ctx)
	if err != nil {
		return err
	}
	return b.write(ctx, append(notes, n))
}

// DeleteOne implements Backend.
func (b *PrefsBackend) DeleteOne(ctx context.Context, id string) (bool, error) {
	notes, err := b.load(ctx)
	if err != nil {
		return false, err
	}
	kept, removed := removeID(notes, id)
	if !removed {
		return false, nil
	}
	if err := b.write(ctx, kept); err != nil {
		return false, err
	}
	return true, nil
}

// Replace implements Backend.
func (b *PrefsBackend) Replace(ctx context.Context, id string, n models.Note) (bool, error) {
	notes, err := b.load(ctx)
	if err != nil {
		return false, err
	}
	kept, removed := removeID(notes, id)
	if !removed {
		return false, nil
	}
	if err := b.write(ctx, append(kept, n)); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteAll removes the key entirely.
func (b *PrefsBackend) DeleteAll(ctx context.Context) error {
	if err := b.store.Remove(ctx, NotesKey); err != nil {
		return fmt.Errorf("storage: prefs clear: %w", err)
	}
	return nil
}
