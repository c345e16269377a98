// Package noteservice exposes the note operations consumed by the HTTP, MCP
// and CLI surfaces. Every call goes through the storage manager.
package noteservice

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/models"
	"github.com/starford/notebox/internal/storage"
)

// Event kinds passed to a Notifier.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
	EventCleared = "cleared"
)

// Notifier receives a callback after every successful mutation.
type Notifier interface {
	PublishNoteEvent(kind, id string)
}

// NoteItem is the list/detail representation of a note.
type NoteItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Preview   string `json:"preview"`
	Timestamp int64  `json:"timestamp"`
}

// BackendStatus describes the active backend, and after a toggle, the
// outcome of the migration.
type BackendStatus struct {
	Kind     string `json:"kind"`
	Label    string `json:"label"`
	Migrated int    `json:"migrated,omitempty"`
	Failed   int    `json:"failed,omitempty"`
}

// Service coordinates note operations against the active backend.
type Service struct {
	mgr    *storage.Manager
	notify Notifier
}

// NewService creates a new note service. notify may be nil.
func NewService(mgr *storage.Manager, notify Notifier) *Service {
	return &Service{mgr: mgr, notify: notify}
}

// Item converts a note for presentation.
func Item(n models.Note) NoteItem {
	return NoteItem{
		ID:        n.ID,
		Title:     n.DisplayTitle(),
		Content:   n.Content,
		Preview:   n.ContentPreview(models.DefaultPreviewLength),
		Timestamp: n.Timestamp,
	}
}

type noteInput struct {
	Title   string
	Content string
}

func (in *noteInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Required.Error("title is required")),
		validation.Field(&in.Content, validation.Required.Error("content is required")),
	); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return nil
}

// CreateAndSave validates input, builds a new note and saves it.
func (s *Service) CreateAndSave(ctx context.Context, title, content string) (models.Note, error) {
	in := noteInput{Title: title, Content: content}
	if err := in.normalize(); err != nil {
		return models.Note{}, err
	}
	n := models.NewNote(in.Title, in.Content)
	if err := s.mgr.Save(ctx, n); err != nil {
		return models.Note{}, err
	}
	s.publish(EventCreated, n.ID)
	return n, nil
}

// ListAll returns every note of the active backend in insertion order.
func (s *Service) ListAll(ctx context.Context) []models.Note {
	return s.mgr.List(ctx)
}

// Get returns the first note with id.
func (s *Service) Get(ctx context.Context, id string) (models.Note, error) {
	for _, n := range s.mgr.List(ctx) {
		if n.ID == id {
			return n, nil
		}
	}
	return models.Note{}, apperr.ErrNotFound
}

// Update replaces the note with id by a new note reusing the same id.
func (s *Service) Update(ctx context.Context, id, title, content string) (models.Note, error) {
	in := noteInput{Title: title, Content: content}
	if err := in.normalize(); err != nil {
		return models.Note{}, err
	}
	n := models.NoteWithID(id, in.Title, in.Content)
	ok, err := s.mgr.Replace(ctx, id, n)
	if err != nil {
		return models.Note{}, err
	}
	if !ok {
		return models.Note{}, apperr.ErrNotFound
	}
	s.publish(EventUpdated, id)
	return n, nil
}

// DeleteByID removes every note with id.
func (s *Service) DeleteByID(ctx context.Context, id string) error {
	ok, err := s.mgr.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrNotFound
	}
	s.publish(EventDeleted, id)
	return nil
}

// DeleteAll empties the active backend. The caller must confirm.
func (s *Service) DeleteAll(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return apperr.ErrConfirmationRequired
	}
	if err := s.mgr.Clear(ctx); err != nil {
		return err
	}
	s.publish(EventCleared, "")
	return nil
}

// CurrentBackendLabel returns the display label of the active backend.
func (s *Service) CurrentBackendLabel() string {
	return s.mgr.ActiveName()
}

// Backend returns the status of the active backend.
func (s *Service) Backend() BackendStatus {
	kind, label := s.mgr.Current()
	return BackendStatus{Kind: kind.String(), Label: label}
}

// ListWithBackend returns every note together with the status of the
// backend that holds them.
func (s *Service) ListWithBackend(ctx context.Context) ([]models.Note, BackendStatus) {
	snap := s.mgr.Snapshot(ctx)
	return snap.Notes, BackendStatus{Kind: snap.Kind.String(), Label: snap.Label}
}

// ToggleBackend switches to the other backend, migrating every note.
func (s *Service) ToggleBackend(ctx context.Context) (BackendStatus, error) {
	report, err := s.mgr.Switch(ctx)
	if err != nil {
		return BackendStatus{}, err
	}
	return BackendStatus{
		Kind:     report.To.String(),
		Label:    report.Label,
		Migrated: report.Migrated,
		Failed:   report.Failed,
	}, nil
}

func (s *Service) publish(kind, id string) {
	if s.notify != nil {
		s.notify.PublishNoteEvent(kind, id)
	}
}
