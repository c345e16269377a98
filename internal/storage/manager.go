package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/models"
)

// Kind selects one of the two backends.
type Kind int

// Backend kinds.
const (
	KindPrefs Kind = iota
	KindFile
)

// String returns the config name of the kind.
func (k Kind) String() string {
	if k == KindFile {
		return "file"
	}
	return "prefs"
}

// Other returns the kind a switch moves to.
func (k Kind) Other() Kind {
	if k == KindFile {
		return KindPrefs
	}
	return KindFile
}

// ParseKind accepts "prefs" or "file" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prefs":
		return KindPrefs, nil
	case "file":
		return KindFile, nil
	}
	return KindPrefs, fmt.Errorf("storage: unknown backend kind %q", s)
}

// Factory builds the backend for a kind.
type Factory func(ctx context.Context, kind Kind) (Backend, error)

// MigrationReport summarises one switch.
type MigrationReport struct {
	From     Kind
	To       Kind
	Label    string // display label of the backend switched to
	Total    int
	Migrated int
	Failed   int
}

// SwitchHook is invoked after a successful switch, outside the manager lock.
type SwitchHook func(from, to Kind, report MigrationReport)

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithStrictMigration makes Switch abort and keep the current backend when
// any note fails to migrate.
func WithStrictMigration(strict bool) ManagerOption {
	return func(m *Manager) { m.strict = strict }
}

// WithLogger sets the manager logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithSwitchHook registers a callback run after every switch.
func WithSwitchHook(h SwitchHook) ManagerOption {
	return func(m *Manager) { m.hooks = append(m.hooks, h) }
}

// Manager owns the active backend. Collaborator operations and Switch all run
// under one mutex, so a migration never interleaves with a mutation.
type Manager struct {
	factory Factory
	strict  bool
	logger  *slog.Logger
	hooks   []SwitchHook

	mu     sync.Mutex
	ready  bool
	kind   Kind
	active Backend
}

// NewManager returns an uninitialized manager.
func NewManager(factory Factory, opts ...ManagerOption) *Manager {
	m := &Manager{factory: factory, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize builds the backend for kind and makes it active. It must be
// called exactly once.
func (m *Manager) Initialize(ctx context.Context, kind Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ready {
		return apperr.ErrAlreadyInitialized
	}
	b, err := m.factory(ctx, kind)
	if err != nil {
		return fmt.Errorf("storage: open %s backend: %w", kind, err)
	}
	m.active, m.kind, m.ready = b, kind, true
	m.logger.Info("storage: initialized", slog.String("backend", kind.String()), slog.String("label", b.Name()))
	return nil
}

// mustActive panics when the manager is used before Initialize. Callers
// hold m.mu.
func (m *Manager) mustActive() Backend {
	if !m.ready {
		panic(apperr.ErrNotInitialized)
	}
	return m.active
}

// Active returns the current backend handle. It panics before Initialize.
func (m *Manager) Active() Backend {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mustActive()
}

// ActiveName returns the label of the active backend.
func (m *Manager) ActiveName() string {
	return m.Active().Name()
}

// Kind returns the active backend kind. It panics before Initialize.
func (m *Manager) Kind() Kind {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mustActive()
	return m.kind
}

// Current returns the active kind and its label, read together.
func (m *Manager) Current() (Kind, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.kind, m.mustActive().Name()
}

// Snapshot is the active backend and its notes as seen at one instant.
type Snapshot struct {
	Kind  Kind
	Label string
	Notes []models.Note
}

// Snapshot reads the notes together with the kind and label of the backend
// they came from.
func (m *Manager) Snapshot(ctx context.Context) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.mustActive()
	return Snapshot{Kind: m.kind, Label: b.Name(), Notes: b.GetAll(ctx)}
}

// Save stores n in the active backend.
func (m *Manager) Save(ctx context.Context, n models.Note) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mustActive().Save(ctx, n)
}

// List returns every note in the active backend.
func (m *Manager) List(ctx context.Context) []models.Note {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mustActive().GetAll(ctx)
}

// Delete removes the notes with id from the active backend.
func (m *Manager) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mustActive().DeleteOne(ctx, id)
}

// Replace swaps the notes with id for n in the active backend. The
// collection is rewritten once, so a failed write keeps the old note.
func (m *Manager) Replace(ctx context.Context, id string, n models.Note) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mustActive().Replace(ctx, id, n)
}

// Clear empties the active backend.
func (m *Manager) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mustActive().DeleteAll(ctx)
}

// Switch toggles to the other backend kind and copies every note into it,
// keeping order, IDs and timestamps. The previous medium is left untouched.
//
// By default migration is best-effort: failed saves are counted in the
// report and the switch still happens. In strict mode the first failure
// clears the new backend, keeps the current one active and returns
// apperr.ErrMigrationFailed.
func (m *Manager) Switch(ctx context.Context) (MigrationReport, error) {
	report, err := m.switchLocked(ctx)
	if err != nil {
		return report, err
	}
	for _, h := range m.hooks {
		h(report.From, report.To, report)
	}
	return report, nil
}

func (m *Manager) switchLocked(ctx context.Context) (MigrationReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.mustActive()
	from := m.kind
	to := from.Other()

	notes := current.GetAll(ctx)
	report := MigrationReport{From: from, To: to, Total: len(notes)}

	next, err := m.factory(ctx, to)
	if err != nil {
		return report, fmt.Errorf("storage: open %s backend: %w", to, err)
	}

	if err := next.DeleteAll(ctx); err != nil {
		if m.strict {
			return report, fmt.Errorf("%w: clear %s backend: %v", apperr.ErrMigrationFailed, to, err)
		}
		m.logger.Warn("storage: clear before migration failed",
			slog.String("backend", to.String()), slog.String("error", err.Error()))
	}

	for _, n := range notes {
		if err := next.Save(ctx, n); err != nil {
			report.Failed++
			if m.strict {
				if clearErr := next.DeleteAll(ctx); clearErr != nil {
					m.logger.Warn("storage: rollback clear failed",
						slog.String("backend", to.String()), slog.String("error", clearErr.Error()))
				}
				return report, fmt.Errorf("%w: save note %s: %v", apperr.ErrMigrationFailed, n.ID, err)
			}
			m.logger.Warn("storage: note not migrated",
				slog.String("id", n.ID), slog.String("error", err.Error()))
			continue
		}
		report.Migrated++
	}

	m.active, m.kind = next, to
	report.Label = next.Name()

	m.logger.Info("storage: switched backend",
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.Int("total", report.Total),
		slog.Int("migrated", report.Migrated),
		slog.Int("failed", report.Failed))
	return report, nil
}
