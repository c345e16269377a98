package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/models"
)

// media keeps one backend per kind alive across factory calls, the way the
// real factory reopens the same file and preference key.
type media struct {
	prefs Backend
	file  Backend
}

func newMedia(t *testing.T) *media {
	t.Helper()
	return &media{
		prefs: NewPrefsBackend(tempPrefs(t), nil),
		file:  tempFileBackend(t),
	}
}

func (m *media) factory(_ context.Context, k Kind) (Backend, error) {
	if k == KindFile {
		return m.file, nil
	}
	return m.prefs, nil
}

func newTestManager(t *testing.T, kind Kind, opts ...ManagerOption) (*Manager, *media) {
	t.Helper()
	md := newMedia(t)
	m := NewManager(md.factory, opts...)
	if err := m.Initialize(context.Background(), kind); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return m, md
}

// flakyBackend fails Save once failAfter successful saves happened.
type flakyBackend struct {
	Backend
	failAfter int
	saves     int
}

func (f *flakyBackend) Save(ctx context.Context, n models.Note) error {
	if f.saves >= f.failAfter {
		return errors.New("medium fault")
	}
	f.saves++
	return f.Backend.Save(ctx, n)
}

func TestKind(t *testing.T) {
	if KindPrefs.Other() != KindFile || KindFile.Other() != KindPrefs {
		t.Error("Other is not a toggle")
	}
	for _, s := range []string{"prefs", "FILE", " file "} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q): %v", s, err)
		}
	}
	if _, err := ParseKind("sqlite"); err == nil {
		t.Error("ParseKind should reject unknown kinds")
	}
	if KindFile.String() != "file" || KindPrefs.String() != "prefs" {
		t.Error("unexpected String")
	}
}

func TestManager_UninitializedPanics(t *testing.T) {
	m := NewManager(newMedia(t).factory)
	accessors := map[string]func(){
		"Active":     func() { m.Active() },
		"ActiveName": func() { m.ActiveName() },
		"List":       func() { m.List(context.Background()) },
		"Current":    func() { m.Current() },
		"Snapshot":   func() { m.Snapshot(context.Background()) },
		"Switch":     func() { _, _ = m.Switch(context.Background()) },
	}
	for name, fn := range accessors {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected panic")
				}
				if err, ok := r.(error); !ok || !errors.Is(err, apperr.ErrNotInitialized) {
					t.Errorf("panic value = %v", r)
				}
			}()
			fn()
		})
	}
}

func TestManager_InitializeOnce(t *testing.T) {
	m, _ := newTestManager(t, KindPrefs)
	if err := m.Initialize(context.Background(), KindFile); !errors.Is(err, apperr.ErrAlreadyInitialized) {
		t.Errorf("second Initialize = %v", err)
	}
	if m.Kind() != KindPrefs {
		t.Errorf("kind changed to %s", m.Kind())
	}
}

func TestManager_InitializeFactoryError(t *testing.T) {
	m := NewManager(func(context.Context, Kind) (Backend, error) {
		return nil, errors.New("boom")
	})
	if err := m.Initialize(context.Background(), KindFile); err == nil {
		t.Fatal("expected error")
	}
	defer func() {
		if recover() == nil {
			t.Error("manager should still be uninitialized")
		}
	}()
	m.Active()
}

func TestManager_ActiveName(t *testing.T) {
	m, _ := newTestManager(t, KindFile)
	if m.ActiveName() != "JSON File" {
		t.Errorf("ActiveName = %q", m.ActiveName())
	}
}

func TestManager_SwitchPreservesContent(t *testing.T) {
	ctx := context.Background()
	m, md := newTestManager(t, KindPrefs)
	src := []models.Note{note("1", "X", "Y", 1700000000000), note("2", "Z", "", 1700000000001)}
	for _, n := range src {
		if err := m.Save(ctx, n); err != nil {
			t.Fatal(err)
		}
	}

	report, err := m.Switch(ctx)
	if err != nil {
		t.Fatalf("Switch: %v", err)
	}
	if report.From != KindPrefs || report.To != KindFile || report.Total != 2 || report.Migrated != 2 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}
	if m.Kind() != KindFile || m.Active() != md.file {
		t.Fatalf("active backend not switched")
	}
	got := m.List(ctx)
	if len(got) != len(src) {
		t.Fatalf("len = %d", len(got))
	}
	for i := range src {
		if got[i] != src[i] {
			t.Errorf("note %d = %+v, want %+v (timestamp preserved)", i, got[i], src[i])
		}
	}
	// The old medium keeps its data.
	if n := len(md.prefs.GetAll(ctx)); n != 2 {
		t.Errorf("old backend len = %d, want 2", n)
	}
}

func TestManager_SwitchIsToggle(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, KindFile)
	_ = m.Save(ctx, note("1", "a", "b", 1))

	if _, err := m.Switch(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Switch(ctx); err != nil {
		t.Fatal(err)
	}
	if m.Kind() != KindFile {
		t.Errorf("kind = %s after two switches", m.Kind())
	}
	if got := m.List(ctx); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("List = %+v", got)
	}
}

func TestManager_SwitchClearsStaleTarget(t *testing.T) {
	ctx := context.Background()
	m, md := newTestManager(t, KindPrefs)
	_ = md.file.Save(ctx, note("stale", "old session", "", 1))
	_ = m.Save(ctx, note("fresh", "current", "", 2))

	if _, err := m.Switch(ctx); err != nil {
		t.Fatal(err)
	}
	got := m.List(ctx)
	if len(got) != 1 || got[0].ID != "fresh" {
		t.Errorf("List = %+v, want only fresh", got)
	}
}

func TestManager_NoCrossContamination(t *testing.T) {
	ctx := context.Background()
	m, md := newTestManager(t, KindPrefs)
	_ = m.Save(ctx, note("1", "a", "", 1))
	if _, err := m.Switch(ctx); err != nil {
		t.Fatal(err)
	}
	_ = m.Save(ctx, note("2", "new", "", 2))

	for _, n := range md.prefs.GetAll(ctx) {
		if n.ID == "2" {
			t.Fatal("write to new backend leaked into old backend")
		}
	}
}

func TestManager_PermissiveMigrationSwitchesWithPartialData(t *testing.T) {
	ctx := context.Background()
	md := newMedia(t)
	flaky := &flakyBackend{Backend: md.file, failAfter: 1}
	factory := func(_ context.Context, k Kind) (Backend, error) {
		if k == KindFile {
			return flaky, nil
		}
		return md.prefs, nil
	}

	var hooked MigrationReport
	m := NewManager(factory, WithSwitchHook(func(_, _ Kind, r MigrationReport) { hooked = r }))
	if err := m.Initialize(ctx, KindPrefs); err != nil {
		t.Fatal(err)
	}
	for i, id := range []string{"1", "2", "3"} {
		_ = m.Save(ctx, note(id, "t", "", int64(i)))
	}

	report, err := m.Switch(ctx)
	if err != nil {
		t.Fatalf("permissive Switch returned error: %v", err)
	}
	if report.Migrated != 1 || report.Failed != 2 {
		t.Errorf("report = %+v", report)
	}
	if hooked != report {
		t.Errorf("hook got %+v", hooked)
	}
	if m.Kind() != KindFile {
		t.Error("permissive mode should still switch")
	}
	if got := m.List(ctx); len(got) != 1 || got[0].ID != "1" {
		t.Errorf("List = %+v, want only the first note", got)
	}
}

func TestManager_StrictMigrationAborts(t *testing.T) {
	ctx := context.Background()
	md := newMedia(t)
	flaky := &flakyBackend{Backend: md.file, failAfter: 1}
	factory := func(_ context.Context, k Kind) (Backend, error) {
		if k == KindFile {
			return flaky, nil
		}
		return md.prefs, nil
	}

	hookCalled := false
	m := NewManager(factory,
		WithStrictMigration(true),
		WithSwitchHook(func(Kind, Kind, MigrationReport) { hookCalled = true }))
	if err := m.Initialize(ctx, KindPrefs); err != nil {
		t.Fatal(err)
	}
	_ = m.Save(ctx, note("1", "a", "", 1))
	_ = m.Save(ctx, note("2", "b", "", 2))

	_, err := m.Switch(ctx)
	if !errors.Is(err, apperr.ErrMigrationFailed) {
		t.Fatalf("Switch error = %v, want ErrMigrationFailed", err)
	}
	if m.Kind() != KindPrefs {
		t.Error("strict failure should keep the current backend")
	}
	if hookCalled {
		t.Error("hook should not run on a failed switch")
	}
	if n := len(m.List(ctx)); n != 2 {
		t.Errorf("current backend len = %d, want 2", n)
	}
	if n := len(md.file.GetAll(ctx)); n != 0 {
		t.Errorf("target backend should be rolled back, len = %d", n)
	}
}

func TestManager_SwitchFactoryError(t *testing.T) {
	ctx := context.Background()
	md := newMedia(t)
	factory := func(_ context.Context, k Kind) (Backend, error) {
		if k == KindFile {
			return nil, errors.New("no disk")
		}
		return md.prefs, nil
	}
	m := NewManager(factory)
	if err := m.Initialize(ctx, KindPrefs); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Switch(ctx); err == nil {
		t.Fatal("expected error")
	}
	if m.Kind() != KindPrefs {
		t.Error("kind changed after failed switch")
	}
}

func TestManager_ReplaceKeepsID(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, KindFile)
	_ = m.Save(ctx, note("1", "old", "x", 1))
	_ = m.Save(ctx, note("2", "other", "y", 2))

	ok, err := m.Replace(ctx, "1", note("1", "new", "z", 3))
	if err != nil || !ok {
		t.Fatalf("Replace: ok=%v err=%v", ok, err)
	}
	got := m.List(ctx)
	if len(got) != 2 || got[1].ID != "1" || got[1].Title != "new" {
		t.Errorf("List = %+v", got)
	}

	ok, err = m.Replace(ctx, "missing", note("missing", "x", "", 4))
	if err != nil || ok {
		t.Errorf("Replace missing: ok=%v err=%v", ok, err)
	}
	if n := len(m.List(ctx)); n != 2 {
		t.Errorf("Replace of missing id must not save, len = %d", n)
	}
}

func TestManager_Clear(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, KindPrefs)
	_ = m.Save(ctx, note("1", "a", "", 1))
	if err := m.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if n := len(m.List(ctx)); n != 0 {
		t.Errorf("len = %d", n)
	}
	if ok, _ := m.Delete(ctx, "1"); ok {
		t.Error("Delete after Clear should report nothing removed")
	}
}

func TestManager_ReplaceFailedWriteKeepsNote(t *testing.T) {
	ctx := context.Background()
	m, md := newTestManager(t, KindFile)
	if err := m.Save(ctx, note("1", "original", "x", 1)); err != nil {
		t.Fatal(err)
	}

	fb := md.file.(*FileBackend)
	fb.writeFile = func(string, []byte) error { return errors.New("medium fault") }

	ok, err := m.Replace(ctx, "1", note("1", "edited", "y", 2))
	if err == nil || ok {
		t.Fatalf("Replace: ok=%v err=%v, want fault", ok, err)
	}
	got := m.List(ctx)
	if len(got) != 1 || got[0].Title != "original" {
		t.Errorf("List after failed Replace = %+v", got)
	}
}

func TestManager_ReplaceIsSingleRewrite(t *testing.T) {
	ctx := context.Background()
	md := newMedia(t)
	flaky := &flakyBackend{Backend: md.file, failAfter: 1}
	m := NewManager(func(context.Context, Kind) (Backend, error) { return flaky, nil })
	if err := m.Initialize(ctx, KindFile); err != nil {
		t.Fatal(err)
	}
	if err := m.Save(ctx, note("1", "original", "", 1)); err != nil {
		t.Fatal(err)
	}

	ok, err := m.Replace(ctx, "1", note("1", "edited", "", 2))
	if err != nil || !ok {
		t.Fatalf("Replace: ok=%v err=%v", ok, err)
	}
	got := m.List(ctx)
	if len(got) != 1 || got[0].Title != "edited" {
		t.Errorf("List = %+v", got)
	}
}

func TestManager_ConcurrentSavesAndSwitches(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, KindPrefs)

	const writers, perWriter, switches = 4, 10, 6

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				id := fmt.Sprintf("%d-%d", w, i)
				if err := m.Save(ctx, note(id, id, "", int64(i))); err != nil {
					t.Errorf("Save(%s): %v", id, err)
				}
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < switches; i++ {
			if _, err := m.Switch(ctx); err != nil {
				t.Errorf("Switch: %v", err)
			}
			snap := m.Snapshot(ctx)
			if want := map[Kind]string{KindPrefs: "SharedPreferences", KindFile: "JSON File"}[snap.Kind]; snap.Label != want {
				t.Errorf("snapshot kind %v with label %q", snap.Kind, snap.Label)
			}
		}
	}()
	wg.Wait()

	got := m.List(ctx)
	if len(got) != writers*perWriter {
		t.Fatalf("final backend %s holds %d notes, want %d", m.ActiveName(), len(got), writers*perWriter)
	}
	seen := make(map[string]bool, len(got))
	for _, n := range got {
		seen[n.ID] = true
	}
	for w := 0; w < writers; w++ {
		for i := 0; i < perWriter; i++ {
			if id := fmt.Sprintf("%d-%d", w, i); !seen[id] {
				t.Errorf("note %s missing after concurrent switches", id)
			}
		}
	}
}

func TestManager_CurrentAndSnapshot(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t, KindPrefs)
	_ = m.Save(ctx, note("1", "a", "", 1))

	kind, label := m.Current()
	if kind != KindPrefs || label != "SharedPreferences" {
		t.Errorf("Current = %v, %q", kind, label)
	}

	report, err := m.Switch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if report.Label != "JSON File" {
		t.Errorf("report label = %q", report.Label)
	}
	snap := m.Snapshot(ctx)
	if snap.Kind != KindFile || snap.Label != "JSON File" || len(snap.Notes) != 1 {
		t.Errorf("Snapshot = %+v", snap)
	}
}
