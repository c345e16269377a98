package noteservice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/starford/notebox/internal/apperr"
	"github.com/starford/notebox/internal/storage"
	"github.com/starford/notebox/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) PublishNoteEvent(kind, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+id)
}

func testService(t *testing.T) (*Service, *recorder) {
	t.Helper()
	mgr, _ := testutil.TestManager(t, storage.KindPrefs)
	rec := &recorder{}
	return NewService(mgr, rec), rec
}

func TestCreateAndSave(t *testing.T) {
	ctx := context.Background()
	svc, rec := testService(t)

	n, err := svc.CreateAndSave(ctx, "  Groceries ", " milk\n")
	if err != nil {
		t.Fatalf("CreateAndSave: %v", err)
	}
	if n.Title != "Groceries" || n.Content != "milk" {
		t.Errorf("input not trimmed: %+v", n)
	}
	if n.ID == "" || n.Timestamp == 0 {
		t.Errorf("missing id/timestamp: %+v", n)
	}
	list := svc.ListAll(ctx)
	if len(list) != 1 || list[0] != n {
		t.Errorf("ListAll = %+v", list)
	}
	if len(rec.events) != 1 || rec.events[0] != "created:"+n.ID {
		t.Errorf("events = %v", rec.events)
	}
}

func TestCreateAndSave_Validation(t *testing.T) {
	ctx := context.Background()
	svc, rec := testService(t)

	cases := []struct{ title, content, wantMsg string }{
		{"", "body", "title"},
		{"   ", "body", "title"},
		{"title", "", "content"},
		{"title", " \t ", "content"},
	}
	for _, tc := range cases {
		_, err := svc.CreateAndSave(ctx, tc.title, tc.content)
		if !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("(%q,%q): err = %v, want ErrInvalidInput", tc.title, tc.content, err)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantMsg) {
			t.Errorf("(%q,%q): err = %v, want mention of %s", tc.title, tc.content, err, tc.wantMsg)
		}
	}
	if n := len(svc.ListAll(ctx)); n != 0 {
		t.Errorf("invalid notes were saved: %d", n)
	}
	if len(rec.events) != 0 {
		t.Errorf("events = %v", rec.events)
	}
}

func TestGetAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc, rec := testService(t)

	a, _ := svc.CreateAndSave(ctx, "A", "first")
	b, _ := svc.CreateAndSave(ctx, "B", "second")

	got, err := svc.Get(ctx, a.ID)
	if err != nil || got != a {
		t.Fatalf("Get = %+v, %v", got, err)
	}

	updated, err := svc.Update(ctx, a.ID, "A2", "changed")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.ID != a.ID || updated.Title != "A2" {
		t.Errorf("updated = %+v", updated)
	}
	list := svc.ListAll(ctx)
	if len(list) != 2 || list[0].ID != b.ID || list[1].ID != a.ID {
		t.Errorf("update should re-append under the same id: %+v", list)
	}
	if rec.events[len(rec.events)-1] != "updated:"+a.ID {
		t.Errorf("events = %v", rec.events)
	}

	if _, err := svc.Update(ctx, "nope", "x", "y"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Update missing = %v", err)
	}
	if _, err := svc.Update(ctx, a.ID, "", "y"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("Update invalid = %v", err)
	}
	if _, err := svc.Get(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get missing = %v", err)
	}
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)
	n, _ := svc.CreateAndSave(ctx, "A", "x")

	if err := svc.DeleteByID(ctx, n.ID); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if err := svc.DeleteByID(ctx, n.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second DeleteByID = %v, want ErrNotFound", err)
	}
}

func TestDeleteAll_RequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	svc, rec := testService(t)
	_, _ = svc.CreateAndSave(ctx, "A", "x")

	if err := svc.DeleteAll(ctx, false); !errors.Is(err, apperr.ErrConfirmationRequired) {
		t.Fatalf("unconfirmed DeleteAll = %v", err)
	}
	if n := len(svc.ListAll(ctx)); n != 1 {
		t.Fatalf("unconfirmed DeleteAll removed notes")
	}
	if err := svc.DeleteAll(ctx, true); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if err := svc.DeleteAll(ctx, true); err != nil {
		t.Fatalf("DeleteAll on empty collection: %v", err)
	}
	if n := len(svc.ListAll(ctx)); n != 0 {
		t.Errorf("len = %d", n)
	}
	if rec.events[len(rec.events)-1] != "cleared:" {
		t.Errorf("events = %v", rec.events)
	}
}

func TestToggleBackend(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)
	n, _ := svc.CreateAndSave(ctx, "X", "Y")

	if svc.CurrentBackendLabel() != "SharedPreferences" {
		t.Fatalf("label = %q", svc.CurrentBackendLabel())
	}
	st, err := svc.ToggleBackend(ctx)
	if err != nil {
		t.Fatalf("ToggleBackend: %v", err)
	}
	if st.Kind != "file" || st.Label != "JSON File" || st.Migrated != 1 || st.Failed != 0 {
		t.Errorf("status = %+v", st)
	}
	got, err := svc.Get(ctx, n.ID)
	if err != nil || got != n {
		t.Errorf("note after toggle = %+v, %v", got, err)
	}

	st, err = svc.ToggleBackend(ctx)
	if err != nil || st.Kind != "prefs" {
		t.Errorf("second toggle = %+v, %v", st, err)
	}
	if b := svc.Backend(); b.Label != "SharedPreferences" || b.Migrated != 0 {
		t.Errorf("Backend = %+v", b)
	}
}

func TestItem(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)
	n, _ := svc.CreateAndSave(ctx, "T", strings.Repeat("a", 80))
	it := Item(n)
	if it.ID != n.ID || it.Title != "T" || it.Preview != strings.Repeat("a", 50)+"..." {
		t.Errorf("Item = %+v", it)
	}
}

func TestConcurrentCreateAndToggle(t *testing.T) {
	ctx := context.Background()
	svc, _ := testService(t)
	labels := map[string]string{"prefs": "SharedPreferences", "file": "JSON File"}

	const creators, perCreator, toggles = 3, 8, 5

	var wg sync.WaitGroup
	for c := 0; c < creators; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perCreator; i++ {
				if _, err := svc.CreateAndSave(ctx, "title", "body"); err != nil {
					t.Errorf("CreateAndSave: %v", err)
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < toggles; i++ {
			st, err := svc.ToggleBackend(ctx)
			if err != nil {
				t.Errorf("ToggleBackend: %v", err)
				continue
			}
			if labels[st.Kind] != st.Label {
				t.Errorf("toggle status pairs kind %q with label %q", st.Kind, st.Label)
			}
			if b := svc.Backend(); labels[b.Kind] != b.Label {
				t.Errorf("Backend pairs kind %q with label %q", b.Kind, b.Label)
			}
			if _, b := svc.ListWithBackend(ctx); labels[b.Kind] != b.Label {
				t.Errorf("ListWithBackend pairs kind %q with label %q", b.Kind, b.Label)
			}
		}
	}()
	wg.Wait()

	notes, st := svc.ListWithBackend(ctx)
	if len(notes) != creators*perCreator {
		t.Errorf("%s holds %d notes, want %d", st.Label, len(notes), creators*perCreator)
	}
}
