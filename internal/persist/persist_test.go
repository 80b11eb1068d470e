package persist

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/dukerupert/lightfamily/internal/database"
	"github.com/dukerupert/lightfamily/internal/model"
	"github.com/dukerupert/lightfamily/internal/store"
	"github.com/dukerupert/lightfamily/internal/tracker"
)

type failingSaver struct{}

func (failingSaver) SaveMembers([]model.FamilyMember) error { return errors.New("disk full") }
func (failingSaver) SaveReflections([]model.Reflection) error { return errors.New("disk full") }

type countingRecorder struct {
	changes  int
	failures map[string]int
}

func (r *countingRecorder) RecordChange(string, string) { r.changes++ }
func (r *countingRecorder) RecordPersistFailure(c string) {
	if r.failures == nil {
		r.failures = map[string]int{}
	}
	r.failures[c]++
}
func (r *countingRecorder) RecordVerseFetch(string) {}

func setupStateStore(t *testing.T) *store.StateStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewStateStore(store.NewKVStore(db), slog.Default())
}

func TestWriterPersistsEveryChange(t *testing.T) {
	st := setupStateStore(t)
	tr := tracker.New(nil, nil)
	rec := &countingRecorder{}
	tr.Subscribe(NewWriter(st, rec, slog.Default(), nil).Handle)

	m, _ := tr.AddMember("Ruth")
	tr.ToggleDay(m.ID, model.Monday)
	tr.UpdateNote(m.ID, model.Monday, "prayer")
	tr.AddReflection("Ruth", "Where you go I will go")

	members, err := st.LoadMembers()
	if err != nil {
		t.Fatalf("load members: %v", err)
	}
	if len(members) != 1 || members[0].Progress[model.Monday] != (model.StudyDay{Completed: true, Note: "prayer"}) {
		t.Errorf("stored members = %+v", members)
	}

	reflections, err := st.LoadReflections()
	if err != nil {
		t.Fatalf("load reflections: %v", err)
	}
	if len(reflections) != 1 || reflections[0].Author != "Ruth" {
		t.Errorf("stored reflections = %+v", reflections)
	}
	if rec.changes != 4 {
		t.Errorf("recorded changes = %d, want 4", rec.changes)
	}
}

func TestWriterReloadAfterReset(t *testing.T) {
	st := setupStateStore(t)
	tr := tracker.New(nil, nil)
	tr.Subscribe(NewWriter(st, nil, slog.Default(), nil).Handle)

	m, _ := tr.AddMember("Boaz")
	tr.ToggleAllDays(m.ID)
	tr.ResetWeek()

	members, _ := st.LoadMembers()
	reloaded := tracker.New(members, nil)
	got, ok := reloaded.Member(m.ID)
	if !ok {
		t.Fatal("member lost across reload")
	}
	for _, d := range model.Days {
		if got.Progress[d].Completed {
			t.Errorf("%s still completed after reset", d)
		}
	}
}

func TestWriterReportsFailure(t *testing.T) {
	rec := &countingRecorder{}
	var reported []tracker.Collection
	w := NewWriter(failingSaver{}, rec, slog.Default(), func(c tracker.Collection, err error) {
		reported = append(reported, c)
	})

	tr := tracker.New(nil, nil)
	tr.Subscribe(w.Handle)
	tr.AddMember("Naomi")
	tr.AddReflection("Naomi", "call me Mara")

	if len(reported) != 2 || reported[0] != tracker.Members || reported[1] != tracker.Reflections {
		t.Errorf("reported = %v", reported)
	}
	if rec.failures["members"] != 1 || rec.failures["reflections"] != 1 {
		t.Errorf("failures = %v", rec.failures)
	}
	if len(tr.Members()) != 1 {
		t.Error("in-memory state should keep the change even when the write fails")
	}
}
