package backup

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukerupert/lightfamily/internal/database"
	"github.com/dukerupert/lightfamily/internal/model"
	"github.com/dukerupert/lightfamily/internal/progress"
	"github.com/dukerupert/lightfamily/internal/store"
)

func setupState(t *testing.T) *store.StateStore {
	t.Helper()
	s, _ := setupStateDB(t)
	return s
}

func setupStateDB(t *testing.T) (*store.StateStore, *sql.DB) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewStateStore(store.NewKVStore(db), slog.Default()), db
}

func seed(t *testing.T, s *store.StateStore) {
	t.Helper()
	p := progress.New()
	p[model.Sabbath] = model.StudyDay{Completed: true, Note: "Genesis 1"}
	members := []model.FamilyMember{{ID: "1700000000000", Name: "Ruth", Progress: p}}
	reflections := []model.Reflection{{ID: "r1", Author: "Ruth", Content: "Grateful", Timestamp: 1700000000000}}
	if err := s.SaveMembers(members); err != nil {
		t.Fatalf("save members: %v", err)
	}
	if err := s.SaveReflections(reflections); err != nil {
		t.Fatalf("save reflections: %v", err)
	}
}

func TestExportRestore(t *testing.T) {
	src := setupState(t)
	seed(t, src)

	var buf bytes.Buffer
	snap, err := Export(&buf, src, "family", time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if snap.Version != FormatVersion || len(snap.Members) != 1 || len(snap.Reflections) != 1 {
		t.Errorf("snapshot = %+v", snap)
	}

	dst := setupState(t)
	members, reflections, err := Restore(context.Background(), bytes.NewReader(buf.Bytes()), dst, "family")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(members) != 1 || members[0].Name != "Ruth" {
		t.Fatalf("members = %+v", members)
	}
	if got := members[0].Progress[model.Sabbath]; !got.Completed || got.Note != "Genesis 1" {
		t.Errorf("Sab = %+v", got)
	}
	if len(reflections) != 1 || reflections[0].Content != "Grateful" {
		t.Errorf("reflections = %+v", reflections)
	}

	stored, err := dst.LoadMembers()
	if err != nil {
		t.Fatalf("load members: %v", err)
	}
	if len(stored) != 1 || stored[0].ID != "1700000000000" {
		t.Errorf("stored members = %+v", stored)
	}
}

func TestRestoreMigratesLegacyProgress(t *testing.T) {
	snap := Snapshot{
		Version:    FormatVersion,
		ExportedAt: time.Now().UTC(),
		Members: []json.RawMessage{
			json.RawMessage(`{"id":"1","name":"Boaz","progress":{"Sab":true,"Sun":false}}`),
		},
	}
	plaintext, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	sealed, err := Seal(plaintext, "pw")
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	dst := setupState(t)
	members, reflections, err := Restore(context.Background(), bytes.NewReader(sealed), dst, "pw")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := members[0].Progress[model.Sabbath]; !got.Completed || got.Note != "" {
		t.Errorf("Sab = %+v, want completed with empty note", got)
	}
	if len(members[0].Progress) != len(model.Days) {
		t.Errorf("progress has %d days, want %d", len(members[0].Progress), len(model.Days))
	}
	if reflections == nil {
		t.Error("reflections should be empty, not nil")
	}
}

func TestRestoreWrongPassphraseLeavesState(t *testing.T) {
	src := setupState(t)
	seed(t, src)
	var buf bytes.Buffer
	if _, err := Export(&buf, src, "family", time.Now()); err != nil {
		t.Fatalf("export: %v", err)
	}

	dst := setupState(t)
	if err := dst.SaveMembers([]model.FamilyMember{{ID: "9", Name: "Naomi", Progress: progress.New()}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, _, err := Restore(context.Background(), bytes.NewReader(buf.Bytes()), dst, "nope")
	if !errors.Is(err, ErrDecrypt) {
		t.Fatalf("err = %v, want ErrDecrypt", err)
	}
	members, _ := dst.LoadMembers()
	if len(members) != 1 || members[0].Name != "Naomi" {
		t.Errorf("members changed after failed restore: %+v", members)
	}
}

func TestExportRequiresPassphrase(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Export(&buf, setupState(t), "", time.Now()); err == nil {
		t.Error("expected error for empty passphrase")
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written without a passphrase")
	}
}

func TestRestoreFailedWriteLeavesState(t *testing.T) {
	src := setupState(t)
	seed(t, src)
	var buf bytes.Buffer
	if _, err := Export(&buf, src, "family", time.Now()); err != nil {
		t.Fatalf("export: %v", err)
	}

	dst, db := setupStateDB(t)
	if err := dst.SaveMembers([]model.FamilyMember{{ID: "9", Name: "Naomi", Progress: progress.New()}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	for _, event := range []string{"INSERT", "UPDATE"} {
		_, err := db.Exec(`CREATE TRIGGER fail_reflections_` + event + ` BEFORE ` + event + ` ON kv
			WHEN NEW.key = 'reflections' BEGIN SELECT RAISE(ABORT, 'disk full'); END`)
		if err != nil {
			t.Fatalf("create trigger: %v", err)
		}
	}

	if _, _, err := Restore(context.Background(), bytes.NewReader(buf.Bytes()), dst, "family"); err == nil {
		t.Fatal("expected error when the reflections write fails")
	}
	members, _ := dst.LoadMembers()
	if len(members) != 1 || members[0].Name != "Naomi" {
		t.Errorf("members = %+v after failed restore, want Naomi only", members)
	}
	reflections, _ := dst.LoadReflections()
	if len(reflections) != 0 {
		t.Errorf("reflections = %+v after failed restore, want none", reflections)
	}
}

func TestExportFile(t *testing.T) {
	src := setupState(t)
	seed(t, src)
	dir := t.TempDir()
	path := filepath.Join(dir, "family.bak")

	if _, err := ExportFile(path, src, "family", time.Now()); err != nil {
		t.Fatalf("export file: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("perm = %o, want 600", perm)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	members, _, err := Restore(context.Background(), f, setupState(t), "family")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if len(members) != 1 || members[0].Name != "Ruth" {
		t.Errorf("members = %+v", members)
	}
}

func TestExportFileFailureKeepsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "family.bak")
	if err := os.WriteFile(path, []byte("previous backup"), 0600); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := ExportFile(path, setupState(t), "", time.Now()); err == nil {
		t.Fatal("expected error for empty passphrase")
	}
	got, _ := os.ReadFile(path)
	if string(got) != "previous backup" {
		t.Errorf("existing backup overwritten: %q", got)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}
