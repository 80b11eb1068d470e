// Package backup writes the tracker's two collections to a single
// passphrase-encrypted file and restores them from one.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dukerupert/lightfamily/internal/model"
	"github.com/dukerupert/lightfamily/internal/progress"
)

// FormatVersion is written into every snapshot.
const FormatVersion = 1

// maxBackupSize bounds how much Restore will read.
const maxBackupSize = 32 << 20

// State is the persisted side of the tracker. ReplaceAll must write both
// collections atomically.
type State interface {
	LoadMembers() ([]model.FamilyMember, error)
	LoadReflections() ([]model.Reflection, error)
	ReplaceAll(ctx context.Context, members []model.FamilyMember, reflections []model.Reflection) error
}

// Snapshot is the plaintext body of a backup file.
type Snapshot struct {
	Version     int                `json:"version"`
	ExportedAt  time.Time          `json:"exported_at"`
	Members     []json.RawMessage  `json:"members"`
	Reflections []model.Reflection `json:"reflections"`
}

// Export reads both collections from state and writes them, encrypted, to w.
func Export(w io.Writer, state State, passphrase string, now time.Time) (Snapshot, error) {
	if passphrase == "" {
		return Snapshot{}, errors.New("backup: passphrase required")
	}

	members, err := state.LoadMembers()
	if err != nil {
		return Snapshot{}, err
	}
	reflections, err := state.LoadReflections()
	if err != nil {
		return Snapshot{}, err
	}
	if reflections == nil {
		reflections = []model.Reflection{}
	}

	snap := Snapshot{
		Version:     FormatVersion,
		ExportedAt:  now.UTC(),
		Members:     make([]json.RawMessage, 0, len(members)),
		Reflections: reflections,
	}
	for _, m := range members {
		raw, err := json.Marshal(m)
		if err != nil {
			return Snapshot{}, fmt.Errorf("marshal member %s: %w", m.ID, err)
		}
		snap.Members = append(snap.Members, raw)
	}

	plaintext, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	sealed, err := Seal(plaintext, passphrase)
	if err != nil {
		return Snapshot{}, err
	}
	if _, err := w.Write(sealed); err != nil {
		return Snapshot{}, fmt.Errorf("write backup: %w", err)
	}
	return snap, nil
}

// ExportFile writes a backup to path. The file is written beside path,
// synced and closed before being renamed into place, so a failed export
// never leaves a truncated backup behind.
func ExportFile(path string, state State, passphrase string, now time.Time) (snap Snapshot, err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".lightfamily-backup-*")
	if err != nil {
		return Snapshot{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(0600); err != nil {
		return Snapshot{}, fmt.Errorf("chmod: %w", err)
	}
	snap, err = Export(tmp, state, passphrase, now)
	if err != nil {
		return Snapshot{}, err
	}
	if err := tmp.Sync(); err != nil {
		return Snapshot{}, fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return Snapshot{}, fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return Snapshot{}, fmt.Errorf("rename: %w", err)
	}
	return snap, nil
}

// Restore decrypts a backup from r and replaces both collections in state.
// Member progress goes through the same migration as a normal load, so
// backups taken before the note field existed still restore.
// Nothing is written unless the whole file decrypts and parses, and both
// collections are replaced in a single write.
func Restore(ctx context.Context, r io.Reader, state State, passphrase string) (members []model.FamilyMember, reflections []model.Reflection, err error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBackupSize))
	if err != nil {
		return nil, nil, fmt.Errorf("read backup: %w", err)
	}
	plaintext, err := Open(data, passphrase)
	if err != nil {
		return nil, nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(plaintext, &snap); err != nil {
		return nil, nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if snap.Version > FormatVersion {
		return nil, nil, fmt.Errorf("backup format %d is newer than supported %d", snap.Version, FormatVersion)
	}

	members = make([]model.FamilyMember, 0, len(snap.Members))
	for i, raw := range snap.Members {
		m, ok := progress.MigrateMember(raw)
		if !ok {
			return nil, nil, fmt.Errorf("member %d in backup is unreadable", i)
		}
		members = append(members, m)
	}
	reflections = snap.Reflections
	if reflections == nil {
		reflections = []model.Reflection{}
	}

	if err := state.ReplaceAll(ctx, members, reflections); err != nil {
		return nil, nil, err
	}
	return members, reflections, nil
}
