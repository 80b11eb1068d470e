package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukerupert/lightfamily/internal/model"
	"github.com/dukerupert/lightfamily/internal/progress"
)

const (
	MembersKey     = "members"
	ReflectionsKey = "reflections"
)

// StateStore persists the two tracker collections as JSON documents.
type StateStore struct {
	kv     *KVStore
	logger *slog.Logger
}

// NewStateStore creates a StateStore on top of kv.
func NewStateStore(kv *KVStore, logger *slog.Logger) *StateStore {
	return &StateStore{kv: kv, logger: logger}
}

// LoadMembers reads the stored members and migrates each member's progress to
// the current shape. A missing key yields no members. Records that are not
// objects are skipped.
func (s *StateStore) LoadMembers() ([]model.FamilyMember, error) {
	value, ok, err := s.kv.Get(MembersKey)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		s.logger.Warn("stored members unreadable, starting empty", "error", err)
		return nil, nil
	}

	members := make([]model.FamilyMember, 0, len(raw))
	for i, r := range raw {
		m, ok := progress.MigrateMember(r)
		if !ok {
			s.logger.Warn("skipping unreadable member record", "index", i)
			continue
		}
		members = append(members, m)
	}
	return members, nil
}

// SaveMembers overwrites the members key.
func (s *StateStore) SaveMembers(members []model.FamilyMember) error {
	if members == nil {
		members = []model.FamilyMember{}
	}
	data, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}
	if err := s.kv.Set(MembersKey, string(data)); err != nil {
		return fmt.Errorf("save members: %w", err)
	}
	return nil
}

// LoadReflections reads the feed, newest first. Unreadable data yields an
// empty feed.
func (s *StateStore) LoadReflections() ([]model.Reflection, error) {
	value, ok, err := s.kv.Get(ReflectionsKey)
	if err != nil {
		return nil, fmt.Errorf("load reflections: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var reflections []model.Reflection
	if err := json.Unmarshal([]byte(value), &reflections); err != nil {
		s.logger.Warn("stored reflections unreadable, starting empty", "error", err)
		return nil, nil
	}
	return reflections, nil
}

// SaveReflections overwrites the reflections key.
func (s *StateStore) SaveReflections(reflections []model.Reflection) error {
	if reflections == nil {
		reflections = []model.Reflection{}
	}
	data, err := json.Marshal(reflections)
	if err != nil {
		return fmt.Errorf("marshal reflections: %w", err)
	}
	if err := s.kv.Set(ReflectionsKey, string(data)); err != nil {
		return fmt.Errorf("save reflections: %w", err)
	}
	return nil
}

// ReplaceAll writes both collections in one transaction, so a failure leaves
// the stored state exactly as it was.
func (s *StateStore) ReplaceAll(ctx context.Context, members []model.FamilyMember, reflections []model.Reflection) error {
	if members == nil {
		members = []model.FamilyMember{}
	}
	if reflections == nil {
		reflections = []model.Reflection{}
	}
	m, err := json.Marshal(members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}
	r, err := json.Marshal(reflections)
	if err != nil {
		return fmt.Errorf("marshal reflections: %w", err)
	}
	if err := s.kv.SetMany(ctx, []Entry{
		{Key: MembersKey, Value: string(m)},
		{Key: ReflectionsKey, Value: string(r)},
	}); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
