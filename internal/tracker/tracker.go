// Package tracker owns the household's study state: family members with their
// weekly progress, and the reflection feed. All mutations go through the
// Tracker so every change is atomic and observed by its listeners.
package tracker

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dukerupert/lightfamily/internal/model"
	"github.com/dukerupert/lightfamily/internal/progress"
	"github.com/google/uuid"
)

// Collection names the slice of state a Change touched.
type Collection string

const (
	Members     Collection = "members"
	Reflections Collection = "reflections"
)

// Change describes one completed mutation. It carries a snapshot of the
// collection it touched, taken while the mutation still held the lock.
type Change struct {
	Collection  Collection
	Action      string
	ID          string
	Members     []model.FamilyMember
	Reflections []model.Reflection
}

// Listener is called once per mutation, in mutation order, after the
// mutation's lock has been released. Listeners may read from the Tracker but
// must not mutate it.
type Listener func(Change)

// Tracker owns the members and reflections. All mutations go through it.
type Tracker struct {
	mu          sync.Mutex
	members     []model.FamilyMember
	reflections []model.Reflection

	// pending is guarded by mu. Changes are queued in mutation order and
	// delivered by whichever caller holds notifyMu.
	pending   []Change
	notifyMu  sync.Mutex
	listeners []Listener

	now   func() time.Time
	newID func() string
}

// New creates a Tracker seeded with previously stored state.
func New(members []model.FamilyMember, reflections []model.Reflection) *Tracker {
	t := &Tracker{
		members:     cloneMembers(members),
		reflections: cloneReflections(reflections),
		now:         time.Now,
		newID:       uuid.NewString,
	}
	return t
}

// Subscribe registers l for every subsequent change.
func (t *Tracker) Subscribe(l Listener) {
	t.notifyMu.Lock()
	t.listeners = append(t.listeners, l)
	t.notifyMu.Unlock()
}

// Members returns a copy of the members in display order.
func (t *Tracker) Members() []model.FamilyMember {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneMembers(t.members)
}

// Member returns a copy of the member with the given id.
func (t *Tracker) Member(id string) (model.FamilyMember, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexOf(id)
	if i < 0 {
		return model.FamilyMember{}, false
	}
	return cloneMember(t.members[i]), true
}

// Reflections returns a copy of the feed, newest first.
func (t *Tracker) Reflections() []model.Reflection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return cloneReflections(t.reflections)
}

// AddMember appends a member with a fresh week. Names are trimmed; a blank
// name adds nothing and returns false.
func (t *Tracker) AddMember(name string) (model.FamilyMember, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.FamilyMember{}, false
	}

	t.mu.Lock()
	m := model.FamilyMember{
		ID:       t.nextMemberID(),
		Name:     name,
		Progress: progress.New(),
	}
	t.members = append(t.members, m)
	t.commitMembers("created", m.ID)
	return cloneMember(m), true
}

// ToggleDay flips the completed flag of one day, leaving its note alone.
func (t *Tracker) ToggleDay(memberID string, day model.Day) (model.FamilyMember, bool) {
	return t.updateDay(memberID, day, "day_toggled", func(sd model.StudyDay) model.StudyDay {
		sd.Completed = !sd.Completed
		return sd
	})
}

// UpdateNote replaces the note of one day, leaving its completed flag alone.
func (t *Tracker) UpdateNote(memberID string, day model.Day, note string) (model.FamilyMember, bool) {
	return t.updateDay(memberID, day, "note_updated", func(sd model.StudyDay) model.StudyDay {
		sd.Note = note
		return sd
	})
}

// ToggleAllDays checks every day, or unchecks every day when the whole week
// was already checked. The direction is decided once from the state before
// the change. Notes are kept.
func (t *Tracker) ToggleAllDays(memberID string) (model.FamilyMember, bool) {
	t.mu.Lock()
	i := t.indexOf(memberID)
	if i < 0 {
		t.mu.Unlock()
		return model.FamilyMember{}, false
	}

	m := cloneMember(t.members[i])
	target := !progress.AllCompleted(m.Progress)
	for _, d := range model.Days {
		sd := m.Progress[d]
		sd.Completed = target
		m.Progress[d] = sd
	}
	t.members[i] = m
	t.commitMembers("all_toggled", m.ID)
	return cloneMember(m), true
}

// ResetWeek clears every checkmark and note for every member and returns the
// members as they were right after the reset. Callers are responsible for
// confirming the action with the user first.
func (t *Tracker) ResetWeek() []model.FamilyMember {
	t.mu.Lock()
	next := make([]model.FamilyMember, len(t.members))
	for i, m := range t.members {
		next[i] = model.FamilyMember{ID: m.ID, Name: m.Name, Progress: progress.New()}
	}
	t.members = next
	return cloneMembers(t.commitMembers("week_reset", ""))
}

// AddReflection prepends a new reflection to the feed.
func (t *Tracker) AddReflection(author, content string) model.Reflection {
	t.mu.Lock()
	r := model.Reflection{
		ID:        t.newID(),
		Author:    author,
		Content:   content,
		Timestamp: t.now().UnixMilli(),
	}
	t.reflections = append([]model.Reflection{r}, t.reflections...)

	change := Change{
		Collection:  Reflections,
		Action:      "created",
		ID:          r.ID,
		Reflections: cloneReflections(t.reflections),
	}
	t.publish(change)
	return r
}

func (t *Tracker) updateDay(memberID string, day model.Day, action string, fn func(model.StudyDay) model.StudyDay) (model.FamilyMember, bool) {
	if _, ok := model.ParseDay(string(day)); !ok {
		return model.FamilyMember{}, false
	}

	t.mu.Lock()
	i := t.indexOf(memberID)
	if i < 0 {
		t.mu.Unlock()
		return model.FamilyMember{}, false
	}

	m := cloneMember(t.members[i])
	m.Progress[day] = fn(m.Progress[day])
	t.members[i] = m
	t.commitMembers(action, m.ID)
	return cloneMember(m), true
}

// commitMembers must be called with mu held; it releases mu. It returns the
// snapshot carried by the change.
func (t *Tracker) commitMembers(action, id string) []model.FamilyMember {
	snapshot := cloneMembers(t.members)
	t.publish(Change{
		Collection: Members,
		Action:     action,
		ID:         id,
		Members:    snapshot,
	})
	return snapshot
}

// publish must be called with mu held. It queues c, releases mu, and then
// delivers every queued change. When it returns, c has been delivered either
// here or by a caller that drained the queue first.
func (t *Tracker) publish(c Change) {
	t.pending = append(t.pending, c)
	t.mu.Unlock()

	t.notifyMu.Lock()
	defer t.notifyMu.Unlock()

	t.mu.Lock()
	batch := t.pending
	t.pending = nil
	t.mu.Unlock()

	for _, queued := range batch {
		for _, l := range t.listeners {
			l(queued)
		}
	}
}

func (t *Tracker) indexOf(id string) int {
	for i, m := range t.members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// nextMemberID derives an id from the current time in milliseconds, bumped
// past any id already in use.
func (t *Tracker) nextMemberID() string {
	n := t.now().UnixMilli()
	for {
		id := strconv.FormatInt(n, 10)
		if t.indexOf(id) < 0 {
			return id
		}
		n++
	}
}

func cloneMember(m model.FamilyMember) model.FamilyMember {
	m.Progress = progress.Clone(m.Progress)
	return m
}

func cloneMembers(ms []model.FamilyMember) []model.FamilyMember {
	out := make([]model.FamilyMember, len(ms))
	for i, m := range ms {
		out[i] = cloneMember(m)
	}
	return out
}

func cloneReflections(rs []model.Reflection) []model.Reflection {
	out := make([]model.Reflection, len(rs))
	copy(out, rs)
	return out
}
