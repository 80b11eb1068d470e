package progress

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/dukerupert/lightfamily/internal/model"
)

// Migrate normalizes a stored progress value of unknown shape into a full week.
//
// Older releases stored a bare boolean per day; those become {completed, ""}.
// Structured day objects are kept as they are. Anything missing or unreadable
// falls back to an incomplete day with an empty note. Migrate never fails and
// migrating an already migrated value returns an equal value.
func Migrate(raw json.RawMessage) model.StudyProgress {
	p := New()

	fields, ok := decodeObject(raw)
	if !ok {
		return p
	}

	for _, d := range model.Days {
		v, ok := fields[string(d)]
		if !ok {
			continue
		}

		var b bool
		if err := json.Unmarshal(v, &b); err == nil {
			p[d] = model.StudyDay{Completed: b}
			continue
		}

		if day, ok := decodeObject(v); ok {
			p[d] = model.StudyDay{
				Completed: boolField(day, "completed"),
				Note:      stringField(day, "note"),
			}
		}
	}
	return p
}

// MigrateMember decodes one stored member record and migrates its progress.
// It returns false when raw is not a JSON object.
func MigrateMember(raw json.RawMessage) (model.FamilyMember, bool) {
	fields, ok := decodeObject(raw)
	if !ok {
		return model.FamilyMember{}, false
	}
	return model.FamilyMember{
		ID:       idField(fields, "id"),
		Name:     stringField(fields, "name"),
		Progress: Migrate(fields["progress"]),
	}, true
}

func decodeObject(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

func boolField(m map[string]json.RawMessage, key string) bool {
	var b bool
	if v, ok := m[key]; ok {
		_ = json.Unmarshal(v, &b)
	}
	return b
}

func stringField(m map[string]json.RawMessage, key string) string {
	var s string
	if v, ok := m[key]; ok {
		_ = json.Unmarshal(v, &s)
	}
	return s
}

// idField accepts both string and numeric identifiers.
func idField(m map[string]json.RawMessage, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}
