package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level     string
		debugSeen bool
		infoSeen  bool
	}{
		{"debug", true, true},
		{"INFO", false, true},
		{" warn ", false, false},
		{"bogus", false, true},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		logger := New(&buf, tt.level, "text")
		logger.Debug("dbg")
		logger.Info("inf")

		out := buf.String()
		if got := strings.Contains(out, "msg=dbg"); got != tt.debugSeen {
			t.Errorf("level %q: debug logged = %v, want %v", tt.level, got, tt.debugSeen)
		}
		if got := strings.Contains(out, "msg=inf"); got != tt.infoSeen {
			t.Errorf("level %q: info logged = %v, want %v", tt.level, got, tt.infoSeen)
		}
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "info", "json").Info("hello", "component", "test")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "hello" || entry["component"] != "test" {
		t.Errorf("entry = %v", entry)
	}
}
