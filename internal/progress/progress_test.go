package progress

import (
	"testing"

	"github.com/dukerupert/lightfamily/internal/model"
)

func TestNew(t *testing.T) {
	p := New()
	if len(p) != 7 {
		t.Fatalf("len = %d, want 7", len(p))
	}
	for _, d := range model.Days {
		if sd, ok := p[d]; !ok || sd.Completed || sd.Note != "" {
			t.Errorf("%s = %+v (present %v), want zero", d, sd, ok)
		}
	}
}

func TestAllCompleted(t *testing.T) {
	p := New()
	if AllCompleted(p) {
		t.Error("fresh week should not be complete")
	}
	for _, d := range model.Days {
		p[d] = model.StudyDay{Completed: true}
	}
	if !AllCompleted(p) {
		t.Error("expected complete week")
	}
	p[model.Friday] = model.StudyDay{}
	if AllCompleted(p) {
		t.Error("week missing Fri should not be complete")
	}
	if got := CompletedCount(p); got != 6 {
		t.Errorf("CompletedCount = %d, want 6", got)
	}
}

func TestClone(t *testing.T) {
	p := New()
	c := Clone(p)
	c[model.Monday] = model.StudyDay{Completed: true, Note: "x"}
	if p[model.Monday].Completed {
		t.Error("clone shares storage with original")
	}
}
