// Package persist writes tracker changes back to the local store.
package persist

import (
	"log/slog"

	"github.com/dukerupert/lightfamily/internal/metrics"
	"github.com/dukerupert/lightfamily/internal/model"
	"github.com/dukerupert/lightfamily/internal/tracker"
)

// Saver is the storage the Writer saves into.
type Saver interface {
	SaveMembers([]model.FamilyMember) error
	SaveReflections([]model.Reflection) error
}

// FailureFunc is told about every write that did not make it to disk.
type FailureFunc func(collection tracker.Collection, err error)

// Writer saves the collection named by each change. Writes are best effort:
// a failure is logged, counted and reported, never retried.
type Writer struct {
	saver     Saver
	metrics   metrics.Recorder
	logger    *slog.Logger
	onFailure FailureFunc
}

// NewWriter creates a Writer. A nil rec records nothing.
func NewWriter(s Saver, rec metrics.Recorder, logger *slog.Logger, onFailure FailureFunc) *Writer {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Writer{saver: s, metrics: rec, logger: logger, onFailure: onFailure}
}

// Handle is a tracker.Listener.
func (w *Writer) Handle(c tracker.Change) {
	w.metrics.RecordChange(string(c.Collection), c.Action)

	var err error
	switch c.Collection {
	case tracker.Members:
		err = w.saver.SaveMembers(c.Members)
	case tracker.Reflections:
		err = w.saver.SaveReflections(c.Reflections)
	default:
		return
	}
	if err == nil {
		return
	}

	w.logger.Error("persist failed", "collection", c.Collection, "action", c.Action, "error", err)
	w.metrics.RecordPersistFailure(string(c.Collection))
	if w.onFailure != nil {
		w.onFailure(c.Collection, err)
	}
}
