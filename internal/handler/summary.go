package handler

import (
	"net/http"

	"github.com/dukerupert/lightfamily/internal/summary"
	"github.com/dukerupert/lightfamily/internal/tracker"
)

// Summary serves the plain-text weekly export. The page copies it to the
// clipboard.
func Summary(t *tracker.Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write([]byte(summary.Export(t.Members())))
	}
}
