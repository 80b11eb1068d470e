package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/lightfamily/internal/tracker"
)

type ReflectionHandler struct {
	tracker *tracker.Tracker
}

func NewReflectionHandler(t *tracker.Tracker) *ReflectionHandler {
	return &ReflectionHandler{tracker: t}
}

func (h *ReflectionHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Reflections())
}

func (h *ReflectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Author  string `json:"author"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	// Same rule as the composer form.
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	ref := h.tracker.AddReflection(strings.TrimSpace(req.Author), req.Content)
	writeJSON(w, http.StatusCreated, ref)
}
