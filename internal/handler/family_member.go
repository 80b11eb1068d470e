package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/lightfamily/internal/tracker"
)

type FamilyMemberHandler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewFamilyMemberHandler(t *tracker.Tracker, logger *slog.Logger) *FamilyMemberHandler {
	return &FamilyMemberHandler{tracker: t, logger: logger}
}

func (h *FamilyMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Members())
}

func (h *FamilyMemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	member, ok := h.tracker.AddMember(req.Name)
	if !ok {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	h.logger.Info("family member added", "id", member.ID)
	writeJSON(w, http.StatusCreated, member)
}

func (h *FamilyMemberHandler) ToggleDay(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDayParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid day")
		return
	}

	member, ok := h.tracker.ToggleDay(r.PathValue("id"), day)
	if !ok {
		writeError(w, http.StatusNotFound, "family member not found")
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *FamilyMemberHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	day, ok := parseDayParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid day")
		return
	}

	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	member, ok := h.tracker.UpdateNote(r.PathValue("id"), day, req.Note)
	if !ok {
		writeError(w, http.StatusNotFound, "family member not found")
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *FamilyMemberHandler) ToggleAll(w http.ResponseWriter, r *http.Request) {
	member, ok := h.tracker.ToggleAllDays(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "family member not found")
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// ResetWeek clears the week only when the request carries {"confirm": true}.
func (h *FamilyMemberHandler) ResetWeek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Confirm {
		writeError(w, http.StatusConflict, ResetPrompt)
		return
	}

	members := h.tracker.ResetWeek()
	h.logger.Info("week reset", "members", len(members))

	writeJSON(w, http.StatusOK, members)
}
