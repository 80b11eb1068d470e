package handler

import (
	"encoding/json"
	"net/http"

	"github.com/dukerupert/lightfamily/internal/model"
)

// ResetPrompt is shown before a new week wipes every checkmark and note.
const ResetPrompt = "Are you sure you want to start a new week? All checkmarks and notes will be cleared."

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parseDayParam reads the {day} path value.
func parseDayParam(r *http.Request) (model.Day, bool) {
	return model.ParseDay(r.PathValue("day"))
}
