package handler

import (
	"net/http"

	"github.com/dukerupert/lightfamily/internal/verse"
)

// Verse reports the verse provider status as JSON.
func Verse(svc *verse.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	}
}
