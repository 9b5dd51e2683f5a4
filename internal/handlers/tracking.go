package handlers

import (
	"net/http"

	"github.com/tibiantis-tools/deathwatch/internal/httputil"
)

// CheckDeaths runs one correlation pass immediately and returns the
// matches. The kills report is published as a side effect, same as a
// scheduled run.
func (h *Handler) CheckDeaths(w http.ResponseWriter, r *http.Request) {
	matches, err := h.service.CheckDeathsNow(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
	})
}

// RefreshRoster scans the public online list and upserts tracked
// characters.
func (h *Handler) RefreshRoster(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.RefreshOnlineRoster(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
