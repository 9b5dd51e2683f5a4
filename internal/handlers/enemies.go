package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/tibiantis-tools/deathwatch/internal/httputil"
	"github.com/tibiantis-tools/deathwatch/internal/models"
)

// ListEnemies returns all enemy markings.
func (h *Handler) ListEnemies(w http.ResponseWriter, r *http.Request) {
	enemies, err := h.service.ListEnemies(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"enemies": enemies,
		"count":   len(enemies),
	})
}

// CreateEnemy marks a tracked character as an enemy. An unknown
// character id is a 404, an already-marked character a 409.
func (h *Handler) CreateEnemy(w http.ResponseWriter, r *http.Request) {
	var req models.CreateEnemyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CharacterID <= 0 {
		httputil.WriteError(w, http.StatusBadRequest, "character_id is required")
		return
	}

	enemy, err := h.service.MarkEnemy(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, enemy)
}

// GetEnemy returns one enemy marking by id.
func (h *Handler) GetEnemy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid enemy id")
		return
	}

	enemy, err := h.service.GetEnemy(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, enemy)
}

// UpdateEnemy applies a partial update to an enemy marking.
func (h *Handler) UpdateEnemy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid enemy id")
		return
	}

	var upd models.UpdateEnemyRequest
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	enemy, err := h.service.UpdateEnemy(r.Context(), id, &upd)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, enemy)
}

// DeleteEnemy removes an enemy marking; the character stays tracked.
func (h *Handler) DeleteEnemy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid enemy id")
		return
	}

	if err := h.service.UnmarkEnemy(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
