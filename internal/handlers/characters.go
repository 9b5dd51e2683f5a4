package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tibiantis-tools/deathwatch/internal/httputil"
	"github.com/tibiantis-tools/deathwatch/internal/models"
)

// ListCharacters returns all tracked characters.
func (h *Handler) ListCharacters(w http.ResponseWriter, r *http.Request) {
	characters, err := h.service.ListCharacters(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"characters": characters,
		"count":      len(characters),
	})
}

// CreateCharacter registers a character for tracking. The name must
// resolve on the remote source; an unknown name is a 404, a duplicate
// a 409.
func (h *Handler) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httputil.WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	character, err := h.service.AddCharacter(r.Context(), req.Name)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, character)
}

// GetCharacter returns one tracked character by id.
func (h *Handler) GetCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid character id")
		return
	}

	character, err := h.service.GetCharacter(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, character)
}

// UpdateCharacter applies a partial update to a tracked character.
func (h *Handler) UpdateCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid character id")
		return
	}

	var upd models.UpdateCharacterRequest
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	character, err := h.service.UpdateCharacter(r.Context(), id, &upd)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, character)
}

// DeleteCharacter stops tracking a character. Any enemy marking is
// removed with it.
func (h *Handler) DeleteCharacter(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid character id")
		return
	}

	if err := h.service.DeleteCharacter(r.Context(), id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
