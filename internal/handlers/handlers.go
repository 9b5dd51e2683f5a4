package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/tibiantis-tools/deathwatch/internal/httputil"
	"github.com/tibiantis-tools/deathwatch/internal/logging"
	"github.com/tibiantis-tools/deathwatch/internal/repository"
	"github.com/tibiantis-tools/deathwatch/internal/scraper"
	"github.com/tibiantis-tools/deathwatch/internal/service"
)

// Handler serves the tracking API.
type Handler struct {
	service *service.Service
	log     *logging.Logger
}

// NewHandler creates the API handler.
func NewHandler(svc *service.Service, log *logging.Logger) *Handler {
	return &Handler{service: svc, log: log}
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// pathID parses the {id} segment of the request path.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// writeServiceError maps service and repository errors onto HTTP status
// codes. Unknown errors become 500 without leaking internals.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrCharacterNotFound),
		errors.Is(err, repository.ErrEnemyNotFound),
		errors.Is(err, scraper.ErrCharacterNotFound):
		httputil.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, repository.ErrCharacterExists),
		errors.Is(err, repository.ErrEnemyExists):
		httputil.WriteError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error("request failed", logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
