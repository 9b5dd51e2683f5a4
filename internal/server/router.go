package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tibiantis-tools/deathwatch/internal/handlers"
)

// NewRouter constructs a ServeMux with the tracking API registered.
func NewRouter(h *handlers.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/characters", h.ListCharacters)
	mux.HandleFunc("POST /api/v1/characters", h.CreateCharacter)
	mux.HandleFunc("GET /api/v1/characters/{id}", h.GetCharacter)
	mux.HandleFunc("PATCH /api/v1/characters/{id}", h.UpdateCharacter)
	mux.HandleFunc("DELETE /api/v1/characters/{id}", h.DeleteCharacter)

	mux.HandleFunc("GET /api/v1/enemies", h.ListEnemies)
	mux.HandleFunc("POST /api/v1/enemies", h.CreateEnemy)
	mux.HandleFunc("GET /api/v1/enemies/{id}", h.GetEnemy)
	mux.HandleFunc("PATCH /api/v1/enemies/{id}", h.UpdateEnemy)
	mux.HandleFunc("DELETE /api/v1/enemies/{id}", h.DeleteEnemy)

	mux.HandleFunc("POST /api/v1/deaths/check", h.CheckDeaths)
	mux.HandleFunc("POST /api/v1/roster/refresh", h.RefreshRoster)

	mux.HandleFunc("GET /healthz", h.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
