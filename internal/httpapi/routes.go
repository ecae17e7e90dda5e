package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/DoyleJ11/intwana-hub/internal/session"
	"github.com/DoyleJ11/intwana-hub/internal/ws"
)

func SetupRoutes(deps session.Deps) http.Handler {
	r := chi.NewRouter()

	// Public routes
	r.Post("/rooms", JoinRoom(deps))
	r.Get("/rooms/{id}", GetRoom(deps.Repo))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(deps))
	return r
}
