package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates the chi router with all routes and middleware.
// stream serves GET /ws and may be nil.
func NewRouter(logger *slog.Logger, game gameManager, stream http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	h := NewHandlers(logger, game)

	r.Get("/ping", h.Ping)

	r.Route("/api", func(r chi.Router) {
		r.Route("/game", func(r chi.Router) {
			r.Get("/", h.GetGame)
			r.Post("/moves", h.Play)
			r.Post("/reset", h.Reset)
			r.Delete("/reset", h.HoldReset)
			r.Put("/size", h.ChangeSize)
			r.Post("/mode", h.ToggleMode)
		})

		r.Get("/scores", h.GetScores)
		r.Delete("/scores", h.ResetScores)
		r.Put("/players", h.Rename)
	})

	if stream != nil {
		r.Handle("/ws", stream)
	}

	return r
}
