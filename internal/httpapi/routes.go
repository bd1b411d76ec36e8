package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DoyleJ11/debate-room-backend/internal/ws"
)

func SetupRoutes(a *API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, a.logRequests, middleware.Recoverer)

	// Public routes
	r.Get("/healthz", Healthz)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/format", a.GetFormat)
	r.Get("/ws", ws.Handler(a.hub, a.ws))

	r.Route("/rooms", func(r chi.Router) {
		r.With(RequireUser).Post("/", a.CreateRoom)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.GetRoom)
			r.Get("/speaker", a.GetSpeaker)
			r.Post("/advance", a.AdvanceSpeaker)

			r.Group(func(r chi.Router) {
				r.Use(RequireUser)
				r.Put("/motion", a.SetMotion)
				r.Post("/seats", a.TakeSeat)
				r.Delete("/seats/me", a.LeaveSeat)
				r.Post("/ready", a.SetReady)
				r.Post("/start", a.StartDebate)
				r.Post("/cancel", a.Cancel)
				r.Post("/feedback/close", a.CloseFeedback)
			})
		})
	})
	return r
}
