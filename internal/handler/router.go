package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/ticket-backoffice/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware тикет-бекофиса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Use(custommiddleware.Session)

		r.Get("/catalog", h.GetCatalog)
		r.Post("/selection", h.SetQuantity)

		r.Route("/order", func(r chi.Router) {
			r.Post("/", h.SubmitOrder)
			r.Get("/", h.GetOutcome)
			r.Post("/retry", h.RetryOrder)
			r.Post("/dismiss", h.DismissOrder)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
