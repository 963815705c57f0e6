package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DaH-115/ticketeer/internal/auth"
)

// NewRouter assembles the HTTP surface. Read endpoints are public;
// every mutating route passes the authentication middleware first.
func NewRouter(h *Handler, gate *auth.Gate, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(Recoverer(log))

	r.Get("/healthz", h.Healthz)

	r.Route("/reviews/{reviewID}", func(r chi.Router) {
		r.Get("/", h.GetReview)
		r.Get("/comments", h.ListComments)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(gate))
			r.Put("/", h.UpdateReview)
			r.Delete("/", h.DeleteReview)
			r.Post("/comments", h.CreateComment)
			r.Post("/like", h.Like)
			r.Delete("/like", h.Unlike)
			r.Get("/like", h.LikeStatus)
		})
	})

	r.Route("/comments/{reviewID}/{commentID}", func(r chi.Router) {
		r.Use(Authenticate(gate))
		r.Put("/", h.UpdateComment)
		r.Delete("/", h.DeleteComment)
	})

	r.Route("/users/{uid}", func(r chi.Router) {
		r.Use(Authenticate(gate))
		r.Put("/sync-liked-count", h.SyncLikedCount)
		r.Put("/sync-my-tickets-count", h.SyncMyTicketsCount)
	})

	r.Get("/movies/{movieID}/metadata", h.MovieMetadata)

	return r
}
