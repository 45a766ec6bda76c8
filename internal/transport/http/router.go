package http

import (
	"net/http"
	"time"

	"github.com/abhikumar45444/movie-night-decider/internal/transport/ws"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler, gateway *ws.Gateway, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// WS endpoint stays outside the timeout group: the connection is
	// long-lived.
	r.Get("/ws/{roomCode}/{userID}", gateway.HandleWS)

	r.Group(func(pr chi.Router) {
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/api", func(api chi.Router) {
			api.Route("/rooms", func(rm chi.Router) {
				rm.Post("/create", h.CreateRoom)
				rm.Post("/join", h.JoinRoom)

				rm.Route("/{roomCode}", func(rr chi.Router) {
					rr.Post("/close", h.CloseRoom)
					rr.Get("/participants", h.GetParticipants)
					rr.Get("/movies", h.GetMovies)
					rr.Get("/matches", h.GetMatches)
				})
			})

			api.Post("/vote", h.Vote)

			api.Route("/movies", func(mv chi.Router) {
				mv.Get("/search", h.SearchMovies)
				mv.Get("/{movieID}", h.GetMovieDetails)
			})
		})
	})

	r.Get("/", h.Root)

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
