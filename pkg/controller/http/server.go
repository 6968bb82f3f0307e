package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/askloop/askloop/pkg/usecase"
	"github.com/askloop/askloop/pkg/utils/logging"
	"github.com/askloop/askloop/pkg/utils/safe"
)

type Server struct {
	router *chi.Mux
	uc     *usecase.UseCases
}

func New(uc *usecase.UseCases) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		safe.Write(r.Context(), w, []byte("ok"))
	})

	r.Route("/auth", func(r chi.Router) {
		r.Get("/install", authInstallHandler(uc.Auth))
		r.Get("/callback", authCallbackHandler(uc.Auth))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/questions", questionIngestHandler(uc.Question))
		r.Post("/questions/answer", questionAnswerHandler(uc.Question))
		r.Post("/questions/dismiss", questionDismissHandler(uc.Question))
		r.Post("/questions/pause", questionPauseHandler(uc.Question))
		r.Get("/workspaces/{workspaceID}/stats", statsHandler(uc.Stats))
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
