package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/auth"
	"github.com/fmuoria/resmo/internal/workflow"
)

// maxUploadSize is the largest accepted resume upload (10 MiB)
const maxUploadSize = 10 << 20

// requestTimeout covers the slowest AI backed request
const requestTimeout = 120 * time.Second

// Pinger reports whether the candidate store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server handles HTTP requests
type Server struct {
	router *chi.Mux
	engine *workflow.Engine
	auth   *auth.Service
	store  Pinger
	logger *zap.Logger
	now    func() time.Time
}

// NewServer creates a new API server
func NewServer(engine *workflow.Engine, authService *auth.Service, store Pinger, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		engine: engine,
		auth:   authService,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
	s.setupRouter()
	return s
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Get("/login/candidates", s.handleLoginCandidates)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)

			r.Post("/logout", s.handleLogout)
			r.Get("/me", s.handleMe)

			r.Route("/candidates", func(r chi.Router) {
				r.With(requireRecruiter).Get("/", s.handleListCandidates)
				r.With(requireRecruiter).Post("/", s.handleCreateCandidate)

				r.Route("/{id}", func(r chi.Router) {
					r.Use(requireCandidateAccess)

					r.Get("/", s.handleGetCandidate)
					r.Post("/resume", s.handleUploadResume)
					r.Get("/tracker", s.handleTracker)

					r.With(requireRecruiter).Get("/resume/file", s.handleResumeFile)
					r.With(requireRecruiter).Post("/analyze", s.handleAnalyze)
					r.With(requireRecruiter).Post("/skill-check", s.handleSendSkillCheck)
					r.With(requireRecruiter).Post("/status/draft", s.handleDraftStatusEmail)
					r.With(requireRecruiter).Post("/status/send", s.handleSendStatusEmail)

					r.With(requireCandidate).Post("/skill-check/start", s.handleStartSkillCheck)
					r.With(requireCandidate).Post("/skill-check/{session}/submit", s.handleSubmitSkillCheck)
				})
			})

			r.With(requireRecruiter).Get("/stats", s.handleStats)
			r.With(requireRecruiter).Get("/reports/pipeline.xlsx", s.handlePipelineReport)
			r.With(requireRecruiter).Post("/imports/gmail", s.handleGmailImport)
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Int64("duration_ms", time.Since(start).Milliseconds()),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
