package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/auth"
)

// authenticate resolves the bearer token into a session
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}

		session, err := s.auth.Authenticate(token)
		if err != nil {
			s.logger.Debug("rejected session", zap.String("token_prefix", maskToken(token)))
			s.respondErr(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
	})
}

func requireRecruiter(next http.Handler) http.Handler {
	return requireRole(auth.RoleRecruiter, next)
}

func requireCandidate(next http.Handler) http.Handler {
	return requireRole(auth.RoleCandidate, next)
}

func requireRole(role auth.Role, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := auth.FromContext(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		if session.Role != role {
			respondError(w, http.StatusForbidden, "forbidden", "this action requires the "+string(role)+" role")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireCandidateAccess limits candidate sessions to their own record
func requireCandidateAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := auth.FromContext(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
			return
		}
		if !session.CanAccessCandidate(chi.URLParam(r, "id")) {
			respondError(w, http.StatusForbidden, "forbidden", "you can only access your own application")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// maskToken returns first 8 chars of a token for safe logging
func maskToken(token string) string {
	if len(token) < 8 {
		return "***"
	}
	return token[:8] + "..."
}
