package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/auth"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

// statusFor maps an error kind to its HTTP status
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindInvalidInput:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidTransition, apperr.KindOperationInProgress:
		return http.StatusConflict
	case apperr.KindUnsupportedFile:
		return http.StatusUnsupportedMediaType
	case apperr.KindEmptyDocument, apperr.KindUnrenderableDocument, apperr.KindMissingResumeData:
		return http.StatusUnprocessableEntity
	case apperr.KindRemoteCallFailure, apperr.KindInvalidResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondErr writes a classified error. Unclassified errors are logged and
// reported as internal errors without their details.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	code := "internal_error"
	if kind != "" {
		code = strings.ToLower(string(kind))
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("code", code), zap.Error(err))
	}
	respondError(w, status, code, apperr.MessageOf(err))
}

// decodeJSON reads a JSON request body into v
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.InvalidInput("request body is required", err)
		}
		return apperr.InvalidInput("invalid JSON body", err)
	}
	return nil
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			s.logger.Warn("store not ready", zap.Error(err))
			respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Session handlers

type candidateIdentity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	session, err := s.auth.Login(r.Context(), req)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	s.logger.Info("login", zap.String("role", string(session.Role)), zap.String("candidate_id", session.CandidateID))
	respondJSON(w, http.StatusOK, session)
}

// handleLoginCandidates lists the identities a candidate can log in as
func (s *Server) handleLoginCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.engine.List(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}

	identities := make([]candidateIdentity, 0, len(candidates))
	for _, c := range candidates {
		identities = append(identities, candidateIdentity{ID: c.ID, Name: c.Name, Email: c.Email})
	}
	respondJSON(w, http.StatusOK, identities)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Logout(bearerToken(r))
	respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	session, _ := auth.FromContext(r.Context())
	respondJSON(w, http.StatusOK, session)
}
