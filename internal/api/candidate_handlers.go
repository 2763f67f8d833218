package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/models"
	"github.com/fmuoria/resmo/internal/workflow"
)

type statusRequest struct {
	Status string `json:"status"`
}

type submitSkillCheckRequest struct {
	Answers []int `json:"answers"`
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.engine.List(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	var req workflow.NewCandidate
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	c, err := s.engine.CreateCandidate(r.Context(), req)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleTracker(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.Tracker(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// handleResumeFile streams the original upload back to the recruiter
func (s *Server) handleResumeFile(w http.ResponseWriter, r *http.Request) {
	file, err := s.engine.ResumeFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Data); err != nil {
		s.logger.Warn("failed to write resume file", zap.Error(err))
	}
}

// handleUploadResume accepts a multipart "file" field of at most 10 MiB
func (s *Server) handleUploadResume(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "file_too_large", "resume must be at most 10 MiB")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "expected a multipart form with a file field")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondErr(w, apperr.Internal("failed to read uploaded file", err))
		return
	}

	c, err := s.engine.UploadResume(r.Context(), id, header.Filename, data)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	s.logger.Info("resume uploaded", zap.String("candidate_id", id), zap.String("file", header.Filename), zap.Int("bytes", len(data)))
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleSendSkillCheck(w http.ResponseWriter, r *http.Request) {
	c, err := s.engine.SendSkillCheck(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleStartSkillCheck(w http.ResponseWriter, r *http.Request) {
	view, err := s.engine.StartSkillCheck(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleSubmitSkillCheck(w http.ResponseWriter, r *http.Request) {
	var req submitSkillCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	result, err := s.engine.SubmitSkillCheck(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "session"), req.Answers)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleDraftStatusEmail(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		s.respondErr(w, apperr.InvalidInput(err.Error(), err))
		return
	}

	draft, err := s.engine.DraftStatusEmail(r.Context(), chi.URLParam(r, "id"), status)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

func (s *Server) handleSendStatusEmail(w http.ResponseWriter, r *http.Request) {
	var req workflow.StatusChange
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	status, err := models.ParseStatus(string(req.Status))
	if err != nil {
		s.respondErr(w, apperr.InvalidInput(err.Error(), err))
		return
	}
	req.Status = status

	c, err := s.engine.SendStatusEmail(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, c)
}
