package api

import (
	"bytes"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/export"
	"github.com/fmuoria/resmo/internal/stats"
	"github.com/fmuoria/resmo/internal/workflow"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.engine.List(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats.Compute(candidates))
}

// handlePipelineReport streams the pipeline as an Excel workbook
func (s *Server) handlePipelineReport(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.engine.List(r.Context())
	if err != nil {
		s.respondErr(w, err)
		return
	}

	now := s.now()
	var buf bytes.Buffer
	if err := export.WriteExcel(&buf, candidates, now); err != nil {
		s.respondErr(w, apperr.Internal("failed to build report", err))
		return
	}

	fileName := fmt.Sprintf("resmo_pipeline_%s.xlsx", now.Format("20060102_150405"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Warn("failed to write report", zap.Error(err))
	}
}

// handleGmailImport creates candidates from emailed applications
func (s *Server) handleGmailImport(w http.ResponseWriter, r *http.Request) {
	var req workflow.ImportRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}

	progress := func(current, total int, message string) {
		s.logger.Info("import progress",
			zap.Int("current", current),
			zap.Int("total", total),
			zap.String("message", message),
		)
	}

	result, err := s.engine.ImportFromInbox(r.Context(), req, progress)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
