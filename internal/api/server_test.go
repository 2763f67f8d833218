package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/assistant"
	"github.com/fmuoria/resmo/internal/auth"
	"github.com/fmuoria/resmo/internal/ingestion"
	"github.com/fmuoria/resmo/internal/llm/llmtest"
	resmomail "github.com/fmuoria/resmo/internal/mail"
	"github.com/fmuoria/resmo/internal/models"
	"github.com/fmuoria/resmo/internal/objectstore"
	"github.com/fmuoria/resmo/internal/stats"
	"github.com/fmuoria/resmo/internal/storage"
	"github.com/fmuoria/resmo/internal/workflow"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	now := time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	repo := storage.NewMemoryRepository()
	seed, err := storage.DefaultSeed(now)
	if err != nil {
		t.Fatalf("DefaultSeed() error = %v", err)
	}
	if _, err := storage.Seed(ctx, repo, seed, zap.NewNop()); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	engine := workflow.New(workflow.Deps{
		Repo:      repo,
		Assistant: assistant.New(llmtest.New(), zap.NewNop()),
		Extractor: ingestion.NewExtractor(nil),
		Blobs:     objectstore.NewLocalStore(t.TempDir()),
		Sender:    resmomail.NewLogSender(zap.NewNop()),
		Logger:    zap.NewNop(),
		Now:       func() time.Time { return now },
	})
	authService := auth.NewService("", repo, time.Hour, func() time.Time { return now })

	s := NewServer(engine, authService, repo, zap.NewNop())
	s.now = func() time.Time { return now }
	return s
}

func (s *Server) do(t *testing.T, method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func (s *Server) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var data []byte
	if body != nil {
		var err error
		if data, err = json.Marshal(body); err != nil {
			t.Fatal(err)
		}
	}
	return s.do(t, method, path, token, data, "application/json")
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid response body %q: %v", rec.Body.String(), err)
	}
	if data != nil && env.Success {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("invalid data %s: %v", env.Data, err)
		}
	}
	return env
}

func (s *Server) login(t *testing.T, req auth.LoginRequest) string {
	t.Helper()
	rec := s.doJSON(t, http.MethodPost, "/api/v1/login", "", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var session auth.Session
	decodeEnvelope(t, rec, &session)
	return session.Token
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health", "/ready"} {
		rec := s.do(t, http.MethodGet, path, "", nil, "")
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d", path, rec.Code)
		}
		if env := decodeEnvelope(t, rec, nil); !env.Success {
			t.Errorf("%s expected success envelope", path)
		}
	}
}

func TestLoginCandidates(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/login/candidates", "", nil, "")
	var identities []candidateIdentity
	decodeEnvelope(t, rec, &identities)
	if len(identities) != 8 {
		t.Fatalf("Expected 8 identities, got %d", len(identities))
	}
	if identities[0].ID != "cand-1" || identities[0].Email != "candidate.1@example.com" {
		t.Errorf("Unexpected first identity %+v", identities[0])
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	s := newTestServer(t)

	rec := s.doJSON(t, http.MethodPost, "/api/v1/login", "", auth.LoginRequest{Role: auth.RoleRecruiter, Password: "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	env := decodeEnvelope(t, rec, nil)
	if env.Success || env.Error == nil || env.Error.Code != "unauthorized" {
		t.Errorf("Unexpected envelope %+v", env)
	}
}

func TestAccessControl(t *testing.T) {
	s := newTestServer(t)
	recruiter := s.login(t, auth.LoginRequest{Role: auth.RoleRecruiter, Password: "password"})
	candidate := s.login(t, auth.LoginRequest{Role: auth.RoleCandidate, Email: "candidate.3@example.com", Password: "password"})

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", http.MethodGet, "/api/v1/candidates", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/v1/candidates", "bogus", http.StatusUnauthorized},
		{"recruiter lists", http.MethodGet, "/api/v1/candidates", recruiter, http.StatusOK},
		{"candidate cannot list", http.MethodGet, "/api/v1/candidates", candidate, http.StatusForbidden},
		{"candidate reads own record", http.MethodGet, "/api/v1/candidates/cand-3", candidate, http.StatusOK},
		{"candidate cannot read others", http.MethodGet, "/api/v1/candidates/cand-1", candidate, http.StatusForbidden},
		{"candidate tracker", http.MethodGet, "/api/v1/candidates/cand-3/tracker", candidate, http.StatusOK},
		{"candidate cannot analyze", http.MethodPost, "/api/v1/candidates/cand-3/analyze", candidate, http.StatusForbidden},
		{"recruiter cannot take skill check", http.MethodPost, "/api/v1/candidates/cand-6/skill-check/start", recruiter, http.StatusForbidden},
		{"candidate cannot see stats", http.MethodGet, "/api/v1/stats", candidate, http.StatusForbidden},
		{"unknown candidate", http.MethodGet, "/api/v1/candidates/cand-404", recruiter, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.token, nil, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestCreateCandidate(t *testing.T) {
	s := newTestServer(t)
	recruiter := s.login(t, auth.LoginRequest{Role: auth.RoleRecruiter, Password: "password"})

	rec := s.doJSON(t, http.MethodPost, "/api/v1/candidates", recruiter, workflow.NewCandidate{
		Name: "Ada Lovelace", Email: "ada@example.com", Role: "Backend Engineer",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var c models.Candidate
	decodeEnvelope(t, rec, &c)
	if c.Status != models.StatusNew || len(c.AuditLog) != 1 {
		t.Errorf("Unexpected candidate %+v", c)
	}

	rec = s.doJSON(t, http.MethodPost, "/api/v1/candidates", recruiter, workflow.NewCandidate{Name: "X", Email: "not-an-email", Role: "QA"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid email status = %d, want 400", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/candidates", recruiter, []byte("{"), "application/json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad JSON status = %d, want 400", rec.Code)
	}
}

func multipartBody(t *testing.T, fileName string, data []byte) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes(), w.FormDataContentType()
}

func TestUploadResume(t *testing.T) {
	s := newTestServer(t)
	candidate := s.login(t, auth.LoginRequest{Role: auth.RoleCandidate, Email: "candidate.3@example.com", Password: "password"})

	body, contentType := multipartBody(t, "resume.txt", []byte("Hello"))
	rec := s.do(t, http.MethodPost, "/api/v1/candidates/cand-3/resume", candidate, body, contentType)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var c models.Candidate
	decodeEnvelope(t, rec, &c)
	if c.Resume.Text != "Hello" {
		t.Errorf("Resume text = %q, want Hello", c.Resume.Text)
	}
	last := c.AuditLog[len(c.AuditLog)-1]
	if last.Action != models.ActionResumeUploaded {
		t.Errorf("Last action = %q", last.Action)
	}

	tests := []struct {
		name     string
		fileName string
		data     []byte
		want     int
		code     string
	}{
		{"unsupported type", "resume.exe", []byte("MZ"), http.StatusUnsupportedMediaType, "unsupported_file"},
		{"too large", "resume.txt", bytes.Repeat([]byte("a"), maxUploadSize+1), http.StatusRequestEntityTooLarge, "file_too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, tt.fileName, tt.data)
			rec := s.do(t, http.MethodPost, "/api/v1/candidates/cand-3/resume", candidate, body, contentType)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if env := decodeEnvelope(t, rec, nil); env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("Unexpected error %+v", env.Error)
			}
		})
	}

	rec = s.do(t, http.MethodPost, "/api/v1/candidates/cand-3/resume", candidate, []byte("plain"), "text/plain")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non multipart status = %d, want 400", rec.Code)
	}
}

func TestResumeFileDownload(t *testing.T) {
	s := newTestServer(t)
	recruiter := s.login(t, auth.LoginRequest{Role: auth.RoleRecruiter, Password: "password"})
	candidate := s.login(t, auth.LoginRequest{Role: auth.RoleCandidate, Email: "candidate.3@example.com", Password: "password"})

	body, contentType := multipartBody(t, "jane doe.txt", []byte("Jane Doe resume"))
	if rec := s.do(t, http.MethodPost, "/api/v1/candidates/cand-3/resume", candidate, body, contentType); rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec := s.do(t, http.MethodGet, "/api/v1/candidates/cand-3/resume/file", recruiter, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="jane doe.txt"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "Jane Doe resume" {
		t.Errorf("Body = %q", rec.Body.String())
	}

	if rec := s.do(t, http.MethodGet, "/api/v1/candidates/cand-3/resume/file", candidate, nil, ""); rec.Code != http.StatusForbidden {
		t.Errorf("candidate status = %d, want 403", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/candidates/cand-1/resume/file", recruiter, nil, "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("no stored file status = %d, want 422", rec.Code)
	}
	if env := decodeEnvelope(t, rec, nil); env.Error == nil || env.Error.Code != "missing_resume_data" {
		t.Errorf("Unexpected error %+v", env.Error)
	}
}

func TestTrackerAllowedTransitions(t *testing.T) {
	s := newTestServer(t)
	candidate := s.login(t, auth.LoginRequest{Role: auth.RoleCandidate, Email: "candidate.3@example.com", Password: "password"})

	rec := s.do(t, http.MethodGet, "/api/v1/candidates/cand-3/tracker", candidate, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var view workflow.TrackerView
	decodeEnvelope(t, rec, &view)

	if view.Status != models.StatusNew || len(view.Steps) != 6 || !view.Steps[0].Active {
		t.Errorf("Unexpected tracker %+v", view)
	}
	want := models.NextStatuses(models.StatusNew)
	if len(view.AllowedTransitions) != len(want) {
		t.Fatalf("AllowedTransitions = %v, want %v", view.AllowedTransitions, want)
	}
	for i := range want {
		if view.AllowedTransitions[i] != want[i] {
			t.Errorf("AllowedTransitions[%d] = %s, want %s", i, view.AllowedTransitions[i], want[i])
		}
	}
}

func TestSkillCheckOnTerminalCandidate(t *testing.T) {
	s := newTestServer(t)
	recruiter := s.login(t, auth.LoginRequest{Role: auth.RoleRecruiter, Password: "password"})

	rec := s.do(t, http.MethodPost, "/api/v1/candidates/cand-8/skill-check", recruiter, nil, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	if env := decodeEnvelope(t, rec, nil); env.Error.Code != "invalid_transition" {
		t.Errorf("code = %q", env.Error.Code)
	}
}

func TestStatusDraftAndSend(t *testing.T) {
	s := newTestServer(t)
	recruiter := s.login(t, auth.LoginRequest{Role: auth.RoleRecruiter, Password: "password"})

	rec := s.doJSON(t, http.MethodPost, "/api/v1/candidates/cand-3/status/draft", recruiter, statusRequest{Status: "shortlisted"})
	if rec.Code != http.StatusOK {
		t.Fatalf("draft status = %d, body %s", rec.Code, rec.Body.String())
	}
	var draft models.EmailDraft
	decodeEnvelope(t, rec, &draft)
	if draft.Subject == "" || draft.Body == "" {
		t.Errorf("Expected fallback draft, got %+v", draft)
	}

	rec = s.doJSON(t, http.MethodPost, "/api/v1/candidates/cand-3/status/draft", recruiter, statusRequest{Status: "Promoted"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown status = %d, want 400", rec.Code)
	}

	rec = s.doJSON(t, http.MethodPost, "/api/v1/candidates/cand-3/status/send", recruiter, workflow.StatusChange{
		Status:  "Shortlisted",
		Subject: draft.Subject,
		Body:    draft.Body,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("send status = %d, body %s", rec.Code, rec.Body.String())
	}
	var c models.Candidate
	decodeEnvelope(t, rec, &c)
	if c.Status != models.StatusShortlisted {
		t.Errorf("Status = %q, want Shortlisted", c.Status)
	}
	n := len(c.AuditLog)
	if c.AuditLog[n-2].Action != models.ActionStatusChanged || c.AuditLog[n-1].Action != models.ActionEmailSent {
		t.Errorf("Unexpected audit tail %+v", c.AuditLog[n-2:])
	}
}

func TestStats(t *testing.T) {
	s := newTestServer(t)
	recruiter := s.login(t, auth.LoginRequest{Role: auth.RoleRecruiter, Password: "password"})

	rec := s.do(t, http.MethodGet, "/api/v1/stats", recruiter, nil, "")
	var summary stats.Summary
	decodeEnvelope(t, rec, &summary)
	if summary.TotalCandidates != 8 {
		t.Errorf("TotalCandidates = %d, want 8", summary.TotalCandidates)
	}
}

func TestPipelineReport(t *testing.T) {
	s := newTestServer(t)
	recruiter := s.login(t, auth.LoginRequest{Role: auth.RoleRecruiter, Password: "password"})

	rec := s.do(t, http.MethodGet, "/api/v1/reports/pipeline.xlsx", recruiter, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != xlsxContentType {
		t.Errorf("Content-Type = %q", got)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "resmo_pipeline_20240603_100000.xlsx") {
		t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Error("Expected a zip based workbook")
	}
}

func TestGmailImportNotConfigured(t *testing.T) {
	s := newTestServer(t)
	recruiter := s.login(t, auth.LoginRequest{Role: auth.RoleRecruiter, Password: "password"})

	rec := s.doJSON(t, http.MethodPost, "/api/v1/imports/gmail", recruiter, workflow.ImportRequest{Subject: "Application", Role: "QA"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestLogout(t *testing.T) {
	s := newTestServer(t)
	recruiter := s.login(t, auth.LoginRequest{Role: auth.RoleRecruiter, Password: "password"})

	if rec := s.do(t, http.MethodPost, "/api/v1/logout", recruiter, nil, ""); rec.Code != http.StatusOK {
		t.Fatalf("logout status = %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/v1/me", recruiter, nil, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("status after logout = %d, want 401", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind apperr.Kind
		want int
	}{
		{apperr.KindInvalidInput, http.StatusBadRequest},
		{apperr.KindNotFound, http.StatusNotFound},
		{apperr.KindOperationInProgress, http.StatusConflict},
		{apperr.KindInvalidTransition, http.StatusConflict},
		{apperr.KindEmptyDocument, http.StatusUnprocessableEntity},
		{apperr.KindMissingResumeData, http.StatusUnprocessableEntity},
		{apperr.KindRemoteCallFailure, http.StatusBadGateway},
		{apperr.KindInternal, http.StatusInternalServerError},
		{"", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.kind); got != tt.want {
			t.Errorf("statusFor(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
