// Package auth implements the shared-password login and bearer sessions.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/models"
)

// Role is who a session acts as
type Role string

const (
	RoleRecruiter Role = "recruiter"
	RoleCandidate Role = "candidate"
)

// DefaultPassword is the shared demo password.
const DefaultPassword = "password"

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 12 * time.Hour

const tokenBytes = 24

// Session is an authenticated identity
type Session struct {
	Token       string    `json:"token"`
	Role        Role      `json:"role"`
	CandidateID string    `json:"candidate_id,omitempty"`
	Name        string    `json:"name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LoginRequest is the login form
type LoginRequest struct {
	Role     Role   `json:"role"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// CandidateDirectory resolves a candidate login email
type CandidateDirectory interface {
	FindByEmail(ctx context.Context, email string) (*models.Candidate, error)
}

// Service issues and checks session tokens
type Service struct {
	password  string
	directory CandidateDirectory
	ttl       time.Duration
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]Session
}

// NewService creates an auth service. An empty password selects DefaultPassword.
func NewService(password string, directory CandidateDirectory, ttl time.Duration, now func() time.Time) *Service {
	if password == "" {
		password = DefaultPassword
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		password:  password,
		directory: directory,
		ttl:       ttl,
		now:       now,
		sessions:  make(map[string]Session),
	}
}

// Login checks the password and opens a session.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.password)) != 1 {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	session := Session{Role: req.Role, ExpiresAt: s.now().Add(s.ttl)}
	switch req.Role {
	case RoleRecruiter:
		session.Name = "Recruiter"
	case RoleCandidate:
		email := strings.TrimSpace(req.Email)
		if email == "" {
			return nil, apperr.InvalidInput("email is required for candidate login", nil)
		}
		c, err := s.directory.FindByEmail(ctx, email)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				return nil, apperr.Unauthorized("invalid credentials")
			}
			return nil, err
		}
		session.CandidateID = c.ID
		session.Name = c.Name
	default:
		return nil, apperr.InvalidInput("role must be recruiter or candidate", nil)
	}

	token, err := newToken()
	if err != nil {
		return nil, apperr.Internal("failed to create session token", err)
	}
	session.Token = token

	s.mu.Lock()
	s.evictExpiredLocked()
	s.sessions[token] = session
	s.mu.Unlock()

	return &session, nil
}

// Authenticate returns the live session for a bearer token.
func (s *Service) Authenticate(token string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return nil, apperr.Unauthorized("invalid or expired session")
	}
	if s.now().After(session.ExpiresAt) {
		delete(s.sessions, token)
		return nil, apperr.Unauthorized("invalid or expired session")
	}
	return &session, nil
}

func (s *Service) evictExpiredLocked() {
	now := s.now()
	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// Logout ends a session.
func (s *Service) Logout(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
}

// CanAccessCandidate reports whether the session may act on a candidate.
func (s *Session) CanAccessCandidate(candidateID string) bool {
	return s.Role == RoleRecruiter || (s.Role == RoleCandidate && s.CandidateID == candidateID)
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

type contextKey struct{}

// WithSession stores the session in ctx.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}
