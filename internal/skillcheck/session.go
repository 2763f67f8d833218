package skillcheck

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/models"
)

// DefaultSessionTTL is how long an unsubmitted quiz stays valid.
const DefaultSessionTTL = time.Hour

// Session is a generated quiz waiting for the candidate's answers
type Session struct {
	ID          string
	CandidateID string
	Role        string
	Skills      []string
	Questions   []models.SkillQuestion
	CreatedAt   time.Time
}

// PublicQuestion is a question as shown to the candidate, without the answer
type PublicQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// PublicView is the candidate facing view of a session
type PublicView struct {
	SessionID string           `json:"session_id"`
	Role      string           `json:"role"`
	Skills    []string         `json:"skills"`
	Questions []PublicQuestion `json:"questions"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// SessionStore holds sessions in memory
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates a store whose sessions expire after ttl.
func NewSessionStore(ttl time.Duration, now func() time.Time) *SessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SessionStore{sessions: make(map[string]*Session), ttl: ttl, now: now}
}

// Create stores a new session and returns it.
func (s *SessionStore) Create(candidateID, role string, skills []string, questions []models.SkillQuestion) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictExpiredLocked()

	session := &Session{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		Role:        role,
		Skills:      append([]string(nil), skills...),
		Questions:   append([]models.SkillQuestion(nil), questions...),
		CreatedAt:   s.now(),
	}
	s.sessions[session.ID] = session
	return session
}

// Get returns the live session for the candidate.
func (s *SessionStore) Get(candidateID, sessionID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok || session.CandidateID != candidateID {
		return nil, apperr.NotFound("skill check session not found")
	}
	if s.expiredLocked(session) {
		delete(s.sessions, sessionID)
		return nil, apperr.NotFound("skill check session has expired")
	}
	return session, nil
}

// Delete removes a session once it has been submitted.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len returns the number of stored sessions, expired ones included.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// View returns the session without correct answers.
func (s *SessionStore) View(session *Session) PublicView {
	questions := make([]PublicQuestion, len(session.Questions))
	for i, q := range session.Questions {
		questions[i] = PublicQuestion{Question: q.Question, Options: append([]string(nil), q.Options...)}
	}
	return PublicView{
		SessionID: session.ID,
		Role:      session.Role,
		Skills:    append([]string(nil), session.Skills...),
		Questions: questions,
		ExpiresAt: session.CreatedAt.Add(s.ttl),
	}
}

func (s *SessionStore) expiredLocked(session *Session) bool {
	return s.now().Sub(session.CreatedAt) > s.ttl
}

func (s *SessionStore) evictExpiredLocked() {
	for id, session := range s.sessions {
		if s.expiredLocked(session) {
			delete(s.sessions, id)
		}
	}
}
