// Package workflow drives candidates through the hiring pipeline: the status
// state machine plus the AI backed steps that move a candidate along it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/assistant"
	"github.com/fmuoria/resmo/internal/events"
	"github.com/fmuoria/resmo/internal/ingestion"
	"github.com/fmuoria/resmo/internal/lock"
	resmomail "github.com/fmuoria/resmo/internal/mail"
	"github.com/fmuoria/resmo/internal/models"
	"github.com/fmuoria/resmo/internal/objectstore"
	"github.com/fmuoria/resmo/internal/skillcheck"
	"github.com/fmuoria/resmo/internal/storage"
)

// DefaultAITimeout bounds every call to the model.
const DefaultAITimeout = 60 * time.Second

// Deps are the collaborators of the engine
type Deps struct {
	Repo      storage.Repository
	Locker    lock.Locker
	Assistant *assistant.Assistant
	Extractor *ingestion.Extractor
	Blobs     objectstore.Store
	Publisher events.Publisher
	Sender    resmomail.Sender
	Inbox     Inbox // optional
	Sessions  *skillcheck.SessionStore
	Logger    *zap.Logger

	// Now defaults to time.Now
	Now       func() time.Time
	AITimeout time.Duration
	MailFrom  string
}

// Engine orchestrates every workflow operation on candidates
type Engine struct {
	repo      storage.Repository
	locker    lock.Locker
	assistant *assistant.Assistant
	extractor *ingestion.Extractor
	blobs     objectstore.Store
	publisher events.Publisher
	sender    resmomail.Sender
	inbox     Inbox
	sessions  *skillcheck.SessionStore
	logger    *zap.Logger
	now       func() time.Time
	aiTimeout time.Duration
	mailFrom  string
}

// New creates a workflow engine
func New(d Deps) *Engine {
	e := &Engine{
		repo:      d.Repo,
		locker:    d.Locker,
		assistant: d.Assistant,
		extractor: d.Extractor,
		blobs:     d.Blobs,
		publisher: d.Publisher,
		sender:    d.Sender,
		inbox:     d.Inbox,
		sessions:  d.Sessions,
		logger:    d.Logger,
		now:       d.Now,
		aiTimeout: d.AITimeout,
		mailFrom:  d.MailFrom,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.aiTimeout <= 0 {
		e.aiTimeout = DefaultAITimeout
	}
	if e.locker == nil {
		e.locker = lock.NewMemoryLocker()
	}
	if e.sessions == nil {
		e.sessions = skillcheck.NewSessionStore(skillcheck.DefaultSessionTTL, e.now)
	}
	if e.publisher == nil {
		e.publisher = events.NewLogPublisher(e.logger)
	}
	return e
}

// NewCandidate is the recruiter input for adding a candidate
type NewCandidate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateCandidate adds a candidate in the New state.
func (e *Engine) CreateCandidate(ctx context.Context, in NewCandidate) (*models.Candidate, error) {
	name := strings.TrimSpace(in.Name)
	role := strings.TrimSpace(in.Role)
	if name == "" || role == "" {
		return nil, apperr.InvalidInput("name and role are required", nil)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(in.Email))
	if err != nil {
		return nil, apperr.InvalidInput(fmt.Sprintf("invalid email %q", in.Email), err)
	}

	now := e.now()
	c := &models.Candidate{
		ID:          "cand-" + uuid.NewString()[:8],
		Name:        name,
		Email:       addr.Address,
		Role:        role,
		Status:      models.StatusNew,
		AppliedDate: now.Format("2006-01-02"),
	}
	c.AppendAudit(now, models.ActionInitialEntry, "Candidate added")

	if err := e.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	e.logger.Info("candidate created", zap.String("candidate_id", c.ID), zap.String("role", c.Role))
	e.publish(ctx, c, 1)
	return c, nil
}

// Get returns one candidate.
func (e *Engine) Get(ctx context.Context, id string) (*models.Candidate, error) {
	return e.repo.Get(ctx, id)
}

// List returns every candidate in creation order.
func (e *Engine) List(ctx context.Context) ([]*models.Candidate, error) {
	return e.repo.List(ctx)
}

// FindByEmail looks a candidate up by login email.
func (e *Engine) FindByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	return e.repo.FindByEmail(ctx, email)
}

// TrackerView is the candidate's progress plus the statuses it may move to next
type TrackerView struct {
	Status             models.Status        `json:"status"`
	Steps              []models.TrackerStep `json:"steps"`
	AllowedTransitions []models.Status      `json:"allowed_transitions"`
}

// Tracker returns the candidate's progress through the pipeline.
func (e *Engine) Tracker(ctx context.Context, id string) (*TrackerView, error) {
	c, err := e.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TrackerView{
		Status:             c.Status,
		Steps:              models.Tracker(c.Status),
		AllowedTransitions: models.NextStatuses(c.Status),
	}, nil
}

// acquire takes the per-candidate operation lock.
func (e *Engine) acquire(ctx context.Context, id string) (func(), error) {
	release, err := e.locker.TryLock(ctx, id)
	if errors.Is(err, lock.ErrHeld) {
		return nil, apperr.OperationInProgress(fmt.Sprintf("another operation is in progress for candidate %s", id))
	}
	if err != nil {
		return nil, apperr.Internal("failed to acquire candidate lock", err)
	}
	return release, nil
}

// aiContext bounds a model call by the configured timeout.
func (e *Engine) aiContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, e.aiTimeout)
}

// transition validates a status change requested through a workflow entry point.
func transition(c *models.Candidate, to models.Status) error {
	if !to.IsValid() {
		return apperr.InvalidInput(fmt.Sprintf("unknown status %q", to), nil)
	}
	if c.Status.IsTerminal() {
		return apperr.InvalidTransition(fmt.Sprintf("candidate is already %s", c.Status))
	}
	if !models.CanTransition(c.Status, to) {
		return apperr.InvalidTransition(fmt.Sprintf("cannot move candidate from %s to %s", c.Status, to))
	}
	return nil
}

// publish announces the last n audit entries of c. Failures are logged only.
func (e *Engine) publish(ctx context.Context, c *models.Candidate, n int) {
	if n > len(c.AuditLog) {
		n = len(c.AuditLog)
	}
	for _, entry := range c.AuditLog[len(c.AuditLog)-n:] {
		ev := events.NewEvent(c, entry)
		if err := e.publisher.Publish(ctx, ev); err != nil {
			e.logger.Warn("failed to publish workflow event",
				zap.String("candidate_id", c.ID),
				zap.String("subject", ev.Subject()),
				zap.Error(err))
		}
	}
}
