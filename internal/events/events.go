package events

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/models"
)

// SubjectPrefix prefixes every published subject / routing key.
const SubjectPrefix = "resmo.candidate."

// Event announces one audit-worthy change to a candidate
type Event struct {
	ID          string        `json:"id"`
	CandidateID string        `json:"candidate_id"`
	Action      string        `json:"action"`
	Details     string        `json:"details"`
	Status      models.Status `json:"status"`
	Timestamp   time.Time     `json:"timestamp"`
}

// NewEvent builds an event from an audit entry.
func NewEvent(c *models.Candidate, entry models.AuditLogEntry) Event {
	return Event{
		ID:          uuid.NewString(),
		CandidateID: c.ID,
		Action:      entry.Action,
		Details:     entry.Details,
		Status:      c.Status,
		Timestamp:   entry.Timestamp,
	}
}

// Subject returns the subject, e.g. resmo.candidate.status_changed.
func (e Event) Subject() string {
	return SubjectPrefix + strings.ReplaceAll(strings.ToLower(strings.TrimSpace(e.Action)), " ", "_")
}

// Publisher delivers workflow events to a message broker
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the log only
type LogPublisher struct {
	logger *zap.Logger
}

// NewLogPublisher creates a publisher for deployments without a broker
func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, e Event) error {
	p.logger.Info("workflow event",
		zap.String("subject", e.Subject()),
		zap.String("candidate_id", e.CandidateID),
		zap.String("status", string(e.Status)),
		zap.String("details", e.Details))
	return nil
}

func (p *LogPublisher) Close() error { return nil }
