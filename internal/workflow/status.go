package workflow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/assistant"
	resmomail "github.com/fmuoria/resmo/internal/mail"
	"github.com/fmuoria/resmo/internal/models"
)

const emailSentDetails = "Status update email sent to candidate."

// StatusChange is the recruiter approved email that accompanies a status change
type StatusChange struct {
	Status  models.Status `json:"status"`
	Subject string        `json:"subject"`
	Body    string        `json:"body"`
}

// validateManualTransition checks a recruiter requested status change.
func validateManualTransition(c *models.Candidate, to models.Status) error {
	if c.Status == to {
		return apperr.InvalidTransition(fmt.Sprintf("candidate is already %s", to))
	}
	if to == models.StatusSkillCheckCompleted {
		return apperr.InvalidTransition("a skill check is completed only by the candidate's submission")
	}
	return transition(c, to)
}

// DraftStatusEmail prepares the notification for a status change. The draft
// falls back to a fixed template when the model fails. Nothing is written.
func (e *Engine) DraftStatusEmail(ctx context.Context, id string, to models.Status) (*models.EmailDraft, error) {
	c, err := e.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateManualTransition(c, to); err != nil {
		return nil, err
	}

	draft := &models.EmailDraft{
		CandidateID: c.ID,
		Status:      to,
		To:          c.Email,
		Generated:   true,
	}

	aiCtx, cancel := e.aiContext(ctx)
	defer cancel()

	draft.Subject, draft.Body, err = e.assistant.GenerateStatusEmail(aiCtx, c.Name, c.Role, to)
	if err != nil {
		e.logger.Warn("status email drafting failed, using template",
			zap.String("candidate_id", id),
			zap.String("status", string(to)),
			zap.Error(err))
		draft.Subject, draft.Body = assistant.FallbackStatusEmail(c.Name, c.Role, to)
		draft.Generated = false
	}

	return draft, nil
}

// SendStatusEmail delivers the email and then applies the status change. A
// delivery failure leaves the candidate untouched.
func (e *Engine) SendStatusEmail(ctx context.Context, id string, change StatusChange) (*models.Candidate, error) {
	if strings.TrimSpace(change.Subject) == "" || strings.TrimSpace(change.Body) == "" {
		return nil, apperr.InvalidInput("subject and body are required", nil)
	}

	release, err := e.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := e.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateManualTransition(c, change.Status); err != nil {
		return nil, err
	}

	msg := resmomail.Message{
		From:    e.mailFrom,
		To:      c.Email,
		Subject: change.Subject,
		Body:    change.Body,
	}
	if err := e.sender.Send(ctx, msg); err != nil {
		e.logger.Error("status email delivery failed", zap.String("candidate_id", id), zap.Error(err))
		return nil, apperr.RemoteCallFailure("failed to send status email", err)
	}

	now := e.now()
	c.Status = change.Status
	c.AppendAudit(now, models.ActionStatusChanged, fmt.Sprintf("Status updated to %s", change.Status))
	c.AppendAudit(now, models.ActionEmailSent, emailSentDetails)

	if err := e.repo.Replace(ctx, c); err != nil {
		return nil, err
	}

	e.logger.Info("candidate status changed",
		zap.String("candidate_id", id),
		zap.String("status", string(change.Status)))
	e.publish(ctx, c, 2)
	return c, nil
}
