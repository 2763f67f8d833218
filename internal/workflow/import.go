package workflow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/ingestion"
	resmomail "github.com/fmuoria/resmo/internal/mail"
)

// Inbox lists emailed applications
type Inbox interface {
	FetchApplications(ctx context.Context, subject string, acceptFile func(name string) bool) ([]resmomail.Application, error)
}

// ProgressCallback is called to report progress during an import
type ProgressCallback func(current, total int, message string)

// ImportRequest selects the inbox messages to import
type ImportRequest struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
}

// ImportFailure describes one application that could not be imported
type ImportFailure struct {
	Sender string `json:"sender"`
	File   string `json:"file"`
	Error  string `json:"error"`
}

// ImportResult summarizes an inbox import
type ImportResult struct {
	Created []string        `json:"created"`
	Skipped []string        `json:"skipped"`
	Failed  []ImportFailure `json:"failed"`
}

// ImportFromInbox creates candidates from resumes emailed to the recruiting inbox.
func (e *Engine) ImportFromInbox(ctx context.Context, req ImportRequest, progress ProgressCallback) (*ImportResult, error) {
	if e.inbox == nil {
		return nil, apperr.InvalidInput("inbox import is not configured", nil)
	}
	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Role) == "" {
		return nil, apperr.InvalidInput("subject and role are required", nil)
	}

	apps, err := e.inbox.FetchApplications(ctx, req.Subject, ingestion.IsSupported)
	if err != nil {
		return nil, apperr.RemoteCallFailure("failed to fetch applications", err)
	}

	e.logger.Info("found applications in inbox", zap.Int("count", len(apps)), zap.String("subject", req.Subject))
	return e.ImportApplications(ctx, req.Role, apps, progress), nil
}

// ImportApplications creates a candidate per application and ingests its
// resume. Known senders are skipped; failures do not stop the import.
func (e *Engine) ImportApplications(ctx context.Context, role string, apps []resmomail.Application, progress ProgressCallback) *ImportResult {
	result := &ImportResult{Created: []string{}, Skipped: []string{}, Failed: []ImportFailure{}}
	report := func(current int, message string) {
		if progress != nil {
			progress(current, len(apps), message)
		}
	}

	for i, app := range apps {
		if ctx.Err() != nil {
			result.Failed = append(result.Failed, ImportFailure{Sender: app.SenderEmail, File: app.FileName, Error: ctx.Err().Error()})
			continue
		}
		report(i, fmt.Sprintf("Importing %s (%d/%d)", app.SenderName, i+1, len(apps)))

		if _, err := e.repo.FindByEmail(ctx, app.SenderEmail); err == nil {
			result.Skipped = append(result.Skipped, app.SenderEmail)
			continue
		}

		c, err := e.CreateCandidate(ctx, NewCandidate{Name: app.SenderName, Email: app.SenderEmail, Role: role})
		if err != nil {
			result.Failed = append(result.Failed, ImportFailure{Sender: app.SenderEmail, File: app.FileName, Error: apperr.MessageOf(err)})
			continue
		}
		result.Created = append(result.Created, c.ID)

		if _, err := e.UploadResume(ctx, c.ID, app.FileName, app.Data); err != nil {
			e.logger.Warn("imported candidate without resume",
				zap.String("candidate_id", c.ID),
				zap.String("file", app.FileName),
				zap.Error(err))
			result.Failed = append(result.Failed, ImportFailure{Sender: app.SenderEmail, File: app.FileName, Error: apperr.MessageOf(err)})
		}
	}

	report(len(apps), "Import complete")
	return result
}
