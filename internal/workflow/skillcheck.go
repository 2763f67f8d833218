package workflow

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/models"
	"github.com/fmuoria/resmo/internal/skillcheck"
)

const skillCheckSentDetails = "Recruiter initiated skill check."

// SubmitResult is the outcome of a submitted skill check
type SubmitResult struct {
	Candidate    *models.Candidate        `json:"candidate"`
	Score        int                      `json:"score"`
	Details      models.SkillCheckDetails `json:"details"`
	WeakSkills   []string                 `json:"weak_skills"`
	LearningPath []models.LearningPath    `json:"learning_path"`
}

// SendSkillCheck moves the candidate to SkillCheckPending.
func (e *Engine) SendSkillCheck(ctx context.Context, id string) (*models.Candidate, error) {
	release, err := e.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := e.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status == models.StatusSkillCheckPending {
		return nil, apperr.InvalidTransition("a skill check is already pending")
	}
	if err := transition(c, models.StatusSkillCheckPending); err != nil {
		return nil, err
	}

	c.Status = models.StatusSkillCheckPending
	c.AppendAudit(e.now(), models.ActionSkillCheckSent, skillCheckSentDetails)

	if err := e.repo.Replace(ctx, c); err != nil {
		return nil, err
	}

	e.logger.Info("skill check sent", zap.String("candidate_id", id))
	e.publish(ctx, c, 1)
	return c, nil
}

// StartSkillCheck generates a quiz for a candidate with a pending skill check.
// Nothing is written to the candidate.
func (e *Engine) StartSkillCheck(ctx context.Context, id string) (*skillcheck.PublicView, error) {
	c, err := e.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status != models.StatusSkillCheckPending {
		return nil, apperr.InvalidTransition(fmt.Sprintf("no skill check is pending (status is %s)", c.Status))
	}

	skills := skillcheck.SkillsOrDefault(c.Skills())

	aiCtx, cancel := e.aiContext(ctx)
	defer cancel()

	questions, err := e.assistant.GenerateSkillCheck(aiCtx, c.Role, skills)
	if err != nil {
		e.logger.Error("skill check generation failed", zap.String("candidate_id", id), zap.Error(err))
		return nil, err
	}

	session := e.sessions.Create(id, c.Role, skills, questions)
	view := e.sessions.View(session)

	e.logger.Info("skill check started", zap.String("candidate_id", id), zap.String("session_id", session.ID))
	return &view, nil
}

// SubmitSkillCheck scores the answers, records the result and moves the
// candidate to SkillCheckCompleted. The learning path is requested after the
// result is stored; its failure does not fail the submission.
func (e *Engine) SubmitSkillCheck(ctx context.Context, id, sessionID string, answers []int) (*SubmitResult, error) {
	session, err := e.sessions.Get(id, sessionID)
	if err != nil {
		return nil, err
	}
	if err := skillcheck.ValidateAnswers(session.Questions, answers); err != nil {
		return nil, apperr.InvalidInput(err.Error(), err)
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
	if c.Status != models.StatusSkillCheckPending {
		return nil, apperr.InvalidTransition(fmt.Sprintf("no skill check is pending (status is %s)", c.Status))
	}
	if err := transition(c, models.StatusSkillCheckCompleted); err != nil {
		return nil, err
	}

	score := skillcheck.Score(session.Questions, answers)
	weak := skillcheck.WeakSkills(session.Questions, answers, session.Skills)
	details := skillcheck.Details(score, session.Skills, weak)

	c.Status = models.StatusSkillCheckCompleted
	c.SkillCheckScore = &score
	c.SkillCheckDetails = &details
	c.AppendAudit(e.now(), models.ActionSkillCheckCompleted, fmt.Sprintf("Candidate scored %d%%", score))

	if err := e.repo.Replace(ctx, c); err != nil {
		return nil, err
	}
	e.sessions.Delete(sessionID)
	release()

	e.logger.Info("skill check completed",
		zap.String("candidate_id", id),
		zap.Int("score", score),
		zap.Strings("weak_skills", weak))
	e.publish(ctx, c, 1)

	result := &SubmitResult{
		Candidate:    c,
		Score:        score,
		Details:      details,
		WeakSkills:   weak,
		LearningPath: []models.LearningPath{},
	}

	if len(weak) > 0 {
		aiCtx, cancel := e.aiContext(ctx)
		defer cancel()

		path, err := e.assistant.SuggestLearningPath(aiCtx, session.Role, weak)
		if err != nil {
			e.logger.Warn("learning path suggestion failed", zap.String("candidate_id", id), zap.Error(err))
		} else if path != nil {
			result.LearningPath = path
		}
	}

	return result, nil
}
