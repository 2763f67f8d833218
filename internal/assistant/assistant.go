package assistant

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/llm"
	"github.com/fmuoria/resmo/internal/models"
)

const (
	// QuestionCount is the number of questions in every skill check.
	QuestionCount = 5
	// OptionCount is the number of answer options per question.
	OptionCount = 4
	maxSkills   = 8
)

// AnalysisResult is the analysis plus the recruiter recommendation
type AnalysisResult struct {
	Analysis            models.CandidateAnalysis
	RecommendedAction   string
	ActionJustification string
}

// Assistant turns workflow requests into model prompts
type Assistant struct {
	gateway llm.Gateway
	logger  *zap.Logger
}

// New creates an assistant backed by the given gateway
func New(gateway llm.Gateway, logger *zap.Logger) *Assistant {
	return &Assistant{gateway: gateway, logger: logger}
}

type analysisResponse struct {
	Summary         string   `json:"summary"`
	Skills          []string `json:"skills"`
	ExperienceYears float64  `json:"experienceYears"`
	Education       []string `json:"education"`
	FitScore        float64  `json:"fitScore"`
	WorkHistory     []struct {
		Company     string `json:"company"`
		Title       string `json:"title"`
		StartDate   string `json:"startDate"`
		EndDate     string `json:"endDate"`
		Description string `json:"description"`
		Industry    string `json:"industry"`
	} `json:"workHistory"`
	RecommendedAction   string `json:"recommendedAction"`
	ActionJustification string `json:"actionJustification"`
}

// AnalyzeResume produces a structured analysis. Page images are preferred
// over text when the resume has them.
func (a *Assistant) AnalyzeResume(ctx context.Context, role string, resume models.Resume) (*AnalysisResult, error) {
	if !resume.HasData() {
		return nil, apperr.MissingResumeData("resume data is missing")
	}

	var parts []llm.Part
	if len(resume.Images) > 0 {
		parts = append(parts, llm.Text(buildAnalysisPrompt(role, "")))
		for _, img := range resume.Images {
			parts = append(parts, llm.Image(img.MIMEType, img.Data))
		}
	} else {
		parts = append(parts, llm.Text(buildAnalysisPrompt(role, prepareResumeText(resume.Text))))
	}

	var resp analysisResponse
	if err := a.gateway.GenerateStructured(ctx, analysisSchema, &resp, parts...); err != nil {
		return nil, fmt.Errorf("failed to analyze resume: %w", err)
	}

	result := &AnalysisResult{
		Analysis: models.CandidateAnalysis{
			Summary:         resp.Summary,
			Skills:          limitSkills(resp.Skills),
			ExperienceYears: int(math.Round(resp.ExperienceYears)),
			Education:       resp.Education,
			FitScore:        int(math.Round(resp.FitScore)),
		},
		RecommendedAction:   resp.RecommendedAction,
		ActionJustification: resp.ActionJustification,
	}
	for _, w := range resp.WorkHistory {
		result.Analysis.WorkHistory = append(result.Analysis.WorkHistory, models.WorkHistoryEntry{
			Company:     w.Company,
			Title:       w.Title,
			StartDate:   w.StartDate,
			EndDate:     w.EndDate,
			Description: w.Description,
			Industry:    w.Industry,
		})
	}

	if result.Analysis.FitScore < 1 || result.Analysis.FitScore > 10 {
		a.logger.Warn("fit score outside 1-10",
			zap.String("role", role),
			zap.Int("fit_score", result.Analysis.FitScore))
	}

	return result, nil
}

func limitSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		out = append(out, s)
		if len(out) == maxSkills {
			break
		}
	}
	return out
}

// AnonymizeResume strips personal details, replacing the name with [Candidate].
func (a *Assistant) AnonymizeResume(ctx context.Context, resumeText string) (string, error) {
	text, err := a.gateway.GenerateText(ctx, llm.Text(buildAnonymizePrompt(prepareResumeText(resumeText))))
	if err != nil {
		return "", fmt.Errorf("failed to anonymize resume: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// ExtractTextFromImages reads the text of rendered resume pages in order.
func (a *Assistant) ExtractTextFromImages(ctx context.Context, images []models.PageImage) (string, error) {
	if len(images) == 0 {
		return "", apperr.MissingResumeData("no page images to read")
	}

	parts := []llm.Part{llm.Text(buildExtractTextPrompt(len(images)))}
	for _, img := range images {
		parts = append(parts, llm.Image(img.MIMEType, img.Data))
	}

	text, err := a.gateway.GenerateText(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("failed to extract text from images: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// GenerateSkillCheck asks for exactly QuestionCount questions of OptionCount options.
func (a *Assistant) GenerateSkillCheck(ctx context.Context, role string, skills []string) ([]models.SkillQuestion, error) {
	var questions []models.SkillQuestion
	var raw []struct {
		Question           string   `json:"question"`
		Options            []string `json:"options"`
		CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	}

	if err := a.gateway.GenerateStructured(ctx, skillCheckSchema, &raw, llm.Text(buildSkillCheckPrompt(role, skills))); err != nil {
		return nil, fmt.Errorf("failed to generate skill check: %w", err)
	}

	for _, q := range raw {
		questions = append(questions, models.SkillQuestion{
			Question:           q.Question,
			Options:            q.Options,
			CorrectAnswerIndex: q.CorrectAnswerIndex,
		})
	}

	if err := ValidateQuestions(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// ValidateQuestions checks the question count, option count and answer indexes.
func ValidateQuestions(questions []models.SkillQuestion) error {
	if len(questions) != QuestionCount {
		return apperr.InvalidResponse(fmt.Sprintf("expected %d questions, got %d", QuestionCount, len(questions)), nil)
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return apperr.InvalidResponse(fmt.Sprintf("question %d is empty", i+1), nil)
		}
		if len(q.Options) != OptionCount {
			return apperr.InvalidResponse(fmt.Sprintf("question %d has %d options, expected %d", i+1, len(q.Options), OptionCount), nil)
		}
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= OptionCount {
			return apperr.InvalidResponse(fmt.Sprintf("question %d has answer index %d out of range", i+1, q.CorrectAnswerIndex), nil)
		}
	}
	return nil
}

// SuggestLearningPath returns 2-3 resources for each weak skill.
func (a *Assistant) SuggestLearningPath(ctx context.Context, role string, weakSkills []string) ([]models.LearningPath, error) {
	var paths []models.LearningPath
	if err := a.gateway.GenerateStructured(ctx, learningPathSchema, &paths, llm.Text(buildLearningPathPrompt(role, weakSkills))); err != nil {
		return nil, fmt.Errorf("failed to suggest learning path: %w", err)
	}
	return paths, nil
}

// GenerateStatusEmail drafts a subject and body for a status change.
func (a *Assistant) GenerateStatusEmail(ctx context.Context, name, role string, status models.Status) (subject, body string, err error) {
	var resp struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := a.gateway.GenerateStructured(ctx, emailSchema, &resp, llm.Text(buildStatusEmailPrompt(name, role, status))); err != nil {
		return "", "", fmt.Errorf("failed to generate status email: %w", err)
	}
	if strings.TrimSpace(resp.Subject) == "" || strings.TrimSpace(resp.Body) == "" {
		return "", "", apperr.InvalidResponse("email draft is missing subject or body", nil)
	}
	return resp.Subject, resp.Body, nil
}

// FallbackStatusEmail is the fixed template used when drafting fails.
func FallbackStatusEmail(name, role string, status models.Status) (subject, body string) {
	subject = fmt.Sprintf("Update on your application for %s", role)
	body = fmt.Sprintf("Hi %s,\n\nThis is an update regarding your application. Your new status is: %s.\n\nBest,\nThe Resmo Team", name, status)
	return subject, body
}
