package workflow

import (
	"context"
	"fmt"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/assistant"
	"github.com/fmuoria/resmo/internal/ingestion"
	"github.com/fmuoria/resmo/internal/models"
	"github.com/fmuoria/resmo/internal/objectstore"
)

// ExtractionFailedText is stored as resume text when page images could not be read.
const ExtractionFailedText = "Error: Could not extract text from the provided document. The file might be image-based or corrupted."

const (
	resumeUploadedDetails = "Candidate uploaded their resume."
	resumeAnalyzedDetails = "AI analysis completed by recruiter."
)

// UploadResume ingests a resume file and attaches it to the candidate.
func (e *Engine) UploadResume(ctx context.Context, id, fileName string, data []byte) (*models.Candidate, error) {
	if !ingestion.IsSupported(fileName) {
		return nil, apperr.UnsupportedFile(fmt.Sprintf("unsupported file type: %s (supported: %s)",
			fileName, strings.Join(ingestion.SupportedExtensions, ", ")))
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

	result, err := e.extractor.Extract(ctx, fileName, data)
	if err != nil {
		e.logger.Warn("resume extraction failed",
			zap.String("candidate_id", id),
			zap.String("file", fileName),
			zap.Error(err))
		return nil, err
	}

	var resume models.Resume
	if result.HasImages() {
		resume = models.NewImageResume(result.Images, e.extractImageText(ctx, id, result.Images))
	} else {
		resume = models.NewTextResume(result.Text)
	}
	resume.FileName = fileName

	if e.blobs != nil {
		key := objectstore.ResumeKey(id, fileName)
		if err := e.blobs.Put(ctx, key, data, objectstore.ContentType(fileName)); err != nil {
			return nil, apperr.Internal("failed to store resume file", err)
		}
		resume.ObjectKey = key
	}

	c.Resume = resume
	c.AppendAudit(e.now(), models.ActionResumeUploaded, resumeUploadedDetails)

	if err := e.repo.Replace(ctx, c); err != nil {
		return nil, err
	}

	e.logger.Info("resume uploaded",
		zap.String("candidate_id", id),
		zap.String("file", fileName),
		zap.String("kind", string(resume.Kind)),
		zap.Int("pages", len(resume.Images)))
	e.publish(ctx, c, 1)
	return c, nil
}

// ResumeFile is the original upload of a candidate's resume
type ResumeFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ResumeFile loads the bytes the candidate uploaded.
func (e *Engine) ResumeFile(ctx context.Context, id string) (*ResumeFile, error) {
	c, err := e.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.blobs == nil || c.Resume.ObjectKey == "" {
		return nil, apperr.MissingResumeData(fmt.Sprintf("candidate %s has no stored resume file", id))
	}

	data, err := e.blobs.Get(ctx, c.Resume.ObjectKey)
	if err != nil {
		return nil, apperr.Internal("failed to load resume file", err)
	}

	name := c.Resume.FileName
	if name == "" {
		name = path.Base(c.Resume.ObjectKey)
	}
	return &ResumeFile{Name: name, ContentType: objectstore.ContentType(name), Data: data}, nil
}

// extractImageText reads the text of rendered pages, falling back to a fixed
// note when the model cannot.
func (e *Engine) extractImageText(ctx context.Context, id string, images []models.PageImage) string {
	aiCtx, cancel := e.aiContext(ctx)
	defer cancel()

	text, err := e.assistant.ExtractTextFromImages(aiCtx, images)
	if err != nil || text == "" {
		e.logger.Warn("text extraction from page images failed",
			zap.String("candidate_id", id),
			zap.Int("pages", len(images)),
			zap.Error(err))
		return ExtractionFailedText
	}
	return text
}

// Analyze runs the AI analysis and anonymization of the candidate's resume.
// Either both results are stored or nothing is.
func (e *Engine) Analyze(ctx context.Context, id string) (*models.Candidate, error) {
	release, err := e.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	c, err := e.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Resume.HasData() {
		return nil, apperr.MissingResumeData(fmt.Sprintf("candidate %s has no resume to analyze", id))
	}

	result, err := e.analyzeResume(ctx, c)
	if err != nil {
		e.logger.Error("resume analysis failed", zap.String("candidate_id", id), zap.Error(err))
		return nil, err
	}

	anonymized, err := e.anonymizeResume(ctx, c)
	if err != nil {
		e.logger.Error("resume anonymization failed", zap.String("candidate_id", id), zap.Error(err))
		return nil, err
	}

	analysis := result.Analysis
	c.Analysis = &analysis
	c.RecommendedAction = result.RecommendedAction
	c.ActionJustification = result.ActionJustification
	c.AnonymizedResumeText = anonymized
	c.AppendAudit(e.now(), models.ActionResumeAnalyzed, resumeAnalyzedDetails)

	if err := e.repo.Replace(ctx, c); err != nil {
		return nil, err
	}

	e.logger.Info("resume analyzed",
		zap.String("candidate_id", id),
		zap.Int("fit_score", analysis.FitScore),
		zap.Int("skills", len(analysis.Skills)))
	e.publish(ctx, c, 1)
	return c, nil
}

func (e *Engine) analyzeResume(ctx context.Context, c *models.Candidate) (*assistant.AnalysisResult, error) {
	aiCtx, cancel := e.aiContext(ctx)
	defer cancel()
	return e.assistant.AnalyzeResume(aiCtx, c.Role, c.Resume)
}

func (e *Engine) anonymizeResume(ctx context.Context, c *models.Candidate) (string, error) {
	aiCtx, cancel := e.aiContext(ctx)
	defer cancel()
	return e.assistant.AnonymizeResume(aiCtx, c.Resume.Text)
}
