package storage

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/models"
)

//go:embed seed/candidates.yaml
var defaultSeed []byte

type seedFile struct {
	Candidates []seedCandidate `yaml:"candidates"`
}

type seedCandidate struct {
	models.Candidate `yaml:",inline"`
	Note             string `yaml:"note"`
}

// ParseSeed decodes a YAML seed file. Candidates without an audit log get an
// Initial Entry stamped with now.
func ParseSeed(data []byte, now time.Time) ([]*models.Candidate, error) {
	var file seedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}

	out := make([]*models.Candidate, 0, len(file.Candidates))
	for i := range file.Candidates {
		c := file.Candidates[i].Candidate
		if c.ID == "" || c.Email == "" {
			return nil, fmt.Errorf("seed candidate %d is missing id or email", i)
		}
		if !c.Status.IsValid() {
			return nil, fmt.Errorf("seed candidate %s has unknown status %q", c.ID, c.Status)
		}
		if c.Resume.Kind == models.ResumeNone && c.Resume.Text != "" {
			c.Resume.Kind = models.ResumeText
		}
		if len(c.AuditLog) == 0 {
			note := file.Candidates[i].Note
			if note == "" {
				note = "Candidate added"
			}
			c.AppendAudit(now, models.ActionInitialEntry, note)
		}
		out = append(out, &c)
	}
	return out, nil
}

// DefaultSeed returns the bundled demo candidates.
func DefaultSeed(now time.Time) ([]*models.Candidate, error) {
	return ParseSeed(defaultSeed, now)
}

// LoadSeedFile reads seed candidates from a YAML file on disk.
func LoadSeedFile(path string, now time.Time) ([]*models.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data, now)
}

// Seed creates every candidate that does not exist yet, leaving existing records untouched.
func Seed(ctx context.Context, repo Repository, candidates []*models.Candidate, logger *zap.Logger) (int, error) {
	created := 0
	for _, c := range candidates {
		_, err := repo.Get(ctx, c.ID)
		if err == nil {
			continue
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			return created, err
		}
		if err := repo.Create(ctx, c); err != nil {
			return created, fmt.Errorf("failed to seed %s: %w", c.ID, err)
		}
		created++
	}
	logger.Info("seeded candidates", zap.Int("created", created), zap.Int("total", len(candidates)))
	return created, nil
}
