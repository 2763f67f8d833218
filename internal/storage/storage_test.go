package storage

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"go.uber.org/zap"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/models"
)

func newCandidate(id, email string) *models.Candidate {
	c := &models.Candidate{
		ID:     id,
		Name:   "Test " + id,
		Email:  email,
		Role:   "Engineer",
		Status: models.StatusNew,
	}
	c.AppendAudit(time.Now(), models.ActionInitialEntry, "Candidate added")
	return c
}

func TestMemoryRepositoryCreateGet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	if err := repo.Create(ctx, newCandidate("c1", "a@example.com")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Email != "a@example.com" {
		t.Errorf("Unexpected email %s", got.Email)
	}

	if _, err := repo.Get(ctx, "missing"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestMemoryRepositoryRejectsDuplicates(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, newCandidate("c1", "a@example.com")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name string
		c    *models.Candidate
	}{
		{"same id", newCandidate("c1", "b@example.com")},
		{"same email", newCandidate("c2", "A@Example.com")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.Create(ctx, tt.c); !apperr.Is(err, apperr.KindInvalidInput) {
				t.Errorf("Expected InvalidInput, got %v", err)
			}
		})
	}
}

func TestMemoryRepositoryReturnsCopies(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, newCandidate("c1", "a@example.com")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	fetched, _ := repo.Get(ctx, "c1")
	fetched.Status = models.StatusHired
	fetched.AuditLog[0].Details = "tampered"

	again, _ := repo.Get(ctx, "c1")
	if again.Status != models.StatusNew {
		t.Errorf("Mutating a fetched record changed the store: %s", again.Status)
	}
	if again.AuditLog[0].Details != "Candidate added" {
		t.Error("Mutating a fetched audit log changed the store")
	}
}

func TestMemoryRepositoryReplace(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	if err := repo.Create(ctx, newCandidate("c1", "a@example.com")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	c, _ := repo.Get(ctx, "c1")
	c.Status = models.StatusSkillCheckPending
	c.AppendAudit(time.Now(), models.ActionSkillCheckSent, "Recruiter initiated skill check.")
	if err := repo.Replace(ctx, c); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	got, _ := repo.Get(ctx, "c1")
	if got.Status != models.StatusSkillCheckPending || len(got.AuditLog) != 2 {
		t.Errorf("Replace did not persist: %+v", got)
	}

	shrunk := got.Clone()
	shrunk.AuditLog = shrunk.AuditLog[:1]
	if err := repo.Replace(ctx, shrunk); !apperr.Is(err, apperr.KindInvalidInput) {
		t.Errorf("Expected shrinking audit log to fail, got %v", err)
	}

	rewritten := got.Clone()
	rewritten.AuditLog[0].Details = "rewritten"
	if err := repo.Replace(ctx, rewritten); !apperr.Is(err, apperr.KindInvalidInput) {
		t.Errorf("Expected rewriting history to fail, got %v", err)
	}

	if err := repo.Replace(ctx, newCandidate("ghost", "g@example.com")); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected NotFound for unknown id, got %v", err)
	}
}

func TestMemoryRepositoryListOrderAndFind(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	for _, id := range []string{"c3", "c1", "c2"} {
		if err := repo.Create(ctx, newCandidate(id, id+"@example.com")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	for i, want := range []string{"c3", "c1", "c2"} {
		if list[i].ID != want {
			t.Errorf("List()[%d] = %s, want %s", i, list[i].ID, want)
		}
	}

	found, err := repo.FindByEmail(ctx, "C1@EXAMPLE.COM")
	if err != nil || found.ID != "c1" {
		t.Errorf("FindByEmail() = %v, %v", found, err)
	}
	if _, err := repo.FindByEmail(ctx, "nobody@example.com"); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Expected NotFound, got %v", err)
	}
}

func TestDefaultSeed(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	candidates, err := DefaultSeed(now)
	if err != nil {
		t.Fatalf("DefaultSeed() error = %v", err)
	}
	if len(candidates) != 8 {
		t.Fatalf("Expected 8 seed candidates, got %d", len(candidates))
	}

	byID := map[string]*models.Candidate{}
	for _, c := range candidates {
		byID[c.ID] = c
		if len(c.AuditLog) != 1 || c.AuditLog[0].Action != models.ActionInitialEntry || !c.AuditLog[0].Timestamp.Equal(now) {
			t.Errorf("%s: unexpected audit log %+v", c.ID, c.AuditLog)
		}
	}

	if c := byID["cand-3"]; c.Status != models.StatusNew || c.Resume.HasData() || c.Analysis != nil {
		t.Errorf("cand-3 should be New without resume or analysis: %+v", c)
	}
	if byID["cand-3"].AuditLog[0].Details != "Candidate added, awaiting resume." {
		t.Errorf("Unexpected cand-3 note %q", byID["cand-3"].AuditLog[0].Details)
	}
	if c := byID["cand-4"]; c.Status != models.StatusSkillCheckCompleted || c.SkillCheckScore == nil || *c.SkillCheckScore != 92 {
		t.Errorf("cand-4 should have a completed skill check scored 92: %+v", c)
	}
	if len(byID["cand-4"].SkillCheckDetails.Strengths) != 3 {
		t.Errorf("Unexpected cand-4 details %+v", byID["cand-4"].SkillCheckDetails)
	}
	if c := byID["cand-7"]; c.Resume.Kind != models.ResumeText || c.Analysis != nil {
		t.Errorf("cand-7 should have resume text and no analysis: %+v", c)
	}
	if len(byID["cand-1"].Analysis.WorkHistory) != 2 {
		t.Errorf("Expected cand-1 work history of 2 entries")
	}
	if byID["cand-8"].Status != models.StatusHired || byID["cand-5"].Status != models.StatusRejected {
		t.Error("Unexpected terminal seed statuses")
	}
}

func TestParseSeedRejectsUnknownStatus(t *testing.T) {
	data := []byte("candidates:\n  - id: x\n    email: x@example.com\n    status: Offered\n")
	if _, err := ParseSeed(data, time.Now()); err == nil {
		t.Error("Expected error for unknown status")
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	candidates, err := DefaultSeed(time.Now())
	if err != nil {
		t.Fatalf("DefaultSeed() error = %v", err)
	}

	created, err := Seed(ctx, repo, candidates, zap.NewNop())
	if err != nil || created != 8 {
		t.Fatalf("Seed() = %d, %v", created, err)
	}
	created, err = Seed(ctx, repo, candidates, zap.NewNop())
	if err != nil || created != 0 {
		t.Errorf("Second Seed() = %d, %v; want 0, nil", created, err)
	}
}

func TestPendingMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql": {Data: []byte("SELECT 2")},
		"001_a.sql": {Data: []byte("SELECT 1")},
		"README.md": {Data: []byte("docs")},
		"003_c.sql": {Data: []byte("SELECT 3")},
	}

	pending, err := PendingMigrations(fsys, map[string]bool{"002_b.sql": true})
	if err != nil {
		t.Fatalf("PendingMigrations() error = %v", err)
	}
	if len(pending) != 2 || pending[0] != "001_a.sql" || pending[1] != "003_c.sql" {
		t.Errorf("Unexpected pending migrations %v", pending)
	}
}

func TestBundledMigrations(t *testing.T) {
	pending, err := PendingMigrations(Migrations(), nil)
	if err != nil {
		t.Fatalf("PendingMigrations() error = %v", err)
	}
	if len(pending) != 2 || pending[0] != "001_create_candidates.sql" {
		t.Errorf("Unexpected bundled migrations %v", pending)
	}
}
