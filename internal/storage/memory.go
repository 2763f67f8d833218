package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/models"
)

// MemoryRepository keeps candidates in process memory
type MemoryRepository struct {
	mu         sync.RWMutex
	candidates map[string]*models.Candidate
	order      []string
}

// NewMemoryRepository creates an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{candidates: make(map[string]*models.Candidate)}
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.candidates[id]
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("candidate %s not found", id))
	}
	return c.Clone(), nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*models.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Candidate, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.candidates[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if c := r.candidates[id]; strings.EqualFold(c.Email, email) {
			return c.Clone(), nil
		}
	}
	return nil, apperr.NotFound(fmt.Sprintf("no candidate with email %s", email))
}

func (r *MemoryRepository) Create(ctx context.Context, c *models.Candidate) error {
	if err := validateRecord(c); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.candidates[c.ID]; exists {
		return apperr.InvalidInput(fmt.Sprintf("candidate %s already exists", c.ID), nil)
	}
	for _, existing := range r.candidates {
		if strings.EqualFold(existing.Email, c.Email) {
			return apperr.InvalidInput(fmt.Sprintf("email %s is already registered", c.Email), nil)
		}
	}

	r.candidates[c.ID] = c.Clone()
	r.order = append(r.order, c.ID)
	return nil
}

func (r *MemoryRepository) Replace(ctx context.Context, c *models.Candidate) error {
	if err := validateRecord(c); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.candidates[c.ID]
	if !ok {
		return apperr.NotFound(fmt.Sprintf("candidate %s not found", c.ID))
	}
	if err := checkAuditAppendOnly(existing.AuditLog, c.AuditLog); err != nil {
		return err
	}

	r.candidates[c.ID] = c.Clone()
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error { return nil }

func (r *MemoryRepository) Close() error { return nil }

func validateRecord(c *models.Candidate) error {
	if c == nil || c.ID == "" {
		return apperr.InvalidInput("candidate id is required", nil)
	}
	if !c.Status.IsValid() {
		return apperr.InvalidInput(fmt.Sprintf("unknown status %q", c.Status), nil)
	}
	if len(c.AuditLog) == 0 {
		return apperr.InvalidInput("audit log must not be empty", nil)
	}
	return nil
}

// checkAuditAppendOnly rejects a replacement that drops or rewrites history.
func checkAuditAppendOnly(stored, next []models.AuditLogEntry) error {
	if len(next) < len(stored) {
		return apperr.InvalidInput("audit log cannot shrink", nil)
	}
	for i := range stored {
		if stored[i].Action != next[i].Action || stored[i].Details != next[i].Details || !stored[i].Timestamp.Equal(next[i].Timestamp) {
			return apperr.InvalidInput(fmt.Sprintf("audit log entry %d cannot change", i), nil)
		}
	}
	return nil
}
