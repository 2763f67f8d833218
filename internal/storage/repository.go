package storage

import (
	"context"

	"github.com/fmuoria/resmo/internal/models"
)

// Repository is the candidate store. Records are only ever created or
// replaced whole; there is no partial update and no delete.
type Repository interface {
	// Get returns a copy of the candidate, or a NotFound error.
	Get(ctx context.Context, id string) (*models.Candidate, error)
	// List returns copies of all candidates in creation order.
	List(ctx context.Context) ([]*models.Candidate, error)
	// FindByEmail returns the candidate with the given email, or a NotFound error.
	FindByEmail(ctx context.Context, email string) (*models.Candidate, error)
	// Create stores a new candidate; ids and emails must be unique.
	Create(ctx context.Context, c *models.Candidate) error
	// Replace overwrites the stored record with the same id. The audit log
	// may only grow.
	Replace(ctx context.Context, c *models.Candidate) error

	Ping(ctx context.Context) error
	Close() error
}
