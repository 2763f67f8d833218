package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fmuoria/resmo/internal/apperr"
	"github.com/fmuoria/resmo/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 10
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	}
	poolConfig.MinConns = 2
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Pool exposes the connection pool for migrations
func (r *PostgresRepository) Pool() *pgxpool.Pool {
	return r.pool
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

const candidateColumns = `id, name, email, role, status, applied_date, analysis, resume,
	anonymized_resume_text, recommended_action, action_justification,
	skill_check_score, skill_check_details`

// Create inserts a candidate and its initial audit log
func (r *PostgresRepository) Create(ctx context.Context, c *models.Candidate) error {
	if err := validateRecord(c); err != nil {
		return err
	}

	args, err := candidateArgs(c)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO candidates (` + candidateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.InvalidInput(fmt.Sprintf("candidate %s or email %s already exists", c.ID, c.Email), err)
		}
		return fmt.Errorf("failed to create candidate: %w", err)
	}

	if err := insertAuditEntries(ctx, tx, c.ID, 0, c.AuditLog); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Replace overwrites the candidate row and appends any new audit entries
func (r *PostgresRepository) Replace(ctx context.Context, c *models.Candidate) error {
	if err := validateRecord(c); err != nil {
		return err
	}

	args, err := candidateArgs(c)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `UPDATE candidates SET name = $2, email = $3, role = $4, status = $5, applied_date = $6,
		analysis = $7, resume = $8, anonymized_resume_text = $9, recommended_action = $10,
		action_justification = $11, skill_check_score = $12, skill_check_details = $13, updated_at = NOW()
		WHERE id = $1`
	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to replace candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(fmt.Sprintf("candidate %s not found", c.ID))
	}

	var stored int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM candidate_audit_log WHERE candidate_id = $1`, c.ID).Scan(&stored); err != nil {
		return fmt.Errorf("failed to count audit entries: %w", err)
	}
	if len(c.AuditLog) < stored {
		return apperr.InvalidInput("audit log cannot shrink", nil)
	}

	if err := insertAuditEntries(ctx, tx, c.ID, stored, c.AuditLog[stored:]); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertAuditEntries(ctx context.Context, tx pgx.Tx, candidateID string, offset int, entries []models.AuditLogEntry) error {
	for i, entry := range entries {
		_, err := tx.Exec(ctx,
			`INSERT INTO candidate_audit_log (candidate_id, seq, created_at, action, details) VALUES ($1, $2, $3, $4, $5)`,
			candidateID, offset+i, entry.Timestamp, entry.Action, entry.Details)
		if err != nil {
			return fmt.Errorf("failed to append audit entry: %w", err)
		}
	}
	return nil
}

// Get retrieves a candidate by ID
func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Candidate, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(fmt.Sprintf("candidate %s not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get candidate: %w", err)
	}

	if err := r.loadAuditLogs(ctx, []*models.Candidate{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// FindByEmail retrieves a candidate by email, case-insensitively
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Candidate, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+candidateColumns+` FROM candidates WHERE LOWER(email) = LOWER($1)`, email)
	c, err := scanCandidate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound(fmt.Sprintf("no candidate with email %s", email))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate: %w", err)
	}

	if err := r.loadAuditLogs(ctx, []*models.Candidate{c}); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns all candidates in creation order
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Candidate, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+candidateColumns+` FROM candidates ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*models.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate candidates: %w", err)
	}

	if err := r.loadAuditLogs(ctx, candidates); err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *PostgresRepository) loadAuditLogs(ctx context.Context, candidates []*models.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	byID := make(map[string]*models.Candidate, len(candidates))
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		byID[c.ID] = c
		ids = append(ids, c.ID)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT candidate_id, created_at, action, details FROM candidate_audit_log
		 WHERE candidate_id = ANY($1) ORDER BY candidate_id, seq`, ids)
	if err != nil {
		return fmt.Errorf("failed to load audit log: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var candidateID string
		var entry models.AuditLogEntry
		if err := rows.Scan(&candidateID, &entry.Timestamp, &entry.Action, &entry.Details); err != nil {
			return fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if c := byID[candidateID]; c != nil {
			c.AuditLog = append(c.AuditLog, entry)
		}
	}
	return rows.Err()
}

func candidateArgs(c *models.Candidate) ([]any, error) {
	analysisJSON, err := marshalNullable(c.Analysis, c.Analysis == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal analysis: %w", err)
	}
	resumeJSON, err := json.Marshal(c.Resume)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume: %w", err)
	}
	detailsJSON, err := marshalNullable(c.SkillCheckDetails, c.SkillCheckDetails == nil)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal skill check details: %w", err)
	}

	return []any{
		c.ID,
		c.Name,
		c.Email,
		c.Role,
		string(c.Status),
		c.AppliedDate,
		analysisJSON,
		resumeJSON,
		c.AnonymizedResumeText,
		c.RecommendedAction,
		c.ActionJustification,
		c.SkillCheckScore,
		detailsJSON,
	}, nil
}

func marshalNullable(v any, isNil bool) ([]byte, error) {
	if isNil {
		return nil, nil
	}
	return json.Marshal(v)
}

func scanCandidate(row pgx.Row) (*models.Candidate, error) {
	var c models.Candidate
	var status string
	var analysisJSON, resumeJSON, detailsJSON []byte

	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Role,
		&status,
		&c.AppliedDate,
		&analysisJSON,
		&resumeJSON,
		&c.AnonymizedResumeText,
		&c.RecommendedAction,
		&c.ActionJustification,
		&c.SkillCheckScore,
		&detailsJSON,
	)
	if err != nil {
		return nil, err
	}

	c.Status = models.Status(status)

	if len(analysisJSON) > 0 {
		c.Analysis = &models.CandidateAnalysis{}
		if err := json.Unmarshal(analysisJSON, c.Analysis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
		}
	}
	if len(resumeJSON) > 0 {
		if err := json.Unmarshal(resumeJSON, &c.Resume); err != nil {
			return nil, fmt.Errorf("failed to unmarshal resume: %w", err)
		}
	}
	if len(detailsJSON) > 0 {
		c.SkillCheckDetails = &models.SkillCheckDetails{}
		if err := json.Unmarshal(detailsJSON, c.SkillCheckDetails); err != nil {
			return nil, fmt.Errorf("failed to unmarshal skill check details: %w", err)
		}
	}

	return &c, nil
}
