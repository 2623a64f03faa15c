package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"ecoleta/client/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of *pgxpool.Pool the repository needs
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type SubmissionRepository interface {
	EnsureSchema(ctx context.Context) error
	SaveSubmission(ctx context.Context, submission *domain.Submission) error
}

type submissionRepository struct {
	db Execer
}

func NewSubmissionRepository(db Execer) SubmissionRepository {
	return &submissionRepository{
		db: db,
	}
}

const createSubmissionsTable = `
CREATE TABLE IF NOT EXISTS point_submissions (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	uf         TEXT NOT NULL,
	city       TEXT NOT NULL,
	items      JSONB NOT NULL,
	status     TEXT NOT NULL,
	attempts   INTEGER NOT NULL DEFAULT 0,
	error      TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMPTZ NOT NULL
)`

func (r *submissionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, createSubmissionsTable); err != nil {
		return fmt.Errorf("failed to create point_submissions table: %w", err)
	}
	return nil
}

func (r *submissionRepository) SaveSubmission(ctx context.Context, submission *domain.Submission) error {
	items, err := json.Marshal(submission.Items)
	if err != nil {
		return fmt.Errorf("failed to encode submission items: %w", err)
	}

	query := `
	INSERT INTO point_submissions (id, name, uf, city, items, status, attempts, error, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id)
	DO UPDATE SET status = $6, attempts = $7, error = $8, updated_at = $9`
	_, err = r.db.Exec(ctx, query,
		submission.ID,
		submission.Name,
		submission.UF,
		submission.City,
		items,
		submission.Status.String(),
		submission.Attempts,
		submission.Error,
		submission.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save submission %s: %w", submission.ID, err)
	}

	return nil
}
