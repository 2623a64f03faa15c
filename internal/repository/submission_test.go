package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecoleta/client/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestSaveSubmissionUpserts(t *testing.T) {
	db := &fakeExecer{}
	repo := NewSubmissionRepository(db)

	sub := &domain.Submission{
		ID:        uuid.New(),
		Name:      "Mercado",
		UF:        "SC",
		City:      "Rio do Sul",
		Items:     []domain.CategoryID{1, 6},
		Status:    domain.SubmissionQueued,
		Attempts:  1,
		Error:     "HTTP error: 503",
		UpdatedAt: time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.SaveSubmission(context.Background(), sub))

	require.Len(t, db.calls, 1)
	call := db.calls[0]
	assert.Contains(t, call.sql, "ON CONFLICT (id)")
	require.Len(t, call.args, 9)
	assert.Equal(t, sub.ID, call.args[0])
	assert.Equal(t, []byte("[1,6]"), call.args[4])
	assert.Equal(t, "queued", call.args[5])
	assert.Equal(t, 1, call.args[6])
}

func TestSaveSubmissionWrapsError(t *testing.T) {
	boom := errors.New("connection refused")
	repo := NewSubmissionRepository(&fakeExecer{err: boom})

	err := repo.SaveSubmission(context.Background(), &domain.Submission{ID: uuid.New()})
	require.ErrorIs(t, err, boom)
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeExecer{}
	require.NoError(t, NewSubmissionRepository(db).EnsureSchema(context.Background()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].sql, "CREATE TABLE IF NOT EXISTS point_submissions")
}
