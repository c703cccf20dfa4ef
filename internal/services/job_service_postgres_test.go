package services

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/jobboard-be/internal/models"
)

// newPostgresMock returns a JobService whose queries are rebound for the
// pgx driver, so the expectations check the Postgres SQL shape.
func newPostgresMock(t *testing.T) (*JobService, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	svc := NewJobService(sqlx.NewDb(mockDB, "pgx"), nil)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc, mock
}

func TestJobService_Postgres_IsApplied(t *testing.T) {
	svc, mock := newPostgresMock(t)

	query := "SELECT EXISTS (SELECT 1 FROM applied_jobs WHERE user_id = $1 AND job_key = $2)"
	mock.ExpectQuery(regexp.QuoteMeta(query)).
		WithArgs("u-1", "jk-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	applied, err := svc.IsApplied(context.Background(), "u-1", "jk-1")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet(), "sqlmock expectations not met")
}

func TestJobService_Postgres_MarkApplied(t *testing.T) {
	svc, mock := newPostgresMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO applied_jobs")).
		WithArgs(sqlmock.AnyArg(), "u-1", "jk-1", "https://x.example", "Acme", "Remote", "100k", "Full-time", "desc",
			time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	applied, err := svc.MarkApplied(context.Background(), "u-1", models.JobApplication{
		JobKey: "jk-1", Link: "https://x.example", CompanyName: "Acme", Location: "Remote",
		Salary: "100k", JobType: "Full-time", Description: "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, "jk-1", applied.JobKey)
	assert.NoError(t, mock.ExpectationsWereMet(), "sqlmock expectations not met")
}

func TestJobService_Postgres_GetJobPropagatesErrors(t *testing.T) {
	svc, mock := newPostgresMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM job_listings WHERE job_key = $1")).
		WithArgs("jk-1").
		WillReturnError(errors.New("connection reset"))

	_, err := svc.GetJob(context.Background(), "jk-1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet(), "sqlmock expectations not met")
}
