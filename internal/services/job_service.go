package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/isdelr/jobboard-be/internal/models"
)

const maxJobKeyLen = 128

var jobKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

// ValidateJobKey checks a listing identifier at the API boundary.
func ValidateJobKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: job key is required", ErrValidation)
	}
	if len(key) > maxJobKeyLen || !jobKeyPattern.MatchString(key) {
		return fmt.Errorf("%w: malformed job key %q", ErrValidation, key)
	}
	return nil
}

// JobServiceProvider defines the interface for job services.
type JobServiceProvider interface {
	ListJobs(ctx context.Context) ([]models.JobListing, error)
	GetJob(ctx context.Context, jobKey string) (models.JobListing, error)
	MarkApplied(ctx context.Context, userID string, app models.JobApplication) (models.AppliedJob, error)
	IsApplied(ctx context.Context, userID, jobKey string) (bool, error)
}

// JobService provides read access to listings and tracks applications.
type JobService struct {
	db     *sqlx.DB
	events EventServiceProvider
	now    func() time.Time
}

// NewJobService creates a new JobService. events may be nil.
func NewJobService(db *sqlx.DB, events EventServiceProvider) *JobService {
	return &JobService{db: db, events: events, now: time.Now}
}

const listingColumns = "job_key, title, company_name, location, post_date, salary, job_type, description, link"

// ListJobs returns every listing, newest first. Pagination is left to
// the client.
func (s *JobService) ListJobs(ctx context.Context) ([]models.JobListing, error) {
	jobs := []models.JobListing{}
	query := "SELECT " + listingColumns + " FROM job_listings ORDER BY post_date DESC, job_key ASC"
	if err := s.db.SelectContext(ctx, &jobs, query); err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob retrieves a single listing by its key.
func (s *JobService) GetJob(ctx context.Context, jobKey string) (models.JobListing, error) {
	if err := ValidateJobKey(jobKey); err != nil {
		return models.JobListing{}, err
	}

	var job models.JobListing
	query := s.db.Rebind("SELECT " + listingColumns + " FROM job_listings WHERE job_key = ?")
	if err := s.db.GetContext(ctx, &job, query, jobKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.JobListing{}, fmt.Errorf("job %s: %w", jobKey, ErrNotFound)
		}
		return models.JobListing{}, err
	}
	return job, nil
}

// MarkApplied inserts an applied-job record. Repeated calls for the same
// job insert additional rows.
func (s *JobService) MarkApplied(ctx context.Context, userID string, app models.JobApplication) (models.AppliedJob, error) {
	if err := ValidateJobKey(app.JobKey); err != nil {
		return models.AppliedJob{}, err
	}

	applied := models.AppliedJob{
		ID:               uuid.New().String(),
		UserID:           userID,
		JobKey:           app.JobKey,
		Link:             app.Link,
		CompanyName:      app.CompanyName,
		Location:         app.Location,
		Salary:           app.Salary,
		JobType:          app.JobType,
		Description:      app.Description,
		AppliedTimestamp: s.now().UTC(),
	}

	query := s.db.Rebind(`INSERT INTO applied_jobs (
		id, user_id, job_key, link, company_name, location, salary, job_type, description, applied_timestamp
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		applied.ID,
		applied.UserID,
		applied.JobKey,
		applied.Link,
		applied.CompanyName,
		applied.Location,
		applied.Salary,
		applied.JobType,
		applied.Description,
		applied.AppliedTimestamp,
	)
	if err != nil {
		return models.AppliedJob{}, fmt.Errorf("insert applied job: %w", err)
	}

	if s.events != nil {
		msg := fmt.Sprintf("Marked job %s at %s as applied", applied.JobKey, applied.CompanyName)
		if err := s.events.CreateEvent(ctx, "job.applied", "info", msg, &userID); err != nil {
			log.Warn().Err(err).Str("job_key", applied.JobKey).Msg("Failed to record apply event")
		}
	}
	return applied, nil
}

// IsApplied reports whether the user has any applied-job record for jobKey.
func (s *JobService) IsApplied(ctx context.Context, userID, jobKey string) (bool, error) {
	if err := ValidateJobKey(jobKey); err != nil {
		return false, err
	}

	var exists bool
	query := s.db.Rebind("SELECT EXISTS (SELECT 1 FROM applied_jobs WHERE user_id = ? AND job_key = ?)")
	if err := s.db.GetContext(ctx, &exists, query, userID, jobKey); err != nil {
		return false, err
	}
	return exists, nil
}

// SeedListings upserts listings in one transaction. It stands in for the
// external ingestion process on development setups.
func (s *JobService) SeedListings(ctx context.Context, jobs []models.JobListing) error {
	for _, job := range jobs {
		if err := ValidateJobKey(job.JobKey); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	query := tx.Rebind(`INSERT INTO job_listings (` + listingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (job_key) DO UPDATE SET
			title = excluded.title,
			company_name = excluded.company_name,
			location = excluded.location,
			post_date = excluded.post_date,
			salary = excluded.salary,
			job_type = excluded.job_type,
			description = excluded.description,
			link = excluded.link`)
	for _, job := range jobs {
		_, err := tx.ExecContext(ctx, query,
			job.JobKey, job.Title, job.CompanyName, job.Location, job.PostDate.UTC(),
			job.Salary, job.JobType, job.Description, job.Link,
		)
		if err != nil {
			return fmt.Errorf("upsert listing %s: %w", job.JobKey, err)
		}
	}
	return tx.Commit()
}

// LoadSeedFile reads a JSON array of listings and seeds them.
func (s *JobService) LoadSeedFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	var jobs []models.JobListing
	if err := json.Unmarshal(data, &jobs); err != nil {
		return 0, fmt.Errorf("decode seed file: %w", err)
	}
	if err := s.SeedListings(ctx, jobs); err != nil {
		return 0, err
	}
	return len(jobs), nil
}
