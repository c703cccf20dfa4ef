package browse

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/isdelr/jobboard-be/internal/client"
	"github.com/isdelr/jobboard-be/internal/models"
)

var errBoom = errors.New("boom")

type fakeAPI struct {
	mu        sync.Mutex
	jobs      []models.JobListing
	applied   map[string]bool
	listErr   error
	statusErr map[string]error
	applyErrs []error
	marked    []models.JobApplication
	delay     map[string]time.Duration
}

func newFakeAPI(n int) *fakeAPI {
	f := &fakeAPI{applied: map[string]bool{}, statusErr: map[string]error{}, delay: map[string]time.Duration{}}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		f.jobs = append(f.jobs, models.JobListing{
			JobKey:      fmt.Sprintf("jk-%02d", i),
			Title:       fmt.Sprintf("Job %d", i),
			CompanyName: "Acme",
			PostDate:    base.Add(-time.Duration(i) * time.Hour),
			Link:        fmt.Sprintf("https://jobs.example/%d", i),
		})
	}
	return f
}

func (f *fakeAPI) ListJobs(ctx context.Context) ([]models.JobListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.JobListing(nil), f.jobs...), nil
}

func (f *fakeAPI) GetJob(ctx context.Context, jobKey string) (models.JobListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, job := range f.jobs {
		if job.JobKey == jobKey {
			return job, nil
		}
	}
	return models.JobListing{}, &client.APIError{StatusCode: 404, Message: "Job not found."}
}

func (f *fakeAPI) MarkApplied(ctx context.Context, app models.JobApplication) (models.AppliedJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.applyErrs) > 0 {
		err := f.applyErrs[0]
		f.applyErrs = f.applyErrs[1:]
		if err != nil {
			return models.AppliedJob{}, err
		}
	}
	f.marked = append(f.marked, app)
	f.applied[app.JobKey] = true
	return models.AppliedJob{JobKey: app.JobKey, AppliedTimestamp: time.Now()}, nil
}

func (f *fakeAPI) IsApplied(ctx context.Context, jobKey string) (bool, error) {
	f.mu.Lock()
	d := f.delay[jobKey]
	err := f.statusErr[jobKey]
	applied := f.applied[jobKey]
	f.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}
	if err != nil {
		return false, err
	}
	return applied, nil
}
