package browse

import (
	"context"

	"github.com/isdelr/jobboard-be/internal/client"
	"github.com/isdelr/jobboard-be/internal/models"
)

// ListErrorMessage is shown when the listing fetch fails.
const ListErrorMessage = "Could not fetch jobs. Please try again later."

// JobAPI is the part of the job board API the views use. *client.Client
// satisfies it.
type JobAPI interface {
	ListJobs(ctx context.Context) ([]models.JobListing, error)
	GetJob(ctx context.Context, jobKey string) (models.JobListing, error)
	MarkApplied(ctx context.Context, app models.JobApplication) (models.AppliedJob, error)
	IsApplied(ctx context.Context, jobKey string) (bool, error)
}

// ListItem is one rendered row of the job list.
type ListItem struct {
	Job    models.JobListing
	Status AppliedStatus
}

// JobListView fetches every listing once and pages through it locally.
type JobListView struct {
	api        JobAPI
	session    *client.Session
	pager      *Paginator
	statuses   *StatusTracker
	maxButtons int

	jobs   []models.JobListing
	errMsg string
}

// NewJobListView creates a list view bound to session.
func NewJobListView(api JobAPI, session *client.Session) *JobListView {
	return &JobListView{
		api:        api,
		session:    session,
		pager:      NewPaginator(0, DefaultPageSize),
		statuses:   NewStatusTracker(api, DefaultStatusConcurrency),
		maxButtons: DefaultMaxButtons,
	}
}

// Load fetches the listings. On failure the view keeps its previous data
// and exposes ListErrorMessage through Error.
func (v *JobListView) Load(ctx context.Context) error {
	if !v.session.Authenticated() {
		return client.ErrNotAuthenticated
	}

	jobs, err := v.api.ListJobs(ctx)
	if err != nil {
		v.errMsg = ListErrorMessage
		return err
	}
	v.errMsg = ""
	v.jobs = jobs
	v.pager.SetTotal(len(jobs))
	return nil
}

// RefreshStatuses annotates every fetched listing with its applied status.
func (v *JobListView) RefreshStatuses(ctx context.Context) StatusMap {
	keys := make([]string, len(v.jobs))
	for i, job := range v.jobs {
		keys[i] = job.JobKey
	}
	return v.statuses.Refresh(ctx, keys)
}

// Error returns the inline error message, if any.
func (v *JobListView) Error() string { return v.errMsg }

// Paginator exposes navigation for the view.
func (v *JobListView) Paginator() *Paginator { return v.pager }

// Statuses exposes the status tracker, e.g. to register OnUpdate.
func (v *JobListView) Statuses() *StatusTracker { return v.statuses }

// Buttons returns the pagination bar for the current page.
func (v *JobListView) Buttons() []Button { return v.pager.Buttons(v.maxButtons) }

// Len returns the number of fetched listings.
func (v *JobListView) Len() int { return len(v.jobs) }

// CurrentWindow returns the listings on the current page.
func (v *JobListView) CurrentWindow() []models.JobListing {
	start, end := v.pager.Window()
	return v.jobs[start:end]
}

// Items returns the current window annotated with the latest statuses.
func (v *JobListView) Items() []ListItem {
	snapshot := v.statuses.Snapshot()
	window := v.CurrentWindow()
	items := make([]ListItem, len(window))
	for i, job := range window {
		items[i] = ListItem{Job: job, Status: snapshot.Get(job.JobKey)}
	}
	return items
}
