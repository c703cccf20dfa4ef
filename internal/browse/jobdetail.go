package browse

import (
	"context"
	"errors"

	"github.com/isdelr/jobboard-be/internal/client"
	"github.com/isdelr/jobboard-be/internal/models"
)

var (
	// ErrNotLoaded is returned when acting on a detail view before Load.
	ErrNotLoaded = errors.New("job not loaded")
	// ErrAlreadyApplied is returned once the view has reached Applied.
	ErrAlreadyApplied = errors.New("already marked as applied")
	// ErrNoLink is returned by ApplyLink for listings without a link.
	ErrNoLink = errors.New("listing has no link")
)

// salaryNotProvided is sent when a listing carries no salary.
const salaryNotProvided = "Not provided"

// ApplyState is the apply button's state machine:
// NotApplied -> Applied (terminal), NotApplied -> FailedToMarkAsApplied,
// FailedToMarkAsApplied -> Applied | FailedToMarkAsApplied on retry.
type ApplyState int

const (
	NotApplied ApplyState = iota
	Applied
	FailedToMarkAsApplied
)

func (s ApplyState) String() string {
	switch s {
	case Applied:
		return "Applied"
	case FailedToMarkAsApplied:
		return "Failed to mark as applied"
	default:
		return "Not Applied"
	}
}

// LinkOpener opens an external URL, e.g. in a browser.
type LinkOpener interface {
	Open(url string) error
}

// DetailView shows one listing and drives the mark-applied flow. The
// apply state is per load: reloading starts over at NotApplied.
type DetailView struct {
	api       JobAPI
	session   *client.Session
	mapAPIKey string
	onApplied func(jobKey string)

	job      *models.JobListing
	location Location
	state    ApplyState
}

// NewDetailView creates a detail view. mapAPIKey may be empty, which
// disables map URLs.
func NewDetailView(api JobAPI, session *client.Session, mapAPIKey string) *DetailView {
	return &DetailView{api: api, session: session, mapAPIKey: mapAPIKey}
}

// OnApplied registers a callback for successful mark-applied calls, e.g.
// to update a list view's status tracker.
func (v *DetailView) OnApplied(fn func(jobKey string)) {
	v.onApplied = fn
}

// Load fetches the listing and resets the apply state.
func (v *DetailView) Load(ctx context.Context, jobKey string) error {
	if !v.session.Authenticated() {
		return client.ErrNotAuthenticated
	}

	job, err := v.api.GetJob(ctx, jobKey)
	if err != nil {
		return err
	}
	v.job = &job
	v.location = ParseLocation(job.Location)
	v.state = NotApplied
	return nil
}

// Job returns the loaded listing, or nil.
func (v *DetailView) Job() *models.JobListing { return v.job }

// Location returns the parsed location of the loaded listing.
func (v *DetailView) Location() Location { return v.location }

// MapURL returns a static map URL when the listing has coordinates and a
// map API key is configured.
func (v *DetailView) MapURL() (string, bool) {
	if v.job == nil || v.location.Point == nil || v.mapAPIKey == "" {
		return "", false
	}
	return StaticMapURL(*v.location.Point, v.mapAPIKey), true
}

// ApplyLink returns the listing's external link. It has no side effects
// on stored state.
func (v *DetailView) ApplyLink() (string, error) {
	if v.job == nil {
		return "", ErrNotLoaded
	}
	if v.job.Link == "" {
		return "", ErrNoLink
	}
	return v.job.Link, nil
}

// Apply opens the listing's external link with opener.
func (v *DetailView) Apply(opener LinkOpener) error {
	link, err := v.ApplyLink()
	if err != nil {
		return err
	}
	return opener.Open(link)
}

// State returns the current apply state.
func (v *DetailView) State() ApplyState { return v.state }

// CanMarkApplied reports whether the mark-applied action is enabled.
func (v *DetailView) CanMarkApplied() bool {
	return v.job != nil && v.state != Applied
}

// Application builds the mark-applied payload from the loaded listing.
func (v *DetailView) Application() (models.JobApplication, error) {
	if v.job == nil {
		return models.JobApplication{}, ErrNotLoaded
	}
	salary := salaryNotProvided
	if v.job.Salary != nil && *v.job.Salary != "" {
		salary = *v.job.Salary
	}
	return models.JobApplication{
		JobKey:      v.job.JobKey,
		Link:        v.job.Link,
		CompanyName: v.job.CompanyName,
		Location:    v.job.Location,
		Salary:      salary,
		JobType:     v.job.JobType,
		Description: v.job.Description,
	}, nil
}

// MarkAsApplied records the application. Success moves the view to the
// terminal Applied state; failure moves it to FailedToMarkAsApplied, from
// which a retry is allowed.
func (v *DetailView) MarkAsApplied(ctx context.Context) error {
	if v.state == Applied {
		return ErrAlreadyApplied
	}
	app, err := v.Application()
	if err != nil {
		return err
	}

	if _, err := v.api.MarkApplied(ctx, app); err != nil {
		v.state = FailedToMarkAsApplied
		return err
	}
	v.state = Applied
	if v.onApplied != nil {
		v.onApplied(app.JobKey)
	}
	return nil
}
