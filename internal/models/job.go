package models

import "time"

// JobListing is a posting produced by the external ingestion process.
// JobKey is the canonical identifier used across the API.
type JobListing struct {
	JobKey      string    `json:"jobKey" db:"job_key"`
	Title       string    `json:"title" db:"title"`
	CompanyName string    `json:"companyName" db:"company_name"`
	Location    string    `json:"location" db:"location"` // free text or POINT(lon lat)
	PostDate    time.Time `json:"postDate" db:"post_date"`
	Salary      *string   `json:"salary,omitempty" db:"salary"`
	JobType     string    `json:"jobType" db:"job_type"`
	Description string    `json:"description" db:"description"`
	Link        string    `json:"link" db:"link"`
}

// JobApplication is the payload accepted by the mark-applied endpoint.
type JobApplication struct {
	JobKey      string `json:"jobKey"`
	Link        string `json:"link"`
	CompanyName string `json:"companyName"`
	Location    string `json:"location"`
	Salary      string `json:"salary"`
	JobType     string `json:"jobType"`
	Description string `json:"description"`
}

// AppliedJob records that a user marked a listing as applied-to.
type AppliedJob struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"userId" db:"user_id"`
	JobKey           string    `json:"jobKey" db:"job_key"`
	Link             string    `json:"link" db:"link"`
	CompanyName      string    `json:"companyName" db:"company_name"`
	Location         string    `json:"location" db:"location"`
	Salary           string    `json:"salary" db:"salary"`
	JobType          string    `json:"jobType" db:"job_type"`
	Description      string    `json:"description" db:"description"`
	AppliedTimestamp time.Time `json:"appliedTimestamp" db:"applied_timestamp"`
}
