// Package client is a typed HTTP client for the job board API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/isdelr/jobboard-be/internal/models"
)

// ErrNotAuthenticated is returned when a protected call is attempted on a
// session without a token.
var ErrNotAuthenticated = errors.New("not logged in")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("api error: %d %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 or 403 from the server.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return errors.Is(err, ErrNotAuthenticated)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the job board API on behalf of one Session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a Client for baseURL bound to session.
func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		session:    session,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *Session {
	return c.session
}

// RegisterResult mirrors the server's registration response.
type RegisterResult struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, username, password string) (RegisterResult, error) {
	var out RegisterResult
	body := map[string]string{"username": username, "password": password}
	err := c.do(ctx, http.MethodPost, "/register", false, body, &out)
	return out, err
}

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, username, password string) error {
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", false, body, &out); err != nil {
		return err
	}
	if out.AccessToken == "" {
		return errors.New("login response carried no token")
	}
	c.session.SetToken(out.AccessToken)
	return nil
}

// ListJobs fetches every listing.
func (c *Client) ListJobs(ctx context.Context) ([]models.JobListing, error) {
	var jobs []models.JobListing
	err := c.do(ctx, http.MethodGet, "/job-listings", true, nil, &jobs)
	return jobs, err
}

// GetJob fetches one listing.
func (c *Client) GetJob(ctx context.Context, jobKey string) (models.JobListing, error) {
	var job models.JobListing
	err := c.do(ctx, http.MethodGet, "/job-listings/"+url.PathEscape(jobKey), true, nil, &job)
	return job, err
}

// MarkApplied records an application and returns the stored row.
func (c *Client) MarkApplied(ctx context.Context, app models.JobApplication) (models.AppliedJob, error) {
	var out struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Job     models.AppliedJob `json:"job"`
	}
	if err := c.do(ctx, http.MethodPost, "/mark-applied", true, app, &out); err != nil {
		return models.AppliedJob{}, err
	}
	if !out.Success {
		return models.AppliedJob{}, &APIError{StatusCode: http.StatusOK, Message: out.Message}
	}
	return out.Job, nil
}

// IsApplied reports whether the session's user applied to jobKey.
func (c *Client) IsApplied(ctx context.Context, jobKey string) (bool, error) {
	var out struct {
		IsApplied bool `json:"isApplied"`
	}
	err := c.do(ctx, http.MethodGet, "/is-applied/"+url.PathEscape(jobKey), true, nil, &out)
	return out.IsApplied, err
}

// RecentEvents returns the user's activity log, newest first.
func (c *Client) RecentEvents(ctx context.Context, limit int) ([]models.Event, error) {
	var events []models.Event
	path := fmt.Sprintf("/events?limit=%d", limit)
	err := c.do(ctx, http.MethodGet, path, true, nil, &events)
	return events, err
}

func (c *Client) do(ctx context.Context, method, path string, authed bool, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		token := c.session.Token()
		if token == "" {
			return ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
