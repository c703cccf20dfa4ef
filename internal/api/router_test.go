package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/jobboard-be/internal/api"
	"github.com/isdelr/jobboard-be/internal/auth"
	"github.com/isdelr/jobboard-be/internal/database"
	"github.com/isdelr/jobboard-be/internal/models"
	"github.com/isdelr/jobboard-be/internal/services"
)

type testServer struct {
	handler http.Handler
	tokens  *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.New("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))

	tokens := auth.NewTokenManager("router-secret", time.Hour)
	events := services.NewEventService(db)
	jobs := services.NewJobService(db, events)
	salary := "95000"
	require.NoError(t, jobs.SeedListings(context.Background(), []models.JobListing{
		{JobKey: "jk-1", Title: "Go Developer", CompanyName: "Acme", Location: "POINT(-122.42 37.77)", PostDate: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), Salary: &salary, JobType: "Full-time", Link: "https://jobs.example/1"},
		{JobKey: "jk-2", Title: "SRE", CompanyName: "Globex", Location: "Remote", PostDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), JobType: "Contract", Link: "https://jobs.example/2"},
	}))

	router := api.NewRouter(api.Dependencies{
		Users:          services.NewUserService(db, tokens, events),
		Jobs:           jobs,
		Events:         events,
		DB:             db,
		Auth:           tokens.Middleware(),
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	return &testServer{handler: router, tokens: tokens}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/register", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/login", "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func TestRouter_RegisterAndDuplicate(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/register", "", map[string]string{"username": "alice", "password": "pw"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp["username"])
	assert.NotEmpty(t, resp["userId"])
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.do(t, http.MethodPost, "/register", "", map[string]string{"username": "alice", "password": "other"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/register", "", map[string]string{"username": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_LoginFailuresShareShape(t *testing.T) {
	s := newTestServer(t)
	s.login(t, "alice", "pw")

	wrongPassword := s.do(t, http.MethodPost, "/login", "", map[string]string{"username": "alice", "password": "bad"})
	unknownUser := s.do(t, http.MethodPost, "/login", "", map[string]string{"username": "nobody", "password": "pw"})

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	assert.JSONEq(t, wrongPassword.Body.String(), unknownUser.Body.String())
	assert.Contains(t, wrongPassword.Body.String(), "Username or password incorrect")
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/job-listings", "/job-listings/jk-1", "/is-applied/jk-1", "/events"} {
		rec := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)

		rec = s.do(t, http.MethodGet, path, "garbage", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
	rec := s.do(t, http.MethodPost, "/mark-applied", "", map[string]string{"jobKey": "jk-1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_ListAndGetJobs(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice", "pw")

	rec := s.do(t, http.MethodGet, "/job-listings", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var jobs []models.JobListing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs, 2)
	assert.Equal(t, "jk-1", jobs[0].JobKey)

	rec = s.do(t, http.MethodGet, "/job-listings/jk-2", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var job models.JobListing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, "Globex", job.CompanyName)

	rec = s.do(t, http.MethodGet, "/job-listings/jk-404", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/job-listings/bad%20key", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_MarkAppliedThenIsApplied(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice", "pw")

	rec := s.do(t, http.MethodGet, "/is-applied/jk-1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isApplied":false}`, rec.Body.String())

	app := models.JobApplication{JobKey: "jk-1", Link: "https://jobs.example/1", CompanyName: "Acme", Salary: "95000"}
	rec = s.do(t, http.MethodPost, "/mark-applied", token, app)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Success bool              `json:"success"`
		Job     models.AppliedJob `json:"job"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "jk-1", resp.Job.JobKey)

	rec = s.do(t, http.MethodGet, "/is-applied/jk-1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"isApplied":true}`, rec.Body.String())

	// Another user has not applied.
	other := s.login(t, "bob", "pw")
	rec = s.do(t, http.MethodGet, "/is-applied/jk-1", other, nil)
	assert.JSONEq(t, `{"isApplied":false}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/events?limit=5", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "job.applied")
}

func TestRouter_MarkAppliedValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice", "pw")

	rec := s.do(t, http.MethodPost, "/mark-applied", token, map[string]string{"companyName": "Acme"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jobboard_http_requests_total")
}
