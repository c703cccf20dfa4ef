package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/isdelr/jobboard-be/internal/auth"
	"github.com/isdelr/jobboard-be/internal/database"
	"github.com/isdelr/jobboard-be/internal/models"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.New("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestUserService(t *testing.T, db *sqlx.DB) (*UserService, *auth.TokenManager) {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	svc := NewUserService(db, tokens, NewEventService(db))
	svc.cost = bcrypt.MinCost
	return svc, tokens
}

func strPtr(s string) *string { return &s }

func sampleListings() []models.JobListing {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.JobListing{
		{JobKey: "jk-old", Title: "Backend Engineer", CompanyName: "Acme", Location: "Remote", PostDate: base, JobType: "Full-time", Link: "https://jobs.example/old"},
		{JobKey: "jk-new", Title: "Go Developer", CompanyName: "Globex", Location: "POINT(-73.98 40.75)", PostDate: base.Add(48 * time.Hour), Salary: strPtr("120000"), JobType: "Contract", Link: "https://jobs.example/new"},
		{JobKey: "jk-mid", Title: "SRE", CompanyName: "Initech", Location: "Austin, TX", PostDate: base.Add(24 * time.Hour), JobType: "Full-time", Link: "https://jobs.example/mid"},
	}
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc, tokens := newTestUserService(t, db)

	user, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "alice", user.Username)
	assert.Empty(t, user.PasswordHash)

	var stored string
	require.NoError(t, db.Get(&stored, "SELECT password_hash FROM users WHERE id = ?", user.ID))
	assert.NotEqual(t, "hunter2", stored)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored), []byte("hunter2")))

	token, err := svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	fetched, err := svc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", fetched.Username)

	_, err = svc.GetUserByID(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_LoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUserService(t, newTestDB(t))
	_, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "alice", "nope")
	_, unknownUser := svc.Login(ctx, "mallory", "hunter2")

	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
}

func TestUserService_DuplicateUsernameDoesNotWrite(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc, _ := newTestUserService(t, db)

	first, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "different")
	require.ErrorIs(t, err, ErrDuplicateUsername)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 1, count)

	// The original password still works.
	_, err = svc.Login(ctx, "alice", "hunter2")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "alice", "different")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NotEmpty(t, first.ID)
}

func TestUserService_RegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUserService(t, newTestDB(t))

	_, err := svc.Register(ctx, "  ", "pw")
	require.ErrorIs(t, err, ErrValidation)
	_, err = svc.Register(ctx, "bob", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestJobService_ListAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewJobService(newTestDB(t), nil)
	require.NoError(t, svc.SeedListings(ctx, sampleListings()))

	jobs, err := svc.ListJobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 3)
	assert.Equal(t, []string{"jk-new", "jk-mid", "jk-old"}, []string{jobs[0].JobKey, jobs[1].JobKey, jobs[2].JobKey})

	job, err := svc.GetJob(ctx, "jk-new")
	require.NoError(t, err)
	assert.Equal(t, "Globex", job.CompanyName)
	require.NotNil(t, job.Salary)
	assert.Equal(t, "120000", *job.Salary)
	assert.True(t, job.PostDate.Equal(time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)))

	old, err := svc.GetJob(ctx, "jk-old")
	require.NoError(t, err)
	assert.Nil(t, old.Salary)

	_, err = svc.GetJob(ctx, "jk-missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.GetJob(ctx, "bad key!")
	require.ErrorIs(t, err, ErrValidation)
}

func TestJobService_EmptyListIsNotNil(t *testing.T) {
	svc := NewJobService(newTestDB(t), nil)

	jobs, err := svc.ListJobs(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
}

func TestJobService_SeedIsUpsert(t *testing.T) {
	ctx := context.Background()
	svc := NewJobService(newTestDB(t), nil)
	listings := sampleListings()
	require.NoError(t, svc.SeedListings(ctx, listings))

	listings[0].Title = "Senior Backend Engineer"
	require.NoError(t, svc.SeedListings(ctx, listings[:1]))

	jobs, err := svc.ListJobs(ctx)
	require.NoError(t, err)
	assert.Len(t, jobs, 3)

	job, err := svc.GetJob(ctx, "jk-old")
	require.NoError(t, err)
	assert.Equal(t, "Senior Backend Engineer", job.Title)
}

func TestJobService_LoadSeedFile(t *testing.T) {
	ctx := context.Background()
	svc := NewJobService(newTestDB(t), nil)

	path := filepath.Join(t.TempDir(), "jobs.json")
	body := `[{"jobKey":"jk-1","title":"Go Dev","companyName":"Acme","location":"Remote","postDate":"2024-01-02T00:00:00Z","jobType":"Full-time","description":"Write Go","link":"https://x.example/1"}]`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	n, err := svc.LoadSeedFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	job, err := svc.GetJob(ctx, "jk-1")
	require.NoError(t, err)
	assert.Equal(t, "Write Go", job.Description)

	_, err = svc.LoadSeedFile(ctx, filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestJobService_MarkAppliedThenIsApplied(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users, _ := newTestUserService(t, db)
	events := NewEventService(db)
	svc := NewJobService(db, events)
	require.NoError(t, svc.SeedListings(ctx, sampleListings()))

	alice, err := users.Register(ctx, "alice", "pw")
	require.NoError(t, err)
	bob, err := users.Register(ctx, "bob", "pw")
	require.NoError(t, err)

	applied, err := svc.IsApplied(ctx, alice.ID, "jk-new")
	require.NoError(t, err)
	assert.False(t, applied)

	app := models.JobApplication{JobKey: "jk-new", Link: "https://jobs.example/new", CompanyName: "Globex", Salary: "Not provided"}
	record, err := svc.MarkApplied(ctx, alice.ID, app)
	require.NoError(t, err)
	assert.Equal(t, "jk-new", record.JobKey)
	assert.Equal(t, alice.ID, record.UserID)
	assert.False(t, record.AppliedTimestamp.IsZero())

	applied, err = svc.IsApplied(ctx, alice.ID, "jk-new")
	require.NoError(t, err)
	assert.True(t, applied)

	// Applications are tracked per user.
	applied, err = svc.IsApplied(ctx, bob.ID, "jk-new")
	require.NoError(t, err)
	assert.False(t, applied)

	recent, err := events.GetRecentEvents(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, recent)
	assert.Equal(t, "job.applied", recent[0].Type)
}

func TestJobService_MarkAppliedTwiceInsertsTwoRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users, _ := newTestUserService(t, db)
	svc := NewJobService(db, nil)

	alice, err := users.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	app := models.JobApplication{JobKey: "jk-new"}
	first, err := svc.MarkApplied(ctx, alice.ID, app)
	require.NoError(t, err)
	second, err := svc.MarkApplied(ctx, alice.ID, app)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	var count int
	require.NoError(t, db.Get(&count, "SELECT COUNT(*) FROM applied_jobs WHERE job_key = ?", "jk-new"))
	assert.Equal(t, 2, count)
}

func TestJobService_MarkAppliedRejectsMissingKey(t *testing.T) {
	svc := NewJobService(newTestDB(t), nil)

	_, err := svc.MarkApplied(context.Background(), "u-1", models.JobApplication{CompanyName: "Acme"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestValidateJobKey(t *testing.T) {
	for _, ok := range []string{"jk-1", "abc_DEF.9", "indeed:12345"} {
		assert.NoError(t, ValidateJobKey(ok), ok)
	}
	for _, bad := range []string{"", "has space", "slash/inside", string(make([]byte, 200))} {
		assert.ErrorIs(t, ValidateJobKey(bad), ErrValidation)
	}
}

func TestEventService_PruneEvents(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	svc := NewEventService(db)
	user := "u-1"

	now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
	for _, age := range []time.Duration{40 * 24 * time.Hour, 31 * 24 * time.Hour, time.Hour} {
		svc.now = func() time.Time { return now.Add(-age) }
		require.NoError(t, svc.CreateEvent(ctx, "job.applied", "info", "applied", &user))
	}

	removed, err := svc.PruneEvents(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	left, err := svc.GetRecentEvents(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, now.Add(-time.Hour), left[0].CreatedAt.UTC())
}

func TestUserService_UnknownUserStillRunsBcrypt(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUserService(t, newTestDB(t))
	_, err := svc.Register(ctx, "alice", "hunter2")
	require.NoError(t, err)

	var hashes [][]byte
	svc.compare = func(hash, password []byte) error {
		hashes = append(hashes, hash)
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	_, err = svc.Login(ctx, "mallory", "hunter2")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Len(t, hashes, 1)
	cost, err := bcrypt.Cost(hashes[0])
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)

	_, err = svc.Login(ctx, "alice", "nope")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Len(t, hashes, 2)
}
