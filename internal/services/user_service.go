package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/isdelr/jobboard-be/internal/database"
	"github.com/isdelr/jobboard-be/internal/models"
)

const maxUsernameLen = 64

// TokenGenerator signs access tokens for authenticated users.
type TokenGenerator interface {
	Generate(user models.User) (string, error)
}

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, username, password string) (models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// UserService provides registration and credential checks.
type UserService struct {
	db     *sqlx.DB
	tokens TokenGenerator
	events EventServiceProvider
	cost   int
	now    func() time.Time

	// compare checks a password against a bcrypt hash.
	compare   func(hash, password []byte) error
	dummyOnce sync.Once
	dummyHash []byte
}

// NewUserService creates a new UserService. events may be nil.
func NewUserService(db *sqlx.DB, tokens TokenGenerator, events EventServiceProvider) *UserService {
	return &UserService{
		db:      db,
		tokens:  tokens,
		events:  events,
		cost:    bcrypt.DefaultCost,
		now:     time.Now,
		compare: bcrypt.CompareHashAndPassword,
	}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, s.db.Rebind("SELECT id, username, created_at FROM users WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *UserService) getUserByUsername(ctx context.Context, username string) (models.User, error) {
	var user models.User
	query := s.db.Rebind("SELECT id, username, password_hash, created_at FROM users WHERE username = ?")
	if err := s.db.GetContext(ctx, &user, query, username); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// Register creates a new user, hashing their password. It fails with
// ErrDuplicateUsername without writing anything if the name is taken.
func (s *UserService) Register(ctx context.Context, username, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	if len(username) > maxUsernameLen {
		return models.User{}, fmt.Errorf("%w: username longer than %d characters", ErrValidation, maxUsernameLen)
	}

	if _, err := s.getUserByUsername(ctx, username); err == nil {
		return models.User{}, ErrDuplicateUsername
	} else if !errors.Is(err, sql.ErrNoRows) {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    s.now().UTC(),
	}

	query := s.db.Rebind("INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)")
	if _, err = s.db.ExecContext(ctx, query, user.ID, user.Username, user.PasswordHash, user.CreatedAt); err != nil {
		// Lost a race with a concurrent registration of the same name.
		if database.IsUniqueViolation(err) {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, err
	}

	s.record(ctx, "user.register", "info", "Registered user "+user.Username, &user.ID)

	// Return user without password hash
	user.PasswordHash = ""
	return user, nil
}

// Login verifies a user's credentials and returns a signed access token.
// Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.getUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Burn the same bcrypt work as a real check so response time
			// does not reveal whether the username exists.
			_ = s.compare(s.unknownUserHash(), []byte(password))
			s.record(ctx, "user.login.fail", "warn", "Failed login attempt", nil)
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.record(ctx, "user.login.fail", "warn", "Failed login attempt", &user.ID)
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	s.record(ctx, "user.login", "info", "Logged in", &user.ID)
	return token, nil
}

func (s *UserService) record(ctx context.Context, eventType, level, message string, userID *string) {
	if s.events == nil {
		return
	}
	if err := s.events.CreateEvent(ctx, eventType, level, message, userID); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to record event")
	}
}

// unknownUserHash returns a hash at the service's cost that no password matches.
func (s *UserService) unknownUserHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), s.cost)
		if err != nil {
			log.Error().Err(err).Msg("Failed to generate placeholder password hash")
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
