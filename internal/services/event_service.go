package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/isdelr/jobboard-be/internal/models"
)

// EventServiceProvider defines the interface for event services.
type EventServiceProvider interface {
	CreateEvent(ctx context.Context, eventType, level, message string, userID *string) error
	GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error)
}

// EventService stores the activity log.
type EventService struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewEventService creates a new EventService.
func NewEventService(db *sqlx.DB) *EventService {
	return &EventService{db: db, now: time.Now}
}

// CreateEvent logs a new event to the database.
func (s *EventService) CreateEvent(ctx context.Context, eventType, level, message string, userID *string) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Level:     level,
		Message:   message,
		UserID:    userID,
		CreatedAt: s.now().UTC(),
	}

	query := s.db.Rebind("INSERT INTO events (id, type, level, message, user_id, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	_, err := s.db.ExecContext(ctx, query, event.ID, event.Type, event.Level, event.Message, event.UserID, event.CreatedAt)
	return err
}

// GetRecentEvents retrieves the most recent events for one user.
func (s *EventService) GetRecentEvents(ctx context.Context, userID string, limit int) ([]models.Event, error) {
	query := s.db.Rebind(`SELECT id, type, level, message, user_id, created_at FROM events
		WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`)

	events := []models.Event{}
	if err := s.db.SelectContext(ctx, &events, query, userID, limit); err != nil {
		return nil, err
	}
	return events, nil
}

// PruneEvents deletes events created before the given time and reports how many were removed.
func (s *EventService) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM events WHERE created_at < ?"), before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
