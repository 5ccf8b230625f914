package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/veqro/cueup/internal/models"
	"github.com/veqro/cueup/internal/shared"
)

// EventRepository implements [models.Repository] for [models.Event] persistence.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new [EventRepository] with the given database connection
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event into the database with generated ID and sequence
func (r *EventRepository) Create(event *models.Event) error {
	sequence, err := NextSequence(r.db, "events")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	event.SetSequence(sequence)

	id := shared.GenerateID()
	event.SetID(id)

	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO events (id, sequence, code, name, user_id, wish_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, event.Code(), event.Name(), event.UserID(),
		event.WishURL(), event.CreatedAt(), event.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// Get retrieves an event by ID, excluding soft-deleted events
func (r *EventRepository) Get(id string) (*models.Event, error) {
	query := `
		SELECT id, sequence, code, name, user_id, wish_url, created_at, updated_at, deleted_at
		FROM events
		WHERE id = ? AND deleted_at IS NULL
	`
	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByCode retrieves an event by its short code or its ID.
//
// Attendees sometimes land with the event ID instead of the code, so both
// are accepted, matching the lookup the public routes expose.
func (r *EventRepository) GetByCode(code string) (*models.Event, error) {
	query := `
		SELECT id, sequence, code, name, user_id, wish_url, created_at, updated_at, deleted_at
		FROM events
		WHERE (code = ? OR id = ?) AND deleted_at IS NULL
	`
	return r.scanOne(r.db.QueryRow(query, code, code))
}

func (r *EventRepository) scanOne(row *sql.Row) (*models.Event, error) {
	var (
		eventID   string
		sequence  int
		code      string
		name      string
		userID    string
		wishURL   string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&eventID, &sequence, &code, &name, &userID, &wishURL, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}

	event := models.NewEvent(sequence, code, name, userID)
	event.SetID(eventID)
	event.SetWishURL(wishURL)
	event.SetCreatedAt(createdAt)
	event.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		event.SetDeletedAt(&deletedAt.Time)
	}

	return event, nil
}

// Update modifies an existing event in the database
func (r *EventRepository) Update(event *models.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	event.SetUpdatedAt(now)

	query := `
		UPDATE events
		SET name = ?, wish_url = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, event.Name(), event.WishURL(), now, event.ID())
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("event not found or already deleted: %s", event.ID())
	}

	return nil
}

// Delete soft-deletes an event by ID
func (r *EventRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE events
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("event not found or already deleted: %s", id)
	}

	return nil
}

// DeleteByUser soft-deletes every event owned by the given user.
//
// Used by account deletion; returns the number of events removed.
func (r *EventRepository) DeleteByUser(userID string) (int, error) {
	now := time.Now()

	query := `
		UPDATE events
		SET deleted_at = ?
		WHERE user_id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events for user: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return int(rows), nil
}

// List retrieves all events matching the given criteria, excluding soft-deleted events
func (r *EventRepository) List(criteria map[string]any) ([]*models.Event, error) {
	query := `
		SELECT id, sequence, code, name, user_id, wish_url, created_at, updated_at, deleted_at
		FROM events
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if userID, ok := criteria["user_id"].(string); ok && userID != "" {
		query += " AND user_id = ?"
		args = append(args, userID)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var (
			eventID   string
			sequence  int
			code      string
			name      string
			userID    string
			wishURL   string
			createdAt time.Time
			updatedAt time.Time
			deletedAt sql.NullTime
		)

		err := rows.Scan(&eventID, &sequence, &code, &name, &userID, &wishURL, &createdAt, &updatedAt, &deletedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		event := models.NewEvent(sequence, code, name, userID)
		event.SetID(eventID)
		event.SetWishURL(wishURL)
		event.SetCreatedAt(createdAt)
		event.SetUpdatedAt(updatedAt)
		if deletedAt.Valid {
			event.SetDeletedAt(&deletedAt.Time)
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}
