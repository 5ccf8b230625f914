package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/veqro/cueup/internal/models"
	"github.com/veqro/cueup/internal/shared"
)

// WishRepository implements [models.Repository] for [models.Wish] persistence.
type WishRepository struct {
	db *sql.DB
}

// NewWishRepository creates a new [WishRepository] with the given database connection
func NewWishRepository(db *sql.DB) *WishRepository {
	return &WishRepository{db: db}
}

// Create inserts a new wish into the database with generated ID and sequence.
//
// A UNIQUE constraint on (event_id, song_id) rejects duplicate requests for
// the same song within one event; that violation maps to [shared.ErrDuplicateWish].
func (r *WishRepository) Create(wish *models.Wish) error {
	sequence, err := NextSequence(r.db, "wishes")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	wish.SetSequence(sequence)

	id := shared.GenerateID()
	wish.SetID(id)

	if err := wish.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO wishes (id, sequence, event_id, song_id, title, artist, album, cover_url, spotify_uri, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, wish.EventID(), wish.SongID(), wish.Title(), wish.Artist(),
		wish.Album(), wish.CoverURL(), wish.SpotifyURI(), string(wish.Status()), wish.CreatedAt(), wish.UpdatedAt())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return shared.ErrDuplicateWish
		}
		return fmt.Errorf("failed to insert wish: %w", err)
	}

	return nil
}

// Get retrieves a wish by ID, excluding soft-deleted wishes
func (r *WishRepository) Get(id string) (*models.Wish, error) {
	query := `
		SELECT id, sequence, event_id, song_id, title, artist, album, cover_url, spotify_uri, status, created_at, updated_at, deleted_at
		FROM wishes
		WHERE id = ? AND deleted_at IS NULL
	`

	row := r.db.QueryRow(query, id)
	wish, err := scanWish(row.Scan)
	if err == sql.ErrNoRows {
		return nil, shared.ErrWishNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query wish: %w", err)
	}

	return wish, nil
}

// Update modifies an existing wish in the database
func (r *WishRepository) Update(wish *models.Wish) error {
	if err := wish.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	wish.SetUpdatedAt(now)

	query := `
		UPDATE wishes
		SET status = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, string(wish.Status()), now, wish.ID())
	if err != nil {
		return fmt.Errorf("failed to update wish: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("wish not found or already deleted: %s", wish.ID())
	}

	return nil
}

// Delete soft-deletes a wish by ID
func (r *WishRepository) Delete(id string) error {
	now := time.Now()

	query := `
		UPDATE wishes
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, now, id)
	if err != nil {
		return fmt.Errorf("failed to delete wish: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("wish not found or already deleted: %s", id)
	}

	return nil
}

// List retrieves all wishes matching the given criteria, excluding soft-deleted wishes
func (r *WishRepository) List(criteria map[string]any) ([]*models.Wish, error) {
	query := `
		SELECT id, sequence, event_id, song_id, title, artist, album, cover_url, spotify_uri, status, created_at, updated_at, deleted_at
		FROM wishes
		WHERE deleted_at IS NULL
	`

	args := []any{}

	if eventID, ok := criteria["event_id"].(string); ok && eventID != "" {
		query += " AND event_id = ?"
		args = append(args, eventID)
	}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishes: %w", err)
	}
	defer rows.Close()

	var wishes []*models.Wish
	for rows.Next() {
		wish, err := scanWish(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wish: %w", err)
		}
		wishes = append(wishes, wish)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return wishes, nil
}

// scanWish builds a Wish from a row scan function shared by Get and List.
func scanWish(scan func(dest ...any) error) (*models.Wish, error) {
	var (
		wishID     string
		sequence   int
		eventID    string
		songID     string
		title      string
		artist     string
		album      string
		coverURL   string
		spotifyURI string
		status     string
		createdAt  time.Time
		updatedAt  time.Time
		deletedAt  sql.NullTime
	)

	err := scan(&wishID, &sequence, &eventID, &songID, &title, &artist, &album, &coverURL,
		&spotifyURI, &status, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	wish := models.NewWish(sequence, eventID, songID, title)
	wish.SetID(wishID)
	wish.SetArtist(artist)
	wish.SetAlbum(album)
	wish.SetCoverURL(coverURL)
	wish.SetSpotifyURI(spotifyURI)
	wish.SetStatus(models.WishStatus(status))
	wish.SetCreatedAt(createdAt)
	wish.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		wish.SetDeletedAt(&deletedAt.Time)
	}

	return wish, nil
}
