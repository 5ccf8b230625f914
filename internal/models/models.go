// package models defines the data model for the DJ event wish-list service
package models

import (
	"time"
)

// Model defines the base interface for all persistent models.
// Implementations include User, Event, and Wish.
type Model interface {
	ID() string           // ID returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
// Implementations handle database interactions for specific model types.
type Repository[T Model] interface {
	Create(model T) error                      // Create inserts a new model into the database
	Get(id string) (T, error)                  // Get retrieves a model by its ID
	Update(model T) error                      // Update modifies an existing model in the database
	Delete(id string) error                    // Delete removes a model from the database by its ID
	List(criteria map[string]any) ([]T, error) // List retrieves all models matching the given criteria
}

// base carries the fields shared by every persistent model.
type base struct {
	id        string
	sequence  int
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

func newBase(sequence int) base {
	now := time.Now()
	return base{sequence: sequence, createdAt: now, updatedAt: now}
}

func (b *base) ID() string            { return b.id }
func (b *base) Sequence() int         { return b.sequence }
func (b *base) CreatedAt() time.Time  { return b.createdAt }
func (b *base) UpdatedAt() time.Time  { return b.updatedAt }
func (b *base) DeletedAt() *time.Time { return b.deletedAt }

func (b *base) SetID(id string)           { b.id = id }
func (b *base) SetSequence(s int)         { b.sequence = s }
func (b *base) SetCreatedAt(t time.Time)  { b.createdAt = t }
func (b *base) SetUpdatedAt(t time.Time)  { b.updatedAt = t }
func (b *base) SetDeletedAt(t *time.Time) { b.deletedAt = t }
