package repository

import (
	"context"

	"legis-text/models"
)

// VideoRepository is the append-only record store. There is deliberately no
// update or delete: a record exists exactly once or not at all.
type VideoRepository interface {
	// Exists reports whether a record with the given id has been stored.
	Exists(ctx context.Context, id string) (bool, error)

	// Insert stores a new record. It returns an error matching
	// errors.IsDuplicate when a record with the same id already exists,
	// even when two workers race past the Exists pre-check.
	Insert(ctx context.Context, record *models.VideoRecord) error
}
