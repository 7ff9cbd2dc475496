package record

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no record matches the id.
var ErrNotFound = errors.New("record not found")

// ErrInvalidID is returned when an id is not a well-formed record identifier.
// The service decides whether that surfaces as a validation failure or is
// folded into not-found.
var ErrInvalidID = errors.New("invalid record id")

// Repository is the document store for patient records.
type Repository interface {
	Insert(ctx context.Context, r *Record) (string, error)
	GetByID(ctx context.Context, id string) (*Record, error)
	// Replace overwrites every clinical field of the record while keeping
	// its id and owner.
	Replace(ctx context.Context, id string, r *Record) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context, limit, offset int) ([]*Record, error)
	ListByOwner(ctx context.Context, ownerID int64, limit, offset int) ([]*Record, error)
	DeleteByOwner(ctx context.Context, ownerID int64) (int64, error)
}
