package account

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no account matches the lookup.
var ErrNotFound = errors.New("account not found")

// ErrDuplicateEmail is returned when an insert hits the unique email index.
// The index, not the preceding lookup, is what keeps concurrent
// registrations with the same email correct.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository is the credential store for one account variant. Patients and
// doctors live in separate tables behind separate instances.
type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id int64) (*Account, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	Delete(ctx context.Context, id int64) error
}

// RecordPurger removes all patient records owned by an account. Implemented
// by the record store repository; wired in main to keep the account and
// record domains decoupled.
type RecordPurger interface {
	DeleteByOwner(ctx context.Context, ownerID int64) (int64, error)
}
