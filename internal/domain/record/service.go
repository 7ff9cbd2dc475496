package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/strokecare/strokecare/internal/platform/apperr"
	"github.com/strokecare/strokecare/internal/platform/session"
)

// Service implements record listing, creation, editing, and deletion with
// ownership checks. Doctors see and manage every record; patients only the
// records their account owns.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns records visible to the identity. Doctors get the whole
// collection unless they ask for their own scope; patients always get only
// their own records.
func (s *Service) List(ctx context.Context, id *session.Identity, mine bool, limit, offset int) ([]*Record, error) {
	if id == nil {
		return nil, apperr.New(apperr.AuthenticationRequired, "login required")
	}
	if id.Role == session.RoleDoctor && !mine {
		return s.repo.ListAll(ctx, limit, offset)
	}
	return s.repo.ListByOwner(ctx, id.AccountID, limit, offset)
}

// Create validates and stores a new record. A patient identity becomes the
// record's owner; doctor and anonymous submissions are stored unowned.
func (s *Service) Create(ctx context.Context, id *session.Identity, in Input) (string, error) {
	r, err := in.Parse()
	if err != nil {
		return "", err
	}
	if id != nil && id.Role == session.RolePatient {
		owner := id.AccountID
		r.UserID = &owner
	}

	hex, err := s.repo.Insert(ctx, r)
	if err != nil {
		return "", fmt.Errorf("storing record: %w", err)
	}
	log.Info().Str("record_id", hex).Bool("owned", r.UserID != nil).Msg("record created")
	return hex, nil
}

// Get returns one record after an ownership check. A syntactically invalid
// id reads the same as a missing one.
func (s *Service) Get(ctx context.Context, id *session.Identity, recordID string) (*Record, error) {
	if id == nil {
		return nil, apperr.New(apperr.AuthenticationRequired, "login required")
	}
	r, err := s.repo.GetByID(ctx, recordID)
	if errors.Is(err, ErrInvalidID) || errors.Is(err, ErrNotFound) {
		return nil, apperr.New(apperr.NotFound, "record not found")
	}
	if err != nil {
		return nil, err
	}
	if err := s.authorize(id, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Update validates the input and overwrites the record's clinical fields.
// All fields are replaced atomically; ownership never changes.
func (s *Service) Update(ctx context.Context, id *session.Identity, recordID string, in Input) error {
	if _, err := s.Get(ctx, id, recordID); err != nil {
		return err
	}
	r, err := in.Parse()
	if err != nil {
		return err
	}
	if err := s.repo.Replace(ctx, recordID, r); err != nil {
		if errors.Is(err, ErrInvalidID) || errors.Is(err, ErrNotFound) {
			return apperr.New(apperr.NotFound, "record not found")
		}
		return fmt.Errorf("updating record: %w", err)
	}
	log.Info().Str("record_id", recordID).Msg("record updated")
	return nil
}

// Delete removes one record after an ownership check. Unlike reads, a
// malformed id is reported as such rather than folded into not-found.
func (s *Service) Delete(ctx context.Context, id *session.Identity, recordID string) error {
	if id == nil {
		return apperr.New(apperr.AuthenticationRequired, "login required")
	}
	r, err := s.repo.GetByID(ctx, recordID)
	if errors.Is(err, ErrInvalidID) {
		return apperr.New(apperr.Validation, "invalid record id")
	}
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.NotFound, "record not found")
	}
	if err != nil {
		return err
	}
	if err := s.authorize(id, r); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, recordID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.New(apperr.NotFound, "record not found")
		}
		return fmt.Errorf("deleting record: %w", err)
	}
	log.Info().Str("record_id", recordID).Msg("record deleted")
	return nil
}

// authorize allows doctors unconditionally and patients only on records
// whose user_id matches their account. Unowned records are doctor-only.
func (s *Service) authorize(id *session.Identity, r *Record) error {
	if id.Role == session.RoleDoctor {
		return nil
	}
	if r.UserID == nil || *r.UserID != id.AccountID {
		return apperr.New(apperr.Authorization, "record belongs to another account")
	}
	return nil
}
