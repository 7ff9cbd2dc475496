package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/strokecare/strokecare/internal/platform/apperr"
	"github.com/strokecare/strokecare/internal/platform/session"
)

// Service implements registration, login, and account lifecycle for both
// account variants. Credentials are stored as bcrypt hashes; login failures
// are reported uniformly so callers cannot probe which emails exist.
type Service struct {
	patients  Repository
	doctors   Repository
	records   RecordPurger
	doctorKey string
}

func NewService(patients, doctors Repository, records RecordPurger, doctorKey string) *Service {
	return &Service{patients: patients, doctors: doctors, records: records, doctorKey: doctorKey}
}

func (s *Service) repoFor(role session.Role) Repository {
	if role == session.RoleDoctor {
		return s.doctors
	}
	return s.patients
}

// Register creates an account of the given role. Doctor registration
// additionally requires the shared registration key.
func (s *Service) Register(ctx context.Context, role session.Role, in RegisterInput) (*Account, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.New(apperr.Validation, "name, email and password are required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperr.New(apperr.Validation, "invalid email address")
	}
	if in.Password != in.ConfirmPassword {
		return nil, apperr.New(apperr.Validation, "passwords do not match")
	}
	if role == session.RoleDoctor && in.DoctorKey != s.doctorKey {
		return nil, apperr.New(apperr.Authorization, "invalid doctor registration key")
	}

	repo := s.repoFor(role)
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, apperr.New(apperr.Conflict, "email already registered")
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	a := &Account{Name: name, Email: email, PasswordHash: string(hash)}
	if role == session.RoleDoctor {
		a.DoctorKey = in.DoctorKey
	}
	if err := repo.Create(ctx, a); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, apperr.New(apperr.Conflict, "email already registered")
		}
		return nil, fmt.Errorf("creating account: %w", err)
	}

	log.Info().Str("role", string(role)).Int64("account_id", a.ID).Msg("account registered")
	return a, nil
}

// Login verifies credentials against the store for the given role. Wrong
// password and unknown email fail with the same message.
func (s *Service) Login(ctx context.Context, role session.Role, email, password string) (*Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.New(apperr.Authentication, "invalid email or password")
	}

	a, err := s.repoFor(role).GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.New(apperr.Authentication, "invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("looking up account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, apperr.New(apperr.Authentication, "invalid email or password")
	}
	return a, nil
}

// Profile returns the account behind the active identity.
func (s *Service) Profile(ctx context.Context, id *session.Identity) (*Account, error) {
	if id == nil {
		return nil, apperr.New(apperr.AuthenticationRequired, "login required")
	}
	a, err := s.repoFor(id.Role).GetByID(ctx, id.AccountID)
	if errors.Is(err, ErrNotFound) {
		return nil, apperr.New(apperr.NotFound, "account not found")
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return a, nil
}

// ChangePassword replaces the stored hash after verifying the old password.
func (s *Service) ChangePassword(ctx context.Context, id *session.Identity, in ChangePasswordInput) error {
	if id == nil {
		return apperr.New(apperr.AuthenticationRequired, "login required")
	}
	if in.NewPassword == "" {
		return apperr.New(apperr.Validation, "new password is required")
	}
	if in.NewPassword != in.ConfirmPassword {
		return apperr.New(apperr.Validation, "passwords do not match")
	}

	repo := s.repoFor(id.Role)
	a, err := repo.GetByID(ctx, id.AccountID)
	if errors.Is(err, ErrNotFound) {
		return apperr.New(apperr.NotFound, "account not found")
	}
	if err != nil {
		return fmt.Errorf("loading account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(in.OldPassword)) != nil {
		return apperr.New(apperr.Authentication, "old password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := repo.UpdatePassword(ctx, id.AccountID, string(hash)); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	log.Info().Str("role", string(id.Role)).Int64("account_id", id.AccountID).Msg("password changed")
	return nil
}

// DeleteAccount removes a patient account and every record it owns. Only the
// account holder may delete it; the id in the request must match the identity.
func (s *Service) DeleteAccount(ctx context.Context, id *session.Identity, accountID int64) error {
	if id == nil {
		return apperr.New(apperr.AuthenticationRequired, "login required")
	}
	if id.Role != session.RolePatient || id.AccountID != accountID {
		return apperr.New(apperr.Authorization, "cannot delete another account")
	}

	purged, err := s.records.DeleteByOwner(ctx, accountID)
	if err != nil {
		return fmt.Errorf("purging records: %w", err)
	}

	if err := s.patients.Delete(ctx, accountID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.New(apperr.NotFound, "account not found")
		}
		return fmt.Errorf("deleting account: %w", err)
	}

	log.Info().Int64("account_id", accountID).Int64("records_purged", purged).Msg("account deleted")
	return nil
}
