package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

type repoPG struct {
	pool      *pgxpool.Pool
	table     string
	doctorKey bool
}

// NewPatientRepoPG returns the credential repository backed by login_data.
func NewPatientRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool, table: "login_data"}
}

// NewDoctorRepoPG returns the credential repository backed by doctor_data.
func NewDoctorRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool, table: "doctor_data", doctorKey: true}
}

func (r *repoPG) Create(ctx context.Context, a *Account) error {
	var err error
	if r.doctorKey {
		err = r.pool.QueryRow(ctx, fmt.Sprintf(`
			INSERT INTO %s (name, email, password, doctor_key)
			VALUES ($1, $2, $3, $4) RETURNING id, created_at`, r.table),
			a.Name, a.Email, a.PasswordHash, a.DoctorKey).Scan(&a.ID, &a.CreatedAt)
	} else {
		err = r.pool.QueryRow(ctx, fmt.Sprintf(`
			INSERT INTO %s (name, email, password)
			VALUES ($1, $2, $3) RETURNING id, created_at`, r.table),
			a.Name, a.Email, a.PasswordHash).Scan(&a.ID, &a.CreatedAt)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

func (r *repoPG) columns() string {
	cols := "id, name, email, password, created_at"
	if r.doctorKey {
		cols = "id, name, email, password, doctor_key, created_at"
	}
	return cols
}

func (r *repoPG) scan(row pgx.Row) (*Account, error) {
	var a Account
	var err error
	if r.doctorKey {
		err = row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.DoctorKey, &a.CreatedAt)
	} else {
		err = row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreatedAt)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Account, error) {
	return r.scan(r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE lower(email) = lower($1)`, r.columns(), r.table), email))
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Account, error) {
	return r.scan(r.pool.QueryRow(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = $1`, r.columns(), r.table), id))
}

func (r *repoPG) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET password = $2 WHERE id = $1`, r.table), id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE id = $1`, r.table), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
