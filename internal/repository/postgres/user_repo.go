package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/lumina-journal/lumina/internal/errs"
	"github.com/lumina-journal/lumina/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new account row.
func (r *UserRepo) Create(ctx context.Context, u *model.UserRecord) error {
	const q = `
INSERT INTO users (id, email, name, pwd_hash, salt_auth, confirmed)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Email, u.Name, u.PwdHash, u.SaltAuth, u.Confirmed)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByEmail selects an account by its unique email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	const q = `
SELECT id, email, name, pwd_hash, salt_auth, confirmed, created_at
FROM users WHERE email=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, email))
}

// GetByID selects an account by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.UserRecord, error) {
	const q = `
SELECT id, email, name, pwd_hash, salt_auth, confirmed, created_at
FROM users WHERE id=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, id))
}

// Confirm marks the account's email as confirmed.
func (r *UserRepo) Confirm(ctx context.Context, id uuid.UUID) error {
	const q = `UPDATE users SET confirmed=true WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *UserRepo) scanOne(row pgx.Row) (*model.UserRecord, error) {
	var u model.UserRecord
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PwdHash, &u.SaltAuth, &u.Confirmed, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
