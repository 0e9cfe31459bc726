// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/lumina-journal/lumina/internal/model"
)

// UserRepository provides account storage.
type UserRepository interface {
	// Create inserts a new account row.
	Create(ctx context.Context, u *model.UserRecord) error
	// GetByEmail loads an account by its unique email.
	GetByEmail(ctx context.Context, email string) (*model.UserRecord, error)
	// GetByID loads an account by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.UserRecord, error)
	// Confirm marks the account's email as confirmed.
	Confirm(ctx context.Context, id uuid.UUID) error
}
