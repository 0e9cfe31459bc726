package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/lumina-journal/lumina/internal/model"
)

// EntryRepository provides owner-scoped journal entry storage. Every method
// takes the owner's ID; rows belonging to other users are invisible.
type EntryRepository interface {
	// ListByOwner returns all entries of one user, newest created first.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.JournalEntry, error)

	// Upsert inserts the entry if its ID is new, otherwise updates it in
	// place. The stored creation timestamp is never rewritten; the returned
	// entry carries the authoritative value.
	Upsert(ctx context.Context, e model.JournalEntry) (model.JournalEntry, error)

	// Delete removes an entry by ID.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	// Get returns a single entry by ID.
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.JournalEntry, error)
}
