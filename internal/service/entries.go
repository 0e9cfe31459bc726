package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/lumina-journal/lumina/internal/model"
	"github.com/lumina-journal/lumina/internal/repository"
)

// EntryService defines owner-scoped operations over journal entries.
type EntryService interface {
	// List returns all entries of one user, newest created first.
	List(ctx context.Context, ownerID uuid.UUID) ([]model.JournalEntry, error)
	// Save upserts an entry by its client-generated ID.
	Save(ctx context.Context, ownerID uuid.UUID, e model.JournalEntry) (model.JournalEntry, error)
	// Delete removes an entry.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// Get returns a single entry by ID.
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.JournalEntry, error)
}

type EntryServiceImpl struct {
	repo repository.EntryRepository
}

// NewEntryService constructs EntryService.
func NewEntryService(repo repository.EntryRepository) *EntryServiceImpl {
	return &EntryServiceImpl{repo: repo}
}

// List returns all entries of one user.
func (s *EntryServiceImpl) List(ctx context.Context, ownerID uuid.UUID) ([]model.JournalEntry, error) {
	if ownerID == uuid.Nil {
		return nil, errors.New("validation: empty ownerID")
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// Save validates and upserts an entry.
// Validation rules:
// - ID != uuid.Nil
// - title and content non-empty after trimming
// - UpdatedAt >= CreatedAt (zero timestamps are filled in)
// The owner always comes from the authenticated session, never the payload.
func (s *EntryServiceImpl) Save(ctx context.Context, ownerID uuid.UUID, e model.JournalEntry) (model.JournalEntry, error) {
	if ownerID == uuid.Nil {
		return model.JournalEntry{}, errors.New("validation: empty ownerID")
	}
	if e.ID == uuid.Nil {
		return model.JournalEntry{}, errors.New("validation: empty entry id")
	}
	if strings.TrimSpace(e.Title) == "" || strings.TrimSpace(e.Content) == "" {
		return model.JournalEntry{}, errors.New("validation: empty title/content")
	}

	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
	if e.UpdatedAt.Before(e.CreatedAt) {
		return model.JournalEntry{}, errors.New("validation: updated_at before created_at")
	}

	e.OwnerID = ownerID
	return s.repo.Upsert(ctx, e)
}

// Delete removes an entry by ID.
func (s *EntryServiceImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if ownerID == uuid.Nil || id == uuid.Nil {
		return errors.New("validation: empty ownerID/id")
	}
	return s.repo.Delete(ctx, ownerID, id)
}

// Get fetches a single entry by ID.
func (s *EntryServiceImpl) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.JournalEntry, error) {
	if ownerID == uuid.Nil || id == uuid.Nil {
		return nil, errors.New("validation: empty ownerID/id")
	}
	return s.repo.Get(ctx, ownerID, id)
}
