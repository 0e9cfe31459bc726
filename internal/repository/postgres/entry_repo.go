package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/lumina-journal/lumina/internal/errs"
	"github.com/lumina-journal/lumina/internal/model"
)

// EntryRepo implements EntryRepository using PostgreSQL. Timestamps are
// stored as millisecond epochs (bigint) to match the storage convention.
type EntryRepo struct{ db *DB }

// NewEntryRepo constructs an entry repository.
func NewEntryRepo(db *DB) *EntryRepo { return &EntryRepo{db: db} }

const entryColumns = `id, user_id, title, content, created_at, updated_at,
COALESCE(tags,'{}'), COALESCE(sentiment,''), COALESCE(ai_summary,''), is_favorite`

// ListByOwner returns all entries of one user, newest created first.
func (r *EntryRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.JournalEntry, error) {
	const q = `
SELECT ` + entryColumns + `
FROM entries WHERE user_id=$1
ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Upsert inserts the entry if its ID is new, otherwise updates it in place.
// The conflict branch is guarded by owner so a foreign-owned ID surfaces as
// not-found, and created_at is deliberately absent from the update list.
func (r *EntryRepo) Upsert(ctx context.Context, e model.JournalEntry) (model.JournalEntry, error) {
	const q = `
INSERT INTO entries (id, user_id, title, content, created_at, updated_at, tags, sentiment, ai_summary, is_favorite)
VALUES ($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''),NULLIF($9,''),$10)
ON CONFLICT (id) DO UPDATE SET
  title=excluded.title,
  content=excluded.content,
  updated_at=excluded.updated_at,
  tags=excluded.tags,
  sentiment=excluded.sentiment,
  ai_summary=excluded.ai_summary,
  is_favorite=excluded.is_favorite
WHERE entries.user_id = excluded.user_id
RETURNING created_at`

	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	var createdMS int64
	err := r.db.Pool.QueryRow(ctx, q,
		e.ID, e.OwnerID, e.Title, e.Content,
		e.CreatedAt.UnixMilli(), e.UpdatedAt.UnixMilli(),
		tags, string(e.Sentiment), e.AISummary, e.Favorite,
	).Scan(&createdMS)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// conflict row belongs to another user
			return model.JournalEntry{}, errs.ErrNotFound
		}
		return model.JournalEntry{}, err
	}
	e.CreatedAt = time.UnixMilli(createdMS)
	e.Tags = tags
	return e, nil
}

// Delete removes an entry by ID.
func (r *EntryRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	const q = `DELETE FROM entries WHERE id=$1 AND user_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Get returns a single entry by ID.
func (r *EntryRepo) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.JournalEntry, error) {
	const q = `
SELECT ` + entryColumns + `
FROM entries WHERE user_id=$1 AND id=$2`
	e, err := scanEntry(r.db.Pool.QueryRow(ctx, q, ownerID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func scanEntry(row pgx.Row) (model.JournalEntry, error) {
	var (
		e         model.JournalEntry
		createdMS int64
		updatedMS int64
		sentiment string
	)
	err := row.Scan(&e.ID, &e.OwnerID, &e.Title, &e.Content,
		&createdMS, &updatedMS, &e.Tags, &sentiment, &e.AISummary, &e.Favorite)
	if err != nil {
		return model.JournalEntry{}, err
	}
	e.CreatedAt = time.UnixMilli(createdMS)
	e.UpdatedAt = time.UnixMilli(updatedMS)
	e.Sentiment = model.Sentiment(sentiment)
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return e, nil
}
