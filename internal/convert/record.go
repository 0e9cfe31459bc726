// Package convert maps between the storage record shape (snake_case fields,
// millisecond epoch timestamps) and the application's domain entities. It is
// the only place the backend naming convention is visible.
package convert

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/lumina-journal/lumina/internal/model"
)

// EntryRecord mirrors one row of the entries table and doubles as the wire
// payload for entry endpoints.
type EntryRecord struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	CreatedAt int64    `json:"created_at"` // ms since epoch
	UpdatedAt int64    `json:"updated_at"` // ms since epoch
	Tags      []string `json:"tags"`
	Sentiment string   `json:"sentiment,omitempty"`
	AISummary string   `json:"ai_summary,omitempty"`
	Favorite  bool     `json:"is_favorite"`
}

// UserPayload is the wire shape of an account.
type UserPayload struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// ToRecord converts a domain entry to its storage/wire representation.
func ToRecord(e model.JournalEntry) EntryRecord {
	tags := e.Tags
	if tags == nil {
		tags = []string{}
	}
	return EntryRecord{
		ID:        e.ID.String(),
		UserID:    e.OwnerID.String(),
		Title:     e.Title,
		Content:   e.Content,
		CreatedAt: e.CreatedAt.UnixMilli(),
		UpdatedAt: e.UpdatedAt.UnixMilli(),
		Tags:      tags,
		Sentiment: string(e.Sentiment),
		AISummary: e.AISummary,
		Favorite:  e.Favorite,
	}
}

// FromRecord converts a storage/wire record to a domain entry.
//
// A zero or missing timestamp is substituted with the current time. The
// schema makes both columns NOT NULL, so this is a defensive fallback for
// damaged rows rather than an expected path.
func FromRecord(r EntryRecord) (model.JournalEntry, error) {
	id, err := uuid.FromString(r.ID)
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("invalid entry id %q: %w", r.ID, err)
	}
	owner, err := uuid.FromString(r.UserID)
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("invalid owner id %q: %w", r.UserID, err)
	}

	sentiment := model.Sentiment(r.Sentiment)
	if !sentiment.Valid() {
		sentiment = "" // unknown values degrade to "not annotated"
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}

	return model.JournalEntry{
		ID:        id,
		OwnerID:   owner,
		Title:     r.Title,
		Content:   r.Content,
		CreatedAt: msToTime(r.CreatedAt),
		UpdatedAt: msToTime(r.UpdatedAt),
		Tags:      tags,
		Sentiment: sentiment,
		AISummary: r.AISummary,
		Favorite:  r.Favorite,
	}, nil
}

// FromRecords converts a slice of records, failing on the first bad one.
func FromRecords(rs []EntryRecord) ([]model.JournalEntry, error) {
	out := make([]model.JournalEntry, 0, len(rs))
	for i, r := range rs {
		e, err := FromRecord(r)
		if err != nil {
			return nil, fmt.Errorf("record[%d]: %w", i, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// ToUserPayload converts a domain user to its wire shape.
func ToUserPayload(u model.User) UserPayload {
	return UserPayload{ID: u.ID.String(), Email: u.Email, DisplayName: u.DisplayName}
}

// FromUserPayload converts a wire user to the domain shape, applying the
// display-name fallback.
func FromUserPayload(p UserPayload) (model.User, error) {
	id, err := uuid.FromString(p.ID)
	if err != nil {
		return model.User{}, fmt.Errorf("invalid user id %q: %w", p.ID, err)
	}
	name := p.DisplayName
	if name == "" {
		name = "User"
	}
	return model.User{ID: id, Email: p.Email, DisplayName: name}, nil
}

func msToTime(ms int64) time.Time {
	if ms <= 0 {
		return time.Now()
	}
	return time.UnixMilli(ms)
}
