// Package model defines domain entities shared by the server and the client.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Sentiment is the emotional tone assigned to an entry by annotation.
// The zero value means "not annotated".
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Valid reports whether s is one of the three known sentiment values.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNeutral, SentimentNegative:
		return true
	}
	return false
}

// User is the authenticated account as seen by the application.
type User struct {
	ID          uuid.UUID
	Email       string
	DisplayName string
}

// UserRecord is the server-side account row. Password material never leaves
// the server.
type UserRecord struct {
	ID        uuid.UUID
	Email     string // unique
	Name      string
	PwdHash   []byte // Argon2id(password, SaltAuth)
	SaltAuth  []byte // per-user auth salt
	Confirmed bool   // false until the confirmation token is redeemed
	CreatedAt time.Time
}

// JournalEntry is a single journal record authored by one user.
type JournalEntry struct {
	ID        uuid.UUID // client-generated on creation, immutable
	OwnerID   uuid.UUID
	Title     string
	Content   string
	CreatedAt time.Time // set once at first save
	UpdatedAt time.Time // refreshed on every save, >= CreatedAt
	Tags      []string
	Sentiment Sentiment // empty until annotated
	AISummary string
	Favorite  bool
}

// AnalysisResult is the structured output of the annotation service.
type AnalysisResult struct {
	Sentiment Sentiment
	Tags      []string // at most 3
	Summary   string
}

// Tokens collects an issued access token and its expiry.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time
}
