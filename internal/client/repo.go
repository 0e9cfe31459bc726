package client

import (
	"context"

	"github.com/lumina-journal/lumina/internal/model"
)

// EntryRepo is the client-side gateway to the user's entries. All calls
// require a live session; Save checks locally so a signed-out UI never
// reaches the network.
type EntryRepo struct {
	api     *API
	session *Session
}

// NewEntryRepo constructs the repository over an API client and session.
func NewEntryRepo(api *API, session *Session) *EntryRepo {
	return &EntryRepo{api: api, session: session}
}

// List returns all entries of the signed-in user, newest created first.
func (r *EntryRepo) List(ctx context.Context) ([]model.JournalEntry, error) {
	return r.api.ListEntries(ctx)
}

// Save upserts an entry. Fails with ErrUnauthorized before any network call
// when there is no session.
func (r *EntryRepo) Save(ctx context.Context, e model.JournalEntry) (model.JournalEntry, error) {
	if _, err := r.session.RequireUser(); err != nil {
		return model.JournalEntry{}, err
	}
	return r.api.PutEntry(ctx, e)
}

// Delete removes an entry by id.
func (r *EntryRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.session.RequireUser(); err != nil {
		return err
	}
	return r.api.DeleteEntry(ctx, id)
}

// GetByID fetches one entry; unknown ids surface as ErrNotFound.
func (r *EntryRepo) GetByID(ctx context.Context, id string) (model.JournalEntry, error) {
	e, err := r.api.GetEntry(ctx, id)
	if err != nil {
		return model.JournalEntry{}, err
	}
	return e, nil
}

// Analyze proxies an annotation request through the server.
func (r *EntryRepo) Analyze(ctx context.Context, text string) (model.AnalysisResult, error) {
	if _, err := r.session.RequireUser(); err != nil {
		return model.AnalysisResult{}, err
	}
	return r.api.Analyze(ctx, text)
}
