// Package client implements the API client, session manager and entry
// repository used by the terminal UI.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/lumina-journal/lumina/internal/convert"
	"github.com/lumina-journal/lumina/internal/errs"
	"github.com/lumina-journal/lumina/internal/model"
)

// API talks to the Lumina server over HTTP/JSON. It is safe for concurrent
// use; the bearer token is attached to every request once set.
type API struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token string
}

// NewAPI creates a client for the given base URL, e.g. "http://localhost:8080".
func NewAPI(base string) *API {
	return &API{
		base: base,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken installs (or clears) the bearer token for subsequent requests.
func (a *API) SetToken(tok string) {
	a.mu.Lock()
	a.token = tok
	a.mu.Unlock()
}

// Token returns the currently installed bearer token.
func (a *API) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.token
}

// SessionPayload is the server's auth response shape.
type SessionPayload struct {
	AccessToken string              `json:"access_token"`
	ExpiresAt   int64               `json:"expires_at"` // ms since epoch
	User        convert.UserPayload `json:"user"`
}

func fromSessionPayload(p SessionPayload) (model.User, error) {
	return convert.FromUserPayload(p.User)
}

// Signup registers an account. When confirmation is off the returned session
// is complete; when on, confirmationRequired is true and the session is empty.
func (a *API) Signup(ctx context.Context, email, password, displayName string) (SessionPayload, bool, error) {
	body := map[string]string{"email": email, "password": password, "display_name": displayName}

	var raw struct {
		SessionPayload
		ConfirmationRequired bool `json:"confirmation_required"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/v1/auth/signup", body, &raw); err != nil {
		return SessionPayload{}, false, err
	}
	return raw.SessionPayload, raw.ConfirmationRequired, nil
}

// Confirm redeems an email confirmation token.
func (a *API) Confirm(ctx context.Context, token string) error {
	return a.do(ctx, http.MethodPost, "/api/v1/auth/confirm", map[string]string{"token": token}, nil)
}

// Login authenticates and returns the session payload.
func (a *API) Login(ctx context.Context, email, password string) (SessionPayload, error) {
	var out SessionPayload
	err := a.do(ctx, http.MethodPost, "/api/v1/auth/login",
		map[string]string{"email": email, "password": password}, &out)
	return out, err
}

// Session validates the installed token and returns the account behind it.
func (a *API) Session(ctx context.Context) (model.User, error) {
	var raw struct {
		User convert.UserPayload `json:"user"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/v1/auth/session", nil, &raw); err != nil {
		return model.User{}, err
	}
	return convert.FromUserPayload(raw.User)
}

// Logout tells the server the session is over. Best effort.
func (a *API) Logout(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
}

// ListEntries fetches all entries, newest created first.
func (a *API) ListEntries(ctx context.Context) ([]model.JournalEntry, error) {
	var recs []convert.EntryRecord
	if err := a.do(ctx, http.MethodGet, "/api/v1/entries", nil, &recs); err != nil {
		return nil, err
	}
	return convert.FromRecords(recs)
}

// GetEntry fetches one entry by id.
func (a *API) GetEntry(ctx context.Context, id string) (model.JournalEntry, error) {
	var rec convert.EntryRecord
	if err := a.do(ctx, http.MethodGet, "/api/v1/entries/"+id, nil, &rec); err != nil {
		return model.JournalEntry{}, err
	}
	return convert.FromRecord(rec)
}

// PutEntry upserts an entry and returns the server's authoritative copy.
func (a *API) PutEntry(ctx context.Context, e model.JournalEntry) (model.JournalEntry, error) {
	rec := convert.ToRecord(e)
	var out convert.EntryRecord
	if err := a.do(ctx, http.MethodPut, "/api/v1/entries/"+rec.ID, rec, &out); err != nil {
		return model.JournalEntry{}, err
	}
	return convert.FromRecord(out)
}

// DeleteEntry removes an entry by id.
func (a *API) DeleteEntry(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/v1/entries/"+id, nil, nil)
}

// Analyze requests AI annotations for entry text.
func (a *API) Analyze(ctx context.Context, text string) (model.AnalysisResult, error) {
	var out model.AnalysisResult
	err := a.do(ctx, http.MethodPost, "/api/v1/analyze", map[string]string{"text": text}, &out)
	return out, err
}

// do performs one JSON request and decodes the response into out (when
// non-nil). Error statuses are mapped to the shared sentinel errors so
// callers can branch with errors.Is.
func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		buf := &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return err
		}
		rd = buf
	}

	req, err := http.NewRequestWithContext(ctx, method, a.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := a.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func statusError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4<<10)).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		if payload.Error == "bad credentials" {
			return errs.ErrBadCredentials
		}
		return errs.ErrUnauthorized
	case http.StatusForbidden:
		return errs.ErrEmailNotConfirmed
	case http.StatusNotFound:
		return errs.ErrNotFound
	case http.StatusConflict:
		return errs.ErrAlreadyExists
	case http.StatusTooManyRequests:
		return errs.ErrRateLimited
	default:
		if payload.Error != "" {
			return fmt.Errorf("server: %s (%d)", payload.Error, resp.StatusCode)
		}
		return fmt.Errorf("server: status %d", resp.StatusCode)
	}
}
