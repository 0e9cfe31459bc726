package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// tokenFile is the on-disk session shape under the user config dir.
type tokenFile struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TokenStore persists the access token between runs.
type TokenStore struct {
	dir string
}

// NewTokenStoreAt keeps the token under the given directory, normally the
// user config dir.
func NewTokenStoreAt(dir string) *TokenStore {
	return &TokenStore{dir: dir}
}

func (s *TokenStore) path() string { return filepath.Join(s.dir, "token.json") }

// Save writes the token with owner-only permissions.
func (s *TokenStore) Save(tok string, exp time.Time) error {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(tokenFile{AccessToken: tok, ExpiresAt: exp}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), b, 0o600)
}

// Load returns the stored token, rejecting empty or expired ones.
func (s *TokenStore) Load() (string, error) {
	b, err := os.ReadFile(s.path())
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.AccessToken == "" || time.Now().After(tf.ExpiresAt) {
		return "", errors.New("no valid token (login required)")
	}
	return tf.AccessToken, nil
}

// Clear removes the stored token. Missing file is not an error.
func (s *TokenStore) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
