package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/lumina-journal/lumina/internal/crypto"
	"github.com/lumina-journal/lumina/internal/errs"
	"github.com/lumina-journal/lumina/internal/limiter"
	"github.com/lumina-journal/lumina/internal/model"
	"github.com/lumina-journal/lumina/internal/repository"
)

type fakeUsers struct {
	byEmail map[string]*model.UserRecord

	createErr error
	getErr    error
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func (f *fakeUsers) Create(_ context.Context, u *model.UserRecord) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.byEmail == nil {
		f.byEmail = map[string]*model.UserRecord{}
	}
	if _, exists := f.byEmail[u.Email]; exists {
		return errs.ErrAlreadyExists
	}
	cpy := *u
	f.byEmail[u.Email] = &cpy
	return nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*model.UserRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.UserRecord, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) Confirm(_ context.Context, id uuid.UUID) error {
	for _, u := range f.byEmail {
		if u.ID == id {
			u.Confirmed = true
			return nil
		}
	}
	return errs.ErrNotFound
}

type fakeLimiter struct {
	allowOK  bool
	allowErr error

	failBlocked bool
	failErr     error

	successCalls int
	failureCalls int
}

var _ limiter.Limiter = (*fakeLimiter)(nil)

func (l *fakeLimiter) Allow(context.Context, string, []byte) (bool, time.Duration, error) {
	return l.allowOK, 0, l.allowErr
}
func (l *fakeLimiter) Success(context.Context, string, []byte) error {
	l.successCalls++
	return nil
}
func (l *fakeLimiter) Failure(context.Context, string, []byte) (bool, time.Duration, error) {
	l.failureCalls++
	return l.failBlocked, 0, l.failErr
}

func seedUser(t *testing.T, users *fakeUsers, email, password string, confirmed bool) *model.UserRecord {
	t.Helper()
	salt, _ := pkgcrypto.NewSalt()
	rec := &model.UserRecord{
		ID:        uuid.Must(uuid.NewV4()),
		Email:     email,
		Name:      "Jane",
		PwdHash:   pkgcrypto.HashPassword([]byte(password), salt),
		SaltAuth:  salt,
		Confirmed: confirmed,
	}
	if err := users.Create(context.Background(), rec); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return rec
}

func TestAuth_Register_Validation(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byEmail: map[string]*model.UserRecord{}}
	s := NewAuthService(users, []byte("k"), time.Minute, false, &fakeLimiter{allowOK: true})

	if _, _, err := s.Register(context.Background(), "", "pw123456", "Jane"); err == nil {
		t.Fatalf("want validation error on empty email")
	}
	if _, _, err := s.Register(context.Background(), "not-an-email", "pw123456", "Jane"); err == nil {
		t.Fatalf("want validation error on bad email")
	}
	if _, _, err := s.Register(context.Background(), "a@b.com", "short", "Jane"); err == nil {
		t.Fatalf("want validation error on short password")
	}

	u, confirmTok, err := s.Register(context.Background(), "A@B.com", "pw123456", "Jane")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if confirmTok != "" {
		t.Fatalf("confirmation not required, got token")
	}
	if u.Email != "a@b.com" {
		t.Fatalf("email not normalized: %q", u.Email)
	}

	if _, _, err := s.Register(context.Background(), "a@b.com", "pw123456", "Other"); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Fatalf("want ErrAlreadyExists on duplicate, got %v", err)
	}
}

func TestAuth_Register_ConfirmationGate(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byEmail: map[string]*model.UserRecord{}}
	s := NewAuthService(users, []byte("k"), time.Minute, true, &fakeLimiter{allowOK: true})

	_, confirmTok, err := s.Register(context.Background(), "a@b.com", "pw123456", "Jane")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if confirmTok == "" {
		t.Fatalf("want confirmation token when confirmation is required")
	}

	// unconfirmed login fails with the dedicated sentinel
	if _, _, err := s.LoginWithIP(context.Background(), "a@b.com", "pw123456", "1.2.3.4"); !errors.Is(err, errs.ErrEmailNotConfirmed) {
		t.Fatalf("want ErrEmailNotConfirmed, got %v", err)
	}

	// a garbage token is rejected, the real one flips the account
	if err := s.Confirm(context.Background(), "garbage"); err == nil {
		t.Fatalf("want error on bad confirm token")
	}
	if err := s.Confirm(context.Background(), confirmTok); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if _, _, err := s.LoginWithIP(context.Background(), "a@b.com", "pw123456", "1.2.3.4"); err != nil {
		t.Fatalf("login after confirm: %v", err)
	}
}

func TestAuth_Confirm_RejectsAccessToken(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byEmail: map[string]*model.UserRecord{}}
	s := NewAuthService(users, []byte("k"), time.Minute, false, &fakeLimiter{allowOK: true})
	seedUser(t, users, "a@b.com", "pw123456", true)

	tok, _, err := s.LoginWithIP(context.Background(), "a@b.com", "pw123456", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := s.Confirm(context.Background(), tok.AccessToken); err == nil {
		t.Fatalf("access token must not confirm an account")
	}
}

func TestAuth_LoginWithIP_RateLimiterAndCreds(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byEmail: map[string]*model.UserRecord{}}
	rec := seedUser(t, users, "alice@b.com", "correct-horse", true)
	lim := &fakeLimiter{allowOK: true}
	s := NewAuthService(users, []byte("secret"), 2*time.Minute, false, lim)

	lim.allowErr = errors.New("lim-err")
	if _, _, err := s.LoginWithIP(context.Background(), "alice@b.com", "correct-horse", "1.2.3.4"); err == nil {
		t.Fatalf("want limiter error propagate")
	}
	lim.allowErr = nil

	lim.allowOK = false
	if _, _, err := s.LoginWithIP(context.Background(), "alice@b.com", "correct-horse", "1.2.3.4"); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited, got %v", err)
	}
	lim.allowOK = true

	if _, _, err := s.LoginWithIP(context.Background(), "nobody@b.com", "x", ""); !errors.Is(err, errs.ErrBadCredentials) {
		t.Fatalf("want ErrBadCredentials on missing user, got %v", err)
	}

	lim.failBlocked = true
	if _, _, err := s.LoginWithIP(context.Background(), "alice@b.com", "wrong", ""); !errors.Is(err, errs.ErrRateLimited) {
		t.Fatalf("want ErrRateLimited on blocked after failure, got %v", err)
	}
	lim.failBlocked = false

	if _, _, err := s.LoginWithIP(context.Background(), "alice@b.com", "wrong", ""); !errors.Is(err, errs.ErrBadCredentials) {
		t.Fatalf("want ErrBadCredentials on wrong password, got %v", err)
	}

	tok, u, err := s.LoginWithIP(context.Background(), "Alice@B.com", "correct-horse", "127.0.0.1:123")
	if err != nil {
		t.Fatalf("LoginWithIP success: %v", err)
	}
	if tok.AccessToken == "" || tok.ExpiresAt.Before(time.Now()) {
		t.Fatalf("bad token: %+v", tok)
	}
	if u.ID != rec.ID || u.Email != "alice@b.com" {
		t.Fatalf("bad user returned: %+v", u)
	}
	if lim.successCalls == 0 {
		t.Fatalf("expected Success() to be called")
	}
}

func TestAuth_ParseAccessToken(t *testing.T) {
	t.Parallel()
	users := &fakeUsers{byEmail: map[string]*model.UserRecord{}}
	rec := seedUser(t, users, "a@b.com", "pw123456", true)
	s := NewAuthService(users, []byte("k"), time.Minute, false, &fakeLimiter{allowOK: true})

	tok, _, err := s.LoginWithIP(context.Background(), "a@b.com", "pw123456", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	id, err := s.ParseAccessToken(tok.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if id != rec.ID {
		t.Fatalf("subject mismatch: %v != %v", id, rec.ID)
	}

	if _, err := s.ParseAccessToken("junk"); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on junk token, got %v", err)
	}

	other := NewAuthService(users, []byte("other-key"), time.Minute, false, &fakeLimiter{allowOK: true})
	if _, err := other.ParseAccessToken(tok.AccessToken); !errors.Is(err, errs.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on foreign key, got %v", err)
	}
}
