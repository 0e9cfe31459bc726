// Package service contains application services for authentication and entries.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"

	pkgcrypto "github.com/lumina-journal/lumina/internal/crypto"
	"github.com/lumina-journal/lumina/internal/errs"
	"github.com/lumina-journal/lumina/internal/limiter"
	"github.com/lumina-journal/lumina/internal/model"
	"github.com/lumina-journal/lumina/internal/repository"
)

// Token audiences keep access tokens and single-purpose confirmation tokens
// from being interchangeable even though they share a signing key.
const (
	audAccess  = "lumina"
	audConfirm = "lumina-confirm"
)

const minPasswordLen = 8

// AuthService defines account and session operations.
type AuthService interface {
	// Register creates a new account. A non-empty confirmToken means the
	// account is gated behind email confirmation and cannot log in yet.
	Register(ctx context.Context, email, password, displayName string) (u model.User, confirmToken string, err error)
	// Confirm redeems a confirmation token issued by Register.
	Confirm(ctx context.Context, token string) error
	// LoginWithIP applies rate limiting and authenticates the user.
	LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error)
	// UserByID loads the account behind an authenticated session.
	UserByID(ctx context.Context, id uuid.UUID) (model.User, error)
	// ParseAccessToken verifies an access token and returns its subject.
	ParseAccessToken(token string) (uuid.UUID, error)
}

type AuthServiceImpl struct {
	users          repository.UserRepository
	signKey        []byte
	accessTTL      time.Duration
	confirmTTL     time.Duration
	requireConfirm bool
	lim            limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, signKey []byte, accessTTL time.Duration, requireConfirm bool, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{
		users:          users,
		signKey:        signKey,
		accessTTL:      accessTTL,
		confirmTTL:     24 * time.Hour,
		requireConfirm: requireConfirm,
		lim:            lim,
	}
}

// Register creates a new account record with a per-user salt.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password, displayName string) (model.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return model.User{}, "", errors.New("validation: bad email")
	}
	if len(password) < minPasswordLen {
		return model.User{}, "", fmt.Errorf("validation: password shorter than %d characters", minPasswordLen)
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return model.User{}, "", err
	}
	salt, err := pkgcrypto.NewSalt()
	if err != nil {
		return model.User{}, "", err
	}

	rec := &model.UserRecord{
		ID:        uid,
		Email:     email,
		Name:      strings.TrimSpace(displayName),
		PwdHash:   pkgcrypto.HashPassword([]byte(password), salt),
		SaltAuth:  salt,
		Confirmed: !s.requireConfirm,
	}
	if err := s.users.Create(ctx, rec); err != nil {
		return model.User{}, "", err
	}

	u := userFromRecord(rec)
	if !s.requireConfirm {
		return u, "", nil
	}
	tok, err := s.issueToken(uid, audConfirm, s.confirmTTL)
	if err != nil {
		return model.User{}, "", err
	}
	return u, tok, nil
}

// Confirm redeems a confirmation token and marks the account confirmed.
func (s *AuthServiceImpl) Confirm(ctx context.Context, token string) error {
	id, err := s.parseToken(token, audConfirm)
	if err != nil {
		return fmt.Errorf("validation: %w", err)
	}
	return s.users.Confirm(ctx, id)
}

// LoginWithIP authenticates with rate limiting by (email, ip).
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, model.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	if !allowed {
		return model.Tokens{}, model.User{}, errs.ErrRateLimited
	}

	rec, err := s.users.GetByEmail(ctx, email)
	if err != nil || !pkgcrypto.VerifyPassword([]byte(password), rec.SaltAuth, rec.PwdHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Tokens{}, model.User{}, errs.ErrRateLimited
		}
		// hide existence of the account on wrong password
		return model.Tokens{}, model.User{}, errs.ErrBadCredentials
	}
	if !rec.Confirmed {
		return model.Tokens{}, model.User{}, errs.ErrEmailNotConfirmed
	}

	_ = s.lim.Success(ctx, email, ipHash) // best effort

	access, err := s.issueToken(rec.ID, audAccess, s.accessTTL)
	if err != nil {
		return model.Tokens{}, model.User{}, err
	}
	return model.Tokens{AccessToken: access, ExpiresAt: time.Now().Add(s.accessTTL)}, userFromRecord(rec), nil
}

// UserByID loads the account behind an authenticated session.
func (s *AuthServiceImpl) UserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	rec, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	return userFromRecord(rec), nil
}

// ParseAccessToken verifies an access token and returns its subject.
func (s *AuthServiceImpl) ParseAccessToken(token string) (uuid.UUID, error) {
	id, err := s.parseToken(token, audAccess)
	if err != nil {
		return uuid.Nil, errs.ErrUnauthorized
	}
	return id, nil
}

// issueToken creates a signed HS256 JWT for the given subject and audience.
func (s *AuthServiceImpl) issueToken(userID uuid.UUID, aud string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{aud},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(s.signKey)
}

func (s *AuthServiceImpl) parseToken(token, aud string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithAudience(aud), jwt.WithLeeway(30*time.Second))
	if err != nil || !parsed.Valid {
		return uuid.Nil, errors.New("invalid token")
	}
	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.New("bad subject")
	}
	return id, nil
}

func userFromRecord(rec *model.UserRecord) model.User {
	return model.User{ID: rec.ID, Email: rec.Email, DisplayName: rec.Name}
}
