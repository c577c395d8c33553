package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Cookie and header names shared with the HTTP layer.
const (
	authCookie = "auth_token"
	csrfCookie = "csrf_token"
	csrfHeader = "X-CSRF-Token"
)

const tokenBytes = 32

// Service manages user accounts and the opaque session tokens stored in
// the user_tokens table. Tokens carry an absolute expiry; expired rows are
// removed lazily on validation.
type Service struct {
	db       *sql.DB
	tokenTTL time.Duration
}

// NewService returns a Service issuing tokens with the given lifetime.
// A non-positive ttl falls back to 24 hours.
func NewService(db *sql.DB, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{db: db, tokenTTL: ttl}
}

// IssueToken creates and persists a fresh session token for the user.
func (s *Service) IssueToken(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", errors.New("invalid user id")
	}
	now := time.Now().UTC()
	// Retry on the off chance a generated token collides with an existing row.
	for attempt := 0; attempt < 3; attempt++ {
		token, err := newToken()
		if err != nil {
			return "", err
		}
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO user_tokens (token, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
			token, userID, now, now.Add(s.tokenTTL),
		); err == nil {
			return token, nil
		}
	}
	return "", errors.New("issue token: retries exhausted")
}

// ValidateToken resolves a session token to its user id. Expired tokens are
// deleted and reported as invalid.
func (s *Service) ValidateToken(ctx context.Context, token string) (int64, error) {
	if token == "" {
		return 0, errors.New("token required")
	}
	var (
		userID  int64
		expires time.Time
	)
	row := s.db.QueryRowContext(ctx, `SELECT user_id, expires_at FROM user_tokens WHERE token = ?`, token)
	switch err := row.Scan(&userID, &expires); {
	case errors.Is(err, sql.ErrNoRows):
		return 0, errors.New("invalid token")
	case err != nil:
		return 0, fmt.Errorf("lookup token: %w", err)
	}
	if !time.Now().UTC().Before(expires) {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE token = ?`, token)
		return 0, errors.New("token expired")
	}
	return userID, nil
}

// RevokeToken removes one session token. Unknown tokens are a no-op.
func (s *Service) RevokeToken(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE token = ?`, token); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// RevokeUserTokens removes every session belonging to the user.
func (s *Service) RevokeUserTokens(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM user_tokens WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}

// NewCSRFToken mints a random value for the double-submit cookie.
func (s *Service) NewCSRFToken() (string, error) {
	return newToken()
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// AuthCookieName is the cookie carrying the session token.
func (s *Service) AuthCookieName() string { return authCookie }

// CSRFCookieName is the cookie carrying the CSRF double-submit value.
func (s *Service) CSRFCookieName() string { return csrfCookie }

// CSRFHeaderName is the request header matched against the CSRF cookie.
func (s *Service) CSRFHeaderName() string { return csrfHeader }

// TokenTTL reports the configured session lifetime.
func (s *Service) TokenTTL() time.Duration { return s.tokenTTL }
