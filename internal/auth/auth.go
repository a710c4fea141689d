// Package auth covers credential validation, password hashing and session
// management. Sessions are opaque random secrets held in redis; the secret
// is the only thing the client ever sees and resolving it is the only way
// to recover the identity behind a request.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fauna-labs/fwitter/internal/cache"
)

var (
	// ErrInvalidEmail reports a malformed email address.
	ErrInvalidEmail = errors.New("invalid e-mail format")

	// ErrInvalidPassword reports a password below the minimum length.
	ErrInvalidPassword = errors.New("invalid password, please provide at least 8 chars")

	// ErrInvalidCredentials reports a failed login. The same error covers
	// an unknown email and a wrong password so callers can't probe which
	// accounts exist.
	ErrInvalidCredentials = errors.New("the email or password is incorrect")

	// ErrInvalidSession reports an unknown or expired session secret.
	ErrInvalidSession = errors.New("invalid or expired session")
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// ValidateEmail checks the address shape.
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks the minimum length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrInvalidPassword
	}
	return nil
}

// HashPassword derives the stored bcrypt hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a candidate against the stored hash.
func CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Session is the identity resolved from a secret.
type Session struct {
	AccountRef uuid.UUID `json:"account_ref"`
	UserRef    uuid.UUID `json:"user_ref"`
	Created    time.Time `json:"created"`
}

// Sessions issues and resolves session secrets against redis.
type Sessions struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewSessions creates a new session store
func NewSessions(c *cache.Cache, ttl time.Duration) *Sessions {
	return &Sessions{cache: c, ttl: ttl}
}

func sessionKey(secret string) string {
	return "session:" + secret
}

// Issue creates a session for the (account, user) pair and returns the
// secret to hand to the client.
func (s *Sessions) Issue(accountRef, userRef uuid.UUID) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate session secret: %w", err)
	}
	secret := hex.EncodeToString(raw)

	session := Session{
		AccountRef: accountRef,
		UserRef:    userRef,
		Created:    time.Now().UTC(),
	}
	if err := s.cache.SetJSON(sessionKey(secret), session, s.ttl); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}
	return secret, nil
}

// Resolve returns the session behind a secret.
func (s *Sessions) Resolve(secret string) (*Session, error) {
	if secret == "" {
		return nil, ErrInvalidSession
	}
	var session Session
	err := s.cache.GetJSON(sessionKey(secret), &session)
	if err != nil {
		if cache.IsMiss(err) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}
	return &session, nil
}

// Revoke deletes a session. Revoking an unknown secret is not an error.
func (s *Sessions) Revoke(secret string) error {
	if err := s.cache.Delete(sessionKey(secret)); err != nil && err != cache.ErrCacheDisabled {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
