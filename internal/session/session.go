// Package session holds the signed-in user for the lifetime of the process.
// Nothing here is persisted: a restart means logging in again.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/npezzotti/go-chatroom-client/internal/types"
)

const expClaim = "exp"

type Store struct {
	mu      sync.RWMutex
	current *types.Session
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Login(resp types.AuthResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := resp.Data
	s.current = &sess
}

func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
}

func (s *Store) Current() (types.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return types.Session{}, false
	}
	return *s.current, true
}

func (s *Store) Token() string {
	sess, _ := s.Current()
	return sess.Token
}

func (s *Store) Username() string {
	sess, _ := s.Current()
	return sess.Username
}

// ExpiresAt reads the exp claim of the session token. The token is not
// verified: the client has no key, it only wants to avoid sending a token
// the backend will reject anyway.
func (s *Store) ExpiresAt() (time.Time, bool) {
	token := s.Token()
	if token == "" {
		return time.Time{}, false
	}

	exp, err := tokenExpiry(token)
	if err != nil {
		return time.Time{}, false
	}
	return exp, true
}

// Expired reports whether there is no session or its token has expired.
// Tokens without a readable exp claim are treated as valid.
func (s *Store) Expired(now time.Time) bool {
	if _, ok := s.Current(); !ok {
		return true
	}

	exp, ok := s.ExpiresAt()
	if !ok {
		return false
	}
	return !now.Before(exp)
}

func tokenExpiry(tokenString string) (time.Time, error) {
	token, _, err := new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid token claims")
	}

	exp, ok := claims[expClaim].(float64)
	if !ok {
		return time.Time{}, fmt.Errorf("invalid exp claim")
	}

	return time.Unix(int64(exp), 0), nil
}
