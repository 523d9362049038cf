package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/npezzotti/go-chatroom-client/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err, "failed to sign token")
	return s
}

func TestLoginLogout(t *testing.T) {
	s := NewStore()

	_, ok := s.Current()
	assert.False(t, ok, "expected no session before login")
	assert.Empty(t, s.Token())
	assert.True(t, s.Expired(time.Now()), "expected missing session to count as expired")

	s.Login(types.AuthResponse{
		Message: "login successful",
		Data: types.Session{
			UserId:   3,
			Username: "alice",
			Token:    "opaque",
		},
	})

	sess, ok := s.Current()
	assert.True(t, ok, "expected session after login")
	assert.Equal(t, 3, sess.UserId)
	assert.Equal(t, "alice", s.Username())
	assert.Equal(t, "opaque", s.Token())

	s.Logout()
	_, ok = s.Current()
	assert.False(t, ok, "expected no session after logout")
	assert.Empty(t, s.Username())
}

func TestExpiry(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	tcases := []struct {
		name      string
		token     string
		hasExp    bool
		expiresAt time.Time
		expired   bool
	}{
		{
			name:      "future exp",
			token:     signedToken(t, jwt.MapClaims{"user-id": 1, "exp": now.Add(time.Hour).Unix()}),
			hasExp:    true,
			expiresAt: now.Add(time.Hour),
			expired:   false,
		},
		{
			name:      "past exp",
			token:     signedToken(t, jwt.MapClaims{"user-id": 1, "exp": now.Add(-time.Minute).Unix()}),
			hasExp:    true,
			expiresAt: now.Add(-time.Minute),
			expired:   true,
		},
		{
			name:    "no exp claim",
			token:   signedToken(t, jwt.MapClaims{"user-id": 1}),
			hasExp:  false,
			expired: false,
		},
		{
			name:    "opaque token",
			token:   "not-a-jwt",
			hasExp:  false,
			expired: false,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore()
			s.Login(types.AuthResponse{Data: types.Session{Username: "alice", Token: tc.token}})

			exp, ok := s.ExpiresAt()
			assert.Equal(t, tc.hasExp, ok, "expected exp presence to match")
			if tc.hasExp {
				assert.True(t, tc.expiresAt.Equal(exp), "expected expiry %v, got %v", tc.expiresAt, exp)
			}
			assert.Equal(t, tc.expired, s.Expired(now), "expected expired to match")
		})
	}
}
