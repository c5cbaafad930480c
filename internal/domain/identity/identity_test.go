package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapSessions struct {
	byToken map[string]*Session
}

func newMapSessions() *mapSessions {
	return &mapSessions{byToken: make(map[string]*Session)}
}

func (m *mapSessions) Put(_ context.Context, s *Session) error {
	m.byToken[s.Token] = s
	return nil
}

func (m *mapSessions) Get(_ context.Context, token string) (*Session, error) {
	s, ok := m.byToken[token]
	if !ok {
		return nil, ErrSessionExpired
	}
	return s, nil
}

func (m *mapSessions) Delete(_ context.Context, token string) error {
	delete(m.byToken, token)
	return nil
}

func TestRegister(t *testing.T) {
	svc := NewService(newMapSessions(), time.Hour)

	sess, err := svc.Register(context.Background(), "rider@example.com", "supersecret")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.NotEmpty(t, sess.UserID)
	assert.Equal(t, "rider@example.com", sess.Email)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := NewService(newMapSessions(), time.Hour)

	_, err := svc.Register(context.Background(), "rider@example.com", "short")
	require.ErrorIs(t, err, ErrWeakPassword)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := NewService(newMapSessions(), time.Hour)

	for _, tc := range []struct {
		name, email, password string
	}{
		{"short password", "rider@example.com", "1234567"},
		{"no at sign", "rider.example.com", "supersecret"},
		{"empty email", "", "supersecret"},
		{"trailing at", "rider@", "supersecret"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tc.email, tc.password)
			require.ErrorIs(t, err, ErrInvalidCredentials)
		})
	}
}

func TestLogin_StableUserID(t *testing.T) {
	svc := NewService(newMapSessions(), time.Hour)

	s1, err := svc.Login(context.Background(), "rider@example.com", "supersecret")
	require.NoError(t, err)
	s2, err := svc.Login(context.Background(), "Rider@Example.com", "othersecret")
	require.NoError(t, err)

	assert.Equal(t, s1.UserID, s2.UserID, "same email resolves to the same user")
	assert.NotEqual(t, s1.Token, s2.Token, "each login issues a fresh token")
}

func TestResolve(t *testing.T) {
	svc := NewService(newMapSessions(), time.Hour)

	sess, err := svc.Login(context.Background(), "rider@example.com", "supersecret")
	require.NoError(t, err)

	got, err := svc.Resolve(context.Background(), sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, got.UserID)

	_, err = svc.Resolve(context.Background(), "bogus")
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestResolve_Expired(t *testing.T) {
	store := newMapSessions()
	svc := NewService(store, time.Hour)

	sess, err := svc.Login(context.Background(), "rider@example.com", "supersecret")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = svc.Resolve(context.Background(), sess.Token)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, store.byToken, "expired session is evicted")
}

func TestLogout(t *testing.T) {
	svc := NewService(newMapSessions(), time.Hour)

	sess, err := svc.Login(context.Background(), "rider@example.com", "supersecret")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), sess.Token))

	_, err = svc.Resolve(context.Background(), sess.Token)
	require.ErrorIs(t, err, ErrSessionExpired)
}
