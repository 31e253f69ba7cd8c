package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/praya-stock/internal/config"
	"github.com/mamadbah2/praya-stock/internal/session"
)

func newService(t *testing.T, store session.Store) *Service {
	t.Helper()
	svc, err := NewService(config.AuthConfig{
		Username:    "admin",
		Password:    "admin123",
		TokenSecret: "test-secret",
	}, session.NewManager(store, nil), nil)
	require.NoError(t, err)
	return svc
}

func TestLoginIssuesUsableToken(t *testing.T) {
	svc := newService(t, session.NewMemoryStore())

	sess, err := svc.Login("admin", "admin123")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	got, err := svc.Authenticate(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", got.Username)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newService(t, session.NewMemoryStore())

	tests := []struct{ user, pass string }{
		{"admin", "wrong"},
		{"root", "admin123"},
		{"", ""},
	}
	for _, tt := range tests {
		_, err := svc.Login(tt.user, tt.pass)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	_, ok := svc.Current()
	assert.False(t, ok)
}

func TestLogoutRevokesToken(t *testing.T) {
	store := session.NewMemoryStore()
	svc := newService(t, store)

	sess, err := svc.Login("admin", "admin123")
	require.NoError(t, err)
	require.NoError(t, svc.Logout())

	_, err = svc.Authenticate(sess.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = store.Load()
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestAuthenticateRejectsForeignTokens(t *testing.T) {
	svc := newService(t, session.NewMemoryStore())
	_, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	_, err = svc.Authenticate("not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	other, err := NewService(config.AuthConfig{Username: "admin", Password: "admin123", TokenSecret: "other"},
		session.NewManager(session.NewMemoryStore(), nil), nil)
	require.NoError(t, err)
	foreign, err := other.Login("admin", "admin123")
	require.NoError(t, err)

	_, err = svc.Authenticate(foreign.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRestoredSessionIsAcceptedWithoutLogin(t *testing.T) {
	store := session.NewMemoryStore()
	first := newService(t, store)
	sess, err := first.Login("admin", "admin123")
	require.NoError(t, err)

	manager := session.NewManager(store, nil)
	_, restored, err := manager.Restore()
	require.NoError(t, err)
	require.True(t, restored)

	second, err := NewService(config.AuthConfig{Username: "admin", Password: "admin123", TokenSecret: "test-secret"}, manager, nil)
	require.NoError(t, err)

	_, err = second.Authenticate(sess.Token)
	assert.NoError(t, err)
}
