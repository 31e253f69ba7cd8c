package session

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "state", "session.json"))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNoSession)

	saved := Session{Username: "admin", Token: "tok", IssuedAt: time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved.Username, loaded.Username)
	assert.Equal(t, saved.Token, loaded.Token)
	assert.True(t, saved.IssuedAt.Equal(loaded.IssuedAt))

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestManagerRestoresSavedSession(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Save(Session{Username: "admin", Token: "tok"}))

	m := NewManager(store, nil)
	_, ok := m.Current()
	assert.False(t, ok)

	s, restored, err := m.Restore()
	require.NoError(t, err)
	assert.True(t, restored)
	assert.Equal(t, "admin", s.Username)

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "tok", current.Token)
}

func TestManagerStartAndEnd(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, nil)

	_, restored, err := m.Restore()
	require.NoError(t, err)
	assert.False(t, restored)

	require.NoError(t, m.Start(Session{Username: "admin", Token: "a"}))
	saved, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "a", saved.Token)

	require.NoError(t, m.End())
	_, ok := m.Current()
	assert.False(t, ok)
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrNoSession)
}
