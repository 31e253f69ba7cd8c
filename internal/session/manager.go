package session

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Manager holds the current session in memory and writes every change
// through to its Store.
type Manager struct {
	store  Store
	logger *zap.Logger

	mu      sync.RWMutex
	current *Session
}

// NewManager creates a manager with no active session. Call Restore to pick
// up a previously saved one.
func NewManager(store Store, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, logger: logger}
}

// Restore loads the saved session, if any. Credentials are not re-checked.
func (m *Manager) Restore() (Session, bool, error) {
	s, err := m.store.Load()
	if errors.Is(err, ErrNoSession) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("restore session: %w", err)
	}

	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()

	m.logger.Info("session restored", zap.String("username", s.Username))
	return s, true, nil
}

// Current returns the active session.
func (m *Manager) Current() (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return Session{}, false
	}
	return *m.current, true
}

// Start replaces the active session and saves it.
func (m *Manager) Start(s Session) error {
	if err := m.store.Save(s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	m.mu.Lock()
	m.current = &s
	m.mu.Unlock()
	return nil
}

// End drops the active session and clears the store.
func (m *Manager) End() error {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
