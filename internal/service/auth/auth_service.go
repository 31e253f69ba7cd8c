package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/praya-stock/internal/config"
	"github.com/mamadbah2/praya-stock/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("not signed in")
)

// Service checks the single configured account and issues session tokens.
// A token is valid only while it is the token of the active session, so
// logging out revokes it.
type Service struct {
	username string
	hash     []byte
	secret   []byte
	sessions *session.Manager
	now      func() time.Time
	logger   *zap.Logger
}

// NewService hashes the configured password once at startup.
func NewService(cfg config.AuthConfig, sessions *session.Manager, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash configured password: %w", err)
	}

	return &Service{
		username: cfg.Username,
		hash:     hash,
		secret:   []byte(cfg.TokenSecret),
		sessions: sessions,
		now:      time.Now,
		logger:   logger,
	}, nil
}

// Login verifies the credentials and starts a new session.
func (s *Service) Login(username, password string) (session.Session, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passErr := bcrypt.CompareHashAndPassword(s.hash, []byte(password))
	if !userOK || passErr != nil {
		s.logger.Warn("login rejected", zap.String("username", username))
		return session.Session{}, ErrInvalidCredentials
	}

	issued := s.now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:  username,
		IssuedAt: jwt.NewNumericDate(issued),
		ID:       uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return session.Session{}, fmt.Errorf("sign session token: %w", err)
	}

	sess := session.Session{Username: username, Token: token, IssuedAt: issued}
	if err := s.sessions.Start(sess); err != nil {
		return session.Session{}, err
	}

	s.logger.Info("user signed in", zap.String("username", username))
	return sess, nil
}

// Logout ends the active session.
func (s *Service) Logout() error {
	if err := s.sessions.End(); err != nil {
		return err
	}
	s.logger.Info("user signed out")
	return nil
}

// Current returns the active session, if any.
func (s *Service) Current() (session.Session, bool) {
	return s.sessions.Current()
}

// Authenticate accepts token when it is well signed and belongs to the
// active session.
func (s *Service) Authenticate(token string) (session.Session, error) {
	current, ok := s.sessions.Current()
	if !ok || token == "" {
		return session.Session{}, ErrUnauthenticated
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return session.Session{}, fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	}

	if claims.Subject != current.Username || subtle.ConstantTimeCompare([]byte(token), []byte(current.Token)) != 1 {
		return session.Session{}, fmt.Errorf("%w: token is not the active session", ErrUnauthenticated)
	}
	return current, nil
}
