package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/session"
)

// Authenticator is the part of the auth service the HTTP layer needs.
type Authenticator interface {
	Login(username, password string) (session.Session, error)
	Logout() error
	Current() (session.Session, bool)
	Authenticate(token string) (session.Session, error)
}

// AuthHandler serves login, logout and the current session.
type AuthHandler struct {
	auth   Authenticator
	logger *zap.Logger
}

func NewAuthHandler(auth Authenticator, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	sess, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":  sess.Username,
		"token":     sess.Token,
		"issued_at": sess.IssuedAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Session reports who is signed in. The route is behind the auth middleware.
func (h *AuthHandler) Session(c *gin.Context) {
	sess, ok := h.auth.Current()
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": sess.Username, "issued_at": sess.IssuedAt})
}
