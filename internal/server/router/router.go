package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/metrics"
	"github.com/mamadbah2/praya-stock/internal/server/handlers"
)

const sessionKey = "session"

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Stock   *handlers.StockHandler
	Reports *handlers.ReportHandler
	Events  *handlers.EventsHandler
	Health  *handlers.HealthHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, authn handlers.Authenticator, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metricsMiddleware(m))

	r.GET("/healthz", h.Health.Healthz)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := r.Group("/api")
	api.POST("/login", h.Auth.Login)

	secured := api.Group("")
	secured.Use(authMiddleware(authn))
	{
		secured.POST("/logout", h.Auth.Logout)
		secured.GET("/session", h.Auth.Session)

		secured.GET("/items", h.Stock.ListItems)
		secured.POST("/items", h.Stock.CreateItem)
		secured.POST("/items/import", h.Stock.ImportItems)
		secured.POST("/items/import/sheets", h.Stock.ImportItemsFromSheet)
		secured.PATCH("/items/:id", h.Stock.RenameItem)
		secured.DELETE("/items/:id", h.Stock.DeleteItem)

		secured.GET("/incoming", h.Stock.ListIncoming)
		secured.POST("/incoming", h.Stock.CreateIncoming)

		secured.GET("/outgoing", h.Stock.ListOutgoing)
		secured.POST("/outgoing", h.Stock.CreateOutgoing)
		secured.POST("/outgoing/import", h.Stock.ImportOutgoing)
		secured.POST("/outgoing/import/sheets", h.Stock.ImportOutgoingFromSheet)
		secured.DELETE("/outgoing/:id", h.Stock.DeleteOutgoing)

		secured.GET("/reports/sales", h.Reports.SalesReport)
		secured.POST("/reconcile", h.Stock.Reconcile)

		secured.GET("/events/:collection", h.Events.Stream)
	}

	logger.Info("router initialized")
	return r
}

// authMiddleware accepts "Authorization: Bearer <token>". Browsers cannot set
// headers on EventSource, so a token query parameter is accepted as well.
func authMiddleware(authn handlers.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer "))
		if token == "" {
			token = c.Query("token")
		}

		sess, err := authn.Authenticate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please sign in"})
			return
		}
		c.Set(sessionKey, sess)
		c.Next()
	}
}

func metricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
