package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/praya-stock/internal/domain/models"
	"github.com/mamadbah2/praya-stock/internal/repository"
)

// Subscriber exposes live snapshots of the three collections.
type Subscriber interface {
	SubscribeItems(onChange func([]models.Item), onError func(error)) repository.Unsubscribe
	SubscribeIncoming(onChange func([]models.IncomingEvent), onError func(error)) repository.Unsubscribe
	SubscribeOutgoing(onChange func([]models.OutgoingEvent), onError func(error)) repository.Unsubscribe
}

// EventsHandler streams collection snapshots as server-sent events.
type EventsHandler struct {
	sub    Subscriber
	logger *zap.Logger
}

func NewEventsHandler(sub Subscriber, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{sub: sub, logger: logger}
}

// Stream handles GET /api/events/:collection. Each store change produces a
// "snapshot" event carrying the whole collection; a store error produces an
// "error" event and ends the stream.
func (h *EventsHandler) Stream(c *gin.Context) {
	name := c.Param("collection")
	switch name {
	case "items":
		streamSnapshots(c, h.logger, h.sub.SubscribeItems)
	case "incoming":
		streamSnapshots(c, h.logger, h.sub.SubscribeIncoming)
	case "outgoing":
		streamSnapshots(c, h.logger, h.sub.SubscribeOutgoing)
	default:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "unknown collection " + name})
	}
}

func streamSnapshots[T any](c *gin.Context, logger *zap.Logger, subscribe func(func([]T), func(error)) repository.Unsubscribe) {
	// Only the newest snapshot matters, so a slow client skips stale ones.
	updates := make(chan []T, 1)
	failures := make(chan error, 1)

	push := func(snapshot []T) {
		for {
			select {
			case updates <- snapshot:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	}

	unsubscribe := subscribe(push, func(err error) {
		select {
		case failures <- err:
		default:
		}
	})
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case snapshot := <-updates:
			c.SSEvent("snapshot", snapshot)
			return true
		case err := <-failures:
			logger.Warn("live subscription failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
			c.SSEvent("error", gin.H{"error": "live updates interrupted, please reload"})
			return false
		}
	})
}
