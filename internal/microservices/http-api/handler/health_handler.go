package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db    Pinger
	redis Pinger
}

// NewHealthHandler creates a health handler. redis may be nil.
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Health handles GET /healthz. The database is required; Redis only degrades rate limiting.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	status := gin.H{"status": "ok", "database": "ok"}
	code := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		status["status"] = "unavailable"
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			status["redis"] = err.Error()
		} else {
			status["redis"] = "ok"
		}
	}
	c.JSON(code, status)
}
