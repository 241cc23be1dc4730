package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amikeal/sms-checkin-relay/pkg/database"
	"github.com/amikeal/sms-checkin-relay/pkg/redis"
)

// HealthHandler reports service liveness and dependency health
type HealthHandler struct {
	db    *database.PostgresDB
	redis *redis.Client // optional
}

// NewHealthHandler creates a new HealthHandler. redis may be nil when
// the cache is disabled.
func NewHealthHandler(db *database.PostgresDB, redis *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// Health handles health check requests
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	status := http.StatusOK
	checks := gin.H{}

	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		status = http.StatusServiceUnavailable
	} else {
		checks["database"] = "healthy"
	}

	if h.redis != nil {
		if err := h.redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "healthy"
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":    overall,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
