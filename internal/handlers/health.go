package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks a backing service
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports liveness of the database and optional services
type HealthHandler struct {
	db      Pinger
	search  func() bool
	breaker func() string
	started time.Time
}

// NewHealthHandler accepts nil search and breaker probes
func NewHealthHandler(db Pinger, search func() bool, breaker func() string) *HealthHandler {
	return &HealthHandler{db: db, search: search, breaker: breaker, started: time.Now()}
}

// Health handles GET /health. It answers 503 only when the database is down.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":         "ok",
		"database":       "ok",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
	}
	if err := h.db.Ping(ctx); err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "unavailable"
	}
	switch {
	case h.search == nil:
		body["search"] = "disabled"
	case h.search():
		body["search"] = "ok"
	default:
		body["search"] = "unavailable"
	}
	if h.breaker != nil {
		body["geocoder"] = h.breaker()
	}
	c.JSON(status, body)
}
