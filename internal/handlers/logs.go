package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"realty-listings/internal/apperror"
	"realty-listings/internal/logging"
	"realty-listings/internal/models"
	"realty-listings/internal/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const maxLogMessage = 4000

// LogHandler ingests client logs and exposes them to the admin
type LogHandler struct {
	db *gorm.DB
}

func NewLogHandler(db *gorm.DB) *LogHandler {
	return &LogHandler{db: db}
}

type logRequest struct {
	Level     string          `json:"level"`
	Source    string          `json:"source"`
	Message   string          `json:"message"`
	Context   json.RawMessage `json:"context"`
	UserEmail string          `json:"user_email"`
}

func normalizeLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return models.LogLevelDebug
	case "warn", "warning":
		return models.LogLevelWarn
	case "error", "fatal", "critical":
		return models.LogLevelError
	default:
		return models.LogLevelInfo
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Ingest handles POST /api/logs. It answers success even when the body is
// unusable or the write fails.
func (h *LogHandler) Ingest(c *gin.Context) {
	logger := logging.Ctx(c.Request.Context())

	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Debug().Err(err).Msg("discarding malformed client log")
		response.Success(c, http.StatusOK, nil)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		response.Success(c, http.StatusOK, nil)
		return
	}

	entry := models.Log{
		Level:     normalizeLevel(req.Level),
		Source:    truncate(strings.TrimSpace(req.Source), 100),
		Message:   truncate(req.Message, maxLogMessage),
		UserEmail: truncate(strings.TrimSpace(req.UserEmail), 255),
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	if entry.Source == "" {
		entry.Source = "client"
	}
	if len(req.Context) > 0 && string(req.Context) != "null" {
		entry.Context = truncate(string(req.Context), maxLogMessage)
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&entry).Error; err != nil {
		logger.Warn().Err(err).Str("source", entry.Source).Msg("could not store client log")
	}
	response.Success(c, http.StatusOK, nil)
}

// List handles GET /api/logs?level&source&search
func (h *LogHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context())
	if level := c.Query("level"); level != "" {
		q = q.Where("level = ?", normalizeLevel(level))
	}
	if source := c.Query("source"); source != "" {
		q = q.Where("source = ?", source)
	}
	if term := strings.TrimSpace(c.Query("search")); term != "" {
		q = q.Where("message LIKE ?", "%"+term+"%")
	}
	listPage[models.Log](c, q, "created_at DESC, id DESC")
}

// Purge handles DELETE /api/logs?older_than_days=N (default 30; 0 clears all)
func (h *LogHandler) Purge(c *gin.Context) {
	days := 30
	if raw := c.Query("older_than_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(c, apperror.Validation("older_than_days must be a non-negative integer"))
			return
		}
		days = n
	}

	q := h.db.WithContext(c.Request.Context())
	if days > 0 {
		q = q.Where("created_at < ?", time.Now().UTC().AddDate(0, 0, -days))
	} else {
		q = q.Where("1 = 1")
	}
	res := q.Delete(&models.Log{})
	if res.Error != nil {
		response.Error(c, dbError(res.Error))
		return
	}
	logging.Ctx(c.Request.Context()).Info().Int64("deleted", res.RowsAffected).Int("older_than_days", days).Msg("logs purged")
	response.Success(c, http.StatusOK, gin.H{"deleted": res.RowsAffected})
}
