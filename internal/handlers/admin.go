package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"realty-listings/internal/apperror"
	"realty-listings/internal/cleanup"
	"realty-listings/internal/history"
	"realty-listings/internal/logging"
	"realty-listings/internal/metrics"
	"realty-listings/internal/models"
	"realty-listings/internal/response"
	"realty-listings/internal/scheduler"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// JobRunner runs a maintenance job on demand
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
}

// AdminHandler handles admin-related requests
type AdminHandler struct {
	db             *gorm.DB
	jobs           JobRunner
	cleanupService *cleanup.Service
	recorder       *metrics.Recorder
}

// NewAdminHandler creates a new admin handler. jobs and recorder may be nil.
func NewAdminHandler(db *gorm.DB, jobs JobRunner, recorder *metrics.Recorder) *AdminHandler {
	return &AdminHandler{
		db:             db,
		jobs:           jobs,
		cleanupService: cleanup.NewService(db),
		recorder:       recorder,
	}
}

func queryInt(c *gin.Context, name string, def, max int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

type groupCount struct {
	Key   string `gorm:"column:label" json:"key"`
	Count int64  `gorm:"column:total" json:"count"`
}

func (h *AdminHandler) countBy(ctx context.Context, model any, column string, scopes ...func(*gorm.DB) *gorm.DB) ([]groupCount, error) {
	rows := make([]groupCount, 0)
	err := h.db.WithContext(ctx).Model(model).
		Scopes(scopes...).
		Select(column + " AS label, COUNT(*) AS total").
		Group(column).
		Order("total DESC").
		Scan(&rows).Error
	return rows, err
}

func since(t time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("created_at >= ?", t)
	}
}

// GetOverview handles GET /api/admin/stats/overview
func (h *AdminHandler) GetOverview(c *gin.Context) {
	ctx := c.Request.Context()
	db := h.db.WithContext(ctx)
	now := time.Now().UTC()
	last7days := now.AddDate(0, 0, -7)

	counts := []struct {
		key   string
		model any
		where string
		args  []any
	}{
		{"properties", &models.Property{}, "", nil},
		{"active_properties", &models.Property{}, "is_active = ?", []any{true}},
		{"featured_properties", &models.Property{}, "is_featured = ?", []any{true}},
		{"inquiries", &models.ContactInquiry{}, "", nil},
		{"new_inquiries", &models.ContactInquiry{}, "status = ?", []any{models.InquiryStatusNew}},
		{"visitors_last_7_days", &models.VisitorInfo{}, "created_at >= ?", []any{last7days}},
		{"pending_testimonials", &models.Testimonial{}, "is_approved = ?", []any{false}},
		{"published_blogs", &models.Blog{}, "is_published = ?", []any{true}},
		{"changes_last_7_days", &models.PropertyChange{}, "detected_at >= ?", []any{last7days}},
		{"task_failures", &models.TaskFailure{}, "", nil},
	}

	stats := make(map[string]any, len(counts)+1)
	for _, q := range counts {
		var n int64
		tx := db.Model(q.model)
		if q.where != "" {
			tx = tx.Where(q.where, q.args...)
		}
		if err := tx.Count(&n).Error; err != nil {
			response.Error(c, dbError(err))
			return
		}
		stats[q.key] = n
	}

	deleteStats, err := h.cleanupService.GetDeleteStats(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("failed to get delete stats")
	} else {
		stats["deletions"] = deleteStats
	}

	c.JSON(http.StatusOK, stats)
}

// GetPropertyStats handles GET /api/admin/stats/properties
func (h *AdminHandler) GetPropertyStats(c *gin.Context) {
	ctx := c.Request.Context()
	byCategory, err := h.countBy(ctx, &models.Property{}, "category")
	if err != nil {
		response.Error(c, dbError(err))
		return
	}
	byStatus, err := h.countBy(ctx, &models.Property{}, "status")
	if err != nil {
		response.Error(c, dbError(err))
		return
	}
	byCity, err := h.countBy(ctx, &models.Property{}, "city")
	if err != nil {
		response.Error(c, dbError(err))
		return
	}

	var price struct {
		Min float64 `gorm:"column:min_price" json:"min"`
		Max float64 `gorm:"column:max_price" json:"max"`
		Avg float64 `gorm:"column:avg_price" json:"avg"`
	}
	if err := h.db.WithContext(ctx).Model(&models.Property{}).
		Select("COALESCE(MIN(price), 0) AS min_price, COALESCE(MAX(price), 0) AS max_price, COALESCE(AVG(price), 0) AS avg_price").
		Where("is_active = ?", true).
		Scan(&price).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"by_category": byCategory,
		"by_status":   byStatus,
		"by_city":     byCity,
		"price":       price,
	})
}

// GetInquiryStats handles GET /api/admin/stats/inquiries
func (h *AdminHandler) GetInquiryStats(c *gin.Context) {
	ctx := c.Request.Context()
	days := queryInt(c, "days", 30, 365)
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	byStatus, err := h.countBy(ctx, &models.ContactInquiry{}, "status", since(cutoff))
	if err != nil {
		response.Error(c, dbError(err))
		return
	}
	var visits, total int64
	if err := h.db.WithContext(ctx).Model(&models.ContactInquiry{}).Where("created_at >= ?", cutoff).Count(&total).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	if err := h.db.WithContext(ctx).Model(&models.ContactInquiry{}).
		Where("created_at >= ? AND visit_date IS NOT NULL", cutoff).
		Count(&visits).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"days":           days,
		"total":          total,
		"visit_requests": visits,
		"by_status":      byStatus,
	})
}

// GetVisitorStats handles GET /api/admin/stats/visitors
func (h *AdminHandler) GetVisitorStats(c *gin.Context) {
	ctx := c.Request.Context()
	days := queryInt(c, "days", 30, 365)
	cutoff := time.Now().UTC().AddDate(0, 0, -days)

	bySource, err := h.countBy(ctx, &models.VisitorInfo{}, "source", since(cutoff))
	if err != nil {
		response.Error(c, dbError(err))
		return
	}

	type topProperty struct {
		PropertyID uint  `json:"property_id"`
		Visitors   int64 `json:"visitors"`
	}
	top := make([]topProperty, 0)
	if err := h.db.WithContext(ctx).Model(&models.VisitorInfo{}).
		Select("property_id, COUNT(*) AS visitors").
		Where("created_at >= ? AND property_id IS NOT NULL", cutoff).
		Group("property_id").
		Order("visitors DESC").
		Limit(10).
		Scan(&top).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}

	var total int64
	if err := h.db.WithContext(ctx).Model(&models.VisitorInfo{}).Where("created_at >= ?", cutoff).Count(&total).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"days":           days,
		"total":          total,
		"by_source":      bySource,
		"top_properties": top,
	})
}

// GetApplicationMetrics handles GET /api/admin/application-metrics?hours=
func (h *AdminHandler) GetApplicationMetrics(c *gin.Context) {
	ctx := c.Request.Context()
	if h.recorder != nil {
		if _, err := h.recorder.Flush(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("flushing request metrics failed")
		}
	}

	hours := queryInt(c, "hours", 24, 24*30)
	summary, err := metrics.Summarize(ctx, h.db, time.Now().UTC().Add(-time.Duration(hours)*time.Hour), queryInt(c, "limit", 50, 500))
	if err != nil {
		response.Error(c, dbError(err))
		return
	}
	if summary == nil {
		summary = []metrics.EndpointSummary{}
	}
	c.JSON(http.StatusOK, gin.H{
		"hours":     hours,
		"endpoints": summary,
		"count":     len(summary),
	})
}

// GetSystemMetrics handles GET /api/admin/system-metrics
func (h *AdminHandler) GetSystemMetrics(c *gin.Context) {
	limit := queryInt(c, "limit", 60, 1000)
	rows := make([]models.SystemMetric, 0, limit)
	if err := h.db.WithContext(c.Request.Context()).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"snapshots": rows,
		"count":     len(rows),
	})
}

// GetTaskFailures handles GET /api/admin/task-failures
func (h *AdminHandler) GetTaskFailures(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context())
	if name := c.Query("task"); name != "" {
		q = q.Where("task_name LIKE ?", name+"%")
	}
	limit := queryInt(c, "limit", 100, 500)
	rows := make([]models.TaskFailure, 0, limit)
	if err := q.Order("failed_at DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"failures": rows,
		"count":    len(rows),
	})
}

// GetPropertyHistory handles GET /api/admin/properties/:id/history
func (h *AdminHandler) GetPropertyHistory(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	changes, err := history.ListForProperty(c.Request.Context(), h.db, id, queryInt(c, "limit", 50, 500))
	if err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"property_id": id,
		"changes":     changes,
		"count":       len(changes),
	})
}

// GetRecentChanges handles GET /api/admin/changes/recent
func (h *AdminHandler) GetRecentChanges(c *gin.Context) {
	changes, err := history.GetRecentChanges(c.Request.Context(), h.db, queryInt(c, "limit", 100, 500))
	if err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"changes": changes,
		"count":   len(changes),
	})
}

// ScanIntegrity handles GET /api/admin/cleanup/scan
func (h *AdminHandler) ScanIntegrity(c *gin.Context) {
	faults, err := h.cleanupService.Scan(c.Request.Context())
	if err != nil {
		response.Error(c, dbError(err))
		return
	}
	if faults == nil {
		faults = []cleanup.Fault{}
	}
	c.JSON(http.StatusOK, gin.H{
		"faults": faults,
		"count":  len(faults),
	})
}

// RunCleanup handles POST /api/admin/cleanup/run. Without a body it is a
// dry run.
func (h *AdminHandler) RunCleanup(c *gin.Context) {
	var req struct {
		MaxDeletionCount int   `json:"max_deletion_count"` // Safety limit (default: 1000)
		DryRun           *bool `json:"dry_run"`            // Dry run mode (default: true)
	}
	if c.Request.ContentLength != 0 {
		if err := bind(c, &req); err != nil {
			response.Error(c, err)
			return
		}
	}

	config := cleanup.DefaultCleanupConfig()
	if req.MaxDeletionCount > 0 {
		config.MaxDeletionCount = req.MaxDeletionCount
	}
	config.DryRun = boolOr(req.DryRun, true)

	ctx := c.Request.Context()
	logging.Ctx(ctx).Info().
		Int("max", config.MaxDeletionCount).
		Bool("dry_run", config.DryRun).
		Msg("admin: running integrity cleanup")

	result, err := h.cleanupService.Repair(ctx, config)
	if err != nil {
		if errors.Is(err, cleanup.ErrSafetyLimit) {
			response.Error(c, apperror.Conflict("%s", err.Error()))
			return
		}
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetDeleteLogs handles GET /api/admin/cleanup/logs
func (h *AdminHandler) GetDeleteLogs(c *gin.Context) {
	logs, err := h.cleanupService.GetRecentDeleteLogs(c.Request.Context(), queryInt(c, "limit", 100, 500))
	if err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"count": len(logs),
	})
}

// RunJob handles POST /api/admin/jobs/:name/run
func (h *AdminHandler) RunJob(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, apperror.Unavailable("Scheduler not available"))
		return
	}
	name := c.Param("name")
	if err := h.jobs.RunNow(c.Request.Context(), name); err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			response.Error(c, apperror.NotFound("Unknown job %q", name))
			return
		}
		response.Error(c, apperror.Internal(err, "Job %s failed", name))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"job": name})
}
