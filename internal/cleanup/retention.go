package cleanup

import (
	"context"
	"fmt"
	"time"

	"realty-listings/internal/models"

	"github.com/rs/zerolog/log"
)

// RetentionConfig says how long operational rows are kept
type RetentionConfig struct {
	LogDays    int
	MetricDays int
}

// RetentionResult counts purged rows per table
type RetentionResult struct {
	Sessions           int64 `json:"sessions"`
	Logs               int64 `json:"logs"`
	ApplicationMetrics int64 `json:"application_metrics"`
	SystemMetrics      int64 `json:"system_metrics"`
}

// PurgeRetention removes logs and metrics past their retention and
// sessions that expired before the log cutoff
func (s *Service) PurgeRetention(ctx context.Context, cfg RetentionConfig, now time.Time) (*RetentionResult, error) {
	db := s.db.WithContext(ctx)
	res := &RetentionResult{}

	if cfg.LogDays > 0 {
		cutoff := now.AddDate(0, 0, -cfg.LogDays)

		q := db.Where("created_at < ?", cutoff).Delete(&models.Log{})
		if q.Error != nil {
			return nil, fmt.Errorf("purge logs: %w", q.Error)
		}
		res.Logs = q.RowsAffected

		q = db.Where("expires_at < ?", cutoff).Delete(&models.UserSession{})
		if q.Error != nil {
			return nil, fmt.Errorf("purge sessions: %w", q.Error)
		}
		res.Sessions = q.RowsAffected
	}

	if cfg.MetricDays > 0 {
		cutoff := now.AddDate(0, 0, -cfg.MetricDays)

		q := db.Where("created_at < ?", cutoff).Delete(&models.ApplicationMetric{})
		if q.Error != nil {
			return nil, fmt.Errorf("purge application metrics: %w", q.Error)
		}
		res.ApplicationMetrics = q.RowsAffected

		q = db.Where("created_at < ?", cutoff).Delete(&models.SystemMetric{})
		if q.Error != nil {
			return nil, fmt.Errorf("purge system metrics: %w", q.Error)
		}
		res.SystemMetrics = q.RowsAffected
	}

	log.Info().
		Int64("logs", res.Logs).
		Int64("sessions", res.Sessions).
		Int64("application_metrics", res.ApplicationMetrics).
		Int64("system_metrics", res.SystemMetrics).
		Msg("retention purge completed")
	return res, nil
}
