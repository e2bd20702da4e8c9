package metrics

import (
	"context"
	"database/sql"
	"runtime"
	"time"

	"realty-listings/internal/models"

	"gorm.io/gorm"
)

// SystemSampler captures runtime and pool statistics
type SystemSampler struct {
	db         *gorm.DB
	started    time.Time
	queueDepth func() int
}

// NewSystemSampler creates a sampler; queueDepth may be nil
func NewSystemSampler(db *gorm.DB, queueDepth func() int) *SystemSampler {
	return &SystemSampler{db: db, started: time.Now(), queueDepth: queueDepth}
}

// Sample returns the current snapshot without storing it
func (s *SystemSampler) Sample() models.SystemMetric {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	var stats sql.DBStats
	if sqlDB, err := s.db.DB(); err == nil {
		stats = sqlDB.Stats()
	}

	m := models.SystemMetric{
		Goroutines:    runtime.NumGoroutine(),
		HeapAllocMB:   float64(mem.HeapAlloc) / (1 << 20),
		SysMB:         float64(mem.Sys) / (1 << 20),
		NumGC:         mem.NumGC,
		DBOpenConns:   stats.OpenConnections,
		DBInUse:       stats.InUse,
		DBIdle:        stats.Idle,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		CreatedAt:     time.Now().UTC(),
	}
	if s.queueDepth != nil {
		m.QueueDepth = s.queueDepth()
	}
	return m
}

// Store samples and persists one snapshot
func (s *SystemSampler) Store(ctx context.Context) (*models.SystemMetric, error) {
	m := s.Sample()
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}
