package models

import "time"

// ApplicationMetric is one persisted request measurement
type ApplicationMetric struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Method     string    `gorm:"type:varchar(10);not null" json:"method"`
	Path       string    `gorm:"type:varchar(255);not null;index" json:"path"`
	StatusCode int       `gorm:"not null;index" json:"status_code"`
	DurationMs float64   `gorm:"not null" json:"duration_ms"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (ApplicationMetric) TableName() string { return "application_metrics" }

// SystemMetric is a periodic runtime snapshot
type SystemMetric struct {
	ID            uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Goroutines    int       `gorm:"not null" json:"goroutines"`
	HeapAllocMB   float64   `gorm:"not null" json:"heap_alloc_mb"`
	SysMB         float64   `gorm:"not null" json:"sys_mb"`
	NumGC         uint32    `gorm:"not null" json:"num_gc"`
	DBOpenConns   int       `gorm:"not null" json:"db_open_conns"`
	DBInUse       int       `gorm:"not null" json:"db_in_use"`
	DBIdle        int       `gorm:"not null" json:"db_idle"`
	QueueDepth    int       `gorm:"not null" json:"queue_depth"`
	UptimeSeconds int64     `gorm:"not null" json:"uptime_seconds"`
	CreatedAt     time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (SystemMetric) TableName() string { return "system_metrics" }
