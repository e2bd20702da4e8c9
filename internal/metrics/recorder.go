package metrics

import (
	"context"
	"sync"
	"time"

	"realty-listings/internal/models"

	"gorm.io/gorm"
)

// Recorder buffers request measurements and persists them to
// application_metrics in batches
type Recorder struct {
	db      *gorm.DB
	maxSize int

	mu     sync.Mutex
	buffer []models.ApplicationMetric
}

// NewRecorder creates a recorder keeping at most maxSize pending rows;
// older rows are discarded when the buffer is full
func NewRecorder(db *gorm.DB, maxSize int) *Recorder {
	if maxSize <= 0 {
		maxSize = 5000
	}
	return &Recorder{db: db, maxSize: maxSize}
}

// Record adds one measurement
func (r *Recorder) Record(method, path string, status int, duration time.Duration) {
	m := models.ApplicationMetric{
		Method:     method,
		Path:       path,
		StatusCode: status,
		DurationMs: float64(duration.Microseconds()) / 1000,
		CreatedAt:  time.Now().UTC(),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.buffer) >= r.maxSize {
		r.buffer = r.buffer[1:]
	}
	r.buffer = append(r.buffer, m)
}

// Pending returns the number of unflushed rows
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buffer)
}

// Flush writes buffered rows. On failure the rows are put back.
func (r *Recorder) Flush(ctx context.Context) (int, error) {
	r.mu.Lock()
	batch := r.buffer
	r.buffer = nil
	r.mu.Unlock()

	if len(batch) == 0 {
		return 0, nil
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&batch, 200).Error; err != nil {
		r.mu.Lock()
		r.buffer = append(batch, r.buffer...)
		if over := len(r.buffer) - r.maxSize; over > 0 {
			r.buffer = r.buffer[over:]
		}
		r.mu.Unlock()
		return 0, err
	}
	return len(batch), nil
}

// EndpointSummary aggregates application metrics per endpoint
type EndpointSummary struct {
	Method        string  `json:"method"`
	Path          string  `json:"path"`
	Requests      int64   `json:"requests"`
	Errors        int64   `json:"errors"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	MaxDurationMs float64 `json:"max_duration_ms"`
}

// Summarize returns per-endpoint aggregates for rows created at or after since
func Summarize(ctx context.Context, db *gorm.DB, since time.Time, limit int) ([]EndpointSummary, error) {
	var rows []EndpointSummary
	err := db.WithContext(ctx).Model(&models.ApplicationMetric{}).
		Select("method, path, COUNT(*) AS requests, "+
			"SUM(CASE WHEN status_code >= 500 THEN 1 ELSE 0 END) AS errors, "+
			"AVG(duration_ms) AS avg_duration_ms, MAX(duration_ms) AS max_duration_ms").
		Where("created_at >= ?", since).
		Group("method, path").
		Order("requests DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
