package metrics

import (
	"context"
	"testing"
	"time"

	"realty-listings/internal/models"
	"realty-listings/internal/testutil"
)

func TestRecorderFlush(t *testing.T) {
	db := testutil.NewDB(t)
	r := NewRecorder(db, 10)

	r.Record("GET", "/api/properties", 200, 12*time.Millisecond)
	r.Record("GET", "/api/properties", 500, 30*time.Millisecond)
	r.Record("POST", "/api/contact", 201, 5*time.Millisecond)

	n, err := r.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if n != 3 || r.Pending() != 0 {
		t.Fatalf("flushed %d, pending %d", n, r.Pending())
	}

	var count int64
	db.Model(&models.ApplicationMetric{}).Count(&count)
	if count != 3 {
		t.Errorf("stored %d rows, want 3", count)
	}

	summary, err := Summarize(context.Background(), db, time.Now().Add(-time.Hour), 10)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(summary) != 2 {
		t.Fatalf("got %d endpoints, want 2", len(summary))
	}
	top := summary[0]
	if top.Path != "/api/properties" || top.Requests != 2 || top.Errors != 1 {
		t.Errorf("top = %+v", top)
	}
	if top.MaxDurationMs != 30 {
		t.Errorf("MaxDurationMs = %v, want 30", top.MaxDurationMs)
	}
}

func TestRecorderBounded(t *testing.T) {
	r := NewRecorder(nil, 2)
	for i := 0; i < 5; i++ {
		r.Record("GET", "/health", 200, time.Millisecond)
	}
	if r.Pending() != 2 {
		t.Errorf("Pending() = %d, want 2", r.Pending())
	}
}

func TestSystemSamplerStore(t *testing.T) {
	db := testutil.NewDB(t)
	s := NewSystemSampler(db, func() int { return 7 })

	m, err := s.Store(context.Background())
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if m.QueueDepth != 7 || m.Goroutines == 0 {
		t.Errorf("sample = %+v", m)
	}
	var count int64
	db.Model(&models.SystemMetric{}).Count(&count)
	if count != 1 {
		t.Errorf("stored %d rows, want 1", count)
	}
}
