package paging

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		limit     int
		wantPage  int
		wantLimit int
	}{
		{"defaults", 0, 0, 1, DefaultLimit},
		{"negative", -3, -5, 1, DefaultLimit},
		{"in range", 3, 25, 3, 25},
		{"limit capped", 1, 500, 1, MaxLimit},
		{"page capped", math.MaxInt, 100, MaxPage, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, limit := Clamp(tt.page, tt.limit)
			if page != tt.wantPage || limit != tt.wantLimit {
				t.Errorf("Clamp(%d, %d) = %d, %d, want %d, %d", tt.page, tt.limit, page, limit, tt.wantPage, tt.wantLimit)
			}
			if off := Offset(page, limit); off < 0 {
				t.Errorf("Offset(%d, %d) = %d, want >= 0", page, limit, off)
			}
		})
	}
}

func TestPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int
	}{
		{21, 10, 3},
		{20, 10, 2},
		{0, 10, 0},
		{5, 0, 0},
	}
	for _, tt := range tests {
		if got := Pages(tt.total, tt.limit); got != tt.want {
			t.Errorf("Pages(%d, %d) = %d, want %d", tt.total, tt.limit, got, tt.want)
		}
	}
}
