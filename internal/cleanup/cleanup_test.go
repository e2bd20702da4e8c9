package cleanup_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"realty-listings/internal/cleanup"
	"realty-listings/internal/models"
	"realty-listings/internal/testutil"

	"gorm.io/gorm"
)

func seedListing(t *testing.T, db *gorm.DB, c models.Category, name string) uint {
	t.Helper()
	p := models.Property{Category: c, Name: name, Price: 1, City: "Pune", Locality: "Baner", IsActive: true}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create property: %v", err)
	}
	var err error
	switch c {
	case models.CategoryPlot:
		err = db.Create(&models.PlotDetail{ID: p.ID}).Error
	case models.CategoryCommercial:
		err = db.Create(&models.CommercialDetail{ID: p.ID}).Error
	default:
		err = db.Create(&models.ResidentialDetail{ID: p.ID}).Error
	}
	if err != nil {
		t.Fatalf("create detail: %v", err)
	}
	return p.ID
}

// seedFaults creates one fault of every kind next to a healthy listing
func seedFaults(t *testing.T, db *gorm.DB) (healthy, collided uint) {
	t.Helper()
	healthy = seedListing(t, db, models.CategoryResidential, "Healthy")
	db.Create(&models.PropertyImage{PropertyID: healthy, PropertyCategory: models.CategoryResidential, ImageURL: "/a.jpg", ImageCategory: "project"})

	collided = seedListing(t, db, models.CategoryResidential, "Collided")
	db.Create(&models.PlotDetail{ID: collided})

	db.Create(&models.CommercialDetail{ID: 9001})
	db.Create(&models.PropertyImage{PropertyID: 9002, PropertyCategory: models.CategoryPlot, ImageURL: "/b.jpg", ImageCategory: "project"})
	db.Create(&models.PropertyFeature{PropertyID: healthy, PropertyCategory: models.CategoryPlot, FeatureName: "Gym"})
	db.Create(&models.Property{Category: models.CategoryPlot, Name: "No detail", Price: 1, City: "Pune", Locality: "Wakad"})
	return healthy, collided
}

func countKinds(faults []cleanup.Fault) map[cleanup.FaultKind]int {
	out := make(map[cleanup.FaultKind]int)
	for _, f := range faults {
		out[f.Kind]++
	}
	return out
}

func TestScan(t *testing.T) {
	db := testutil.NewDB(t)
	_, collided := seedFaults(t, db)

	faults, err := cleanup.NewService(db).Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	want := map[cleanup.FaultKind]int{
		cleanup.FaultCollision:     1,
		cleanup.FaultOrphanDetail:  1,
		cleanup.FaultOrphanImage:   1,
		cleanup.FaultOrphanFeature: 1,
		cleanup.FaultMissingDetail: 1,
	}
	got := countKinds(faults)
	for k, n := range want {
		if got[k] != n {
			t.Errorf("%s faults = %d, want %d (all: %+v)", k, got[k], n, faults)
		}
	}

	for _, f := range faults {
		if f.Kind == cleanup.FaultCollision && (f.PropertyID != collided || f.Table != "plot_properties") {
			t.Errorf("collision fault = %+v", f)
		}
	}
}

func TestRepairDryRun(t *testing.T) {
	db := testutil.NewDB(t)
	seedFaults(t, db)
	svc := cleanup.NewService(db)

	res, err := svc.Repair(context.Background(), cleanup.CleanupConfig{DryRun: true, MaxDeletionCount: 100})
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if res.TargetCount != 4 || res.SkippedCount != 1 || res.DeletedCount != 4 {
		t.Errorf("result = %+v", res)
	}

	faults, _ := svc.Scan(context.Background())
	if len(faults) != 5 {
		t.Errorf("dry run changed data: %d faults remain, want 5", len(faults))
	}
	var logs []models.DeleteLog
	db.Find(&logs)
	if len(logs) != 4 || !logs[0].DryRun {
		t.Errorf("delete logs = %+v", logs)
	}
}

func TestRepair(t *testing.T) {
	db := testutil.NewDB(t)
	healthy, collided := seedFaults(t, db)
	svc := cleanup.NewService(db)

	res, err := svc.Repair(context.Background(), cleanup.CleanupConfig{MaxDeletionCount: 100})
	if err != nil {
		t.Fatalf("Repair() error = %v", err)
	}
	if res.DeletedCount != 4 || res.ErrorCount != 0 {
		t.Errorf("result = %+v", res)
	}

	faults, _ := svc.Scan(context.Background())
	if got := countKinds(faults); len(faults) != 1 || got[cleanup.FaultMissingDetail] != 1 {
		t.Errorf("remaining faults = %+v, want only the missing detail", faults)
	}

	var n int64
	db.Model(&models.ResidentialDetail{}).Where("id IN ?", []uint{healthy, collided}).Count(&n)
	if n != 2 {
		t.Errorf("residential rows = %d, want 2 (repair must keep the registry's table)", n)
	}
	db.Model(&models.PropertyImage{}).Where("property_id = ?", healthy).Count(&n)
	if n != 1 {
		t.Errorf("healthy image removed")
	}

	logs, err := svc.GetRecentDeleteLogs(context.Background(), 10)
	if err != nil || len(logs) != 4 {
		t.Errorf("GetRecentDeleteLogs() = %d, %v", len(logs), err)
	}
	stats, err := svc.GetDeleteStats(context.Background())
	if err != nil {
		t.Fatalf("GetDeleteStats() error = %v", err)
	}
	if stats["total_deleted"] != int64(4) {
		t.Errorf("total_deleted = %v", stats["total_deleted"])
	}
}

func TestRepairSafetyLimit(t *testing.T) {
	db := testutil.NewDB(t)
	seedFaults(t, db)

	_, err := cleanup.NewService(db).Repair(context.Background(), cleanup.CleanupConfig{MaxDeletionCount: 2})
	if !errors.Is(err, cleanup.ErrSafetyLimit) {
		t.Fatalf("Repair() error = %v, want ErrSafetyLimit", err)
	}
	var n int64
	db.Model(&models.DeleteLog{}).Count(&n)
	if n != 0 {
		t.Errorf("delete logs = %d, want 0", n)
	}
}

func TestPurgeRetention(t *testing.T) {
	db := testutil.NewDB(t)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(0, 0, -60)
	recent := now.AddDate(0, 0, -1)

	db.Create(&models.Log{Level: "info", Message: "old", CreatedAt: old})
	db.Create(&models.Log{Level: "info", Message: "new", CreatedAt: recent})
	db.Create(&models.ApplicationMetric{Method: "GET", Path: "/", StatusCode: 200, CreatedAt: old})
	db.Create(&models.SystemMetric{CreatedAt: old})
	db.Create(&models.SystemMetric{CreatedAt: recent})
	db.Create(&models.UserSession{SessionID: "a", UserID: 1, UserEmail: "a@x", CreatedAt: old, ExpiresAt: old, LastActivity: old})
	db.Create(&models.UserSession{SessionID: "b", UserID: 1, UserEmail: "a@x", IsActive: true, CreatedAt: recent, ExpiresAt: now.Add(time.Hour), LastActivity: recent})

	res, err := cleanup.NewService(db).PurgeRetention(context.Background(), cleanup.RetentionConfig{LogDays: 30, MetricDays: 14}, now)
	if err != nil {
		t.Fatalf("PurgeRetention() error = %v", err)
	}
	want := cleanup.RetentionResult{Sessions: 1, Logs: 1, ApplicationMetrics: 1, SystemMetrics: 1}
	if *res != want {
		t.Errorf("PurgeRetention() = %+v, want %+v", *res, want)
	}
}
