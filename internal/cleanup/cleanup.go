// Package cleanup finds and repairs rows that break the listing invariant
// (an id lives in exactly one detail table, the one its registry row names)
// and purges old operational data.
package cleanup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realty-listings/internal/metrics"
	"realty-listings/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// FaultKind classifies an integrity fault
type FaultKind string

const (
	FaultCollision     FaultKind = "id_collision"
	FaultOrphanDetail  FaultKind = "orphan_detail"
	FaultOrphanImage   FaultKind = "orphan_image"
	FaultOrphanFeature FaultKind = "orphan_feature"
	// reported only; there is no data to rebuild the detail row from
	FaultMissingDetail FaultKind = "missing_detail"
)

var faultKinds = []FaultKind{FaultCollision, FaultOrphanDetail, FaultOrphanImage, FaultOrphanFeature, FaultMissingDetail}

// Fault is one offending row
type Fault struct {
	Kind       FaultKind `json:"kind"`
	Table      string    `json:"table"`
	RowID      uint      `json:"row_id"`
	PropertyID uint      `json:"property_id"`
	Detail     string    `json:"detail"`
}

// Repairable reports whether Repair deletes the row
func (f Fault) Repairable() bool {
	return f.Kind != FaultMissingDetail
}

func (f Fault) reason() string {
	switch f.Kind {
	case FaultCollision:
		return models.DeleteReasonCollision
	case FaultOrphanDetail:
		return models.DeleteReasonOrphanDetail
	case FaultOrphanImage:
		return models.DeleteReasonOrphanImage
	case FaultOrphanFeature:
		return models.DeleteReasonOrphanFeat
	}
	return models.DeleteReasonManual
}

// ErrSafetyLimit aborts a repair that would delete more rows than allowed
var ErrSafetyLimit = errors.New("safety check failed")

// Service handles integrity repair and retention
type Service struct {
	db *gorm.DB
}

// NewService creates a new cleanup service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CleanupConfig holds configuration for repair runs
type CleanupConfig struct {
	MaxDeletionCount int  // Abort when more rows than this would be deleted
	DryRun           bool // Only record what would be deleted
}

// DefaultCleanupConfig returns default configuration
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		MaxDeletionCount: 1000,
		DryRun:           true,
	}
}

// CleanupResult holds the result of a repair run
type CleanupResult struct {
	Faults       []Fault   `json:"faults"`
	TargetCount  int       `json:"target_count"`
	DeletedCount int       `json:"deleted_count"`
	SkippedCount int       `json:"skipped_count"`
	ErrorCount   int       `json:"error_count"`
	DryRun       bool      `json:"dry_run"`
	ExecutedAt   time.Time `json:"executed_at"`
	Errors       []string  `json:"errors,omitempty"`
}

type idRow struct {
	ID         uint
	PropertyID uint
	Category   string
	Name       string
}

// Scan lists every integrity fault and updates the fault gauge
func (s *Service) Scan(ctx context.Context) ([]Fault, error) {
	db := s.db.WithContext(ctx)
	var faults []Fault

	for _, c := range models.Categories {
		table := c.DetailTable()

		// detail rows whose registry row names another category
		var wrong []idRow
		if err := db.Table(table+" AS d").
			Select("d.id AS id, p.category AS category, p.name AS name").
			Joins("JOIN properties p ON p.id = d.id").
			Where("p.category <> ?", c).
			Scan(&wrong).Error; err != nil {
			return nil, fmt.Errorf("scan collisions in %s: %w", table, err)
		}
		for _, r := range wrong {
			faults = append(faults, Fault{
				Kind:       FaultCollision,
				Table:      table,
				RowID:      r.ID,
				PropertyID: r.ID,
				Detail:     fmt.Sprintf("registry says %s (%s)", r.Category, r.Name),
			})
		}

		var orphans []idRow
		if err := db.Table(table + " AS d").
			Select("d.id AS id").
			Joins("LEFT JOIN properties p ON p.id = d.id").
			Where("p.id IS NULL").
			Scan(&orphans).Error; err != nil {
			return nil, fmt.Errorf("scan orphans in %s: %w", table, err)
		}
		for _, r := range orphans {
			faults = append(faults, Fault{Kind: FaultOrphanDetail, Table: table, RowID: r.ID, PropertyID: r.ID, Detail: "no registry row"})
		}

		var missing []idRow
		if err := db.Table("properties AS p").
			Select("p.id AS id, p.name AS name").
			Joins("LEFT JOIN "+table+" d ON d.id = p.id").
			Where("p.category = ? AND d.id IS NULL", c).
			Scan(&missing).Error; err != nil {
			return nil, fmt.Errorf("scan missing %s rows: %w", table, err)
		}
		for _, r := range missing {
			faults = append(faults, Fault{Kind: FaultMissingDetail, Table: "properties", RowID: r.ID, PropertyID: r.ID, Detail: "no row in " + table + " (" + r.Name + ")"})
		}
	}

	satellites := []struct {
		table string
		kind  FaultKind
	}{
		{models.PropertyImage{}.TableName(), FaultOrphanImage},
		{models.PropertyFeature{}.TableName(), FaultOrphanFeature},
	}
	for _, sat := range satellites {
		var rows []idRow
		if err := db.Table(sat.table + " AS s").
			Select("s.id AS id, s.property_id AS property_id, s.property_category AS category").
			Joins("LEFT JOIN properties p ON p.id = s.property_id AND p.category = s.property_category").
			Where("p.id IS NULL").
			Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("scan orphans in %s: %w", sat.table, err)
		}
		for _, r := range rows {
			faults = append(faults, Fault{
				Kind:       sat.kind,
				Table:      sat.table,
				RowID:      r.ID,
				PropertyID: r.PropertyID,
				Detail:     fmt.Sprintf("no %s listing %d", r.Category, r.PropertyID),
			})
		}
	}

	counts := make(map[FaultKind]int, len(faultKinds))
	for _, f := range faults {
		counts[f.Kind]++
	}
	for _, k := range faultKinds {
		metrics.IntegrityFaults.WithLabelValues(string(k)).Set(float64(counts[k]))
	}

	return faults, nil
}

// Repair deletes repairable faults, writing a delete log for each
func (s *Service) Repair(ctx context.Context, config CleanupConfig) (*CleanupResult, error) {
	result := &CleanupResult{
		DryRun:     config.DryRun,
		ExecutedAt: time.Now().UTC(),
	}

	faults, err := s.Scan(ctx)
	if err != nil {
		return nil, err
	}
	result.Faults = faults

	var targets []Fault
	for _, f := range faults {
		if f.Repairable() {
			targets = append(targets, f)
		} else {
			result.SkippedCount++
		}
	}
	result.TargetCount = len(targets)

	if result.TargetCount == 0 {
		log.Info().Int("faults", len(faults)).Msg("no repairable integrity faults")
		return result, nil
	}

	// Safety check: abort if too many rows would be deleted
	if config.MaxDeletionCount > 0 && result.TargetCount > config.MaxDeletionCount {
		return nil, fmt.Errorf("%w: %d rows exceed max deletion limit of %d",
			ErrSafetyLimit, result.TargetCount, config.MaxDeletionCount)
	}

	log.Info().Int("targets", result.TargetCount).Bool("dry_run", config.DryRun).Msg("starting integrity repair")

	for _, f := range targets {
		entry := models.DeleteLog{
			PropertyID:  f.PropertyID,
			SourceTable: f.Table,
			Detail:      f.Detail,
			Reason:      f.reason(),
			DryRun:      config.DryRun,
		}

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("create delete log: %w", err)
			}
			if config.DryRun {
				return nil
			}
			// Table names come from the model definitions, never from input
			return tx.Exec("DELETE FROM "+f.Table+" WHERE id = ?", f.RowID).Error
		})
		if err != nil {
			errMsg := fmt.Sprintf("failed to repair %s row %d in %s: %v", f.Kind, f.RowID, f.Table, err)
			log.Error().Err(err).Str("table", f.Table).Uint("row_id", f.RowID).Msg("integrity repair failed")
			result.Errors = append(result.Errors, errMsg)
			result.ErrorCount++
			continue
		}

		log.Info().Str("kind", string(f.Kind)).Str("table", f.Table).Uint("row_id", f.RowID).Bool("dry_run", config.DryRun).Msg("integrity fault repaired")
		result.DeletedCount++
	}

	log.Info().
		Int("deleted", result.DeletedCount).
		Int("targets", result.TargetCount).
		Int("errors", result.ErrorCount).
		Bool("dry_run", config.DryRun).
		Msg("integrity repair completed")

	return result, nil
}

// GetDeleteStats returns statistics about repaired rows
func (s *Service) GetDeleteStats(ctx context.Context) (map[string]any, error) {
	db := s.db.WithContext(ctx)
	stats := make(map[string]any)

	var totalDeleted int64
	if err := db.Model(&models.DeleteLog{}).Where("dry_run = ?", false).Count(&totalDeleted).Error; err != nil {
		return nil, err
	}
	stats["total_deleted"] = totalDeleted

	var reasonCounts []struct {
		Reason string
		Count  int64
	}
	if err := db.Model(&models.DeleteLog{}).
		Select("reason, count(*) as count").
		Where("dry_run = ?", false).
		Group("reason").
		Scan(&reasonCounts).Error; err != nil {
		return nil, err
	}
	reasonMap := make(map[string]int64)
	for _, rc := range reasonCounts {
		reasonMap[rc.Reason] = rc.Count
	}
	stats["by_reason"] = reasonMap

	var recentDeleted int64
	thirtyDaysAgo := time.Now().UTC().AddDate(0, 0, -30)
	if err := db.Model(&models.DeleteLog{}).
		Where("dry_run = ? AND deleted_at >= ?", false, thirtyDaysAgo).
		Count(&recentDeleted).Error; err != nil {
		return nil, err
	}
	stats["deleted_last_30_days"] = recentDeleted

	return stats, nil
}

// GetRecentDeleteLogs returns recent delete log entries
func (s *Service) GetRecentDeleteLogs(ctx context.Context, limit int) ([]models.DeleteLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.DeleteLog
	err := s.db.WithContext(ctx).Order("deleted_at DESC, id DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
