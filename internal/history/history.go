// Package history records what changed on a listing between saves.
package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"realty-listings/internal/models"

	"gorm.io/gorm"
)

// DetectChanges compares two registry rows of the same listing
func DetectChanges(before, after *models.Property) []models.PropertyChange {
	now := time.Now().UTC()
	changes := []models.PropertyChange{}

	add := func(changeType, oldVal, newVal string, magnitude *float64) {
		changes = append(changes, models.PropertyChange{
			PropertyID:      after.ID,
			ChangeType:      changeType,
			OldValue:        oldVal,
			NewValue:        newVal,
			ChangeMagnitude: magnitude,
			DetectedAt:      now,
		})
	}

	// Price change
	if before.Price != after.Price {
		magnitude := after.Price - before.Price
		add(models.ChangeTypePrice, formatPrice(before.Price), formatPrice(after.Price), &magnitude)
	}

	if before.Status != after.Status {
		add(models.ChangeTypeStatus, before.Status, after.Status, nil)
	}

	if before.Name != after.Name {
		add(models.ChangeTypeName, before.Name, after.Name, nil)
	}

	if before.PropertyType != after.PropertyType {
		add(models.ChangeTypeType, before.PropertyType, after.PropertyType, nil)
	}

	if before.IsFeatured != after.IsFeatured {
		add(models.ChangeTypeFeatured, strconv.FormatBool(before.IsFeatured), strconv.FormatBool(after.IsFeatured), nil)
	}

	if before.IsActive != after.IsActive {
		add(models.ChangeTypeActive, strconv.FormatBool(before.IsActive), strconv.FormatBool(after.IsActive), nil)
	}

	oldLoc := before.Locality + ", " + before.City
	newLoc := after.Locality + ", " + after.City
	if oldLoc != newLoc || before.Location != after.Location {
		add(models.ChangeTypeLocation, joinLocation(before), joinLocation(after), nil)
	}

	return changes
}

// ImagesChanged reports whether the ordered image URL lists differ
func ImagesChanged(before, after []string) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if before[i] != after[i] {
			return true
		}
	}
	return false
}

// Save writes changes, stamping changedBy on each
func Save(tx *gorm.DB, changes []models.PropertyChange, changedBy string) error {
	if len(changes) == 0 {
		return nil
	}
	for i := range changes {
		changes[i].ChangedBy = changedBy
	}
	if err := tx.Create(&changes).Error; err != nil {
		return fmt.Errorf("failed to save property changes: %w", err)
	}
	return nil
}

// NewPropertyChange is the record written when a listing is created
func NewPropertyChange(p *models.Property) models.PropertyChange {
	return models.PropertyChange{
		PropertyID: p.ID,
		ChangeType: models.ChangeTypeNew,
		NewValue:   p.Name,
		DetectedAt: time.Now().UTC(),
	}
}

// RemovedChange is the record written when a listing is deleted
func RemovedChange(p *models.Property) models.PropertyChange {
	return models.PropertyChange{
		PropertyID: p.ID,
		ChangeType: models.ChangeTypeRemoved,
		OldValue:   p.Name,
		DetectedAt: time.Now().UTC(),
	}
}

// ListForProperty returns the most recent changes of one listing
func ListForProperty(ctx context.Context, db *gorm.DB, propertyID uint, limit int) ([]models.PropertyChange, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var changes []models.PropertyChange
	err := db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		Order("detected_at DESC, id DESC").
		Limit(limit).
		Find(&changes).Error
	return changes, err
}

// GetRecentChanges returns the most recent changes across all listings
func GetRecentChanges(ctx context.Context, db *gorm.DB, limit int) ([]models.PropertyChange, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var changes []models.PropertyChange
	err := db.WithContext(ctx).Order("detected_at DESC, id DESC").Limit(limit).Find(&changes).Error
	return changes, err
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func joinLocation(p *models.Property) string {
	if p.Location != "" {
		return p.Location
	}
	return p.Locality + ", " + p.City
}
