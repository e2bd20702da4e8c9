package models

import "time"

// Image categories
const (
	ImageCategoryProject    = "project"
	ImageCategoryFloorplan  = "floorplan"
	ImageCategoryMasterplan = "masterplan"
)

// ValidImageCategory reports whether s names a known image category
func ValidImageCategory(s string) bool {
	switch s {
	case ImageCategoryProject, ImageCategoryFloorplan, ImageCategoryMasterplan:
		return true
	}
	return false
}

// PropertyImage represents an image associated with a property
type PropertyImage struct {
	ID               uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID       uint      `gorm:"not null;index:idx_images_owner,priority:2" json:"property_id"`
	PropertyCategory Category  `gorm:"type:varchar(20);not null;index:idx_images_owner,priority:1" json:"property_category"`
	ImageURL         string    `gorm:"type:text;not null" json:"image_url"`
	ImageCategory    string    `gorm:"type:varchar(20);not null" json:"image_category"`
	ImageOrder       int       `gorm:"not null;default:0" json:"image_order"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for PropertyImage
func (PropertyImage) TableName() string {
	return "property_images"
}

// PropertyFeature is an amenity tag attached to a property
type PropertyFeature struct {
	ID               uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyCategory Category `gorm:"type:varchar(20);not null;index:idx_features_owner,priority:1" json:"property_category"`
	PropertyID       uint     `gorm:"not null;index:idx_features_owner,priority:2" json:"property_id"`
	FeatureName      string   `gorm:"type:varchar(150);not null" json:"feature_name"`
}

func (PropertyFeature) TableName() string {
	return "property_features"
}
