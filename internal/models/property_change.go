package models

import "time"

// PropertyChange records a detected change to a listing
type PropertyChange struct {
	ID              uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID      uint      `gorm:"not null;index" json:"property_id"`
	ChangeType      string    `gorm:"type:varchar(50);not null" json:"change_type"`
	OldValue        string    `gorm:"type:text" json:"old_value,omitempty"`
	NewValue        string    `gorm:"type:text" json:"new_value,omitempty"`
	ChangeMagnitude *float64  `gorm:"type:decimal(15,2)" json:"change_magnitude,omitempty"` // For numerical changes
	ChangedBy       string    `gorm:"type:varchar(255)" json:"changed_by,omitempty"`
	DetectedAt      time.Time `gorm:"not null;autoCreateTime;index" json:"detected_at"`
}

// TableName specifies the table name
func (PropertyChange) TableName() string {
	return "property_changes"
}

// ChangeType constants
const (
	ChangeTypePrice    = "price_changed"
	ChangeTypeStatus   = "status_changed"
	ChangeTypeName     = "name_changed"
	ChangeTypeFeatured = "featured_changed"
	ChangeTypeActive   = "active_changed"
	ChangeTypeType     = "type_changed"
	ChangeTypeLocation = "location_changed"
	ChangeTypeImages   = "images_replaced"
	ChangeTypeNew      = "new_property"
	ChangeTypeRemoved  = "property_removed"
)
