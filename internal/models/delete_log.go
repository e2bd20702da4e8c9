package models

import "time"

// DeleteLog records rows physically removed by integrity repair
type DeleteLog struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID  uint      `gorm:"not null;index" json:"property_id"`
	SourceTable string    `gorm:"type:varchar(64);not null" json:"source_table"`
	Name        string    `gorm:"type:varchar(255)" json:"name"`
	Detail      string    `gorm:"type:text" json:"detail,omitempty"`
	Reason      string    `gorm:"type:varchar(50);not null" json:"reason"`
	DryRun      bool      `gorm:"not null" json:"dry_run"`
	DeletedAt   time.Time `gorm:"not null;autoCreateTime;index" json:"deleted_at"`
}

// TableName specifies the table name
func (DeleteLog) TableName() string {
	return "delete_logs"
}

// DeleteReason constants
const (
	DeleteReasonCollision    = "id_collision"
	DeleteReasonOrphanDetail = "orphan_detail"
	DeleteReasonOrphanImage  = "orphan_image"
	DeleteReasonOrphanFeat   = "orphan_feature"
	DeleteReasonManual       = "manual_deletion"
)
