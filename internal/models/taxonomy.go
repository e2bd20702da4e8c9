package models

import "time"

// City is a selectable city
type City struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	State     string    `gorm:"type:varchar(100)" json:"state"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (City) TableName() string { return "cities" }

// Locality is a neighbourhood inside a city
type Locality struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CityID    uint      `gorm:"not null;index" json:"city_id"`
	Name      string    `gorm:"type:varchar(150);not null" json:"name"`
	Pincode   string    `gorm:"type:varchar(20)" json:"pincode"`
	IsActive  bool      `gorm:"not null" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	City *City `gorm:"foreignKey:CityID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Locality) TableName() string { return "localities" }

// UnitType is a residential configuration such as "2 BHK"
type UnitType struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	DisplayOrder int    `gorm:"not null;default:0" json:"display_order"`
}

func (UnitType) TableName() string { return "unit_types" }

// CategoryOption is a property type offered in the admin form, grouped by category
type CategoryOption struct {
	ID           uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string   `gorm:"type:varchar(100);not null" json:"name"`
	Category     Category `gorm:"type:varchar(20);not null;index" json:"property_category"`
	DisplayOrder int      `gorm:"not null;default:0" json:"display_order"`
}

func (CategoryOption) TableName() string { return "categories" }
