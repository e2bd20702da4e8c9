package models

import "time"

// Category is the discriminant of a property listing
type Category string

const (
	CategoryResidential Category = "residential"
	CategoryPlot        Category = "plot"
	CategoryCommercial  Category = "commercial"
)

// Categories lists every category in detail-table order
var Categories = []Category{CategoryResidential, CategoryPlot, CategoryCommercial}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	switch c {
	case CategoryResidential, CategoryPlot, CategoryCommercial:
		return true
	}
	return false
}

// DetailTable returns the table holding the category-specific columns
func (c Category) DetailTable() string {
	switch c {
	case CategoryPlot:
		return PlotDetail{}.TableName()
	case CategoryCommercial:
		return CommercialDetail{}.TableName()
	default:
		return ResidentialDetail{}.TableName()
	}
}

// Property is the registry row. Its ID is the only identifier allocator for
// listings; the category detail row reuses it as primary key.
type Property struct {
	ID           uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	Category     Category `gorm:"type:varchar(20);not null;index" json:"property_category"`
	Name         string   `gorm:"type:varchar(255);not null" json:"name"`
	PropertyType string   `gorm:"type:varchar(100);index" json:"property_type"`
	Status       string   `gorm:"type:varchar(50);index" json:"status"`
	Price        float64  `gorm:"type:decimal(15,2);not null;index" json:"price"`

	City        string   `gorm:"type:varchar(100);index" json:"city"`
	Locality    string   `gorm:"type:varchar(150)" json:"locality"`
	Location    string   `gorm:"type:varchar(255)" json:"location"`
	Address     string   `gorm:"type:text" json:"address"`
	Description string   `gorm:"type:text" json:"description"`
	Latitude    *float64 `gorm:"type:decimal(10,7)" json:"latitude"`
	Longitude   *float64 `gorm:"type:decimal(10,7)" json:"longitude"`

	IsFeatured bool `gorm:"not null;index" json:"is_featured"`
	IsActive   bool `gorm:"not null;index" json:"is_active"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_properties_created_at,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Residential *ResidentialDetail `gorm:"foreignKey:ID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Plot        *PlotDetail        `gorm:"foreignKey:ID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Commercial  *CommercialDetail  `gorm:"foreignKey:ID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name
func (Property) TableName() string {
	return "properties"
}

// ResidentialDetail holds apartment / villa / house columns
type ResidentialDetail struct {
	ID             uint     `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Bedrooms       *int     `gorm:"type:int" json:"bedrooms"`
	Bathrooms      *int     `gorm:"type:int" json:"bathrooms"`
	Balconies      *int     `gorm:"type:int" json:"balconies"`
	AreaSqft       *float64 `gorm:"type:decimal(12,2)" json:"area_sqft"`
	CarpetArea     *float64 `gorm:"type:decimal(12,2)" json:"carpet_area"`
	Furnishing     string   `gorm:"type:varchar(50)" json:"furnishing"`
	FloorNumber    *int     `gorm:"type:int" json:"floor_number"`
	TotalFloors    *int     `gorm:"type:int" json:"total_floors"`
	UnitType       string   `gorm:"type:varchar(50)" json:"unit_type"`
	PossessionDate string   `gorm:"type:varchar(50)" json:"possession_date"`
}

func (ResidentialDetail) TableName() string {
	return "residential_properties"
}

// PlotDetail holds land parcel columns
type PlotDetail struct {
	ID                uint     `gorm:"primaryKey;autoIncrement:false" json:"-"`
	PlotArea          *float64 `gorm:"type:decimal(12,2)" json:"plot_area"`
	AreaUnit          string   `gorm:"type:varchar(20)" json:"area_unit"`
	Length            *float64 `gorm:"type:decimal(10,2)" json:"length"`
	Width             *float64 `gorm:"type:decimal(10,2)" json:"width"`
	Facing            string   `gorm:"type:varchar(20)" json:"facing"`
	IsCornerPlot      bool     `gorm:"not null" json:"is_corner_plot"`
	ApprovalAuthority string   `gorm:"type:varchar(100)" json:"approval_authority"`
}

func (PlotDetail) TableName() string {
	return "plot_properties"
}

// CommercialDetail holds office / shop / warehouse columns
type CommercialDetail struct {
	ID             uint     `gorm:"primaryKey;autoIncrement:false" json:"-"`
	CommercialType string   `gorm:"type:varchar(50)" json:"commercial_type"`
	CarpetArea     *float64 `gorm:"type:decimal(12,2)" json:"carpet_area"`
	BuiltUpArea    *float64 `gorm:"type:decimal(12,2)" json:"built_up_area"`
	FloorNumber    *int     `gorm:"type:int" json:"floor_number"`
	TotalFloors    *int     `gorm:"type:int" json:"total_floors"`
	ParkingSpaces  *int     `gorm:"type:int" json:"parking_spaces"`
	Washrooms      *int     `gorm:"type:int" json:"washrooms"`
}

func (CommercialDetail) TableName() string {
	return "commercial_properties"
}
