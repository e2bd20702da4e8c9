package property

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"realty-listings/internal/apperror"
	"realty-listings/internal/models"
)

// ImageInput is one image in a create/update payload
type ImageInput struct {
	ImageURL      string `json:"image_url"`
	ImageCategory string `json:"image_category"`
	ImageOrder    *int   `json:"image_order"`
}

// FeatureList accepts ["Gym","Pool"], [{"feature_name":"Gym"}] or "Gym, Pool"
type FeatureList []string

func (f *FeatureList) UnmarshalJSON(b []byte) error {
	var names []string
	if err := json.Unmarshal(b, &names); err == nil {
		*f = names
		return nil
	}

	var objects []struct {
		FeatureName string `json:"feature_name"`
	}
	if err := json.Unmarshal(b, &objects); err == nil {
		out := make([]string, 0, len(objects))
		for _, o := range objects {
			out = append(out, o.FeatureName)
		}
		*f = out
		return nil
	}

	var joined string
	if err := json.Unmarshal(b, &joined); err == nil {
		*f = strings.Split(joined, ",")
		return nil
	}
	return fmt.Errorf("features must be a list of names")
}

// Payload is the body of create and update. Only fields present in the
// JSON are applied on update.
type Payload struct {
	PropertyCategory Optional[string]  `json:"property_category"`
	Name             Optional[string]  `json:"name"`
	PropertyType     Optional[string]  `json:"property_type"`
	Status           Optional[string]  `json:"status"`
	Price            Optional[float64] `json:"price"`
	City             Optional[string]  `json:"city"`
	Locality         Optional[string]  `json:"locality"`
	Location         Optional[string]  `json:"location"`
	Address          Optional[string]  `json:"address"`
	Description      Optional[string]  `json:"description"`
	Latitude         Optional[float64] `json:"latitude"`
	Longitude        Optional[float64] `json:"longitude"`
	IsFeatured       Optional[bool]    `json:"is_featured"`
	IsActive         Optional[bool]    `json:"is_active"`

	// residential
	Bedrooms       Optional[int]     `json:"bedrooms"`
	Bathrooms      Optional[int]     `json:"bathrooms"`
	Balconies      Optional[int]     `json:"balconies"`
	AreaSqft       Optional[float64] `json:"area_sqft"`
	CarpetArea     Optional[float64] `json:"carpet_area"`
	Furnishing     Optional[string]  `json:"furnishing"`
	FloorNumber    Optional[int]     `json:"floor_number"`
	TotalFloors    Optional[int]     `json:"total_floors"`
	UnitType       Optional[string]  `json:"unit_type"`
	PossessionDate Optional[string]  `json:"possession_date"`

	// plot
	PlotArea          Optional[float64] `json:"plot_area"`
	AreaUnit          Optional[string]  `json:"area_unit"`
	Length            Optional[float64] `json:"length"`
	Width             Optional[float64] `json:"width"`
	Facing            Optional[string]  `json:"facing"`
	IsCornerPlot      Optional[bool]    `json:"is_corner_plot"`
	ApprovalAuthority Optional[string]  `json:"approval_authority"`

	// commercial
	CommercialType Optional[string]  `json:"commercial_type"`
	BuiltUpArea    Optional[float64] `json:"built_up_area"`
	ParkingSpaces  Optional[int]     `json:"parking_spaces"`
	Washrooms      Optional[int]     `json:"washrooms"`

	// nil means "leave as is"; an empty list clears
	Images   *[]ImageInput `json:"images"`
	Features *FeatureList  `json:"features"`
}

var (
	plotTypeHints       = []string{"plot", "land"}
	commercialTypeHints = []string{"commercial", "office", "shop", "showroom", "warehouse", "retail", "godown"}
)

// Category returns the category named by the payload or inferred from the
// fields it carries. An explicit but unknown category is a validation error.
func (p *Payload) Category() (models.Category, error) {
	if p.PropertyCategory.Valid && strings.TrimSpace(p.PropertyCategory.Value) != "" {
		c := models.Category(strings.ToLower(strings.TrimSpace(p.PropertyCategory.Value)))
		if !c.Valid() {
			return "", apperror.Validation("Unknown property_category %q", p.PropertyCategory.Value)
		}
		return c, nil
	}

	if p.hasPlotFields() || typeContains(p.PropertyType, plotTypeHints) {
		return models.CategoryPlot, nil
	}
	if p.CommercialType.Valid && p.CommercialType.Value != "" || typeContains(p.PropertyType, commercialTypeHints) {
		return models.CategoryCommercial, nil
	}
	return models.CategoryResidential, nil
}

func (p *Payload) hasPlotFields() bool {
	return p.PlotArea.Valid || p.AreaUnit.Valid && p.AreaUnit.Value != "" || p.Length.Valid ||
		p.Width.Valid || p.Facing.Valid && p.Facing.Value != "" || p.IsCornerPlot.Valid ||
		p.ApprovalAuthority.Valid && p.ApprovalAuthority.Value != ""
}

func typeContains(o Optional[string], hints []string) bool {
	if !o.Valid {
		return false
	}
	t := strings.ToLower(o.Value)
	for _, h := range hints {
		if strings.Contains(t, h) {
			return true
		}
	}
	return false
}

func applyString(dst *string, o Optional[string]) {
	if !o.Set {
		return
	}
	if o.Valid {
		*dst = strings.TrimSpace(o.Value)
	} else {
		*dst = ""
	}
}

func applyPtr[T any](dst **T, o Optional[T]) {
	if o.Set {
		*dst = o.Ptr()
	}
}

// applyValue ignores null for columns that cannot be null
func applyValue[T any](dst *T, o Optional[T]) {
	if o.Set && o.Valid {
		*dst = o.Value
	}
}

func (p *Payload) applyRegistry(r *models.Property) {
	applyString(&r.Name, p.Name)
	applyString(&r.PropertyType, p.PropertyType)
	applyString(&r.Status, p.Status)
	applyValue(&r.Price, p.Price)
	applyString(&r.City, p.City)
	applyString(&r.Locality, p.Locality)
	applyString(&r.Location, p.Location)
	applyString(&r.Address, p.Address)
	applyString(&r.Description, p.Description)
	applyPtr(&r.Latitude, p.Latitude)
	applyPtr(&r.Longitude, p.Longitude)
	applyValue(&r.IsFeatured, p.IsFeatured)
	applyValue(&r.IsActive, p.IsActive)
}

func (p *Payload) applyResidential(d *models.ResidentialDetail) {
	applyPtr(&d.Bedrooms, p.Bedrooms)
	applyPtr(&d.Bathrooms, p.Bathrooms)
	applyPtr(&d.Balconies, p.Balconies)
	applyPtr(&d.AreaSqft, p.AreaSqft)
	applyPtr(&d.CarpetArea, p.CarpetArea)
	applyString(&d.Furnishing, p.Furnishing)
	applyPtr(&d.FloorNumber, p.FloorNumber)
	applyPtr(&d.TotalFloors, p.TotalFloors)
	applyString(&d.UnitType, p.UnitType)
	applyString(&d.PossessionDate, p.PossessionDate)
}

func (p *Payload) applyPlot(d *models.PlotDetail) {
	applyPtr(&d.PlotArea, p.PlotArea)
	applyString(&d.AreaUnit, p.AreaUnit)
	applyPtr(&d.Length, p.Length)
	applyPtr(&d.Width, p.Width)
	applyString(&d.Facing, p.Facing)
	applyValue(&d.IsCornerPlot, p.IsCornerPlot)
	applyString(&d.ApprovalAuthority, p.ApprovalAuthority)
}

func (p *Payload) applyCommercial(d *models.CommercialDetail) {
	applyString(&d.CommercialType, p.CommercialType)
	applyPtr(&d.CarpetArea, p.CarpetArea)
	applyPtr(&d.BuiltUpArea, p.BuiltUpArea)
	applyPtr(&d.FloorNumber, p.FloorNumber)
	applyPtr(&d.TotalFloors, p.TotalFloors)
	applyPtr(&d.ParkingSpaces, p.ParkingSpaces)
	applyPtr(&d.Washrooms, p.Washrooms)
}

// validateRegistry checks the fields every listing needs
func validateRegistry(r *models.Property) error {
	var missing []string
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.City == "" {
		missing = append(missing, "city")
	}
	if r.Locality == "" {
		missing = append(missing, "locality")
	}
	if len(missing) > 0 {
		return apperror.Validation("Missing required fields: %s", strings.Join(missing, ", ")).
			WithDetail("fields", missing)
	}
	if !(r.Price > 0) || math.IsInf(r.Price, 0) {
		return apperror.Validation("Price must be greater than zero").WithDetail("fields", []string{"price"})
	}
	if r.Latitude != nil && !(*r.Latitude >= -90 && *r.Latitude <= 90) {
		return apperror.Validation("Latitude out of range")
	}
	if r.Longitude != nil && !(*r.Longitude >= -180 && *r.Longitude <= 180) {
		return apperror.Validation("Longitude out of range")
	}
	return nil
}

// buildImages validates image inputs and assigns default ordering
func buildImages(inputs []ImageInput, category models.Category, id uint) ([]models.PropertyImage, error) {
	images := make([]models.PropertyImage, 0, len(inputs))
	for i, in := range inputs {
		url := strings.TrimSpace(in.ImageURL)
		if url == "" {
			return nil, apperror.Validation("images[%d].image_url is required", i)
		}
		imageCategory := strings.ToLower(strings.TrimSpace(in.ImageCategory))
		if imageCategory == "" {
			imageCategory = models.ImageCategoryProject
		}
		if !models.ValidImageCategory(imageCategory) {
			return nil, apperror.Validation("images[%d].image_category must be project, floorplan or masterplan", i)
		}
		order := i
		if in.ImageOrder != nil {
			order = *in.ImageOrder
		}
		images = append(images, models.PropertyImage{
			PropertyID:       id,
			PropertyCategory: category,
			ImageURL:         url,
			ImageCategory:    imageCategory,
			ImageOrder:       order,
		})
	}
	return images, nil
}

// buildFeatures trims, drops blanks and de-duplicates feature names
func buildFeatures(names []string, category models.Category, id uint) []models.PropertyFeature {
	seen := make(map[string]bool, len(names))
	features := make([]models.PropertyFeature, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		features = append(features, models.PropertyFeature{
			PropertyCategory: category,
			PropertyID:       id,
			FeatureName:      n,
		})
	}
	return features
}
