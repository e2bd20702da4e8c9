package property

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"realty-listings/internal/models"
	"realty-listings/internal/storage"
)

// ImageView is an image as returned to clients
type ImageView struct {
	ID            uint      `json:"id"`
	ImageURL      string    `json:"image_url"`
	ImageCategory string    `json:"image_category"`
	ImageOrder    int       `json:"image_order"`
	IsPrimary     bool      `json:"is_primary"`
	CreatedAt     time.Time `json:"created_at"`
}

// View is the unified listing: registry columns, the category's detail
// columns, images and features, rendered as one flat JSON object
type View struct {
	Property models.Property
	// *models.ResidentialDetail, *models.PlotDetail or *models.CommercialDetail;
	// nil when the detail row is missing
	Detail   any
	Images   []ImageView
	Features []string
}

// PrimaryImage returns the URL of the first image, or ""
func (v *View) PrimaryImage() string {
	if len(v.Images) == 0 {
		return ""
	}
	return v.Images[0].ImageURL
}

func (v View) MarshalJSON() ([]byte, error) {
	out := make(map[string]any)
	if err := mergeJSON(out, v.Property); err != nil {
		return nil, err
	}
	if v.Detail != nil {
		if err := mergeJSON(out, v.Detail); err != nil {
			return nil, err
		}
	}

	images := v.Images
	if images == nil {
		images = []ImageView{}
	}
	features := v.Features
	if features == nil {
		features = []string{}
	}
	out["images"] = images
	out["features"] = features
	if primary := v.PrimaryImage(); primary != "" {
		out["primary_image"] = primary
	} else {
		out["primary_image"] = nil
	}
	return json.Marshal(out)
}

// mergeJSON copies the JSON object form of src into dst
func mergeJSON(dst map[string]any, src any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return err
	}
	for k, val := range fields {
		dst[k] = val
	}
	return nil
}

// DeriveLocation returns "locality, city" skipping blank parts
func DeriveLocation(locality, city string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{locality, city} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func toImageViews(images []models.PropertyImage) []ImageView {
	views := make([]ImageView, len(images))
	for i, img := range images {
		views[i] = ImageView{
			ID:            img.ID,
			ImageURL:      storage.NormalizeURL(img.ImageURL),
			ImageCategory: img.ImageCategory,
			ImageOrder:    img.ImageOrder,
			IsPrimary:     i == 0,
			CreatedAt:     img.CreatedAt,
		}
	}
	return views
}

// ListItem is one row of a listing page
type ListItem struct {
	models.Property
	PrimaryImage *string `json:"primary_image"`
}

// ListResult is a page of listings
type ListResult struct {
	Items []ListItem `json:"items"`
	Total int64      `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
	Pages int        `json:"pages"`
}
