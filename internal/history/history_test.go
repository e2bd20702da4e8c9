package history

import (
	"context"
	"testing"

	"realty-listings/internal/models"
	"realty-listings/internal/testutil"
)

func baseProperty() models.Property {
	return models.Property{
		ID:           7,
		Category:     models.CategoryResidential,
		Name:         "Lake View",
		PropertyType: "Apartment",
		Status:       "available",
		Price:        5000000,
		City:         "Pune",
		Locality:     "Baner",
		IsActive:     true,
	}
}

func TestDetectChanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *models.Property)
		want   []string
	}{
		{"unchanged", func(p *models.Property) {}, nil},
		{"price", func(p *models.Property) { p.Price = 4800000 }, []string{models.ChangeTypePrice}},
		{"status and featured", func(p *models.Property) {
			p.Status = "sold"
			p.IsFeatured = true
		}, []string{models.ChangeTypeStatus, models.ChangeTypeFeatured}},
		{"locality", func(p *models.Property) { p.Locality = "Aundh" }, []string{models.ChangeTypeLocation}},
		{"deactivated", func(p *models.Property) { p.IsActive = false }, []string{models.ChangeTypeActive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := baseProperty()
			after := baseProperty()
			tt.mutate(&after)

			changes := DetectChanges(&before, &after)
			if len(changes) != len(tt.want) {
				t.Fatalf("got %d changes (%+v), want %v", len(changes), changes, tt.want)
			}
			for i, c := range changes {
				if c.ChangeType != tt.want[i] {
					t.Errorf("change[%d] = %s, want %s", i, c.ChangeType, tt.want[i])
				}
				if c.PropertyID != 7 {
					t.Errorf("change[%d].PropertyID = %d", i, c.PropertyID)
				}
			}
		})
	}
}

func TestPriceMagnitude(t *testing.T) {
	before := baseProperty()
	after := baseProperty()
	after.Price = 5250000

	changes := DetectChanges(&before, &after)
	if len(changes) != 1 || changes[0].ChangeMagnitude == nil || *changes[0].ChangeMagnitude != 250000 {
		t.Fatalf("changes = %+v", changes)
	}
	if changes[0].OldValue != "5000000.00" || changes[0].NewValue != "5250000.00" {
		t.Errorf("values = %q -> %q", changes[0].OldValue, changes[0].NewValue)
	}
}

func TestImagesChanged(t *testing.T) {
	if ImagesChanged([]string{"a", "b"}, []string{"a", "b"}) {
		t.Error("identical lists reported as changed")
	}
	if !ImagesChanged([]string{"a", "b"}, []string{"b", "a"}) {
		t.Error("reordered lists reported as unchanged")
	}
	if !ImagesChanged(nil, []string{"a"}) {
		t.Error("added image not detected")
	}
}

func TestSaveAndList(t *testing.T) {
	db := testutil.NewDB(t)
	p := baseProperty()

	if err := Save(db, []models.PropertyChange{NewPropertyChange(&p)}, "admin@example.com"); err != nil {
		t.Fatal(err)
	}
	after := p
	after.Price = 1
	if err := Save(db, DetectChanges(&p, &after), "admin@example.com"); err != nil {
		t.Fatal(err)
	}

	changes, err := ListForProperty(context.Background(), db, 7, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	if changes[0].ChangeType != models.ChangeTypePrice || changes[0].ChangedBy != "admin@example.com" {
		t.Errorf("latest change = %+v", changes[0])
	}

	recent, err := GetRecentChanges(context.Background(), db, 1)
	if err != nil || len(recent) != 1 {
		t.Errorf("GetRecentChanges() = %v, %v", recent, err)
	}
}
