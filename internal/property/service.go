// Package property resolves the polymorphic listing: one registry row that
// owns the id and names the category, plus exactly one detail row in that
// category's table.
package property

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"realty-listings/internal/apperror"
	"realty-listings/internal/auth"
	"realty-listings/internal/history"
	"realty-listings/internal/models"
	"realty-listings/internal/paging"
	"realty-listings/internal/storage"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier is told about committed mutations, e.g. to refresh a search index
type Notifier interface {
	PropertySaved(id uint)
	PropertyDeleted(id uint)
}

// Filters narrows List
type Filters struct {
	Type       string
	Category   string
	Status     string
	Location   string
	MinPrice   *float64
	MaxPrice   *float64
	IsFeatured *bool
	IsActive   *bool
}

// Service implements listing reads and writes
type Service struct {
	db       *gorm.DB
	notifier Notifier
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// SetNotifier registers the mutation observer
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

func notFound(id uint) error {
	return apperror.NotFound("Property %d not found", id)
}

func dependency(err error) error {
	return apperror.Dependency(err, "Database unavailable")
}

func detailModel(c models.Category) any {
	switch c {
	case models.CategoryPlot:
		return &models.PlotDetail{}
	case models.CategoryCommercial:
		return &models.CommercialDetail{}
	default:
		return &models.ResidentialDetail{}
	}
}

// Get returns the unified view of one listing
func (s *Service) Get(ctx context.Context, id uint) (*View, error) {
	db := s.db.WithContext(ctx)

	var p models.Property
	if err := db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(id)
		}
		return nil, dependency(err)
	}
	return s.assemble(db, &p)
}

func (s *Service) assemble(db *gorm.DB, p *models.Property) (*View, error) {
	detail := detailModel(p.Category)
	err := db.Where("id = ?", p.ID).First(detail).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Warn().Uint("property_id", p.ID).Str("category", string(p.Category)).Msg("property has no detail row")
		detail = nil
	case err != nil:
		return nil, dependency(err)
	}

	var images []models.PropertyImage
	if err := db.Where("property_category = ? AND property_id = ?", p.Category, p.ID).
		Order("created_at ASC, image_order ASC, id ASC").
		Find(&images).Error; err != nil {
		return nil, dependency(err)
	}

	var features []models.PropertyFeature
	if err := db.Where("property_category = ? AND property_id = ?", p.Category, p.ID).
		Order("id ASC").
		Find(&features).Error; err != nil {
		return nil, dependency(err)
	}
	names := make([]string, len(features))
	for i, f := range features {
		names[i] = f.FeatureName
	}

	if p.Location == "" {
		p.Location = DeriveLocation(p.Locality, p.City)
	}

	return &View{
		Property: *p,
		Detail:   detail,
		Images:   toImageViews(images),
		Features: names,
	}, nil
}

func applyFilters(q *gorm.DB, f Filters) (*gorm.DB, error) {
	if t := strings.TrimSpace(f.Type); t != "" {
		q = q.Where("LOWER(property_type) = ?", strings.ToLower(t))
	}
	if c := strings.TrimSpace(f.Category); c != "" {
		cat := models.Category(strings.ToLower(c))
		if !cat.Valid() {
			return nil, apperror.Validation("Unknown category %q", c)
		}
		q = q.Where("category = ?", cat)
	}
	if st := strings.TrimSpace(f.Status); st != "" {
		q = q.Where("LOWER(status) = ?", strings.ToLower(st))
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		like := "%" + strings.ToLower(loc) + "%"
		q = q.Where("LOWER(city) LIKE ? OR LOWER(locality) LIKE ? OR LOWER(location) LIKE ?", like, like, like)
	}
	if f.IsFeatured != nil {
		q = q.Where("is_featured = ?", *f.IsFeatured)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	return q, nil
}

// List returns one page of listings, newest first
func (s *Service) List(ctx context.Context, f Filters, page, limit int) (*ListResult, error) {
	page, limit = paging.Clamp(page, limit)
	db := s.db.WithContext(ctx)

	q, err := applyFilters(db.Model(&models.Property{}), f)
	if err != nil {
		return nil, err
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, dependency(err)
	}

	var props []models.Property
	if err := q.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(paging.Offset(page, limit)).
		Find(&props).Error; err != nil {
		return nil, dependency(err)
	}

	primary, err := s.primaryImages(db, props)
	if err != nil {
		return nil, err
	}

	items := make([]ListItem, len(props))
	for i, p := range props {
		if p.Location == "" {
			p.Location = DeriveLocation(p.Locality, p.City)
		}
		items[i] = ListItem{Property: p}
		if url, ok := primary[imageKey{p.Category, p.ID}]; ok {
			items[i].PrimaryImage = &url
		}
	}

	pages := paging.Pages(total, limit)
	return &ListResult{Items: items, Total: total, Page: page, Limit: limit, Pages: pages}, nil
}

type imageKey struct {
	category models.Category
	id       uint
}

func (s *Service) primaryImages(db *gorm.DB, props []models.Property) (map[imageKey]string, error) {
	out := make(map[imageKey]string, len(props))
	if len(props) == 0 {
		return out, nil
	}
	ids := make([]uint, len(props))
	for i, p := range props {
		ids[i] = p.ID
	}

	var images []models.PropertyImage
	if err := db.Where("property_id IN ?", ids).
		Order("created_at ASC, image_order ASC, id ASC").
		Find(&images).Error; err != nil {
		return nil, dependency(err)
	}
	for _, img := range images {
		key := imageKey{img.PropertyCategory, img.PropertyID}
		if _, seen := out[key]; !seen {
			out[key] = storage.NormalizeURL(img.ImageURL)
		}
	}
	return out, nil
}

// Create stores a new listing and returns its id
func (s *Service) Create(ctx context.Context, p Payload) (uint, error) {
	category, err := p.Category()
	if err != nil {
		return 0, err
	}

	reg := models.Property{Category: category, Status: "available", IsActive: true}
	p.applyRegistry(&reg)
	if err := validateRegistry(&reg); err != nil {
		return 0, err
	}

	var imageInputs []ImageInput
	if p.Images != nil {
		imageInputs = *p.Images
	}
	// validate before opening the transaction
	if _, err := buildImages(imageInputs, category, 0); err != nil {
		return 0, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&reg).Error; err != nil {
			return fmt.Errorf("insert registry row: %w", err)
		}

		if err := tx.Create(buildDetail(&p, category, reg.ID)).Error; err != nil {
			return fmt.Errorf("insert %s row: %w", category.DetailTable(), err)
		}

		if err := s.replaceSatellites(tx, &p, category, reg.ID, reg.CreatedAt); err != nil {
			return err
		}

		return history.Save(tx, []models.PropertyChange{history.NewPropertyChange(&reg)}, auth.ActorFromContext(ctx))
	})
	if err != nil {
		var ae *apperror.Error
		if errors.As(err, &ae) {
			return 0, err
		}
		return 0, dependency(err)
	}

	log.Info().Uint("property_id", reg.ID).Str("category", string(category)).Msg("property created")
	if s.notifier != nil {
		s.notifier.PropertySaved(reg.ID)
	}
	return reg.ID, nil
}

func buildDetail(p *Payload, category models.Category, id uint) any {
	switch category {
	case models.CategoryPlot:
		d := &models.PlotDetail{ID: id}
		p.applyPlot(d)
		return d
	case models.CategoryCommercial:
		d := &models.CommercialDetail{ID: id}
		p.applyCommercial(d)
		return d
	default:
		d := &models.ResidentialDetail{ID: id}
		p.applyResidential(d)
		return d
	}
}

// replaceSatellites rewrites images and features that are present in the payload
func (s *Service) replaceSatellites(tx *gorm.DB, p *Payload, category models.Category, id uint, at time.Time) error {
	if p.Images != nil {
		images, err := buildImages(*p.Images, category, id)
		if err != nil {
			return err
		}
		if err := tx.Where("property_category = ? AND property_id = ?", category, id).
			Delete(&models.PropertyImage{}).Error; err != nil {
			return fmt.Errorf("delete images: %w", err)
		}
		for i := range images {
			images[i].CreatedAt = at
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return fmt.Errorf("insert images: %w", err)
			}
		}
	}

	if p.Features != nil {
		features := buildFeatures(*p.Features, category, id)
		if err := tx.Where("property_category = ? AND property_id = ?", category, id).
			Delete(&models.PropertyFeature{}).Error; err != nil {
			return fmt.Errorf("delete features: %w", err)
		}
		if len(features) > 0 {
			if err := tx.Create(&features).Error; err != nil {
				return fmt.Errorf("insert features: %w", err)
			}
		}
	}
	return nil
}

// Update applies the fields present in p to listing id
func (s *Service) Update(ctx context.Context, id uint, p Payload) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg models.Property
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reg, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(id)
			}
			return err
		}

		if p.PropertyCategory.Valid && strings.TrimSpace(p.PropertyCategory.Value) != "" {
			requested := models.Category(strings.ToLower(strings.TrimSpace(p.PropertyCategory.Value)))
			if requested != reg.Category {
				return apperror.Validation("Property category cannot change from %s to %s", reg.Category, requested)
			}
		}

		before := reg
		p.applyRegistry(&reg)
		if err := validateRegistry(&reg); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Save(&reg).Error; err != nil {
			return fmt.Errorf("update registry row: %w", err)
		}

		detail := detailModel(reg.Category)
		if err := tx.Where("id = ?", id).First(detail).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("load detail row: %w", err)
		}
		switch d := detail.(type) {
		case *models.ResidentialDetail:
			d.ID = id
			p.applyResidential(d)
		case *models.PlotDetail:
			d.ID = id
			p.applyPlot(d)
		case *models.CommercialDetail:
			d.ID = id
			p.applyCommercial(d)
		}
		if err := tx.Save(detail).Error; err != nil {
			return fmt.Errorf("update %s row: %w", reg.Category.DetailTable(), err)
		}

		var oldURLs []string
		if p.Images != nil {
			if err := tx.Model(&models.PropertyImage{}).
				Where("property_category = ? AND property_id = ?", reg.Category, id).
				Order("created_at ASC, image_order ASC, id ASC").
				Pluck("image_url", &oldURLs).Error; err != nil {
				return fmt.Errorf("load images: %w", err)
			}
		}
		if err := s.replaceSatellites(tx, &p, reg.Category, id, time.Now().UTC()); err != nil {
			return err
		}

		changes := history.DetectChanges(&before, &reg)
		if p.Images != nil {
			newURLs := make([]string, 0, len(*p.Images))
			for _, img := range *p.Images {
				newURLs = append(newURLs, strings.TrimSpace(img.ImageURL))
			}
			if history.ImagesChanged(oldURLs, newURLs) {
				changes = append(changes, models.PropertyChange{
					PropertyID: id,
					ChangeType: models.ChangeTypeImages,
					OldValue:   fmt.Sprintf("%d images", len(oldURLs)),
					NewValue:   fmt.Sprintf("%d images", len(newURLs)),
					DetectedAt: time.Now().UTC(),
				})
			}
		}
		return history.Save(tx, changes, auth.ActorFromContext(ctx))
	})
	if err != nil {
		var ae *apperror.Error
		if errors.As(err, &ae) {
			return err
		}
		return dependency(err)
	}

	log.Info().Uint("property_id", id).Msg("property updated")
	if s.notifier != nil {
		s.notifier.PropertySaved(id)
	}
	return nil
}

// Delete removes a listing and everything attached to it, then checks that
// no table still holds the id
func (s *Service) Delete(ctx context.Context, id uint) error {
	db := s.db.WithContext(ctx)

	err := db.Transaction(func(tx *gorm.DB) error {
		var reg models.Property
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reg, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(id)
			}
			return err
		}

		if err := tx.Where("property_category = ? AND property_id = ?", reg.Category, id).
			Delete(&models.PropertyFeature{}).Error; err != nil {
			return fmt.Errorf("delete features: %w", err)
		}
		if err := tx.Where("property_category = ? AND property_id = ?", reg.Category, id).
			Delete(&models.PropertyImage{}).Error; err != nil {
			return fmt.Errorf("delete images: %w", err)
		}
		for _, c := range models.Categories {
			if err := tx.Where("id = ?", id).Delete(detailModel(c)).Error; err != nil {
				return fmt.Errorf("delete %s row: %w", c.DetailTable(), err)
			}
		}
		if err := tx.Delete(&models.Property{}, id).Error; err != nil {
			return fmt.Errorf("delete registry row: %w", err)
		}

		return history.Save(tx, []models.PropertyChange{history.RemovedChange(&reg)}, auth.ActorFromContext(ctx))
	})
	if err != nil {
		var ae *apperror.Error
		if errors.As(err, &ae) {
			return err
		}
		return dependency(err)
	}

	if leftovers, err := s.Locate(ctx, id); err != nil {
		return dependency(err)
	} else if len(leftovers) > 0 {
		log.Error().Uint("property_id", id).Strs("tables", leftovers).Msg("property still present after delete")
		return apperror.Integrity(nil, "Property %d still present in %s after delete", id, strings.Join(leftovers, ", "))
	}

	log.Info().Uint("property_id", id).Msg("property deleted")
	if s.notifier != nil {
		s.notifier.PropertyDeleted(id)
	}
	return nil
}

// Locate returns the tables (registry and detail) that hold id
func (s *Service) Locate(ctx context.Context, id uint) ([]string, error) {
	db := s.db.WithContext(ctx)
	var tables []string

	var n int64
	if err := db.Model(&models.Property{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		tables = append(tables, models.Property{}.TableName())
	}
	for _, c := range models.Categories {
		if err := db.Model(detailModel(c)).Where("id = ?", id).Count(&n).Error; err != nil {
			return nil, err
		}
		if n > 0 {
			tables = append(tables, c.DetailTable())
		}
	}
	return tables, nil
}

// AddImage attaches an uploaded image to an existing listing and returns
// the image id. category may be empty to use the listing's own.
func (s *Service) AddImage(ctx context.Context, id uint, category models.Category, url, imageCategory string) (uint, error) {
	if imageCategory == "" {
		imageCategory = models.ImageCategoryProject
	}
	if !models.ValidImageCategory(imageCategory) {
		return 0, apperror.Validation("image_category must be project, floorplan or masterplan")
	}

	var img models.PropertyImage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reg models.Property
		if err := tx.First(&reg, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(id)
			}
			return err
		}
		if category != "" && category != reg.Category {
			return apperror.Validation("Property %d is %s, not %s", id, reg.Category, category)
		}

		var next int
		if err := tx.Model(&models.PropertyImage{}).
			Where("property_category = ? AND property_id = ?", reg.Category, id).
			Select("COALESCE(MAX(image_order), -1) + 1").
			Scan(&next).Error; err != nil {
			return err
		}

		img = models.PropertyImage{
			PropertyID:       id,
			PropertyCategory: reg.Category,
			ImageURL:         url,
			ImageCategory:    imageCategory,
			ImageOrder:       next,
		}
		return tx.Create(&img).Error
	})
	if err != nil {
		var ae *apperror.Error
		if errors.As(err, &ae) {
			return 0, err
		}
		return 0, dependency(err)
	}

	if s.notifier != nil {
		s.notifier.PropertySaved(id)
	}
	return img.ID, nil
}

// Each calls fn with the view of every listing, in id order
func (s *Service) Each(ctx context.Context, batchSize int, fn func(*View) error) error {
	db := s.db.WithContext(ctx)
	var batch []models.Property
	var fnErr error
	res := db.Order("id ASC").FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
		for i := range batch {
			view, err := s.assemble(db, &batch[i])
			if err != nil {
				return err
			}
			if err := fn(view); err != nil {
				fnErr = err
				return err
			}
		}
		return nil
	})
	if fnErr != nil {
		return fnErr
	}
	return res.Error
}
