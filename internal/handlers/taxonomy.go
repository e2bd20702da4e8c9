package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"realty-listings/internal/apperror"
	"realty-listings/internal/models"
	"realty-listings/internal/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TaxonomyHandler serves the lookup lists used by the admin form and the
// site filters
type TaxonomyHandler struct {
	db *gorm.DB
}

func NewTaxonomyHandler(db *gorm.DB) *TaxonomyHandler {
	return &TaxonomyHandler{db: db}
}

type cityRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	State    string `json:"state" binding:"max=100"`
	IsActive *bool  `json:"is_active"`
}

type localityRequest struct {
	CityID   uint   `json:"city_id" binding:"required"`
	Name     string `json:"name" binding:"required,max=150"`
	Pincode  string `json:"pincode" binding:"max=20"`
	IsActive *bool  `json:"is_active"`
}

type unitTypeRequest struct {
	Name         string `json:"name" binding:"required,max=50"`
	DisplayOrder int    `json:"display_order"`
}

type categoryRequest struct {
	Name             string `json:"name" binding:"required,max=100"`
	PropertyCategory string `json:"property_category" binding:"required,property_category"`
	DisplayOrder     int    `json:"display_order"`
}

// ListCities handles GET /api/cities; ?all=true includes inactive cities
func (h *TaxonomyHandler) ListCities(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context())
	if c.Query("all") != "true" {
		q = q.Where("is_active = ?", true)
	}
	listAll[models.City](c, q, "name ASC")
}

// CreateCity handles POST /api/cities
func (h *TaxonomyHandler) CreateCity(c *gin.Context) {
	var req cityRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	city := models.City{
		Name:     strings.TrimSpace(req.Name),
		State:    strings.TrimSpace(req.State),
		IsActive: boolOr(req.IsActive, true),
	}
	if err := h.ensureUniqueCity(c, city.Name, 0); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&city).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusCreated, city)
}

// UpdateCity handles PUT /api/cities/:id
func (h *TaxonomyHandler) UpdateCity(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req cityRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	city, err := findByID[models.City](c.Request.Context(), h.db, id, "City")
	if err != nil {
		response.Error(c, err)
		return
	}
	city.Name = strings.TrimSpace(req.Name)
	city.State = strings.TrimSpace(req.State)
	city.IsActive = boolOr(req.IsActive, city.IsActive)
	if err := h.ensureUniqueCity(c, city.Name, city.ID); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Save(city).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusOK, city)
}

func (h *TaxonomyHandler) ensureUniqueCity(c *gin.Context, name string, excludeID uint) error {
	var n int64
	err := h.db.WithContext(c.Request.Context()).Model(&models.City{}).
		Where("LOWER(name) = ? AND id <> ?", strings.ToLower(name), excludeID).
		Count(&n).Error
	if err != nil {
		return dbError(err)
	}
	if n > 0 {
		return apperror.Conflict("City %q already exists", name)
	}
	return nil
}

// DeleteCity handles DELETE /api/cities/:id; its localities go with it
func (h *TaxonomyHandler) DeleteCity(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var deleted int64
	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("city_id = ?", id).Delete(&models.Locality{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.City{}, id)
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		response.Error(c, dbError(err))
		return
	}
	if deleted == 0 {
		response.Error(c, apperror.NotFound("City %d not found", id))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "City deleted"})
}

// ListLocalities handles GET /api/localities?city_id=
func (h *TaxonomyHandler) ListLocalities(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context())
	if raw := c.Query("city_id"); raw != "" {
		cityID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			response.Error(c, apperror.Validation("city_id must be a number"))
			return
		}
		q = q.Where("city_id = ?", cityID)
	}
	if c.Query("all") != "true" {
		q = q.Where("is_active = ?", true)
	}
	listAll[models.Locality](c, q, "name ASC")
}

// CreateLocality handles POST /api/localities
func (h *TaxonomyHandler) CreateLocality(c *gin.Context) {
	var req localityRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	if _, err := findByID[models.City](c.Request.Context(), h.db, req.CityID, "City"); err != nil {
		response.Error(c, err)
		return
	}
	loc := models.Locality{
		CityID:   req.CityID,
		Name:     strings.TrimSpace(req.Name),
		Pincode:  strings.TrimSpace(req.Pincode),
		IsActive: boolOr(req.IsActive, true),
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&loc).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusCreated, loc)
}

// UpdateLocality handles PUT /api/localities/:id
func (h *TaxonomyHandler) UpdateLocality(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req localityRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	loc, err := findByID[models.Locality](c.Request.Context(), h.db, id, "Locality")
	if err != nil {
		response.Error(c, err)
		return
	}
	if req.CityID != loc.CityID {
		if _, err := findByID[models.City](c.Request.Context(), h.db, req.CityID, "City"); err != nil {
			response.Error(c, err)
			return
		}
	}
	loc.CityID = req.CityID
	loc.Name = strings.TrimSpace(req.Name)
	loc.Pincode = strings.TrimSpace(req.Pincode)
	loc.IsActive = boolOr(req.IsActive, loc.IsActive)
	if err := h.db.WithContext(c.Request.Context()).Save(loc).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusOK, loc)
}

// DeleteLocality handles DELETE /api/localities/:id
func (h *TaxonomyHandler) DeleteLocality(c *gin.Context) {
	deleteByID[models.Locality](c, h.db, "Locality")
}

// ListUnitTypes handles GET /api/unit-types
func (h *TaxonomyHandler) ListUnitTypes(c *gin.Context) {
	listAll[models.UnitType](c, h.db.WithContext(c.Request.Context()), "display_order ASC, name ASC")
}

// CreateUnitType handles POST /api/unit-types
func (h *TaxonomyHandler) CreateUnitType(c *gin.Context) {
	var req unitTypeRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	u := models.UnitType{Name: strings.TrimSpace(req.Name), DisplayOrder: req.DisplayOrder}
	var n int64
	if err := h.db.WithContext(c.Request.Context()).Model(&models.UnitType{}).Where("name = ?", u.Name).Count(&n).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	if n > 0 {
		response.Error(c, apperror.Conflict("Unit type %q already exists", u.Name))
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&u).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusCreated, u)
}

// UpdateUnitType handles PUT /api/unit-types/:id
func (h *TaxonomyHandler) UpdateUnitType(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req unitTypeRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	u, err := findByID[models.UnitType](c.Request.Context(), h.db, id, "Unit type")
	if err != nil {
		response.Error(c, err)
		return
	}
	u.Name = strings.TrimSpace(req.Name)
	u.DisplayOrder = req.DisplayOrder
	if err := h.db.WithContext(c.Request.Context()).Save(u).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusOK, u)
}

// DeleteUnitType handles DELETE /api/unit-types/:id
func (h *TaxonomyHandler) DeleteUnitType(c *gin.Context) {
	deleteByID[models.UnitType](c, h.db, "Unit type")
}

// ListCategories handles GET /api/categories?property_category=
func (h *TaxonomyHandler) ListCategories(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context())
	if pc := c.Query("property_category"); pc != "" {
		if !models.Category(pc).Valid() {
			response.Error(c, apperror.Validation("Unknown property_category %q", pc))
			return
		}
		q = q.Where("category = ?", pc)
	}
	listAll[models.CategoryOption](c, q, "category ASC, display_order ASC, name ASC")
}

// CreateCategory handles POST /api/categories
func (h *TaxonomyHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	opt := models.CategoryOption{
		Name:         strings.TrimSpace(req.Name),
		Category:     models.Category(req.PropertyCategory),
		DisplayOrder: req.DisplayOrder,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&opt).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusCreated, opt)
}

// UpdateCategory handles PUT /api/categories/:id
func (h *TaxonomyHandler) UpdateCategory(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req categoryRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	opt, err := findByID[models.CategoryOption](c.Request.Context(), h.db, id, "Category")
	if err != nil {
		response.Error(c, err)
		return
	}
	opt.Name = strings.TrimSpace(req.Name)
	opt.Category = models.Category(req.PropertyCategory)
	opt.DisplayOrder = req.DisplayOrder
	if err := h.db.WithContext(c.Request.Context()).Save(opt).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusOK, opt)
}

// DeleteCategory handles DELETE /api/categories/:id
func (h *TaxonomyHandler) DeleteCategory(c *gin.Context) {
	deleteByID[models.CategoryOption](c, h.db, "Category")
}
