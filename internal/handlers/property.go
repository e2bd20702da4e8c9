package handlers

import (
	"errors"
	"net/http"
	"strings"

	"realty-listings/internal/apperror"
	"realty-listings/internal/models"
	"realty-listings/internal/property"
	"realty-listings/internal/response"
	"realty-listings/internal/storage"

	"github.com/gin-gonic/gin"
)

// PropertyHandler serves the property registry
type PropertyHandler struct {
	props  *property.Service
	images *storage.ImageStore
}

func NewPropertyHandler(props *property.Service, images *storage.ImageStore) *PropertyHandler {
	return &PropertyHandler{props: props, images: images}
}

// List handles GET /api/properties
func (h *PropertyHandler) List(c *gin.Context) {
	f := property.Filters{
		Type:       c.Query("type"),
		Category:   c.Query("category"),
		Status:     c.Query("status"),
		Location:   c.Query("location"),
		IsFeatured: response.OptionalBool(c, "is_featured"),
		IsActive:   response.OptionalBool(c, "is_active"),
	}
	var err error
	if f.MinPrice, err = response.OptionalFloat(c, "min_price"); err != nil {
		response.Error(c, err)
		return
	}
	if f.MaxPrice, err = response.OptionalFloat(c, "max_price"); err != nil {
		response.Error(c, err)
		return
	}

	page, limit := response.Pagination(c)
	result, err := h.props.List(c.Request.Context(), f, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Get handles GET /api/properties/:id
func (h *PropertyHandler) Get(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.props.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Create handles POST /api/properties
func (h *PropertyHandler) Create(c *gin.Context) {
	var p property.Payload
	if err := bind(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	id, err := h.props.Create(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"id": id, "message": "Property created"})
}

// Update handles POST|PUT /api/properties/:id
func (h *PropertyHandler) Update(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var p property.Payload
	if err := bind(c, &p); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.props.Update(c.Request.Context(), id, p); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "message": "Property updated"})
}

// Delete handles DELETE /api/properties/:id
func (h *PropertyHandler) Delete(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.props.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "Property deleted"})
}

type uploadImageRequest struct {
	Image            string `json:"image" binding:"required"`
	PropertyCategory string `json:"property_category" binding:"required,property_category"`
	ImageCategory    string `json:"image_category" binding:"image_category"`
	PropertyID       *uint  `json:"property_id"`
}

// UploadImage handles POST /api/upload-image. The image is stored on disk
// and, when property_id is given, attached to that property.
func (h *PropertyHandler) UploadImage(c *gin.Context) {
	var req uploadImageRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	category := models.Category(strings.ToLower(req.PropertyCategory))

	url, err := h.images.SaveDataURL(string(category), req.Image)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidDataURL) ||
			errors.Is(err, storage.ErrUnsupportedImage) ||
			errors.Is(err, storage.ErrImageTooLarge) {
			response.Error(c, apperror.Validation("%s", err.Error()))
			return
		}
		response.Error(c, apperror.Internal(err, "Could not store image"))
		return
	}

	body := gin.H{"image_url": url}
	if req.PropertyID != nil && *req.PropertyID > 0 {
		imageID, err := h.props.AddImage(c.Request.Context(), *req.PropertyID, category, url, req.ImageCategory)
		if err != nil {
			response.Error(c, err)
			return
		}
		body["image_id"] = imageID
	}
	response.Success(c, http.StatusOK, body)
}
