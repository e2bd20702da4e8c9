package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"realty-listings/internal/apperror"
	"realty-listings/internal/content"
	"realty-listings/internal/models"
	"realty-listings/internal/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ContentHandler serves partners, testimonials and blogs
type ContentHandler struct {
	db *gorm.DB
}

func NewContentHandler(db *gorm.DB) *ContentHandler {
	return &ContentHandler{db: db}
}

// scoped limits public listings to rows whose flag column is set
func (h *ContentHandler) scoped(c *gin.Context, public bool, column string) *gorm.DB {
	q := h.db.WithContext(c.Request.Context())
	if public {
		q = q.Where(column+" = ?", true)
	}
	return q
}

// --- partners ---

type partnerRequest struct {
	Name         *string `json:"name" binding:"omitempty,min=1,max=255"`
	LogoURL      *string `json:"logo_url"`
	WebsiteURL   *string `json:"website_url" binding:"omitempty,url"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"display_order"`
	IsActive     *bool   `json:"is_active"`
}

func (r *partnerRequest) apply(p *models.Partner) {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.LogoURL != nil {
		p.LogoURL = *r.LogoURL
	}
	if r.WebsiteURL != nil {
		p.WebsiteURL = *r.WebsiteURL
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.DisplayOrder != nil {
		p.DisplayOrder = *r.DisplayOrder
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
}

// ListPartners handles GET /api/partners (active only)
func (h *ContentHandler) ListPartners(c *gin.Context) {
	listAll[models.Partner](c, h.scoped(c, true, "is_active"), "display_order ASC, id ASC")
}

// ListAllPartners handles GET /api/admin/partners
func (h *ContentHandler) ListAllPartners(c *gin.Context) {
	listAll[models.Partner](c, h.scoped(c, false, ""), "display_order ASC, id ASC")
}

// CreatePartner handles POST /api/partners
func (h *ContentHandler) CreatePartner(c *gin.Context) {
	var req partnerRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	p := models.Partner{IsActive: true}
	req.apply(&p)
	if p.Name == "" {
		response.Error(c, apperror.Validation("name is required"))
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&p).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusCreated, p)
}

// UpdatePartner handles PUT /api/partners/:id
func (h *ContentHandler) UpdatePartner(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req partnerRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	p, err := findByID[models.Partner](c.Request.Context(), h.db, id, "Partner")
	if err != nil {
		response.Error(c, err)
		return
	}
	req.apply(p)
	if p.Name == "" {
		response.Error(c, apperror.Validation("name is required"))
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Save(p).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeletePartner handles DELETE /api/partners/:id
func (h *ContentHandler) DeletePartner(c *gin.Context) {
	deleteByID[models.Partner](c, h.db, "Partner")
}

// --- testimonials ---

type testimonialRequest struct {
	ClientName   *string `json:"client_name" binding:"omitempty,min=1,max=255"`
	ClientTitle  *string `json:"client_title" binding:"omitempty,max=255"`
	Content      *string `json:"content"`
	Rating       *int    `json:"rating" binding:"omitempty,min=1,max=5"`
	ImageURL     *string `json:"image_url"`
	IsApproved   *bool   `json:"is_approved"`
	DisplayOrder *int    `json:"display_order"`
}

func (r *testimonialRequest) apply(t *models.Testimonial, moderated bool) {
	if r.ClientName != nil {
		t.ClientName = strings.TrimSpace(*r.ClientName)
	}
	if r.ClientTitle != nil {
		t.ClientTitle = strings.TrimSpace(*r.ClientTitle)
	}
	if r.Content != nil {
		t.Content = strings.TrimSpace(*r.Content)
	}
	if r.Rating != nil {
		t.Rating = *r.Rating
	}
	if r.ImageURL != nil {
		t.ImageURL = *r.ImageURL
	}
	if !moderated {
		return
	}
	if r.IsApproved != nil {
		t.IsApproved = *r.IsApproved
	}
	if r.DisplayOrder != nil {
		t.DisplayOrder = *r.DisplayOrder
	}
}

func validateTestimonial(t *models.Testimonial) error {
	if t.ClientName == "" || t.Content == "" {
		return apperror.Validation("client_name and content are required")
	}
	return nil
}

// ListTestimonials handles GET /api/testimonials (approved only)
func (h *ContentHandler) ListTestimonials(c *gin.Context) {
	listAll[models.Testimonial](c, h.scoped(c, true, "is_approved"), "display_order ASC, created_at DESC")
}

// ListAllTestimonials handles GET /api/admin/testimonials, optionally
// filtered by ?approved=
func (h *ContentHandler) ListAllTestimonials(c *gin.Context) {
	q := h.scoped(c, false, "")
	if approved := response.OptionalBool(c, "approved"); approved != nil {
		q = q.Where("is_approved = ?", *approved)
	}
	listPage[models.Testimonial](c, q, "created_at DESC, id DESC")
}

// SubmitTestimonial handles the public POST /api/testimonials. The entry
// waits for moderation.
func (h *ContentHandler) SubmitTestimonial(c *gin.Context) {
	var req testimonialRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	t := models.Testimonial{Rating: 5}
	req.apply(&t, false)
	if err := validateTestimonial(&t); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&t).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"id":      t.ID,
		"message": "Thank you! Your testimonial will appear once approved.",
	})
}

// CreateTestimonial handles the admin POST /api/admin/testimonials
func (h *ContentHandler) CreateTestimonial(c *gin.Context) {
	var req testimonialRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	t := models.Testimonial{Rating: 5, IsApproved: true}
	req.apply(&t, true)
	if err := validateTestimonial(&t); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&t).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusCreated, t)
}

// UpdateTestimonial handles PUT /api/testimonials/:id, including approval
func (h *ContentHandler) UpdateTestimonial(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req testimonialRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	t, err := findByID[models.Testimonial](c.Request.Context(), h.db, id, "Testimonial")
	if err != nil {
		response.Error(c, err)
		return
	}
	req.apply(t, true)
	if err := validateTestimonial(t); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Save(t).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTestimonial handles DELETE /api/testimonials/:id
func (h *ContentHandler) DeleteTestimonial(c *gin.Context) {
	deleteByID[models.Testimonial](c, h.db, "Testimonial")
}

// --- blogs ---

type blogRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Slug        *string `json:"slug" binding:"omitempty,max=255"`
	Excerpt     *string `json:"excerpt"`
	Content     *string `json:"content"`
	Author      *string `json:"author" binding:"omitempty,max=255"`
	ImageURL    *string `json:"image_url"`
	Tags        *string `json:"tags"`
	IsPublished *bool   `json:"is_published"`
}

func (r *blogRequest) apply(b *models.Blog, now time.Time) {
	if r.Title != nil {
		b.Title = *r.Title
	}
	if r.Slug != nil {
		b.Slug = *r.Slug
	}
	if r.Excerpt != nil {
		b.Excerpt = *r.Excerpt
	}
	if r.Content != nil {
		b.Content = *r.Content
	}
	if r.Author != nil {
		b.Author = strings.TrimSpace(*r.Author)
	}
	if r.ImageURL != nil {
		b.ImageURL = *r.ImageURL
	}
	if r.Tags != nil {
		b.Tags = *r.Tags
	}
	if r.IsPublished != nil {
		b.IsPublished = *r.IsPublished
	}
	if b.IsPublished && b.PublishedAt == nil {
		b.PublishedAt = &now
	}
}

// ListBlogs handles GET /api/blogs (published only, paginated)
func (h *ContentHandler) ListBlogs(c *gin.Context) {
	q := h.scoped(c, true, "is_published")
	if tag := strings.TrimSpace(c.Query("tag")); tag != "" {
		q = q.Where("tags LIKE ?", "%"+tag+"%")
	}
	listPage[models.Blog](c, q, "published_at DESC, id DESC")
}

// ListAllBlogs handles GET /api/admin/blogs
func (h *ContentHandler) ListAllBlogs(c *gin.Context) {
	listPage[models.Blog](c, h.scoped(c, false, ""), "created_at DESC, id DESC")
}

// GetBlog handles GET /api/blogs/:id where :id is a numeric id or a slug.
// Unpublished posts are not visible.
func (h *ContentHandler) GetBlog(c *gin.Context) {
	key := c.Param("id")
	q := h.db.WithContext(c.Request.Context()).Where("is_published = ?", true)
	if id, err := strconv.ParseUint(key, 10, 64); err == nil {
		q = q.Where("id = ?", id)
	} else {
		q = q.Where("slug = ?", key)
	}

	var b models.Blog
	if err := q.First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, apperror.NotFound("Blog %q not found", key))
			return
		}
		response.Error(c, dbError(err))
		return
	}
	response.JSON(c, http.StatusOK, b)
}

func (h *ContentHandler) saveBlog(c *gin.Context, b *models.Blog) error {
	if err := content.Prepare(b); err != nil {
		return apperror.Validation("content is not valid HTML")
	}
	if b.Title == "" {
		return apperror.Validation("title is required")
	}
	slug, err := content.UniqueSlug(c.Request.Context(), h.db, b.Slug, b.ID)
	if err != nil {
		return dbError(err)
	}
	b.Slug = slug
	if err := h.db.WithContext(c.Request.Context()).Save(b).Error; err != nil {
		return dbError(err)
	}
	return nil
}

// CreateBlog handles POST /api/blogs
func (h *ContentHandler) CreateBlog(c *gin.Context) {
	var req blogRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	var b models.Blog
	req.apply(&b, time.Now().UTC())
	if err := h.saveBlog(c, &b); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// UpdateBlog handles PUT /api/blogs/:id
func (h *ContentHandler) UpdateBlog(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req blogRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	b, err := findByID[models.Blog](c.Request.Context(), h.db, id, "Blog")
	if err != nil {
		response.Error(c, err)
		return
	}
	// a new title re-derives the slug unless one is given
	if req.Title != nil && req.Slug == nil && *req.Title != b.Title {
		b.Slug = ""
	}
	if req.Content != nil && req.Excerpt == nil {
		b.Excerpt = ""
	}
	req.apply(b, time.Now().UTC())
	if err := h.saveBlog(c, b); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// DeleteBlog handles DELETE /api/blogs/:id
func (h *ContentHandler) DeleteBlog(c *gin.Context) {
	deleteByID[models.Blog](c, h.db, "Blog")
}
