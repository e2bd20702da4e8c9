package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"realty-listings/internal/apperror"
	"realty-listings/internal/models"
	"realty-listings/internal/notify"
	"realty-listings/internal/response"
	"realty-listings/internal/worker"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InquiryNotifier sends the office email for a stored inquiry
type InquiryNotifier interface {
	Notify(ctx context.Context, id uint) error
}

// InquiryHandler serves the contact form and visitor capture
type InquiryHandler struct {
	db       *gorm.DB
	notifier InquiryNotifier
	tasks    Submitter
}

func NewInquiryHandler(db *gorm.DB, notifier InquiryNotifier, tasks Submitter) *InquiryHandler {
	return &InquiryHandler{db: db, notifier: notifier, tasks: tasks}
}

type contactRequest struct {
	Name       string  `json:"name" binding:"required,max=255"`
	Email      string  `json:"email" binding:"required,loose_email"`
	Phone      string  `json:"phone" binding:"max=50"`
	Subject    string  `json:"subject" binding:"max=255"`
	Message    string  `json:"message"`
	PropertyID *uint   `json:"property_id"`
	VisitDate  *string `json:"visit_date"`
}

// Contact handles POST /api/contact. The inquiry is stored synchronously;
// the notification email is sent in the background.
func (h *InquiryHandler) Contact(c *gin.Context) {
	var req contactRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	inq := models.ContactInquiry{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Subject:    req.Subject,
		Message:    req.Message,
		PropertyID: req.PropertyID,
		IPAddress:  c.ClientIP(),
	}
	if req.VisitDate != nil {
		if date, ok := notify.ParseVisitDate("Preferred Date: " + *req.VisitDate); ok {
			inq.VisitDate = &date
		}
	}
	notify.PrepareInquiry(&inq)
	if inq.Name == "" {
		response.Error(c, apperror.Validation("name is required"))
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&inq).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}

	if h.notifier != nil && h.tasks != nil {
		id := inq.ID
		h.tasks.Submit(worker.TaskName("inquiry_email", id), func(ctx context.Context) error {
			return h.notifier.Notify(ctx, id)
		})
	}

	body := gin.H{"id": inq.ID, "message": "Thank you for contacting us. We will get back to you shortly."}
	if inq.VisitDate != nil {
		body["visit_date"] = *inq.VisitDate
	}
	response.Success(c, http.StatusCreated, body)
}

// ListInquiries handles GET /api/contact, filtered by ?status=
func (h *InquiryHandler) ListInquiries(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context())
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}
	listPage[models.ContactInquiry](c, q, "created_at DESC, id DESC")
}

type inquiryStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=new contacted closed"`
}

// UpdateInquiryStatus handles PUT /api/contact/:id
func (h *InquiryHandler) UpdateInquiryStatus(c *gin.Context) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req inquiryStatusRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.ContactInquiry{}).
		Where("id = ?", id).
		Update("status", req.Status)
	if res.Error != nil {
		response.Error(c, dbError(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		response.Error(c, apperror.NotFound("Inquiry %d not found", id))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "status": req.Status})
}

// DeleteInquiry handles DELETE /api/contact/:id
func (h *InquiryHandler) DeleteInquiry(c *gin.Context) {
	deleteByID[models.ContactInquiry](c, h.db, "Inquiry")
}

type visitorRequest struct {
	Name       string `json:"name" binding:"required,max=255"`
	Email      string `json:"email" binding:"loose_email"`
	Phone      string `json:"phone" binding:"max=50"`
	PropertyID *uint  `json:"property_id"`
	Source     string `json:"source" binding:"max=100"`
}

// RecordVisitor handles POST /api/visitors
func (h *InquiryHandler) RecordVisitor(c *gin.Context) {
	var req visitorRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}
	v := models.VisitorInfo{
		Name:       strings.TrimSpace(req.Name),
		Email:      strings.TrimSpace(req.Email),
		Phone:      strings.TrimSpace(req.Phone),
		PropertyID: req.PropertyID,
		Source:     req.Source,
		IPAddress:  c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	}
	if v.Email == "" && v.Phone == "" {
		response.Error(c, apperror.Validation("email or phone is required"))
		return
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&v).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"id": v.ID})
}

// ListVisitors handles GET /api/visitors
func (h *InquiryHandler) ListVisitors(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context())
	if pid, err := strconv.ParseUint(c.Query("property_id"), 10, 64); err == nil && pid > 0 {
		q = q.Where("property_id = ?", pid)
	}
	listPage[models.VisitorInfo](c, q, "created_at DESC, id DESC")
}
