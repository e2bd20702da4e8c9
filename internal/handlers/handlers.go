// Package handlers contains the gin handlers, one struct per resource.
package handlers

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"realty-listings/internal/apperror"
	"realty-listings/internal/models"
	"realty-listings/internal/notify"
	"realty-listings/internal/paging"
	"realty-listings/internal/response"
	"realty-listings/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Submitter queues background work
type Submitter interface {
	Submit(name string, fn worker.TaskFunc) bool
}

// RegisterValidators adds the custom binding tags used by request structs
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected validator engine")
	}
	if err := v.RegisterValidation("property_category", func(fl validator.FieldLevel) bool {
		return models.Category(fl.Field().String()).Valid()
	}); err != nil {
		return err
	}
	if err := v.RegisterValidation("image_category", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || models.ValidImageCategory(s)
	}); err != nil {
		return err
	}
	return v.RegisterValidation("loose_email", func(fl validator.FieldLevel) bool {
		s := strings.TrimSpace(fl.Field().String())
		return s == "" || notify.ValidEmail(s)
	})
}

// bind decodes the JSON body into dst and maps binding failures to a
// validation error listing the offending fields
func bind(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, toSnake(fe.Field()))
		}
		return apperror.Validation("Invalid or missing fields: %s", strings.Join(fields, ", ")).
			WithDetail("fields", fields)
	}
	return apperror.Validation("Invalid JSON body")
}

// toSnake maps a Go field name to its JSON name: PropertyID -> property_id
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func dbError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("Resource not found")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Conflict("Resource already exists")
	}
	return apperror.Dependency(err, "Database unavailable")
}

// findByID loads one row of T or answers 404
func findByID[T any](ctx context.Context, db *gorm.DB, id uint, name string) (*T, error) {
	var row T
	if err := db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("%s %d not found", name, id)
		}
		return nil, dbError(err)
	}
	return &row, nil
}

// deleteByID removes one row of T and answers 200, or 404 when absent
func deleteByID[T any](c *gin.Context, db *gorm.DB, name string) {
	id, err := response.ParseID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var row T
	res := db.WithContext(c.Request.Context()).Delete(&row, id)
	if res.Error != nil {
		response.Error(c, dbError(res.Error))
		return
	}
	if res.RowsAffected == 0 {
		response.Error(c, apperror.NotFound("%s %d not found", name, id))
		return
	}
	response.Success(c, 200, gin.H{"message": name + " deleted"})
}

// listPage runs q with pagination and answers {items,total,page,limit,pages}
func listPage[T any](c *gin.Context, q *gorm.DB, order string) {
	page, limit := response.Pagination(c)

	var total int64
	if err := q.Session(&gorm.Session{}).Model(new(T)).Count(&total).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	items := make([]T, 0, limit)
	if err := q.Session(&gorm.Session{}).Order(order).Limit(limit).Offset(paging.Offset(page, limit)).Find(&items).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	response.JSON(c, 200, gin.H{
		"items": items,
		"total": total,
		"page":  page,
		"limit": limit,
		"pages": paging.Pages(total, limit),
	})
}

// listAll answers every row of q as {items,count}
func listAll[T any](c *gin.Context, q *gorm.DB, order string) {
	items := make([]T, 0)
	if err := q.Order(order).Find(&items).Error; err != nil {
		response.Error(c, dbError(err))
		return
	}
	response.JSON(c, 200, gin.H{"items": items, "count": len(items)})
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}
