// Package response writes JSON (or JSONP) bodies and the error envelope.
package response

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"

	"realty-listings/internal/apperror"
	"realty-listings/internal/logging"
	"realty-listings/internal/paging"

	"github.com/gin-gonic/gin"
)

const dependencyHint = "Check the database settings: DB_TYPE, DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME"

var callbackPattern = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*$`)

// ValidCallback reports whether name is a safe JSONP function name
func ValidCallback(name string) bool {
	return callbackPattern.MatchString(name)
}

// JSON writes body, wrapped in the ?callback= function on GET requests.
// An invalid callback name is answered with 400.
func JSON(c *gin.Context, status int, body any) {
	callback, ok := c.GetQuery("callback")
	if !ok || c.Request.Method != http.MethodGet {
		c.JSON(status, body)
		return
	}
	if !ValidCallback(callback) {
		Error(c, apperror.Validation("Invalid callback parameter"))
		return
	}
	c.JSONP(status, body)
}

// Error logs err and writes the envelope
// {"error": {"code", "message"}, ...details}. Raw error text never reaches
// the client.
func Error(c *gin.Context, err error) {
	var ae *apperror.Error
	if !errors.As(err, &ae) {
		ae = apperror.Internal(err, "An unexpected error occurred")
	}

	body := gin.H{}
	for k, v := range ae.Details {
		body[k] = v
	}
	body["error"] = gin.H{
		"code":    ae.Kind.Code(),
		"message": ae.Message,
	}
	if ae.Kind == apperror.KindDependency {
		body["hint"] = dependencyHint
	}

	status := ae.Kind.Status()
	logger := logging.Ctx(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Str("code", ae.Kind.Code()).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("path", c.FullPath()).Int("status", status).Msg("request rejected")
	}

	c.AbortWithStatusJSON(status, body)
}

// Success writes {"success": true} merged with extra
func Success(c *gin.Context, status int, extra gin.H) {
	body := gin.H{"success": true}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// Pagination reads ?page and ?limit and clamps them with paging.Clamp.
// Non-numeric values use the defaults.
func Pagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.Query("page"))
	limit, _ = strconv.Atoi(c.Query("limit"))
	return paging.Clamp(page, limit)
}

// ParseID reads a positive integer path parameter
func ParseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.Validation("Invalid %s", name)
	}
	return uint(id), nil
}

// OptionalBool parses a query flag; absent or unparsable yields nil
func OptionalBool(c *gin.Context, name string) *bool {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &v
}

// OptionalFloat parses a numeric query parameter
func OptionalFloat(c *gin.Context, name string) (*float64, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperror.Validation("%s must be a number", name)
	}
	return &v, nil
}
