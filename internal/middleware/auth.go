package middleware

import (
	"context"
	"strings"

	"realty-listings/internal/apperror"
	"realty-listings/internal/auth"
	"realty-listings/internal/models"
	"realty-listings/internal/response"

	"github.com/gin-gonic/gin"
)

const (
	SessionTokenHeader = "X-Session-Token"

	ContextSession = "session"
	ContextUser    = "user"
)

// Authenticator resolves a session token
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.UserSession, *models.User, error)
}

// Token returns the bearer token or X-Session-Token header, or ""
func Token(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if scheme, token, ok := strings.Cut(h, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(c.GetHeader(SessionTokenHeader))
}

// RequireAdmin admits only requests carrying a live admin session and
// records the admin as the request's actor
func RequireAdmin(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := Token(c)
		if token == "" {
			response.Error(c, apperror.Auth("Authentication required"))
			return
		}

		session, user, err := a.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextSession, session)
		c.Set(ContextUser, user)
		c.Request = c.Request.WithContext(auth.WithActor(c.Request.Context(), user.Email))
		c.Next()
	}
}

// Forbidden answers 403 unconditionally; used for disabled routes
func Forbidden(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		response.Error(c, apperror.Authorization("%s", message))
	}
}
