package handlers

import (
	"net/http"
	"time"

	"realty-listings/internal/auth"
	"realty-listings/internal/logging"
	"realty-listings/internal/middleware"
	"realty-listings/internal/response"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles admin sign-in
type AuthHandler struct {
	auth *auth.Service
}

func NewAuthHandler(a *auth.Service) *AuthHandler {
	return &AuthHandler{auth: a}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := bind(c, &req); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message":    "Login successful",
		"token":      result.Token,
		"expires_at": result.Session.ExpiresAt.Format(time.RFC3339),
		"user": gin.H{
			"id":        result.User.ID,
			"email":     result.User.Email,
			"full_name": result.User.FullName,
			"role":      result.User.Role,
		},
	})
}

type logoutRequest struct {
	Email string `json:"email"`
}

// Logout handles POST /api/auth/logout. It always answers 200.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	n, err := h.auth.Logout(c.Request.Context(), middleware.Token(c), req.Email)
	if err != nil {
		logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("logout failed")
	}
	response.Success(c, http.StatusOK, gin.H{
		"message":              "Logged out",
		"sessions_deactivated": n,
	})
}

// CheckSession handles GET /api/auth/check-session
func (h *AuthHandler) CheckSession(c *gin.Context) {
	status, err := h.auth.CheckSession(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}
