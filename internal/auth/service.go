// Package auth implements admin sign-in with a bounded number of
// concurrently active sessions, and the token check every admin request
// goes through.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"realty-listings/internal/apperror"
	"realty-listings/internal/config"
	"realty-listings/internal/metrics"
	"realty-listings/internal/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const invalidCredentials = "Invalid email or password"

// Service is the auth gate
type Service struct {
	db  *gorm.DB
	cfg config.AuthConfig
	now func() time.Time

	// serializes the check-then-insert of Login within this process
	loginMu sync.Mutex
}

// LoginResult is returned on successful login
type LoginResult struct {
	Token   string
	Session models.UserSession
	User    models.User
}

// SessionInfo describes the active session for check-session
type SessionInfo struct {
	Email        string    `json:"email"`
	IPAddress    string    `json:"ip_address"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	LastActivity time.Time `json:"last_activity"`
}

// SessionStatus is the read-only answer of CheckSession
type SessionStatus struct {
	HasActiveSession bool         `json:"has_active_session"`
	Session          *SessionInfo `json:"session,omitempty"`
}

func NewService(db *gorm.DB, cfg config.AuthConfig) *Service {
	if cfg.MaxActiveSessions < 1 {
		cfg.MaxActiveSessions = 1
	}
	if cfg.SessionTimeoutMinutes <= 0 {
		cfg.SessionTimeoutMinutes = 240
	}
	return &Service{
		db:  db,
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsAdminEmail reports whether email is the configured admin identity
func (s *Service) IsAdminEmail(email string) bool {
	admin := normalizeEmail(s.cfg.AdminEmail)
	return admin != "" && normalizeEmail(email) == admin
}

// Login verifies credentials and opens a session if the active-session
// limit allows it
func (s *Service) Login(ctx context.Context, email, password, ip, userAgent string) (*LoginResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperror.Validation("Email and password are required")
	}
	if !s.IsAdminEmail(email) {
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		log.Warn().Str("email", email).Str("ip", ip).Msg("login rejected: not the admin identity")
		return nil, apperror.Auth(invalidCredentials)
	}

	token, err := GenerateToken()
	if err != nil {
		return nil, apperror.Internal(err, "Could not create session")
	}

	s.loginMu.Lock()
	defer s.loginMu.Unlock()

	now := s.now()
	var result *LoginResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("LOWER(email) = ?", email).
			First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Auth(invalidCredentials)
		}
		if err != nil {
			return apperror.Dependency(err, "Session store unavailable")
		}
		if !user.IsAdmin() || !CheckPasswordHash(password, user.PasswordHash) {
			return apperror.Auth(invalidCredentials)
		}

		if err := tx.Model(&models.UserSession{}).
			Where("is_active = ? AND expires_at <= ?", true, now).
			Update("is_active", false).Error; err != nil {
			return apperror.Dependency(err, "Session store unavailable")
		}

		var active []models.UserSession
		if err := tx.Where("is_active = ? AND expires_at > ?", true, now).
			Order("created_at DESC").
			Find(&active).Error; err != nil {
			return apperror.Dependency(err, "Session store unavailable")
		}
		if len(active) >= s.cfg.MaxActiveSessions {
			return apperror.Authorization("Another admin session is already active. Log out from the other device first.").
				WithDetail("active_session_ip", active[0].IPAddress)
		}

		if s.cfg.MaxActiveSessions == 1 {
			if err := tx.Model(&models.UserSession{}).
				Where("user_id = ? AND is_active = ?", user.ID, true).
				Update("is_active", false).Error; err != nil {
				return apperror.Dependency(err, "Session store unavailable")
			}
		}

		session := models.UserSession{
			SessionID:    HashToken(token),
			UserID:       user.ID,
			UserEmail:    user.Email,
			IPAddress:    ip,
			UserAgent:    userAgent,
			IsActive:     true,
			CreatedAt:    now,
			ExpiresAt:    now.Add(s.cfg.SessionTimeout()),
			LastActivity: now,
		}
		if err := tx.Create(&session).Error; err != nil {
			return apperror.Dependency(err, "Could not persist session")
		}

		result = &LoginResult{Token: token, Session: session, User: user}
		return nil
	})
	if err != nil {
		s.recordLoginFailure(err, email, ip)
		var ae *apperror.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperror.Dependency(err, "Session store unavailable")
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	s.afterLogin(ctx, result, ip, userAgent)
	return result, nil
}

func (s *Service) recordLoginFailure(err error, email, ip string) {
	switch apperror.KindOf(err) {
	case apperror.KindAuth:
		metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		log.Warn().Str("email", email).Str("ip", ip).Msg("login rejected: invalid credentials")
	case apperror.KindAuthorization:
		metrics.LoginAttempts.WithLabelValues("session_active").Inc()
		log.Warn().Str("email", email).Str("ip", ip).Msg("login rejected: session limit reached")
	default:
		metrics.LoginAttempts.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("email", email).Msg("login failed")
	}
}

// afterLogin updates last_login and writes the audit entry; failures are logged only
func (s *Service) afterLogin(ctx context.Context, r *LoginResult, ip, userAgent string) {
	now := r.Session.CreatedAt
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", r.User.ID).
		UpdateColumn("last_login", now).Error; err != nil {
		log.Warn().Err(err).Uint("user_id", r.User.ID).Msg("failed to update last_login")
	} else {
		r.User.LastLogin = &now
	}

	s.audit(ctx, "admin login", r.User.Email, ip, userAgent)
	log.Info().Str("email", r.User.Email).Str("ip", ip).Time("expires_at", r.Session.ExpiresAt).Msg("admin logged in")
}

func (s *Service) audit(ctx context.Context, message, email, ip, userAgent string) {
	entry := models.Log{
		Level:     models.LogLevelInfo,
		Source:    "auth",
		Message:   message,
		UserEmail: email,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Warn().Err(err).Str("message", message).Msg("failed to write audit log")
	}
}

// Logout deactivates the token's session, else every active session of
// email, else every active session. It returns the number deactivated.
func (s *Service) Logout(ctx context.Context, token, email string) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.UserSession{}).Where("is_active = ?", true)
	var scope string
	switch {
	case token != "":
		q = q.Where("session_id = ?", HashToken(token))
		scope = "token"
	case normalizeEmail(email) != "":
		q = q.Where("LOWER(user_email) = ?", normalizeEmail(email))
		scope = "email"
	default:
		// an anonymous caller may not revoke every session
		log.Info().Msg("logout without token or email ignored")
		return 0, nil
	}

	res := q.Update("is_active", false)
	if res.Error != nil {
		return 0, apperror.Dependency(res.Error, "Session store unavailable")
	}

	log.Info().Str("scope", scope).Int64("sessions", res.RowsAffected).Msg("logout")
	if res.RowsAffected > 0 {
		s.audit(ctx, fmt.Sprintf("admin logout (%s)", scope), normalizeEmail(email), "", "")
	}
	return res.RowsAffected, nil
}

// CheckSession reports the most recent active, unexpired session
func (s *Service) CheckSession(ctx context.Context) (*SessionStatus, error) {
	var session models.UserSession
	err := s.db.WithContext(ctx).
		Where("is_active = ? AND expires_at > ?", true, s.now()).
		Order("created_at DESC").
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &SessionStatus{HasActiveSession: false}, nil
	}
	if err != nil {
		return nil, apperror.Dependency(err, "Session store unavailable")
	}

	return &SessionStatus{
		HasActiveSession: true,
		Session: &SessionInfo{
			Email:        session.UserEmail,
			IPAddress:    session.IPAddress,
			CreatedAt:    session.CreatedAt,
			ExpiresAt:    session.ExpiresAt,
			LastActivity: session.LastActivity,
		},
	}, nil
}

// Authenticate validates a bearer token against the session store and
// returns the session and its admin user
func (s *Service) Authenticate(ctx context.Context, token string) (*models.UserSession, *models.User, error) {
	if token == "" {
		return nil, nil, apperror.Auth("Authentication required")
	}

	db := s.db.WithContext(ctx)
	var session models.UserSession
	err := db.Where("session_id = ?", HashToken(token)).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperror.Auth("Invalid session")
	}
	if err != nil {
		return nil, nil, apperror.Dependency(err, "Session store unavailable")
	}

	now := s.now()
	if !session.IsActive {
		return nil, nil, apperror.Auth("Session has ended")
	}
	if session.Expired(now) {
		if err := db.Model(&models.UserSession{}).
			Where("session_id = ?", session.SessionID).
			Update("is_active", false).Error; err != nil {
			log.Warn().Err(err).Msg("failed to deactivate expired session")
		}
		return nil, nil, apperror.Auth("Session expired")
	}

	var user models.User
	err = db.First(&user, session.UserID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, apperror.Authorization("Admin access required")
	}
	if err != nil {
		return nil, nil, apperror.Dependency(err, "Session store unavailable")
	}
	if !user.IsAdmin() || !s.IsAdminEmail(user.Email) {
		return nil, nil, apperror.Authorization("Admin access required")
	}

	if err := db.Model(&models.UserSession{}).
		Where("session_id = ?", session.SessionID).
		UpdateColumn("last_activity", now).Error; err != nil {
		log.Warn().Err(err).Msg("failed to touch session")
	} else {
		session.LastActivity = now
	}

	return &session, &user, nil
}

// SweepExpired deactivates sessions past their expiry and refreshes the
// active-session gauge
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	now := s.now()
	db := s.db.WithContext(ctx)

	res := db.Model(&models.UserSession{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Update("is_active", false)
	if res.Error != nil {
		return 0, res.Error
	}

	var active int64
	if err := db.Model(&models.UserSession{}).
		Where("is_active = ? AND expires_at > ?", true, now).
		Count(&active).Error; err == nil {
		metrics.ActiveSessions.Set(float64(active))
	}

	return res.RowsAffected, nil
}

// EnsureAdmin creates the configured admin account when a password hash is
// configured and the account does not exist yet. An existing account gets
// its hash and role refreshed from configuration.
func (s *Service) EnsureAdmin(ctx context.Context) error {
	email := normalizeEmail(s.cfg.AdminEmail)
	if email == "" || s.cfg.AdminPasswordHash == "" {
		return nil
	}

	db := s.db.WithContext(ctx)
	var user models.User
	err := db.Where("LOWER(email) = ?", email).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{
			Email:        email,
			PasswordHash: s.cfg.AdminPasswordHash,
			FullName:     s.cfg.AdminFullName,
			Role:         models.RoleAdmin,
			IsActive:     true,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		log.Info().Str("email", email).Msg("admin user created")
		return nil
	case err != nil:
		return fmt.Errorf("failed to load admin user: %w", err)
	}

	if user.PasswordHash == s.cfg.AdminPasswordHash && user.Role == models.RoleAdmin && user.IsActive {
		return nil
	}
	if err := db.Model(&user).Updates(map[string]interface{}{
		"password_hash": s.cfg.AdminPasswordHash,
		"role":          models.RoleAdmin,
		"is_active":     true,
	}).Error; err != nil {
		return fmt.Errorf("failed to update admin user: %w", err)
	}
	log.Info().Str("email", email).Msg("admin user refreshed from configuration")
	return nil
}
