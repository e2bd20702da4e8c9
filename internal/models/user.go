package models

import "time"

// Roles
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an account that may sign in to the admin panel
type User struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Email        string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null" json:"-"`
	FullName     string     `gorm:"type:varchar(255)" json:"full_name"`
	Role         string     `gorm:"type:varchar(20);not null" json:"role"`
	IsActive     bool       `gorm:"not null" json:"is_active"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the account may use admin routes at all
func (u *User) IsAdmin() bool {
	return u.IsActive && u.Role == RoleAdmin
}

// UserSession is a server-side admin session. SessionID holds the SHA-256
// digest of the bearer token, never the token itself.
type UserSession struct {
	SessionID    string    `gorm:"type:varchar(64);primaryKey" json:"-"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	UserEmail    string    `gorm:"type:varchar(255);not null;index" json:"user_email"`
	IPAddress    string    `gorm:"type:varchar(64)" json:"ip_address"`
	UserAgent    string    `gorm:"type:text" json:"user_agent"`
	IsActive     bool      `gorm:"not null;index:idx_sessions_active,priority:1" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
	ExpiresAt    time.Time `gorm:"not null;index:idx_sessions_active,priority:2" json:"expires_at"`
	LastActivity time.Time `gorm:"not null" json:"last_activity"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}

// Expired reports whether the session is past its expiry at now
func (s *UserSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
