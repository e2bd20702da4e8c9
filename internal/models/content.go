package models

import "time"

// Partner is a developer / bank / agency shown on the site
type Partner struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	LogoURL      string    `gorm:"type:text" json:"logo_url"`
	WebsiteURL   string    `gorm:"type:text" json:"website_url"`
	Description  string    `gorm:"type:text" json:"description"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Partner) TableName() string { return "partners" }

// Testimonial is a customer review; public submissions start unapproved
type Testimonial struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientName   string    `gorm:"type:varchar(255);not null" json:"client_name"`
	ClientTitle  string    `gorm:"type:varchar(255)" json:"client_title"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	Rating       int       `gorm:"not null;default:5" json:"rating"`
	ImageURL     string    `gorm:"type:text" json:"image_url"`
	IsApproved   bool      `gorm:"not null;index" json:"is_approved"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Testimonial) TableName() string { return "testimonials" }

// Blog is an article; Content holds HTML
type Blog struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string     `gorm:"type:varchar(255);not null" json:"title"`
	Slug        string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"slug"`
	Excerpt     string     `gorm:"type:text" json:"excerpt"`
	Content     string     `gorm:"type:text" json:"content"`
	Author      string     `gorm:"type:varchar(255)" json:"author"`
	ImageURL    string     `gorm:"type:text" json:"image_url"`
	Tags        string     `gorm:"type:text" json:"tags"`
	ReadMinutes int        `gorm:"not null;default:0" json:"read_minutes"`
	IsPublished bool       `gorm:"not null;index" json:"is_published"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Blog) TableName() string { return "blogs" }

// Inquiry statuses
const (
	InquiryStatusNew       = "new"
	InquiryStatusContacted = "contacted"
	InquiryStatusClosed    = "closed"
)

// ContactInquiry is a message submitted through the contact form
type ContactInquiry struct {
	ID         uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string     `gorm:"type:varchar(255);not null" json:"name"`
	Email      string     `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone      string     `gorm:"type:varchar(50)" json:"phone"`
	Subject    string     `gorm:"type:varchar(255)" json:"subject"`
	Message    string     `gorm:"type:text" json:"message"`
	PropertyID *uint      `gorm:"index" json:"property_id,omitempty"`
	VisitDate  *string    `gorm:"type:varchar(10)" json:"visit_date,omitempty"`
	Status     string     `gorm:"type:varchar(20);not null;index" json:"status"`
	IPAddress  string     `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	EmailedAt  *time.Time `json:"emailed_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ContactInquiry) TableName() string { return "contact_inquiries" }

// VisitorInfo is a lead captured before showing gated details
type VisitorInfo struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Email      string    `gorm:"type:varchar(255)" json:"email"`
	Phone      string    `gorm:"type:varchar(50)" json:"phone"`
	PropertyID *uint     `gorm:"index" json:"property_id,omitempty"`
	Source     string    `gorm:"type:varchar(100)" json:"source"`
	IPAddress  string    `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	UserAgent  string    `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (VisitorInfo) TableName() string { return "visitor_info" }

// Log levels accepted from clients
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warning"
	LogLevelError = "error"
)

// Log is an application or client log line; also used for the login audit trail
type Log struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Level     string    `gorm:"type:varchar(20);not null;index" json:"level"`
	Source    string    `gorm:"type:varchar(100);index" json:"source"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Context   string    `gorm:"type:text" json:"context,omitempty"`
	UserEmail string    `gorm:"type:varchar(255)" json:"user_email,omitempty"`
	IPAddress string    `gorm:"type:varchar(64)" json:"ip_address,omitempty"`
	UserAgent string    `gorm:"type:text" json:"user_agent,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Log) TableName() string { return "logs" }
