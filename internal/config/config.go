package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Search    SearchConfig    `yaml:"search"`
	Redis     RedisConfig     `yaml:"redis"`
	Email     EmailConfig     `yaml:"email"`
	Storage   StorageConfig   `yaml:"storage"`
	Geocoding GeocodingConfig `yaml:"geocoding"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Worker    WorkerConfig    `yaml:"worker"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
	Timezone  string          `yaml:"timezone"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port                   string   `yaml:"port"`
	Mode                   string   `yaml:"mode"`
	CORSOrigins            []string `yaml:"cors_origins"`
	ShutdownTimeoutSeconds int      `yaml:"shutdown_timeout_seconds"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type                   string         `yaml:"type"`
	MySQL                  MySQLConfig    `yaml:"mysql"`
	Postgres               PostgresConfig `yaml:"postgres"`
	SQLite                 SQLiteConfig   `yaml:"sqlite"`
	MaxIdleConns           int            `yaml:"max_idle_conns"`
	MaxOpenConns           int            `yaml:"max_open_conns"`
	ConnMaxLifetimeSeconds int            `yaml:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int            `yaml:"conn_max_idle_time_seconds"`
	ConnectTimeoutSeconds  int            `yaml:"connect_timeout_seconds"`
	ReadTimeoutSeconds     int            `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds    int            `yaml:"write_timeout_seconds"`
	LogLevel               string         `yaml:"log_level"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SQLiteConfig contains SQLite settings (local development)
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig contains admin authentication settings
type AuthConfig struct {
	AdminEmail            string `yaml:"admin_email"`
	AdminPasswordHash     string `yaml:"admin_password_hash"`
	AdminFullName         string `yaml:"admin_full_name"`
	SessionTimeoutMinutes int    `yaml:"session_timeout_minutes"`
	MaxActiveSessions     int    `yaml:"max_active_sessions"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	URL string `yaml:"url"`
}

// EmailConfig contains outbound email settings
type EmailConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromAddress    string `yaml:"from_address"`
	FromName       string `yaml:"from_name"`
	NotifyAddress  string `yaml:"notify_address"`
}

// StorageConfig contains image storage settings
type StorageConfig struct {
	ImageDir    string `yaml:"image_dir"`
	URLPrefix   string `yaml:"url_prefix"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// GeocodingConfig contains geocoding upstream settings
type GeocodingConfig struct {
	Endpoint       string `yaml:"endpoint"`
	UserAgent      string `yaml:"user_agent"`
	CacheTTLHours  int    `yaml:"cache_ttl_hours"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RateLimitConfig contains rate limiting settings for public write endpoints
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
	RequestsPerHour   int  `yaml:"requests_per_hour"`
}

// WorkerConfig contains background task pool settings
type WorkerConfig struct {
	Workers     int `yaml:"workers"`
	QueueSize   int `yaml:"queue_size"`
	MaxAttempts int `yaml:"max_attempts"`
}

// SchedulerConfig contains maintenance job settings
type SchedulerConfig struct {
	Enabled             bool   `yaml:"enabled"`
	SessionSweepSpec    string `yaml:"session_sweep_spec"`
	SystemMetricsSpec   string `yaml:"system_metrics_spec"`
	RetentionSpec       string `yaml:"retention_spec"`
	LogRetentionDays    int    `yaml:"log_retention_days"`
	MetricRetentionDays int    `yaml:"metric_retention_days"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   "8080",
			Mode:                   "release",
			CORSOrigins:            []string{"http://localhost:3000"},
			ShutdownTimeoutSeconds: 15,
		},
		Database: DatabaseConfig{
			Type:                   "mysql",
			MaxIdleConns:           10,
			MaxOpenConns:           30,
			ConnMaxLifetimeSeconds: 3600,
			ConnMaxIdleTimeSeconds: 600,
			ConnectTimeoutSeconds:  10,
			ReadTimeoutSeconds:     30,
			WriteTimeoutSeconds:    30,
			LogLevel:               "warn",
			SQLite:                 SQLiteConfig{Path: "data/realty.db"},
			Postgres:               PostgresConfig{SSLMode: "disable"},
		},
		Auth: AuthConfig{
			AdminFullName:         "Administrator",
			SessionTimeoutMinutes: 240,
			MaxActiveSessions:     1,
		},
		Search: SearchConfig{
			Meilisearch: MeilisearchConfig{Index: "properties"},
		},
		Email: EmailConfig{
			FromName: "Property Listings",
		},
		Storage: StorageConfig{
			ImageDir:    "public/images",
			URLPrefix:   "/images",
			MaxUploadMB: 10,
		},
		Geocoding: GeocodingConfig{
			Endpoint:       "https://nominatim.openstreetmap.org/search",
			UserAgent:      "realty-listings/1.0",
			CacheTTLHours:  24 * 7,
			TimeoutSeconds: 10,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 20,
			RequestsPerHour:   300,
		},
		Worker: WorkerConfig{
			Workers:     4,
			QueueSize:   256,
			MaxAttempts: 3,
		},
		Scheduler: SchedulerConfig{
			Enabled:             true,
			SessionSweepSpec:    "*/5 * * * *",
			SystemMetricsSpec:   "*/1 * * * *",
			RetentionSpec:       "30 3 * * *",
			LogRetentionDays:    30,
			MetricRetentionDays: 14,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "json",
			LogRequests: true,
		},
		Timezone: "UTC",
	}
}

// LoadConfig loads configuration from a YAML file, then applies .env and
// environment overrides. A missing file is not an error.
func LoadConfig(filepath string) (*Config, error) {
	config := DefaultConfig()

	// .env is optional; variables already set in the process win
	_ = godotenv.Load()

	if filepath != "" {
		data, err := os.ReadFile(filepath)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	config.ApplyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides file values with environment variables when they are set
func (c *Config) ApplyEnv() {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.Mode, "GIN_MODE")
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		c.Server.CORSOrigins = splitList(origins)
	}

	setString(&c.Database.Type, "DB_TYPE")
	switch c.Database.Type {
	case "postgres":
		setString(&c.Database.Postgres.Host, "DB_HOST")
		setInt(&c.Database.Postgres.Port, "DB_PORT")
		setString(&c.Database.Postgres.User, "DB_USER")
		setString(&c.Database.Postgres.Password, "DB_PASSWORD")
		setString(&c.Database.Postgres.Database, "DB_NAME")
		setString(&c.Database.Postgres.SSLMode, "DB_SSLMODE")
	case "sqlite":
		setString(&c.Database.SQLite.Path, "DB_PATH")
	default:
		setString(&c.Database.MySQL.Host, "DB_HOST")
		setInt(&c.Database.MySQL.Port, "DB_PORT")
		setString(&c.Database.MySQL.User, "DB_USER")
		setString(&c.Database.MySQL.Password, "DB_PASSWORD")
		setString(&c.Database.MySQL.Database, "DB_NAME")
	}

	setString(&c.Auth.AdminEmail, "ADMIN_EMAIL")
	setString(&c.Auth.AdminPasswordHash, "ADMIN_PASSWORD_HASH")
	setInt(&c.Auth.SessionTimeoutMinutes, "SESSION_TIMEOUT_MINUTES")
	setInt(&c.Auth.MaxActiveSessions, "MAX_ACTIVE_SESSIONS")

	setString(&c.Search.Meilisearch.Host, "MEILISEARCH_HOST")
	setString(&c.Search.Meilisearch.APIKey, "MEILISEARCH_KEY")
	setString(&c.Redis.URL, "REDIS_URL")

	setString(&c.Email.SendGridAPIKey, "SENDGRID_API_KEY")
	setString(&c.Email.FromAddress, "EMAIL_FROM")
	setString(&c.Email.NotifyAddress, "EMAIL_NOTIFY")

	setString(&c.Storage.ImageDir, "IMAGE_DIR")
	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.Format, "LOG_FORMAT")
}

// Validate checks settings that have no usable default
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database type %q (DB_TYPE must be mysql, postgres or sqlite)", c.Database.Type)
	}
	if c.Auth.MaxActiveSessions < 1 {
		return fmt.Errorf("auth.max_active_sessions must be at least 1, got %d", c.Auth.MaxActiveSessions)
	}
	if c.Auth.SessionTimeoutMinutes <= 0 {
		return fmt.Errorf("auth.session_timeout_minutes must be positive, got %d", c.Auth.SessionTimeoutMinutes)
	}
	return nil
}

// SessionTimeout returns the session lifetime as a duration
func (c *AuthConfig) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMinutes) * time.Minute
}

// ConnMaxLifetime returns the connection recycle interval
func (c *DatabaseConfig) ConnMaxLifetime() time.Duration {
	return time.Duration(c.ConnMaxLifetimeSeconds) * time.Second
}

// ConnMaxIdleTime returns how long an idle connection is kept
func (c *DatabaseConfig) ConnMaxIdleTime() time.Duration {
	return time.Duration(c.ConnMaxIdleTimeSeconds) * time.Second
}

// CacheTTL returns the geocoding cache lifetime
func (c *GeocodingConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// Timeout returns the geocoding upstream timeout
func (c *GeocodingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ShutdownTimeout returns the graceful shutdown deadline
func (c *ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
