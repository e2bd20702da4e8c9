package database

import (
	"database/sql"
	"fmt"

	"realty-listings/internal/config"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// PostgresConnString builds a lib/pq keyword/value connection string
func PostgresConnString(cfg config.DatabaseConfig) string {
	port := cfg.Postgres.Port
	if port == 0 {
		port = 5432
	}
	sslmode := cfg.Postgres.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		cfg.Postgres.Host, port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database,
		sslmode, cfg.ConnectTimeoutSeconds)
}

// openPostgres opens the pool with lib/pq and hands it to gorm's postgres dialector
func openPostgres(cfg config.DatabaseConfig, gormCfg *gorm.Config) (*gorm.DB, error) {
	conn, err := sql.Open("postgres", PostgresConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), gormCfg)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}
