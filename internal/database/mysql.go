package database

import (
	"fmt"
	"net/url"

	"realty-listings/internal/config"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MySQLDSN builds the go-sql-driver DSN with timeouts and READ-COMMITTED isolation
func MySQLDSN(cfg config.DatabaseConfig) string {
	params := url.Values{}
	params.Set("charset", "utf8mb4")
	params.Set("parseTime", "True")
	params.Set("loc", "UTC")
	params.Set("timeout", fmt.Sprintf("%ds", cfg.ConnectTimeoutSeconds))
	params.Set("readTimeout", fmt.Sprintf("%ds", cfg.ReadTimeoutSeconds))
	params.Set("writeTimeout", fmt.Sprintf("%ds", cfg.WriteTimeoutSeconds))
	params.Set("transaction_isolation", "'READ-COMMITTED'")

	port := cfg.MySQL.Port
	if port == 0 {
		port = 3306
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		cfg.MySQL.User, cfg.MySQL.Password, cfg.MySQL.Host, port, cfg.MySQL.Database, params.Encode())
}

func openMySQL(cfg config.DatabaseConfig, gormCfg *gorm.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(MySQLDSN(cfg)), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	return db, nil
}
