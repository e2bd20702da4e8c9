package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"realty-listings/internal/config"
	"realty-listings/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GormDB wraps the shared gorm handle
type GormDB struct {
	db     *gorm.DB
	driver string
}

// Open connects to the configured backend, applies pool settings and pings
func Open(cfg config.DatabaseConfig) (*GormDB, error) {
	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Type {
	case "mysql":
		db, err = openMySQL(cfg, gormCfg)
	case "postgres":
		db, err = openPostgres(cfg, gormCfg)
	case "sqlite":
		db, err = openSQLite(cfg.SQLite.Path, gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}

	if cfg.Type == "sqlite" {
		// single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime())
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime())

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ConnectTimeoutSeconds+1)*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Type, err)
	}

	return &GormDB{db: db, driver: cfg.Type}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db, driver: db.Dialector.Name()}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

// Driver returns the dialect name (mysql, postgres, sqlite)
func (gdb *GormDB) Driver() string {
	return gdb.driver
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks connectivity within ctx
func (gdb *GormDB) Ping(ctx context.Context) error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats returns connection pool statistics
func (gdb *GormDB) Stats() sql.DBStats {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return sql.DBStats{}
	}
	return sqlDB.Stats()
}

// AllModels lists every table the application owns, parents first
func AllModels() []interface{} {
	return []interface{}{
		&models.Property{},
		&models.ResidentialDetail{},
		&models.PlotDetail{},
		&models.CommercialDetail{},
		&models.PropertyImage{},
		&models.PropertyFeature{},
		&models.PropertyChange{},
		&models.User{},
		&models.UserSession{},
		&models.Partner{},
		&models.Testimonial{},
		&models.Blog{},
		&models.ContactInquiry{},
		&models.VisitorInfo{},
		&models.Log{},
		&models.City{},
		&models.Locality{},
		&models.UnitType{},
		&models.CategoryOption{},
		&models.ApplicationMetric{},
		&models.SystemMetric{},
		&models.TaskFailure{},
		&models.DeleteLog{},
	}
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return Migrate(gdb.db)
}

// Migrate runs AutoMigrate for every model and seeds lookup tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return seedLookups(db)
}

func seedLookups(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.UnitType{}).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			unitTypes := []models.UnitType{
				{Name: "1 RK", DisplayOrder: 1},
				{Name: "1 BHK", DisplayOrder: 2},
				{Name: "2 BHK", DisplayOrder: 3},
				{Name: "3 BHK", DisplayOrder: 4},
				{Name: "4 BHK", DisplayOrder: 5},
				{Name: "5+ BHK", DisplayOrder: 6},
			}
			if err := tx.Create(&unitTypes).Error; err != nil {
				return fmt.Errorf("seed unit types: %w", err)
			}
		}

		if err := tx.Model(&models.CategoryOption{}).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			options := []models.CategoryOption{
				{Name: "Apartment", Category: models.CategoryResidential, DisplayOrder: 1},
				{Name: "Villa", Category: models.CategoryResidential, DisplayOrder: 2},
				{Name: "Independent House", Category: models.CategoryResidential, DisplayOrder: 3},
				{Name: "Residential Plot", Category: models.CategoryPlot, DisplayOrder: 4},
				{Name: "Agricultural Land", Category: models.CategoryPlot, DisplayOrder: 5},
				{Name: "Office Space", Category: models.CategoryCommercial, DisplayOrder: 6},
				{Name: "Shop", Category: models.CategoryCommercial, DisplayOrder: 7},
				{Name: "Warehouse", Category: models.CategoryCommercial, DisplayOrder: 8},
			}
			if err := tx.Create(&options).Error; err != nil {
				return fmt.Errorf("seed categories: %w", err)
			}
		}
		return nil
	})
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent", "off":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}
