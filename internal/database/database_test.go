package database_test

import (
	"strings"
	"testing"

	"realty-listings/internal/config"
	"realty-listings/internal/database"
	"realty-listings/internal/models"
	"realty-listings/internal/testutil"
)

func TestMySQLDSN(t *testing.T) {
	cfg := config.DefaultConfig().Database
	cfg.MySQL = config.MySQLConfig{Host: "db", Port: 3307, User: "app", Password: "secret", Database: "realty"}

	dsn := database.MySQLDSN(cfg)

	tests := []struct {
		name string
		want string
	}{
		{"address", "app:secret@tcp(db:3307)/realty?"},
		{"parse time", "parseTime=True"},
		{"utc", "loc=UTC"},
		{"connect timeout", "timeout=10s"},
		{"read timeout", "readTimeout=30s"},
		{"write timeout", "writeTimeout=30s"},
		{"isolation", "transaction_isolation=%27READ-COMMITTED%27"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(dsn, tt.want) {
				t.Errorf("dsn %q does not contain %q", dsn, tt.want)
			}
		})
	}
}

func TestMySQLDSNDefaultPort(t *testing.T) {
	cfg := config.DefaultConfig().Database
	cfg.MySQL = config.MySQLConfig{Host: "localhost", User: "u", Database: "d"}
	if dsn := database.MySQLDSN(cfg); !strings.Contains(dsn, "tcp(localhost:3306)") {
		t.Errorf("expected default port 3306 in %q", dsn)
	}
}

func TestPostgresConnString(t *testing.T) {
	cfg := config.DefaultConfig().Database
	cfg.Postgres = config.PostgresConfig{Host: "pg", User: "app", Password: "pw", Database: "realty"}

	got := database.PostgresConnString(cfg)
	for _, want := range []string{"host=pg", "port=5432", "dbname=realty", "sslmode=disable", "connect_timeout=10"} {
		if !strings.Contains(got, want) {
			t.Errorf("conn string %q missing %q", got, want)
		}
	}
}

func TestMigrateSeedsLookupsOnce(t *testing.T) {
	db := testutil.NewDB(t)

	var unitTypes, options int64
	db.Model(&models.UnitType{}).Count(&unitTypes)
	db.Model(&models.CategoryOption{}).Count(&options)
	if unitTypes == 0 || options == 0 {
		t.Fatalf("expected seeded lookups, got unit_types=%d categories=%d", unitTypes, options)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var again int64
	db.Model(&models.UnitType{}).Count(&again)
	if again != unitTypes {
		t.Errorf("unit types reseeded: %d -> %d", unitTypes, again)
	}
}

func TestAllModelsHaveTables(t *testing.T) {
	db := testutil.NewDB(t)
	for _, m := range database.AllModels() {
		if !db.Migrator().HasTable(m) {
			t.Errorf("missing table for %T", m)
		}
	}
}
