// Command idcleanup scans the listing tables for integrity faults and,
// with -apply, deletes the repairable rows.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"realty-listings/internal/cleanup"
	"realty-listings/internal/config"
	"realty-listings/internal/database"
	"realty-listings/internal/logging"

	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", getEnv("CONFIG_PATH", "config.yaml"), "config file")
	apply := flag.Bool("apply", false, "delete repairable rows (default is a dry run)")
	maxDeletes := flag.Int("max", cleanup.DefaultCleanupConfig().MaxDeletionCount, "abort when more rows than this would be deleted")
	scanOnly := flag.Bool("scan", false, "only list faults as JSON")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall timeout")
	flag.Parse()

	appConfig, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: appConfig.Logging.Level, Format: "console"})

	gormDB, err := database.Open(appConfig.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer gormDB.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	svc := cleanup.NewService(gormDB.DB())
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if *scanOnly {
		faults, err := svc.Scan(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("scan failed")
		}
		_ = enc.Encode(faults)
		return
	}

	result, err := svc.Repair(ctx, cleanup.CleanupConfig{
		MaxDeletionCount: *maxDeletes,
		DryRun:           !*apply,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("repair failed")
	}
	_ = enc.Encode(result)
	if result.ErrorCount > 0 {
		os.Exit(1)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
