package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"realty-listings/internal/auth"
	"realty-listings/internal/cleanup"
	"realty-listings/internal/config"
	"realty-listings/internal/database"
	"realty-listings/internal/geocode"
	"realty-listings/internal/handlers"
	"realty-listings/internal/logging"
	"realty-listings/internal/metrics"
	"realty-listings/internal/notify"
	"realty-listings/internal/property"
	"realty-listings/internal/ratelimit"
	"realty-listings/internal/router"
	"realty-listings/internal/scheduler"
	"realty-listings/internal/search"
	"realty-listings/internal/storage"
	"realty-listings/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	configPath := getEnv("CONFIG_PATH", "config.yaml")
	appConfig, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("invalid configuration")
	}

	logging.Init(logging.Config{
		Level:  appConfig.Logging.Level,
		Format: appConfig.Logging.Format,
	})
	log.Info().Str("path", configPath).Str("db_type", appConfig.Database.Type).Msg("configuration loaded")

	gin.SetMode(appConfig.Server.Mode)

	// Database
	gormDB, err := database.Open(appConfig.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database (check DB_TYPE, DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}
	defer gormDB.Close()

	if err := gormDB.InitSchema(); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize schema")
	}
	db := gormDB.DB()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	authService := auth.NewService(db, appConfig.Auth)
	if err := authService.EnsureAdmin(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to bootstrap admin user")
	}

	// Background work
	pool := worker.NewPool(worker.Options{
		Workers:     appConfig.Worker.Workers,
		QueueSize:   appConfig.Worker.QueueSize,
		MaxAttempts: appConfig.Worker.MaxAttempts,
		DeadLetter:  worker.DBDeadLetter(db),
	})
	pool.Start()
	go func() {
		for f := range pool.Failures() {
			log.Error().Str("task", f.Task).Int("attempts", f.Attempts).Err(f.Err).Msg("background task failed permanently")
		}
	}()

	propertyService := property.NewService(db)

	// Search (optional)
	var (
		index       search.Index
		syncer      *search.Syncer
		searchProbe func() bool
	)
	if host := appConfig.Search.Meilisearch.Host; host != "" {
		client := search.NewSearchClient(host, appConfig.Search.Meilisearch.APIKey, appConfig.Search.Meilisearch.Index)
		if err := client.InitIndex(); err != nil {
			log.Warn().Err(err).Msg("failed to initialize search index")
		}
		index = client
		searchProbe = client.Healthy
		syncer = search.NewSyncer(client, propertyService, pool)
		propertyService.SetNotifier(syncer)
		log.Info().Str("host", host).Msg("search enabled")
	} else {
		log.Info().Msg("MEILISEARCH_HOST not set, search disabled")
	}

	// Geocoding with Redis cache, falling back to memory
	var (
		geoCache    geocode.Cache
		memoryCache *geocode.MemoryCache
	)
	if url := appConfig.Redis.URL; url != "" {
		client, err := geocode.OpenRedis(ctx, url)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, using in-memory geocode cache")
		} else {
			defer client.Close()
			geoCache = geocode.NewRedisCache(client)
		}
	}
	if geoCache == nil {
		memoryCache = geocode.NewMemoryCache()
		geoCache = memoryCache
	}
	geocoder := geocode.NewGeocoder(geoCache, geocode.NewNominatim(appConfig.Geocoding), appConfig.Geocoding.CacheTTL())

	// Inquiry email
	mailer := notify.NewMailer(appConfig.Email)
	inquiryNotifier := notify.NewInquiryNotifier(db, mailer, appConfig.Email.NotifyAddress)

	// Metrics and rate limiting
	recorder := metrics.NewRecorder(db, 1000)
	rateLimiter := ratelimit.NewRateLimiter(
		appConfig.RateLimit.RequestsPerMinute,
		appConfig.RateLimit.RequestsPerHour,
		appConfig.RateLimit.Enabled,
	)
	log.Info().
		Int("per_minute", appConfig.RateLimit.RequestsPerMinute).
		Int("per_hour", appConfig.RateLimit.RequestsPerHour).
		Bool("enabled", appConfig.RateLimit.Enabled).
		Msg("rate limiter initialized")

	// Scheduler
	pruners := []scheduler.Pruner{rateLimiter}
	if memoryCache != nil {
		pruners = append(pruners, memoryCache)
	}
	appScheduler := scheduler.NewScheduler(appConfig.Scheduler, scheduler.Jobs{
		Sessions:  authService,
		System:    metrics.NewSystemSampler(db, pool.QueueDepth),
		Requests:  recorder,
		Retention: cleanup.NewService(db),
		Pruners:   pruners,
	})
	if err := appScheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	if err := handlers.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	images := storage.NewImageStore(appConfig.Storage.ImageDir, appConfig.Storage.URLPrefix, appConfig.Storage.MaxUploadMB)

	var reindexer handlers.Reindexer
	if syncer != nil {
		reindexer = syncer
	}

	engine := router.New(router.Options{
		CORSOrigins:    appConfig.Server.CORSOrigins,
		LogRequests:    appConfig.Logging.LogRequests,
		ImageDir:       images.Dir(),
		ImageURLPrefix: images.URLPrefix(),
		Recorder:       recorder,
		Limiter:        rateLimiter,
		Auth:           authService,
	}, router.Handlers{
		Health:     handlers.NewHealthHandler(gormDB, searchProbe, geocoder.State),
		Auth:       handlers.NewAuthHandler(authService),
		Properties: handlers.NewPropertyHandler(propertyService, images),
		Search:     handlers.NewSearchHandler(index, reindexer, geocoder),
		Content:    handlers.NewContentHandler(db),
		Inquiries:  handlers.NewInquiryHandler(db, inquiryNotifier, pool),
		Taxonomy:   handlers.NewTaxonomyHandler(db),
		Logs:       handlers.NewLogHandler(db),
		Admin:      handlers.NewAdminHandler(db, appScheduler, recorder),
	})

	srv := &http.Server{
		Addr:              ":" + appConfig.Server.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConfig.Server.ShutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	appScheduler.Stop(shutdownCtx)
	if err := pool.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("worker pool shutdown")
	}
	if n, err := recorder.Flush(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("final metrics flush failed")
	} else if n > 0 {
		log.Info().Int("rows", n).Msg("request metrics flushed")
	}
	log.Info().Msg("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
