// Package router wires the handlers into a gin engine.
package router

import (
	"net/http"
	"time"

	"realty-listings/internal/handlers"
	"realty-listings/internal/metrics"
	"realty-listings/internal/middleware"
	"realty-listings/internal/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups the resource handlers
type Handlers struct {
	Health     *handlers.HealthHandler
	Auth       *handlers.AuthHandler
	Properties *handlers.PropertyHandler
	Search     *handlers.SearchHandler
	Content    *handlers.ContentHandler
	Inquiries  *handlers.InquiryHandler
	Taxonomy   *handlers.TaxonomyHandler
	Logs       *handlers.LogHandler
	Admin      *handlers.AdminHandler
}

// Options configures the engine
type Options struct {
	CORSOrigins    []string
	LogRequests    bool
	ImageDir       string
	ImageURLPrefix string
	Recorder       *metrics.Recorder
	Limiter        *ratelimit.RateLimiter
	Auth           middleware.Authenticator
}

// corsConfig allows the configured site origins, or any origin without
// credentials when none are configured
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.SessionTokenHeader, middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

const disabledPath = "This endpoint is disabled. Use /api/properties instead."

// New builds the engine with every route registered
func New(opts Options, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(opts.LogRequests))
	r.Use(middleware.Recovery())
	r.Use(middleware.Metrics(opts.Recorder))

	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	if opts.ImageDir != "" {
		prefix := opts.ImageURLPrefix
		if prefix == "" {
			prefix = "/images"
		}
		r.Static(prefix, opts.ImageDir)
	}

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limited := middleware.RateLimit(opts.Limiter)
	requireAdmin := middleware.RequireAdmin(opts.Auth)

	api := r.Group("/api")

	// Auth
	api.POST("/auth/login", limited, h.Auth.Login)
	api.POST("/auth/logout", h.Auth.Logout)
	api.GET("/auth/check-session", h.Auth.CheckSession)

	// Public reads
	api.GET("/properties", h.Properties.List)
	api.GET("/properties/:id", h.Properties.Get)
	api.GET("/search", h.Search.Search)
	api.GET("/geocode", h.Search.Geocode)
	api.GET("/partners", h.Content.ListPartners)
	api.GET("/testimonials", h.Content.ListTestimonials)
	api.GET("/blogs", h.Content.ListBlogs)
	api.GET("/blogs/:id", h.Content.GetBlog)
	api.GET("/cities", h.Taxonomy.ListCities)
	api.GET("/localities", h.Taxonomy.ListLocalities)
	api.GET("/unit-types", h.Taxonomy.ListUnitTypes)
	api.GET("/categories", h.Taxonomy.ListCategories)

	// Public writes
	api.POST("/contact", limited, h.Inquiries.Contact)
	api.POST("/testimonials", limited, h.Content.SubmitTestimonial)
	api.POST("/visitors", limited, h.Inquiries.RecordVisitor)
	api.POST("/logs", h.Logs.Ingest)

	// Alternate per-category write paths are switched off
	api.POST("/residential-properties", middleware.Forbidden(disabledPath))
	api.POST("/plot-properties", middleware.Forbidden(disabledPath))
	api.POST("/commercial-properties", middleware.Forbidden(disabledPath))

	protected := api.Group("", requireAdmin)
	{
		protected.POST("/properties", h.Properties.Create)
		protected.POST("/properties/:id", h.Properties.Update)
		protected.PUT("/properties/:id", h.Properties.Update)
		protected.DELETE("/properties/:id", h.Properties.Delete)
		protected.POST("/upload-image", h.Properties.UploadImage)

		protected.POST("/partners", h.Content.CreatePartner)
		protected.PUT("/partners/:id", h.Content.UpdatePartner)
		protected.DELETE("/partners/:id", h.Content.DeletePartner)

		protected.PUT("/testimonials/:id", h.Content.UpdateTestimonial)
		protected.DELETE("/testimonials/:id", h.Content.DeleteTestimonial)

		protected.POST("/blogs", h.Content.CreateBlog)
		protected.PUT("/blogs/:id", h.Content.UpdateBlog)
		protected.DELETE("/blogs/:id", h.Content.DeleteBlog)

		protected.GET("/contact", h.Inquiries.ListInquiries)
		protected.PUT("/contact/:id", h.Inquiries.UpdateInquiryStatus)
		protected.DELETE("/contact/:id", h.Inquiries.DeleteInquiry)
		protected.GET("/visitors", h.Inquiries.ListVisitors)

		protected.POST("/cities", h.Taxonomy.CreateCity)
		protected.PUT("/cities/:id", h.Taxonomy.UpdateCity)
		protected.DELETE("/cities/:id", h.Taxonomy.DeleteCity)
		protected.POST("/localities", h.Taxonomy.CreateLocality)
		protected.PUT("/localities/:id", h.Taxonomy.UpdateLocality)
		protected.DELETE("/localities/:id", h.Taxonomy.DeleteLocality)
		protected.POST("/unit-types", h.Taxonomy.CreateUnitType)
		protected.PUT("/unit-types/:id", h.Taxonomy.UpdateUnitType)
		protected.DELETE("/unit-types/:id", h.Taxonomy.DeleteUnitType)
		protected.POST("/categories", h.Taxonomy.CreateCategory)
		protected.PUT("/categories/:id", h.Taxonomy.UpdateCategory)
		protected.DELETE("/categories/:id", h.Taxonomy.DeleteCategory)

		protected.GET("/logs", h.Logs.List)
		protected.DELETE("/logs", h.Logs.Purge)
	}

	admin := api.Group("/admin", requireAdmin)
	{
		// Statistics
		admin.GET("/stats/overview", h.Admin.GetOverview)
		admin.GET("/stats/properties", h.Admin.GetPropertyStats)
		admin.GET("/stats/inquiries", h.Admin.GetInquiryStats)
		admin.GET("/stats/visitors", h.Admin.GetVisitorStats)
		admin.GET("/application-metrics", h.Admin.GetApplicationMetrics)
		admin.GET("/system-metrics", h.Admin.GetSystemMetrics)
		admin.GET("/task-failures", h.Admin.GetTaskFailures)

		// Moderation views
		admin.GET("/partners", h.Content.ListAllPartners)
		admin.GET("/testimonials", h.Content.ListAllTestimonials)
		admin.POST("/testimonials", h.Content.CreateTestimonial)
		admin.GET("/blogs", h.Content.ListAllBlogs)

		// Property history
		admin.GET("/properties/:id/history", h.Admin.GetPropertyHistory)
		admin.GET("/changes/recent", h.Admin.GetRecentChanges)

		// Search
		admin.POST("/search/reindex", h.Search.Reindex)

		// Cleanup operations
		admin.GET("/cleanup/scan", h.Admin.ScanIntegrity)
		admin.POST("/cleanup/run", h.Admin.RunCleanup)
		admin.GET("/cleanup/logs", h.Admin.GetDeleteLogs)

		// Maintenance jobs
		admin.POST("/jobs/:name/run", h.Admin.RunJob)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "not_found", "message": "Route not found"}})
	})

	return r
}
