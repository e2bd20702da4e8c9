package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"realty-listings/internal/apperror"
	"realty-listings/internal/geocode"
	"realty-listings/internal/models"
	"realty-listings/internal/response"
	"realty-listings/internal/search"

	"github.com/gin-gonic/gin"
)

// Reindexer rebuilds the search index from the database
type Reindexer interface {
	Reindex(ctx context.Context) (int, error)
}

// SearchHandler serves full-text search and geocoding
type SearchHandler struct {
	index    search.Index
	syncer   Reindexer
	geocoder *geocode.Geocoder
}

// NewSearchHandler accepts a nil index when search is not configured
func NewSearchHandler(index search.Index, syncer Reindexer, geocoder *geocode.Geocoder) *SearchHandler {
	return &SearchHandler{index: index, syncer: syncer, geocoder: geocoder}
}

// Search handles GET /api/search
func (h *SearchHandler) Search(c *gin.Context) {
	if h.index == nil {
		response.Error(c, apperror.Unavailable("Search is not configured"))
		return
	}

	limit, _ := strconv.ParseInt(c.Query("limit"), 10, 64)
	offset, _ := strconv.ParseInt(c.Query("offset"), 10, 64)
	if offset < 0 {
		offset = 0
	}
	req := search.Request{
		Query:  strings.TrimSpace(c.Query("q")),
		Limit:  search.ClampLimit(limit),
		Offset: offset,
		Filter: search.ActiveOnly(),
	}
	if category := c.Query("category"); category != "" {
		if !models.Category(category).Valid() {
			response.Error(c, apperror.Validation("Unknown category %q", category))
			return
		}
		req.Filter = append(req.Filter, "property_category = "+strconv.Quote(category))
	}
	switch c.Query("sort") {
	case "price_asc":
		req.Sort = []string{"price:asc"}
	case "price_desc":
		req.Sort = []string{"price:desc"}
	case "newest":
		req.Sort = []string{"created_at:desc"}
	}

	result, err := h.index.Search(req)
	if err != nil {
		response.Error(c, apperror.Dependency(err, "Search backend unavailable"))
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"query":              req.Query,
		"hits":               result.Hits,
		"total_hits":         result.TotalHits,
		"processing_time_ms": result.ProcessingTime,
		"limit":              req.Limit,
		"offset":             req.Offset,
	})
}

// Reindex handles POST /api/admin/search/reindex
func (h *SearchHandler) Reindex(c *gin.Context) {
	if h.index == nil || h.syncer == nil {
		response.Error(c, apperror.Unavailable("Search is not configured"))
		return
	}
	n, err := h.syncer.Reindex(c.Request.Context())
	if err != nil {
		response.Error(c, apperror.Dependency(err, "Reindex failed"))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"indexed": n})
}

// Geocode handles GET /api/geocode
func (h *SearchHandler) Geocode(c *gin.Context) {
	if h.geocoder == nil {
		response.Error(c, apperror.Unavailable("Geocoding is not configured"))
		return
	}
	result, err := h.geocoder.Lookup(c.Request.Context(), c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
