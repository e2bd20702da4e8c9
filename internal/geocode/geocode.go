// Package geocode resolves free-text addresses to coordinates through an
// upstream service, caching answers and failing fast while the upstream is down.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"realty-listings/internal/apperror"
	"realty-listings/internal/config"
	"realty-listings/internal/metrics"

	"github.com/rs/zerolog/log"
	gobreaker "github.com/sony/gobreaker/v2"
)

// ErrNoMatch is returned by an Upstream when the query has no result
var ErrNoMatch = errors.New("no geocoding match")

// Result is one resolved location
type Result struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
	Cached      bool    `json:"cached"`
}

// Upstream performs the actual lookup
type Upstream interface {
	Lookup(ctx context.Context, query string) (*Result, error)
}

// Nominatim queries an OpenStreetMap Nominatim-compatible search endpoint
type Nominatim struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

func NewNominatim(cfg config.GeocodingConfig) *Nominatim {
	return &Nominatim{
		endpoint:  cfg.Endpoint,
		userAgent: cfg.UserAgent,
		client:    &http.Client{Timeout: cfg.Timeout()},
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

func (n *Nominatim) Lookup(ctx context.Context, query string) (*Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoding upstream returned status %d", resp.StatusCode)
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("failed to decode geocoding response: %w", err)
	}
	if len(places) == 0 {
		return nil, ErrNoMatch
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("bad latitude %q: %w", places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("bad longitude %q: %w", places[0].Lon, err)
	}
	return &Result{Lat: lat, Lon: lon, DisplayName: places[0].DisplayName}, nil
}

// Geocoder answers lookups from the cache, then the upstream behind a
// circuit breaker
type Geocoder struct {
	cache    Cache
	upstream Upstream
	ttl      time.Duration
	breaker  *gobreaker.CircuitBreaker[*Result]
}

func NewGeocoder(cache Cache, upstream Upstream, ttl time.Duration) *Geocoder {
	settings := gobreaker.Settings{
		Name:        "geocode",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// a query without a match says nothing about upstream health
			return err == nil || errors.Is(err, ErrNoMatch)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	}
	return &Geocoder{
		cache:    cache,
		upstream: upstream,
		ttl:      ttl,
		breaker:  gobreaker.NewCircuitBreaker[*Result](settings),
	}
}

// CacheKey normalises a query for cache lookups
func CacheKey(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// Lookup resolves query
func (g *Geocoder) Lookup(ctx context.Context, query string) (*Result, error) {
	key := CacheKey(query)
	if key == "" {
		return nil, apperror.Validation("Query parameter q is required")
	}

	if raw, ok, err := g.cache.Get(ctx, key); err != nil {
		log.Warn().Err(err).Msg("geocode cache read failed")
	} else if ok {
		var res Result
		if err := json.Unmarshal([]byte(raw), &res); err == nil {
			metrics.GeocodeCacheHits.Inc()
			res.Cached = true
			return &res, nil
		}
	}
	metrics.GeocodeCacheMisses.Inc()

	res, err := g.breaker.Execute(func() (*Result, error) {
		return g.upstream.Lookup(ctx, query)
	})
	switch {
	case errors.Is(err, ErrNoMatch):
		return nil, apperror.NotFound("No location found for %q", query)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, apperror.Dependency(err, "Geocoding temporarily unavailable")
	case err != nil:
		return nil, apperror.Dependency(err, "Geocoding failed")
	}

	if b, err := json.Marshal(res); err == nil {
		if err := g.cache.Set(ctx, key, string(b), g.ttl); err != nil {
			log.Warn().Err(err).Msg("geocode cache write failed")
		}
	}
	return res, nil
}

// State reports the breaker state, for health output
func (g *Geocoder) State() string {
	return g.breaker.State().String()
}
