package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meilisearch/meilisearch-go"
)

// ErrDisabled is returned when no search host is configured
var ErrDisabled = errors.New("search is not configured")

// Document is one listing as stored in the index
type Document map[string]any

// Index is the subset of a search engine the API needs
type Index interface {
	Upsert(docs []Document) error
	Delete(id uint) error
	Search(req Request) (*Result, error)
}

type SearchClient struct {
	client *meilisearch.Client
	index  string
}

func NewSearchClient(host, apiKey, index string) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	if index == "" {
		index = "properties"
	}

	return &SearchClient{
		client: client,
		index:  index,
	}
}

// Healthy reports whether the server answers
func (s *SearchClient) Healthy() bool {
	return s.client.IsHealthy()
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && !strings.Contains(err.Error(), "already exists") {
		return fmt.Errorf("create index: %w", err)
	}

	idx := s.client.Index(s.index)
	if _, err := idx.UpdateSearchableAttributes(&[]string{
		"name",
		"city",
		"locality",
		"location",
		"property_type",
		"description",
		"features",
	}); err != nil {
		return fmt.Errorf("searchable attributes: %w", err)
	}

	if _, err := idx.UpdateFilterableAttributes(&[]string{
		"property_category",
		"property_type",
		"status",
		"city",
		"price",
		"is_featured",
		"is_active",
	}); err != nil {
		return fmt.Errorf("filterable attributes: %w", err)
	}

	if _, err := idx.UpdateSortableAttributes(&[]string{
		"price",
		"created_at",
	}); err != nil {
		return fmt.Errorf("sortable attributes: %w", err)
	}

	return nil
}

// Upsert adds or replaces documents by id
func (s *SearchClient) Upsert(docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	_, err := s.client.Index(s.index).AddDocuments(docs, "id")
	return err
}

// Delete removes one document
func (s *SearchClient) Delete(id uint) error {
	_, err := s.client.Index(s.index).DeleteDocument(fmt.Sprint(id))
	return err
}

// Request represents search parameters
type Request struct {
	Query  string
	Limit  int64
	Offset int64
	Filter []string
	Sort   []string
}

// Result is a page of hits
type Result struct {
	Hits           []any `json:"hits"`
	TotalHits      int64 `json:"total_hits"`
	ProcessingTime int64 `json:"processing_time_ms"`
}

// Search performs a query with optional filters and sorting
func (s *SearchClient) Search(req Request) (*Result, error) {
	req.Limit = ClampLimit(req.Limit)

	searchReq := &meilisearch.SearchRequest{
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	if len(req.Filter) > 0 {
		searchReq.Filter = strings.Join(req.Filter, " AND ")
	}
	if len(req.Sort) > 0 {
		searchReq.Sort = req.Sort
	}

	res, err := s.client.Index(s.index).Search(req.Query, searchReq)
	if err != nil {
		return nil, err
	}

	hits := res.Hits
	if hits == nil {
		hits = []any{}
	}
	return &Result{
		Hits:           hits,
		TotalHits:      res.EstimatedTotalHits,
		ProcessingTime: res.ProcessingTimeMs,
	}, nil
}

// ClampLimit applies the default (20) and maximum (100) hit count
func ClampLimit(limit int64) int64 {
	if limit <= 0 {
		return 20
	}
	if limit > 100 {
		return 100
	}
	return limit
}

// ActiveOnly is the filter public searches use
func ActiveOnly() []string {
	return []string{"is_active = true"}
}
