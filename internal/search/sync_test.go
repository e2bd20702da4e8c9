package search_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"realty-listings/internal/property"
	"realty-listings/internal/search"
	"realty-listings/internal/testutil"
	"realty-listings/internal/worker"
)

type fakeIndex struct {
	mu      sync.Mutex
	docs    map[string]search.Document
	upserts int
	fail    error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: make(map[string]search.Document)}
}

func (f *fakeIndex) Upsert(docs []search.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.upserts++
	for _, d := range docs {
		f.docs[idOf(d)] = d
	}
	return nil
}

func (f *fakeIndex) Delete(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, key(id))
	return nil
}

func (f *fakeIndex) Search(search.Request) (*search.Result, error) {
	return &search.Result{}, nil
}

func idOf(d search.Document) string {
	return fmt.Sprint(d["id"])
}

func key(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// inline runs tasks immediately on the caller's goroutine
type inline struct {
	errs []error
}

func (i *inline) Submit(_ string, fn worker.TaskFunc) bool {
	if err := fn(context.Background()); err != nil {
		i.errs = append(i.errs, err)
	}
	return true
}

func setup(t *testing.T) (*property.Service, *fakeIndex, *search.Syncer, *inline) {
	t.Helper()
	db := testutil.NewDB(t)
	props := property.NewService(db)
	idx := newFakeIndex()
	tasks := &inline{}
	syncer := search.NewSyncer(idx, props, tasks)
	props.SetNotifier(syncer)
	return props, idx, syncer, tasks
}

func createListing(t *testing.T, props *property.Service, name string) uint {
	t.Helper()
	var p property.Payload
	p.Name = property.Some(name)
	p.Price = property.Some(1500000.0)
	p.City = property.Some("Pune")
	p.Locality = property.Some("Baner")
	p.Features = &property.FeatureList{"Gym"}
	id, err := props.Create(context.Background(), p)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return id
}

func TestSyncerFollowsMutations(t *testing.T) {
	props, idx, _, tasks := setup(t)

	id := createListing(t, props, "Green Acres")
	doc, ok := idx.docs[key(id)]
	if !ok {
		t.Fatalf("document %d not indexed: %v", id, tasks.errs)
	}
	if doc["name"] != "Green Acres" {
		t.Errorf("name = %v", doc["name"])
	}
	if _, ok := doc["images"]; ok {
		t.Error("images should not be indexed")
	}
	if features, ok := doc["features"].([]any); !ok || len(features) != 1 {
		t.Errorf("features = %v", doc["features"])
	}

	if err := props.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok := idx.docs[key(id)]; ok {
		t.Error("document still indexed after delete")
	}
}

func TestReindex(t *testing.T) {
	props, idx, syncer, _ := setup(t)
	for _, name := range []string{"A", "B", "C"} {
		createListing(t, props, name)
	}
	idx.docs = make(map[string]search.Document)

	n, err := syncer.Reindex(context.Background())
	if err != nil {
		t.Fatalf("Reindex() error = %v", err)
	}
	if n != 3 || len(idx.docs) != 3 {
		t.Errorf("reindexed %d, index holds %d, want 3", n, len(idx.docs))
	}
}

func TestReindexPropagatesIndexErrors(t *testing.T) {
	props, idx, syncer, _ := setup(t)
	createListing(t, props, "A")

	idx.fail = errors.New("meilisearch down")
	if _, err := syncer.Reindex(context.Background()); err == nil {
		t.Error("Reindex() error = nil, want failure")
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int64
	}{
		{0, 20}, {-1, 20}, {5, 5}, {100, 100}, {1000, 100},
	}
	for _, tt := range tests {
		if got := search.ClampLimit(tt.in); got != tt.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
