package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"realty-listings/internal/apperror"
	"realty-listings/internal/metrics"
	"realty-listings/internal/property"
	"realty-listings/internal/worker"

	"github.com/rs/zerolog/log"
)

const reindexBatch = 100

// Submitter queues background work
type Submitter interface {
	Submit(name string, fn worker.TaskFunc) bool
}

// Syncer keeps the index in step with the database. It implements
// property.Notifier.
type Syncer struct {
	index Index
	props *property.Service
	tasks Submitter
}

func NewSyncer(index Index, props *property.Service, tasks Submitter) *Syncer {
	return &Syncer{index: index, props: props, tasks: tasks}
}

// ToDocument flattens a listing view into an index document
func ToDocument(v *property.View) (Document, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	// images are served from the database, not the index
	delete(doc, "images")
	return doc, nil
}

func (s *Syncer) PropertySaved(id uint) {
	name := worker.TaskName("search_upsert", id)
	if !s.tasks.Submit(name, func(ctx context.Context) error { return s.upsert(ctx, id) }) {
		log.Warn().Uint("property_id", id).Msg("search upsert not queued")
	}
}

func (s *Syncer) PropertyDeleted(id uint) {
	name := worker.TaskName("search_delete", id)
	if !s.tasks.Submit(name, func(ctx context.Context) error { return s.remove(id) }) {
		log.Warn().Uint("property_id", id).Msg("search delete not queued")
	}
}

func (s *Syncer) upsert(ctx context.Context, id uint) error {
	view, err := s.props.Get(ctx, id)
	if apperror.Is(err, apperror.KindNotFound) {
		// deleted before the task ran
		return s.remove(id)
	}
	if err != nil {
		return err
	}
	doc, err := ToDocument(view)
	if err != nil {
		return err
	}
	err = s.index.Upsert([]Document{doc})
	observe("upsert", err)
	return err
}

func (s *Syncer) remove(id uint) error {
	err := s.index.Delete(id)
	observe("delete", err)
	return err
}

// Reindex pushes every listing to the index and returns how many were sent
func (s *Syncer) Reindex(ctx context.Context) (int, error) {
	batch := make([]Document, 0, reindexBatch)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := s.index.Upsert(batch)
		observe("reindex", err)
		if err != nil {
			return fmt.Errorf("upsert batch: %w", err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	err := s.props.Each(ctx, reindexBatch, func(v *property.View) error {
		doc, err := ToDocument(v)
		if err != nil {
			return err
		}
		batch = append(batch, doc)
		if len(batch) >= reindexBatch {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}

	log.Info().Int("documents", total).Msg("search reindex complete")
	return total, nil
}

func observe(op string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	metrics.SearchIndexOps.WithLabelValues(op, result).Inc()
}
