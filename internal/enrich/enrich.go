// Package enrich adds MODS-derived location and date to export rows, reading
// through a persistent metadata cache so each item is fetched at most once.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/lehigh-university-libraries/dc-export/internal/models"
	"github.com/lehigh-university-libraries/dc-export/internal/mods"
	"github.com/lehigh-university-libraries/dc-export/internal/storage"
)

// MetadataFetcher retrieves the MODS record of an item.
type MetadataFetcher interface {
	MODS(ctx context.Context, uuid string) (*mods.Document, error)
}

// Enricher resolves metadata for rows from the cache or the API.
type Enricher struct {
	store     storage.Store
	fetcher   MetadataFetcher
	extractor *mods.Extractor

	hits    atomic.Int64
	fetches atomic.Int64
}

// New creates an enricher. A nil extractor uses longest-value ranking.
func New(store storage.Store, fetcher MetadataFetcher, extractor *mods.Extractor) *Enricher {
	if extractor == nil {
		extractor = mods.NewExtractor(nil)
	}
	return &Enricher{
		store:     store,
		fetcher:   fetcher,
		extractor: extractor,
	}
}

// Enrich returns row with its location and date set. Cached metadata is used
// when present; otherwise the MODS record is fetched, reduced to metadata and
// cached before the row is returned. Fetch and cache write failures are
// returned without caching anything.
func (e *Enricher) Enrich(ctx context.Context, row models.Row) (models.Row, error) {
	meta, ok, err := e.cached(ctx, row.ID)
	if err != nil {
		return row, err
	}
	if ok {
		e.hits.Add(1)
		slog.Debug("Metadata cache hit", "id", row.ID)
		meta.Apply(&row.Data)
		return row, nil
	}

	doc, err := e.fetcher.MODS(ctx, row.ID)
	if err != nil {
		return row, err
	}
	e.fetches.Add(1)

	meta = e.extractor.Extract(doc)
	value, err := json.Marshal(meta)
	if err != nil {
		return row, fmt.Errorf("failed to encode metadata for %s: %w", row.ID, err)
	}
	if err := e.store.Put(ctx, row.ID, value); err != nil {
		return row, fmt.Errorf("failed to cache metadata for %s: %w", row.ID, err)
	}

	slog.Debug("Fetched metadata", "id", row.ID, "location", meta.Location, "date", meta.Date)

	meta.Apply(&row.Data)
	return row, nil
}

// cached looks up id. A stored value that does not decode is reported as a
// miss so the refetched metadata replaces it; any other storage failure is
// returned.
func (e *Enricher) cached(ctx context.Context, id string) (models.Metadata, bool, error) {
	value, err := e.store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Metadata{}, false, nil
	}
	if err != nil {
		return models.Metadata{}, false, fmt.Errorf("failed to read metadata cache for %s: %w", id, err)
	}

	var meta models.Metadata
	if err := json.Unmarshal(value, &meta); err != nil {
		slog.Warn("Discarding unreadable cache entry", "id", id, "err", err)
		return models.Metadata{}, false, nil
	}
	return meta, true, nil
}

// Hits returns the number of rows served from the cache.
func (e *Enricher) Hits() int64 { return e.hits.Load() }

// Fetches returns the number of MODS records fetched.
func (e *Enricher) Fetches() int64 { return e.fetches.Load() }
