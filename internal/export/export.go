// Package export runs the collection export pipeline:
//
//	collections -> captures -> rows -> enrichment -> sink
//
// Captures are listed one collection at a time. Enrichment runs on a bounded
// worker group; results are written strictly in capture order, and the first
// error from any stage stops the run.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/dc-export/internal/collections"
	"github.com/lehigh-university-libraries/dc-export/internal/models"
	"github.com/lehigh-university-libraries/dc-export/internal/rows"
	"github.com/lehigh-university-libraries/dc-export/internal/sink"
	"golang.org/x/sync/errgroup"
)

// CaptureSource lists the captures of a collection in order.
type CaptureSource interface {
	Captures(ctx context.Context, uuid string, fn func(models.Capture) error) error
}

// RowEnricher adds metadata to a row.
type RowEnricher interface {
	Enrich(ctx context.Context, row models.Row) (models.Row, error)
}

// Exporter wires the pipeline stages together.
type Exporter struct {
	Source   CaptureSource
	Rows     *rows.Builder
	Enricher RowEnricher
	Sink     sink.Sink

	// Concurrency bounds the number of enrichments in flight. Values below
	// one are treated as one.
	Concurrency int
}

type result struct {
	row models.Row
	err error
}

// Run exports every included collection and returns the run statistics.
// Rows written before a failure stay written.
func (e *Exporter) Run(ctx context.Context, list []models.Collection) (Stats, error) {
	limit := max(e.Concurrency, 1)
	start := time.Now()

	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	// Each queued channel delivers one row's enrichment result. The queue
	// holds rows in capture order, so the writer emits them in that order
	// whatever order enrichments finish in.
	queue := make(chan chan result, limit)

	var workers errgroup.Group
	workers.SetLimit(limit)

	g.Go(func() error {
		defer func() {
			_ = workers.Wait()
			close(queue)
		}()

		for collection := range collections.Included(list) {
			stats.Collections++
			slog.Info("Exporting collection", "uuid", collection.UUID, "title", collection.Title)

			err := e.Source.Captures(gctx, collection.UUID, func(capture models.Capture) error {
				stats.Captures++
				if !rows.IsRepresentative(capture) {
					return nil
				}
				stats.Representative++

				capture.CollectionID = collection.UUID
				row := e.Rows.Build(capture)

				res := make(chan result, 1)
				workers.Go(func() error {
					enriched, err := e.Enricher.Enrich(gctx, row)
					res <- result{row: enriched, err: err}
					return nil
				})

				select {
				case queue <- res:
					return nil
				case <-gctx.Done():
					return gctx.Err()
				}
			})
			if err != nil {
				return fmt.Errorf("failed to export collection %s: %w", collection.UUID, err)
			}
		}
		return nil
	})

	g.Go(func() error {
		for res := range queue {
			r := <-res
			if r.err != nil {
				return fmt.Errorf("failed to enrich %s: %w", r.row.ID, r.err)
			}
			if err := e.Sink.Write(r.row); err != nil {
				return err
			}
			stats.Written++
			slog.Debug("Wrote row", "id", r.row.ID, "collection", r.row.CollectionID)
		}
		return nil
	})

	err := g.Wait()
	stats.Duration = time.Since(start)
	if c, ok := e.Enricher.(counter); ok {
		stats.CacheHits = c.Hits()
		stats.Fetches = c.Fetches()
	}
	return stats, err
}
