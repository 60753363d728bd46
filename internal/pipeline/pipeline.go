// Package pipeline runs the full conversion: read the metadata table, parse
// the annotation document, join both by basename and materialize the Arrow
// dataset. It is single-threaded and runs to completion; both sources are
// read-only after construction.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/opencaption/macs2hub/internal/dataset"
	"github.com/opencaption/macs2hub/internal/ingest"
	"github.com/opencaption/macs2hub/internal/metrics"
)

// Options name the three inputs of a conversion run.
type Options struct {
	AudioRoot       string
	MetaPath        string
	AnnotationsPath string
	Fetcher         *ingest.Fetcher
}

// Result carries both the flattened records (for relational sinks) and the
// finished Arrow dataset (for the disk and Hub sinks).
type Result struct {
	Records []ingest.CanonicalRecord
	Dataset *dataset.Dataset
	Orphans int
}

// Run executes the conversion. Any error aborts the run with no partial
// output.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	fetcher := opts.Fetcher
	if fetcher == nil {
		fetcher = ingest.NewFetcher(nil)
	}

	log.Printf("Reading audio metadata from %s", opts.MetaPath)
	meta, err := ingest.LoadMetadata(ctx, fetcher, opts.MetaPath)
	if err != nil {
		return nil, err
	}

	log.Printf("Reading captions from %s", opts.AnnotationsPath)
	groups, err := ingest.LoadAnnotations(ctx, fetcher, opts.AnnotationsPath)
	if err != nil {
		return nil, err
	}

	log.Printf("Processing %d audio files", len(groups))
	records, orphans := ingest.Join(groups, meta, opts.AudioRoot)
	if orphans > 0 {
		log.Printf("%d annotation groups had no matching metadata row", orphans)
	}

	ds, err := dataset.Build(records)
	if err != nil {
		return nil, err
	}

	metrics.RecordsConverted.Add(float64(len(records)))
	metrics.OrphanBasenames.Add(float64(orphans))
	metrics.ConversionDuration.Observe(time.Since(start).Seconds())

	log.Printf("Dataset created with %d samples", ds.NumRows())
	return &Result{Records: records, Dataset: ds, Orphans: orphans}, nil
}
