// Package metrics exposes Prometheus counters for the conversion pipeline.
package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RecordsConverted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "macs_records_converted_total",
			Help: "Number of canonical records emitted by the joiner",
		},
	)

	OrphanBasenames = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "macs_orphan_basenames_total",
			Help: "Annotation groups with no matching metadata row",
		},
	)

	DuplicateMetadataKeys = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "macs_duplicate_metadata_keys_total",
			Help: "Duplicate basenames found in the metadata table",
		},
	)

	ConversionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "macs_conversion_duration_seconds",
			Help:    "Time taken to run the full convert pipeline",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	SinkPushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "macs_sink_pushes_total",
			Help: "Count of sink write attempts",
		},
		[]string{"sink", "status"},
	)
)

// Register installs the pipeline metrics in the default registry. Call once
// from main.
func Register() {
	prometheus.MustRegister(
		RecordsConverted,
		OrphanBasenames,
		DuplicateMetadataKeys,
		ConversionDuration,
		SinkPushesTotal,
	)
}

// Serve exposes /metrics on addr for the duration of the run. Useful when a
// large conversion or Hub push is being watched from outside.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()
}
