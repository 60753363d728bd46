// Command macs2hub converts a raw MACS audio-captioning release (audio
// directory, metadata table, YAML annotation document) into a schema-typed
// Arrow dataset, saved locally and/or pushed to a HuggingFace Hub dataset
// repository.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/opencaption/macs2hub/internal/catalog"
	"github.com/opencaption/macs2hub/internal/hub"
	"github.com/opencaption/macs2hub/internal/ingest"
	"github.com/opencaption/macs2hub/internal/metrics"
	"github.com/opencaption/macs2hub/internal/pipeline"
)

type options struct {
	AudioRoot   string
	MetaCSV     string
	YAMLFile    string
	OutDir      string
	PushToHub   string
	Private     bool
	HFToken     string
	HFBranch    string
	DatabaseURL string
	MetricsAddr string
}

func main() {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "macs2hub",
		Short: "Convert a MACS release into a streaming-ready dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.AudioRoot, "audio-root", "", "directory that contains the WAV files")
	flags.StringVar(&opts.MetaCSV, "meta-csv", "", "metadata table (tab-, comma- or semicolon-separated, or Excel)")
	flags.StringVar(&opts.YAMLFile, "yaml-file", "", "annotation document with captions and tags")
	flags.StringVar(&opts.OutDir, "out-dir", "macs_hf", "where to write the processed dataset")
	flags.StringVar(&opts.PushToHub, "push-to-hub", "", "push to the Hub after conversion (e.g. 'username/MACS_captions')")
	flags.BoolVar(&opts.Private, "private", false, "mark the Hub repo as private (only with --push-to-hub)")
	flags.StringVar(&opts.HFToken, "hf-token", os.Getenv("HF_TOKEN"), "HuggingFace access token")
	flags.StringVar(&opts.HFBranch, "hf-branch", getEnv("HF_BRANCH", "main"), "Hub branch to commit to")
	flags.StringVar(&opts.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "optional Postgres DSN for the record catalog")
	flags.StringVar(&opts.MetricsAddr, "metrics-addr", "", "optional address to expose Prometheus metrics on during the run")

	cobra.CheckErr(cmd.MarkFlagRequired("audio-root"))
	cobra.CheckErr(cmd.MarkFlagRequired("meta-csv"))
	cobra.CheckErr(cmd.MarkFlagRequired("yaml-file"))

	if err := cmd.Execute(); err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}
}

func run(ctx context.Context, opts *options) error {
	if err := validateOptions(opts); err != nil {
		return err
	}

	metrics.Register()
	if opts.MetricsAddr != "" {
		metrics.Serve(opts.MetricsAddr)
	}

	fetcher, err := buildFetcher(ctx, opts)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx, pipeline.Options{
		AudioRoot:       opts.AudioRoot,
		MetaPath:        opts.MetaCSV,
		AnnotationsPath: opts.YAMLFile,
		Fetcher:         fetcher,
	})
	if err != nil {
		return err
	}
	defer result.Dataset.Release()

	if opts.OutDir != "" {
		log.Printf("Saving dataset to %s", opts.OutDir)
		if err := result.Dataset.SaveToDisk(opts.OutDir); err != nil {
			metrics.SinkPushesTotal.WithLabelValues("disk", "error").Inc()
			return err
		}
		metrics.SinkPushesTotal.WithLabelValues("disk", "ok").Inc()
	}

	if opts.DatabaseURL != "" {
		log.Printf("Writing record catalog")
		cat, err := catalog.Open(ctx, opts.DatabaseURL)
		if err != nil {
			return err
		}
		defer cat.Close()
		if err := cat.StoreRecords(ctx, result.Records); err != nil {
			metrics.SinkPushesTotal.WithLabelValues("catalog", "error").Inc()
			return err
		}
		metrics.SinkPushesTotal.WithLabelValues("catalog", "ok").Inc()
	}

	if opts.PushToHub != "" {
		log.Printf("Pushing to HuggingFace Hub: %s", opts.PushToHub)
		client := hub.NewClient(opts.PushToHub, opts.HFToken, opts.HFBranch)
		if err := client.PushDataset(ctx, result.Dataset, opts.Private); err != nil {
			metrics.SinkPushesTotal.WithLabelValues("hub", "error").Inc()
			return err
		}
		metrics.SinkPushesTotal.WithLabelValues("hub", "ok").Inc()
	}

	log.Printf("Conversion completed successfully")
	return nil
}

// validateOptions enforces the CLI contract before any work starts.
func validateOptions(opts *options) error {
	if opts.Private && opts.PushToHub == "" {
		return fmt.Errorf("--private can only be used with --push-to-hub")
	}
	if opts.PushToHub != "" && opts.HFToken == "" {
		return fmt.Errorf("--push-to-hub requires --hf-token or HF_TOKEN")
	}

	if info, err := os.Stat(opts.AudioRoot); err != nil || !info.IsDir() {
		return fmt.Errorf("audio root directory does not exist: %s", opts.AudioRoot)
	}
	for _, src := range []string{opts.MetaCSV, opts.YAMLFile} {
		if isRemote(src) {
			continue
		}
		if _, err := os.Stat(src); err != nil {
			return fmt.Errorf("input file does not exist: %s", src)
		}
	}
	return nil
}

func isRemote(src string) bool {
	return strings.HasPrefix(src, "s3://") ||
		strings.HasPrefix(src, "http://") ||
		strings.HasPrefix(src, "https://")
}

// buildFetcher wires an S3 client only when an s3:// source is in play.
func buildFetcher(ctx context.Context, opts *options) (*ingest.Fetcher, error) {
	needsS3 := strings.HasPrefix(opts.MetaCSV, "s3://") || strings.HasPrefix(opts.YAMLFile, "s3://")
	if !needsS3 {
		return ingest.NewFetcher(nil), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(getEnv("S3_REGION", "us-east-1")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Opts := []func(*s3.Options){}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		// For MinIO/testing
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
			o.UsePathStyle = true
		})
	}

	return ingest.NewFetcher(s3.NewFromConfig(awsCfg, s3Opts...)), nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
