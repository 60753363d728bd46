package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxFetchBytes bounds remote source downloads.
const maxFetchBytes = 100 * 1024 * 1024

// Fetcher reads source files from local paths, http(s) URLs or s3:// URIs.
type Fetcher struct {
	http     *http.Client
	s3Client *s3.Client
}

// NewFetcher returns a Fetcher. s3Client may be nil when no s3:// sources
// are in play.
func NewFetcher(s3Client *s3.Client) *Fetcher {
	return &Fetcher{
		http:     &http.Client{Timeout: 2 * time.Minute},
		s3Client: s3Client,
	}
}

// Fetch returns the full contents of src. Local read failures surface as
// IOError.
func (f *Fetcher) Fetch(ctx context.Context, src string) ([]byte, error) {
	switch {
	case strings.HasPrefix(src, "s3://"):
		return f.fetchS3(ctx, src)
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		return f.fetchURL(ctx, src)
	default:
		content, err := os.ReadFile(src)
		if err != nil {
			return nil, &IOError{Path: src, Err: err}
		}
		return content, nil
	}
}

func (f *Fetcher) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &IOError{Path: url, Err: err}
	}

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, &IOError{Path: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &IOError{Path: url, Err: fmt.Errorf("download failed with status %d", resp.StatusCode)}
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return nil, &IOError{Path: url, Err: err}
	}
	return content, nil
}

func (f *Fetcher) fetchS3(ctx context.Context, uri string) ([]byte, error) {
	if f.s3Client == nil {
		return nil, &IOError{Path: uri, Err: fmt.Errorf("s3 client not configured")}
	}

	bucket, key, err := parseS3URI(uri)
	if err != nil {
		return nil, &IOError{Path: uri, Err: err}
	}

	out, err := f.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &IOError{Path: uri, Err: err}
	}
	defer out.Body.Close()

	content, err := io.ReadAll(io.LimitReader(out.Body, maxFetchBytes))
	if err != nil {
		return nil, &IOError{Path: uri, Err: err}
	}
	return content, nil
}

// parseS3URI splits s3://bucket/key into bucket and key.
func parseS3URI(uri string) (bucket, key string, err error) {
	rest := strings.TrimPrefix(uri, "s3://")
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid s3 URI: %s", uri)
	}
	return parts[0], parts[1], nil
}
