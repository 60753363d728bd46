package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.csv")
	if err := os.WriteFile(path, []byte("filename,scene_label\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	f := NewFetcher(nil)
	content, err := f.Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(content) != "filename,scene_label\n" {
		t.Errorf("content = %q", content)
	}
}

func TestFetchMissingFile(t *testing.T) {
	f := NewFetcher(nil)
	_, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("IOError should wrap the underlying os error, got %v", err)
	}
}

func TestFetchHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("files: []\n"))
	}))
	defer srv.Close()

	f := NewFetcher(nil)
	content, err := f.Fetch(context.Background(), srv.URL+"/MACS.yaml")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(content) != "files: []\n" {
		t.Errorf("content = %q", content)
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := NewFetcher(nil)
	_, err := f.Fetch(context.Background(), srv.URL+"/missing.yaml")

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError for HTTP 404, got %v", err)
	}
}

func TestFetchS3WithoutClient(t *testing.T) {
	f := NewFetcher(nil)
	_, err := f.Fetch(context.Background(), "s3://bucket/meta.csv")

	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError when no s3 client is configured, got %v", err)
	}
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri     string
		bucket  string
		key     string
		wantErr bool
	}{
		{uri: "s3://releases/macs/meta.csv", bucket: "releases", key: "macs/meta.csv"},
		{uri: "s3://bucket/key", bucket: "bucket", key: "key"},
		{uri: "s3://bucket", wantErr: true},
		{uri: "s3:///key", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			bucket, key, err := parseS3URI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.uri)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseS3URI failed: %v", err)
			}
			if bucket != tt.bucket || key != tt.key {
				t.Errorf("got %s/%s, want %s/%s", bucket, key, tt.bucket, tt.key)
			}
		})
	}
}
