// Package hub publishes finished datasets to a HuggingFace Hub dataset
// repository through its commit API.
package hub

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/opencaption/macs2hub/internal/dataset"
)

type commitOperation struct {
	Operation string `json:"operation"`
	Path      string `json:"path"`
	Content   string `json:"content"`
}

// Client talks to the Hub API for a single dataset repository.
type Client struct {
	repo    string
	token   string
	branch  string
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for repo (e.g. "username/MACS_captions").
func NewClient(repo, token, branch string) *Client {
	if branch == "" {
		branch = "main"
	}
	return &Client{
		repo:    repo,
		token:   token,
		branch:  branch,
		baseURL: "https://huggingface.co",
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateRepo creates the dataset repository, honoring the private flag. An
// already-existing repository is not an error.
func (c *Client) CreateRepo(ctx context.Context, private bool) error {
	if c.repo == "" || c.token == "" {
		return fmt.Errorf("huggingface repo or token not configured")
	}

	payload := map[string]interface{}{
		"type":    "dataset",
		"name":    c.repo,
		"private": private,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal repo create payload: %w", err)
	}

	createURL := fmt.Sprintf("%s/api/repos/create", c.baseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, createURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create repo request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("huggingface repo create request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil // repo already exists
	}
	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("huggingface repo create error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	return nil
}

// Commit applies a set of file operations to the repository in one commit.
func (c *Client) Commit(ctx context.Context, ops []commitOperation, message string) error {
	if c.repo == "" || c.token == "" {
		return fmt.Errorf("huggingface repo or token not configured")
	}

	payload := map[string]interface{}{
		"operations":     ops,
		"commit_message": message,
		"create_pr":      false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal commit payload: %w", err)
	}

	commitURL := fmt.Sprintf("%s/api/datasets/%s/commit/%s",
		c.baseURL,
		url.PathEscape(c.repo),
		url.PathEscape(c.branch),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, commitURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create commit request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("huggingface commit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("huggingface commit error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	return nil
}

// PushDataset creates the repository if needed and uploads the dataset
// shard, its info file and a generated dataset card in a single commit.
func (c *Client) PushDataset(ctx context.Context, ds *dataset.Dataset, private bool) error {
	if err := c.CreateRepo(ctx, private); err != nil {
		return err
	}

	var shard bytes.Buffer
	if err := ds.WriteShard(&shard); err != nil {
		return err
	}

	info := map[string]interface{}{
		"builder_name": "macs2hub",
		"num_rows":     ds.NumRows(),
	}
	infoJSON, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("marshal dataset info: %w", err)
	}

	ops := []commitOperation{
		{
			Operation: "addOrUpdate",
			Path:      "data/" + dataset.ShardName,
			Content:   base64.StdEncoding.EncodeToString(shard.Bytes()),
		},
		{
			Operation: "addOrUpdate",
			Path:      "dataset_info.json",
			Content:   base64.StdEncoding.EncodeToString(infoJSON),
		},
		{
			Operation: "addOrUpdate",
			Path:      "README.md",
			Content:   base64.StdEncoding.EncodeToString(datasetCard(ds)),
		},
	}

	message := fmt.Sprintf("Upload MACS captions dataset (%d rows)", ds.NumRows())
	return c.Commit(ctx, ops, message)
}

func datasetCard(ds *dataset.Dataset) []byte {
	var buf bytes.Buffer
	buf.WriteString("---\npretty_name: MACS audio captions\n---\n\n")
	buf.WriteString("# MACS audio captions\n\n")
	fmt.Fprintf(&buf, "Converted from the raw MACS release: %d audio files with captions, tags and annotator IDs.\n\n", ds.NumRows())
	buf.WriteString("## Columns\n\n")
	for _, f := range ds.Schema().Fields() {
		fmt.Fprintf(&buf, "- `%s` (%s)\n", f.Name, f.Type)
	}
	return buf.Bytes()
}
