package dataset

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v14/arrow/ipc"
)

// ShardName is the single Arrow IPC shard the whole dataset is written to.
// The release is assumed to fit in memory, so one shard is always enough.
const ShardName = "data-00000-of-00001.arrow"

type datasetInfo struct {
	BuilderName string   `json:"builder_name"`
	Description string   `json:"description"`
	NumRows     int64    `json:"num_rows"`
	Columns     []string `json:"columns"`
}

type datasetState struct {
	DataFiles   []shardEntry `json:"_data_files"`
	Fingerprint string       `json:"_fingerprint"`
	Format      *string      `json:"_format_type"`
}

type shardEntry struct {
	Filename string `json:"filename"`
}

// WriteShard serializes the dataset as an Arrow IPC stream.
func (d *Dataset) WriteShard(w io.Writer) error {
	writer := ipc.NewWriter(w, ipc.WithSchema(d.schema))
	if err := writer.Write(d.rec); err != nil {
		writer.Close()
		return fmt.Errorf("write record batch: %w", err)
	}
	return writer.Close()
}

// SaveToDisk persists the dataset to dir in a self-describing layout: the
// Arrow shard plus dataset_info.json and state.json.
func (d *Dataset) SaveToDisk(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var buf bytes.Buffer
	if err := d.WriteShard(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, ShardName), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write shard: %w", err)
	}

	columns := make([]string, 0, len(d.schema.Fields()))
	for _, f := range d.schema.Fields() {
		columns = append(columns, f.Name)
	}

	info := datasetInfo{
		BuilderName: "macs2hub",
		Description: "MACS audio captioning release, joined and normalized",
		NumRows:     d.NumRows(),
		Columns:     columns,
	}
	if err := writeJSON(filepath.Join(dir, "dataset_info.json"), info); err != nil {
		return err
	}

	digest := sha256.Sum256(buf.Bytes())
	state := datasetState{
		DataFiles:   []shardEntry{{Filename: ShardName}},
		Fingerprint: hex.EncodeToString(digest[:8]),
	}
	return writeJSON(filepath.Join(dir, "state.json"), state)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
