package ingest

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"
)

// LoadAnnotations fetches and parses the YAML annotation document at src.
func LoadAnnotations(ctx context.Context, f *Fetcher, src string) ([]AnnotationGroup, error) {
	content, err := f.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return ParseAnnotations(src, content)
}

// ParseAnnotations extracts the top-level "files" list from the annotation
// document. Document order is preserved; it determines output row order.
func ParseAnnotations(path string, content []byte) ([]AnnotationGroup, error) {
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf("malformed YAML: %v", err)}
	}

	node, ok := doc["files"]
	if !ok {
		return nil, &FormatError{Path: path, Reason: "missing top-level \"files\" list"}
	}
	// A null or scalar "files" value would decode into an empty slice
	// without error, silently emitting an empty dataset.
	if node.Kind != yaml.SequenceNode {
		return nil, &FormatError{Path: path, Reason: "top-level \"files\" is not a list"}
	}

	var groups []AnnotationGroup
	if err := node.Decode(&groups); err != nil {
		return nil, &FormatError{Path: path, Reason: fmt.Sprintf("decode \"files\" entries: %v", err)}
	}

	return groups, nil
}
