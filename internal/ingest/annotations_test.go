package ingest

import (
	"errors"
	"strings"
	"testing"
)

const sampleDoc = `files:
  - filename: somepath/a1.wav
    annotations:
      - sentence: birds chirping
        tags: [nature]
        annotator_id: 3
      - sentence: wind in the trees
        tags: [nature, wind]
        annotator_id: 7
  - filename: b2.wav
    annotations:
      - sentence: traffic noise
        tags: [urban]
        annotator_id: 1
`

func TestParseAnnotations(t *testing.T) {
	groups, err := ParseAnnotations("MACS.yaml", []byte(sampleDoc))
	if err != nil {
		t.Fatalf("ParseAnnotations failed: %v", err)
	}

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}

	// Document order must be preserved.
	if groups[0].Filename != "somepath/a1.wav" || groups[1].Filename != "b2.wav" {
		t.Errorf("group order not preserved: %q, %q", groups[0].Filename, groups[1].Filename)
	}

	anns := groups[0].Annotations
	if len(anns) != 2 {
		t.Fatalf("got %d annotations, want 2", len(anns))
	}
	if anns[0].Sentence != "birds chirping" {
		t.Errorf("sentence = %q", anns[0].Sentence)
	}
	if len(anns[0].Tags) != 1 || anns[0].Tags[0] != "nature" {
		t.Errorf("tags = %v", anns[0].Tags)
	}
	if anns[0].AnnotatorID != 3 {
		t.Errorf("annotator_id = %d, want 3", anns[0].AnnotatorID)
	}
	if anns[1].AnnotatorID != 7 || len(anns[1].Tags) != 2 {
		t.Errorf("second annotation = %+v", anns[1])
	}
}

func TestParseAnnotationsEmptyList(t *testing.T) {
	groups, err := ParseAnnotations("MACS.yaml", []byte("files: []\n"))
	if err != nil {
		t.Fatalf("an explicitly empty files list is a valid empty release: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("got %d groups, want 0", len(groups))
	}
}

func TestParseAnnotationsErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		reason  string
	}{
		{
			name:    "missing files key",
			content: "captions:\n  - filename: a1.wav\n",
			reason:  "missing top-level",
		},
		{
			name:    "malformed yaml",
			content: "files: [unclosed\n  - broken",
			reason:  "malformed YAML",
		},
		{
			name:    "null files key",
			content: "files:\n",
			reason:  "not a list",
		},
		{
			name:    "files is a scalar",
			content: "files: 42\n",
			reason:  "not a list",
		},
		{
			name:    "files entries are not mappings",
			content: "files: [42]\n",
			reason:  "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnnotations("MACS.yaml", []byte(tt.content))
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Fatalf("expected FormatError, got %v", err)
			}
			if fe.Path != "MACS.yaml" {
				t.Errorf("FormatError path = %q", fe.Path)
			}
			if !strings.Contains(fe.Reason, tt.reason) {
				t.Errorf("reason %q does not mention %q", fe.Reason, tt.reason)
			}
		})
	}
}
