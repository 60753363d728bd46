// Package ingest reads the raw pieces of a MACS-style audio-captioning
// release (metadata table, YAML annotation document) and joins them into
// flat canonical records keyed by audio basename.
package ingest

// MetadataRecord is one row of the metadata table, keyed by audio basename.
// Optional columns that were empty in the source are nil.
type MetadataRecord struct {
	Basename    string
	SceneLabel  *string
	Identifier  *string
	SourceLabel *string
}

// Annotation is a single human-authored caption with its tags and author.
type Annotation struct {
	Sentence    string   `yaml:"sentence"`
	Tags        []string `yaml:"tags"`
	AnnotatorID int32    `yaml:"annotator_id"`
}

// AnnotationGroup is one audio file's full set of annotations, in document
// order.
type AnnotationGroup struct {
	Filename    string       `yaml:"filename"`
	Annotations []Annotation `yaml:"annotations"`
}

// CanonicalRecord is the joined, flattened unit the pipeline emits: one row
// per audio file. Captions, Tags and Annotators are positionally aligned.
type CanonicalRecord struct {
	Filename         string
	Scene            *string
	AudioPath        string
	Captions         []string
	Tags             [][]string
	Annotators       []int32
	AudioIdentifier  *string
	AudioSourceLabel *string
}
