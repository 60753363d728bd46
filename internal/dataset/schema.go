// Package dataset materializes joined canonical records into a schema-typed
// Arrow dataset and provides its local persistence layout.
package dataset

import "github.com/apache/arrow/go/v14/arrow"

// Column names of the output schema, in declaration order.
const (
	ColFilename         = "filename"
	ColScene            = "scene"
	ColAudio            = "audio"
	ColCaptions         = "captions"
	ColTags             = "tags"
	ColAnnotators       = "annotators"
	ColAudioIdentifier  = "audio_identifier"
	ColAudioSourceLabel = "audio_source_label"
)

// Schema returns the canonical output schema. The audio column holds a path
// reference; raw samples are resolved lazily through AudioRef.
func Schema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: ColFilename, Type: arrow.BinaryTypes.String},
		{Name: ColScene, Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: ColAudio, Type: arrow.BinaryTypes.String},
		{Name: ColCaptions, Type: arrow.ListOf(arrow.BinaryTypes.String)},
		{Name: ColTags, Type: arrow.ListOf(arrow.ListOf(arrow.BinaryTypes.String))},
		{Name: ColAnnotators, Type: arrow.ListOf(arrow.PrimitiveTypes.Int32)},
		{Name: ColAudioIdentifier, Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: ColAudioSourceLabel, Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
}
