package dataset

import (
	"fmt"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"github.com/opencaption/macs2hub/internal/ingest"
)

// ValidationError reports a canonical record that violates the declared
// schema. It aborts the build; a misaligned row means the upstream data is
// broken and must not be silently coerced.
type ValidationError struct {
	Row    int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d, field %s: %s", e.Row, e.Field, e.Reason)
}

// Dataset is the finished, schema-typed, row-addressable output. It owns its
// records exclusively after construction; no further mutation happens.
type Dataset struct {
	schema *arrow.Schema
	rec    arrow.Record
}

// Build validates every canonical record against the output schema and
// materializes them into a single Arrow record batch, preserving input
// order.
func Build(records []ingest.CanonicalRecord) (*Dataset, error) {
	schema := Schema()

	bld := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer bld.Release()

	filenameB := bld.Field(0).(*array.StringBuilder)
	sceneB := bld.Field(1).(*array.StringBuilder)
	audioB := bld.Field(2).(*array.StringBuilder)
	captionsB := bld.Field(3).(*array.ListBuilder)
	captionVals := captionsB.ValueBuilder().(*array.StringBuilder)
	tagsB := bld.Field(4).(*array.ListBuilder)
	tagListB := tagsB.ValueBuilder().(*array.ListBuilder)
	tagVals := tagListB.ValueBuilder().(*array.StringBuilder)
	annotatorsB := bld.Field(5).(*array.ListBuilder)
	annotatorVals := annotatorsB.ValueBuilder().(*array.Int32Builder)
	identifierB := bld.Field(6).(*array.StringBuilder)
	sourceB := bld.Field(7).(*array.StringBuilder)

	for i, rec := range records {
		if err := validateRecord(i, rec); err != nil {
			return nil, err
		}

		filenameB.Append(rec.Filename)
		appendOptional(sceneB, rec.Scene)
		audioB.Append(rec.AudioPath)

		captionsB.Append(true)
		for _, c := range rec.Captions {
			captionVals.Append(c)
		}

		tagsB.Append(true)
		for _, tagList := range rec.Tags {
			tagListB.Append(true)
			for _, t := range tagList {
				tagVals.Append(t)
			}
		}

		annotatorsB.Append(true)
		for _, a := range rec.Annotators {
			annotatorVals.Append(a)
		}

		appendOptional(identifierB, rec.AudioIdentifier)
		appendOptional(sourceB, rec.AudioSourceLabel)
	}

	return &Dataset{schema: schema, rec: bld.NewRecord()}, nil
}

func validateRecord(row int, rec ingest.CanonicalRecord) error {
	if rec.Filename == "" {
		return &ValidationError{Row: row, Field: ColFilename, Reason: "empty filename"}
	}
	if len(rec.Tags) != len(rec.Captions) {
		return &ValidationError{
			Row:    row,
			Field:  ColTags,
			Reason: fmt.Sprintf("length %d does not match %d captions", len(rec.Tags), len(rec.Captions)),
		}
	}
	if len(rec.Annotators) != len(rec.Captions) {
		return &ValidationError{
			Row:    row,
			Field:  ColAnnotators,
			Reason: fmt.Sprintf("length %d does not match %d captions", len(rec.Annotators), len(rec.Captions)),
		}
	}
	return nil
}

func appendOptional(b *array.StringBuilder, v *string) {
	if v == nil {
		b.AppendNull()
		return
	}
	b.Append(*v)
}

// Schema returns the declared output schema.
func (d *Dataset) Schema() *arrow.Schema { return d.schema }

// Record exposes the underlying Arrow record batch.
func (d *Dataset) Record() arrow.Record { return d.rec }

// NumRows returns the number of canonical records in the dataset.
func (d *Dataset) NumRows() int64 { return d.rec.NumRows() }

// Audio returns the lazy audio reference for row i. No file I/O happens
// until the reference is resolved.
func (d *Dataset) Audio(i int) AudioRef {
	paths := d.rec.Column(2).(*array.String)
	return AudioRef{Path: paths.Value(i)}
}

// Release frees the dataset's Arrow buffers.
func (d *Dataset) Release() {
	if d.rec != nil {
		d.rec.Release()
		d.rec = nil
	}
}
