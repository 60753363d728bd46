package ingest

import (
	"path"
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// Join merges annotation groups with the metadata lookup into canonical
// records, one per group, in input order. Groups without matching metadata
// keep nil scene/identifier/source fields; that is expected for releases
// with orphan captions. The second return value counts those orphans.
func Join(groups []AnnotationGroup, meta map[string]MetadataRecord, audioRoot string) ([]CanonicalRecord, int) {
	records := make([]CanonicalRecord, 0, len(groups))
	orphans := 0

	for _, group := range groups {
		basename := path.Base(group.Filename)

		captions := make([]string, 0, len(group.Annotations))
		tags := make([][]string, 0, len(group.Annotations))
		annotators := make([]int32, 0, len(group.Annotations))
		for _, a := range group.Annotations {
			captions = append(captions, norm.NFC.String(a.Sentence))
			tagList := make([]string, len(a.Tags))
			copy(tagList, a.Tags)
			tags = append(tags, tagList)
			annotators = append(annotators, a.AnnotatorID)
		}

		rec := CanonicalRecord{
			Filename:   basename,
			AudioPath:  filepath.Join(audioRoot, basename),
			Captions:   captions,
			Tags:       tags,
			Annotators: annotators,
		}

		if m, ok := meta[basename]; ok {
			rec.Scene = m.SceneLabel
			rec.AudioIdentifier = m.Identifier
			rec.AudioSourceLabel = m.SourceLabel
		} else {
			orphans++
		}

		records = append(records, rec)
	}

	return records, orphans
}
