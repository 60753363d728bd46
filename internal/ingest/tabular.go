package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/opencaption/macs2hub/internal/metrics"
)

// delimiterCandidates is the set sniffed from the first line of a delimited
// metadata table, in preference order on ties.
var delimiterCandidates = []rune{',', '\t', ';'}

// audioPrefix is stripped from the filename column to derive the basename
// join key.
var audioPrefix = regexp.MustCompile(`^audio/`)

// LoadMetadata fetches and parses the metadata table at src and returns a
// lookup from audio basename to its metadata row.
func LoadMetadata(ctx context.Context, f *Fetcher, src string) (map[string]MetadataRecord, error) {
	content, err := f.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return ParseMetadata(src, content)
}

// ParseMetadata parses a metadata table (CSV/TSV with delimiter sniffing, or
// Excel) and builds the basename lookup. The path is used for routing by
// extension and for error context only.
func ParseMetadata(path string, content []byte) (map[string]MetadataRecord, error) {
	var (
		rows    [][]string
		headers []string
		err     error
	)

	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xls") {
		rows, headers, err = parseExcel(path, content)
	} else {
		rows, headers, err = parseDelimited(path, content)
	}
	if err != nil {
		return nil, err
	}

	return buildLookup(path, rows, headers)
}

// parseDelimited sniffs the field delimiter from the first line and parses
// the whole table under it.
func parseDelimited(path string, content []byte) ([][]string, []string, error) {
	delim, err := sniffDelimiter(path, content)
	if err != nil {
		return nil, nil, err
	}

	reader := csv.NewReader(bytes.NewReader(content))
	reader.Comma = delim
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, &FormatError{Path: path, Reason: fmt.Sprintf("parse failed with delimiter %q: %v", delim, err)}
	}
	if len(allRows) == 0 {
		return nil, nil, &FormatError{Path: path, Reason: "empty metadata table"}
	}

	headers := allRows[0]
	for i, h := range headers {
		headers[i] = normalizeColumnName(h)
	}

	rows := allRows[1:]
	padRows(rows, len(headers))

	return rows, headers, nil
}

// sniffDelimiter picks the candidate delimiter that occurs most often in the
// first line of the table.
func sniffDelimiter(path string, content []byte) (rune, error) {
	line := string(content)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	best := rune(0)
	bestCount := 0
	for _, cand := range delimiterCandidates {
		if n := strings.Count(line, string(cand)); n > bestCount {
			best = cand
			bestCount = n
		}
	}
	if bestCount == 0 {
		return 0, &FormatError{Path: path, Reason: "could not detect field delimiter from first line"}
	}
	return best, nil
}

// parseExcel reads the first non-metadata sheet of an Excel workbook.
func parseExcel(path string, content []byte) ([][]string, []string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, nil, &FormatError{Path: path, Reason: fmt.Sprintf("open Excel file: %v", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, &FormatError{Path: path, Reason: "no sheets in Excel file"}
	}

	skipSheets := map[string]bool{
		"info":     true,
		"metadata": true,
		"about":    true,
		"readme":   true,
		"notes":    true,
	}

	var sheetName string
	for _, sheet := range sheets {
		if !skipSheets[strings.ToLower(sheet)] {
			sheetName = sheet
			break
		}
	}
	if sheetName == "" {
		sheetName = sheets[len(sheets)-1]
	}

	allRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, &FormatError{Path: path, Reason: fmt.Sprintf("read Excel rows: %v", err)}
	}
	if len(allRows) == 0 {
		return nil, nil, &FormatError{Path: path, Reason: "empty Excel sheet"}
	}

	headers := allRows[0]
	for i, h := range headers {
		headers[i] = normalizeColumnName(h)
	}

	rows := allRows[1:]
	padRows(rows, len(headers))

	return rows, headers, nil
}

// padRows ensures every row has exactly width columns.
func padRows(rows [][]string, width int) {
	for i, row := range rows {
		if len(row) < width {
			for j := len(row); j < width; j++ {
				rows[i] = append(rows[i], "")
			}
		} else if len(row) > width {
			rows[i] = row[:width]
		}
	}
}

var nonAlnum = regexp.MustCompile(`[^A-Z0-9]+`)

// normalizeColumnName canonicalizes a header cell: uppercase, runs of
// non-alphanumerics collapsed to single underscores.
func normalizeColumnName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = nonAlnum.ReplaceAllString(n, "_")
	return strings.Trim(n, "_")
}

// buildLookup maps parsed rows into the basename-keyed metadata lookup.
// Duplicate basenames are last-write-wins and logged; they indicate a
// data-integrity problem in the release but do not abort the run.
func buildLookup(path string, rows [][]string, headers []string) (map[string]MetadataRecord, error) {
	col := make(map[string]int, len(headers))
	for i, h := range headers {
		col[h] = i
	}

	fileIdx, ok := col["FILENAME"]
	if !ok {
		return nil, &FormatError{Path: path, Reason: "missing required column: filename"}
	}
	sceneIdx, hasScene := col["SCENE_LABEL"]
	identIdx, hasIdent := col["IDENTIFIER"]
	sourceIdx, hasSource := col["SOURCE_LABEL"]

	lookup := make(map[string]MetadataRecord, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row[fileIdx])
		if name == "" {
			continue
		}
		basename := audioPrefix.ReplaceAllString(name, "")

		if _, exists := lookup[basename]; exists {
			log.Printf("Duplicate basename %q in %s, keeping last row", basename, path)
			metrics.DuplicateMetadataKeys.Inc()
		}

		rec := MetadataRecord{Basename: basename}
		if hasScene {
			rec.SceneLabel = optionalCell(row, sceneIdx)
		}
		if hasIdent {
			rec.Identifier = optionalCell(row, identIdx)
		}
		if hasSource {
			rec.SourceLabel = optionalCell(row, sourceIdx)
		}
		lookup[basename] = rec
	}

	return lookup, nil
}

// optionalCell returns nil for empty cells so absent metadata stays null all
// the way into the output schema.
func optionalCell(row []string, idx int) *string {
	v := strings.TrimSpace(row[idx])
	if v == "" {
		return nil
	}
	return &v
}
