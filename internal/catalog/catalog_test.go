package catalog

import (
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/opencaption/macs2hub/internal/ingest"
)

func strPtr(s string) *string { return &s }

func TestRecordValues(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rec := ingest.CanonicalRecord{
		Filename:         "a1.wav",
		Scene:            strPtr("park"),
		AudioPath:        "/data/audio/a1.wav",
		Captions:         []string{"traffic noise", "a car passes by"},
		Tags:             [][]string{{"urban"}, {"urban", "car"}},
		Annotators:       []int32{1, 2},
		AudioIdentifier:  strPtr("id1"),
		AudioSourceLabel: strPtr("src1"),
	}

	values, err := recordValues(rec, now)
	if err != nil {
		t.Fatalf("recordValues failed: %v", err)
	}
	if len(values) != len(copyInColumns) {
		t.Fatalf("got %d values for %d columns", len(values), len(copyInColumns))
	}

	if values[0] != "a1.wav" || values[2] != "/data/audio/a1.wav" {
		t.Errorf("filename/audio_path = %v, %v", values[0], values[2])
	}

	scene := values[1].(sql.NullString)
	if !scene.Valid || scene.String != "park" {
		t.Errorf("scene = %+v", scene)
	}

	captions, err := values[3].(driver.Valuer).Value()
	if err != nil {
		t.Fatal(err)
	}
	if captions != `{"traffic noise","a car passes by"}` {
		t.Errorf("captions array literal = %v", captions)
	}

	if values[4] != `[["urban"],["urban","car"]]` {
		t.Errorf("tags JSON = %v", values[4])
	}

	annotators, err := values[5].(driver.Valuer).Value()
	if err != nil {
		t.Fatal(err)
	}
	if annotators != "{1,2}" {
		t.Errorf("annotators array literal = %v", annotators)
	}

	if values[8] != now {
		t.Errorf("ingested_at = %v, want %v", values[8], now)
	}
}

func TestRecordValuesOrphan(t *testing.T) {
	rec := ingest.CanonicalRecord{
		Filename:   "b2.wav",
		AudioPath:  "/data/audio/b2.wav",
		Captions:   []string{"traffic noise"},
		Tags:       [][]string{{"urban"}},
		Annotators: []int32{1},
	}

	values, err := recordValues(rec, time.Now().UTC())
	if err != nil {
		t.Fatalf("recordValues failed: %v", err)
	}

	for _, idx := range []int{1, 6, 7} {
		v := values[idx].(sql.NullString)
		if v.Valid {
			t.Errorf("column %s should be NULL for orphan record, got %q", copyInColumns[idx], v.String)
		}
	}
}

func TestNullable(t *testing.T) {
	if v := nullable(nil); v.Valid {
		t.Error("nil should map to invalid NullString")
	}

	s := "park"
	v := nullable(&s)
	if !v.Valid || v.String != "park" {
		t.Errorf("nullable(&park) = %+v", v)
	}
}

func TestWidenInts(t *testing.T) {
	got := widenInts([]int32{3, -1, 42})
	want := []int64{3, -1, 42}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("value %d = %d, want %d", i, got[i], want[i])
		}
	}

	if out := widenInts(nil); len(out) != 0 {
		t.Errorf("nil input should produce empty output, got %v", out)
	}
}
