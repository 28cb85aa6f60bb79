package tle

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"
)

// ISS TLE (epoch 2024). Real orbital elements used throughout the tests.
const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

// Starlink TLE (typical LEO constellation satellite).
const (
	starlinkLine1 = "1 44713U 19074A   24100.50000000  .00001000  00000-0  10000-4 0  9995"
	starlinkLine2 = "2 44713  53.0000 200.0000 0001500  90.0000 270.0000 15.06000000    05"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

// TestParseNamedBlocks verifies standard 3-line blocks parse with their names
// and that the raw lines survive byte for byte.
func TestParseNamedBlocks(t *testing.T) {
	input := "ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\n" +
		"STARLINK-1007\n" + starlinkLine1 + "\n" + starlinkLine2 + "\n"

	records, err := Parse(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	if records[0].Name != "ISS (ZARYA)" || records[0].CatalogID != 25544 {
		t.Errorf("record 0 = %q/%d, want ISS (ZARYA)/25544", records[0].Name, records[0].CatalogID)
	}
	if records[0].Line1 != issLine1 || records[0].Line2 != issLine2 {
		t.Error("raw TLE lines were modified during parsing")
	}
	if records[1].CatalogID != 44713 {
		t.Errorf("record 1 catalog ID = %d, want 44713", records[1].CatalogID)
	}
}

// TestParseNamelessBlock verifies a 2-line block gets the placeholder name.
func TestParseNamelessBlock(t *testing.T) {
	input := issLine1 + "\n" + issLine2 + "\n"

	records, err := Parse(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Name != PlaceholderName {
		t.Errorf("name = %q, want %q", records[0].Name, PlaceholderName)
	}
}

// TestParseResync verifies a corrupt block in the middle does not hide the
// records around it.
func TestParseResync(t *testing.T) {
	input := "ISS (ZARYA)\n" + issLine1 + "\n" + issLine2 + "\n" +
		"GARBAGE NAME\nthis is not a TLE line\n" +
		"STARLINK-1007\n" + starlinkLine1 + "\n" + starlinkLine2 + "\n"

	records, err := Parse(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2 (resync after corrupt block)", len(records))
	}
	if records[0].CatalogID != 25544 || records[1].CatalogID != 44713 {
		t.Errorf("got catalog IDs %d, %d; want 25544, 44713", records[0].CatalogID, records[1].CatalogID)
	}
}

// TestParseCatalogIDMismatch verifies a block whose two lines disagree on the
// catalog number is rejected without failing the whole parse.
func TestParseCatalogIDMismatch(t *testing.T) {
	input := "MISMATCH\n" + issLine1 + "\n" + starlinkLine2 + "\n" +
		"STARLINK-1007\n" + starlinkLine1 + "\n" + starlinkLine2 + "\n"

	records, err := Parse(strings.NewReader(input), testLogger())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].CatalogID != 44713 {
		t.Errorf("surviving record catalog ID = %d, want 44713", records[0].CatalogID)
	}
}

// TestParseEpoch verifies the YYDDD.DDDDDDDD epoch conversion, including the
// 57-pivot between centuries.
func TestParseEpoch(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
	}{
		{"24100.50000000", time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)},
		{"00001.00000000", time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"57001.00000000", time.Date(1957, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"99365.00000000", time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range tests {
		got, err := parseEpoch(tc.raw)
		if err != nil {
			t.Errorf("parseEpoch(%q) failed: %v", tc.raw, err)
			continue
		}
		if diff := got.Sub(tc.want); diff < -time.Millisecond || diff > time.Millisecond {
			t.Errorf("parseEpoch(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}

	if _, err := parseEpoch("2410"); err == nil {
		t.Error("expected error for truncated epoch string")
	}
}

// TestNewRecordLineLength verifies rejection of lines that are not 69 chars.
func TestNewRecordLineLength(t *testing.T) {
	_, err := newRecord("SHORT", issLine1[:68], issLine2)
	if !errors.Is(err, ErrMalformedBlock) {
		t.Errorf("got %v, want ErrMalformedBlock", err)
	}

	_, err = newRecord("LONG", issLine1, issLine2+" ")
	if !errors.Is(err, ErrMalformedBlock) {
		t.Errorf("got %v, want ErrMalformedBlock", err)
	}
}

// TestInclinationDeg verifies the inclination field extraction from line 2.
func TestInclinationDeg(t *testing.T) {
	rec, err := newRecord("ISS", issLine1, issLine2)
	if err != nil {
		t.Fatalf("newRecord failed: %v", err)
	}
	inc, err := rec.InclinationDeg()
	if err != nil {
		t.Fatalf("InclinationDeg failed: %v", err)
	}
	if inc != 51.64 {
		t.Errorf("inclination = %v, want 51.64", inc)
	}
}

// TestParseEmbeddedSample verifies the bundled fixture parses cleanly.
func TestParseEmbeddedSample(t *testing.T) {
	records, err := Parse(strings.NewReader(SampleTLE), testLogger())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records from embedded sample, want 3", len(records))
	}
	for _, rec := range records {
		if rec.CatalogID == 0 || rec.Name == "" {
			t.Errorf("incomplete record: %+v", rec)
		}
	}
}
