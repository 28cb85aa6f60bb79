package tle

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// lineLength is the fixed width of a NORAD two-line element line.
const lineLength = 69

// PlaceholderName is assigned to records whose name line is missing.
const PlaceholderName = "UNKNOWN"

// Record is a single validated two-line element set. Immutable once built.
type Record struct {
	CatalogID uint32
	Name      string
	Epoch     time.Time
	Line1     string
	Line2     string
}

// Summary is a listing entry for a stored record.
type Summary struct {
	CatalogID uint32 `json:"catalog_id"`
	Name      string `json:"name"`
}

// EpochRange holds the minimum and maximum element epochs in a generation.
type EpochRange struct {
	Min time.Time
	Max time.Time
}

// newRecord validates raw TLE lines and builds a Record.
// Returns ErrMalformedBlock or ErrCatalogIDMismatch for recoverable rejects.
func newRecord(name, line1, line2 string) (Record, error) {
	if len(line1) != lineLength {
		return Record{}, fmt.Errorf("%w: line1 length %d, expected %d", ErrMalformedBlock, len(line1), lineLength)
	}
	if len(line2) != lineLength {
		return Record{}, fmt.Errorf("%w: line2 length %d, expected %d", ErrMalformedBlock, len(line2), lineLength)
	}

	id1, err := catalogID(line1)
	if err != nil {
		return Record{}, fmt.Errorf("%w: line1 catalog ID: %v", ErrMalformedBlock, err)
	}
	id2, err := catalogID(line2)
	if err != nil {
		return Record{}, fmt.Errorf("%w: line2 catalog ID: %v", ErrMalformedBlock, err)
	}
	if id1 != id2 {
		return Record{}, fmt.Errorf("%w: line1=%d line2=%d", ErrCatalogIDMismatch, id1, id2)
	}

	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Record{}, fmt.Errorf("%w: epoch: %v", ErrMalformedBlock, err)
	}

	return Record{
		CatalogID: id1,
		Name:      strings.TrimSpace(name),
		Epoch:     epoch,
		Line1:     line1,
		Line2:     line2,
	}, nil
}

// catalogID extracts the catalog number from columns 3-7 of a TLE line.
func catalogID(line string) (uint32, error) {
	raw := strings.TrimSpace(line[2:7])
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing %q: %w", raw, err)
	}
	return uint32(n), nil
}

// InclinationDeg extracts the mean inclination from columns 9-16 of line2.
func (r Record) InclinationDeg() (float64, error) {
	raw := strings.TrimSpace(r.Line2[8:16])
	inc, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: inclination %q: %v", ErrMalformedBlock, raw, err)
	}
	return inc, nil
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}

	// dayOfYear is 1-based: day 1 = Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
