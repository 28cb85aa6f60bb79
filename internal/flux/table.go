// Package flux answers debris-flux queries against a static grid of
// empirical measurements (altitude × inclination × size bin), in the style
// of NASA ORDEM output. The grid is read once and shared read-only for the
// rest of the process.
package flux

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrTableUnavailable signals a missing or corrupt grid resource.
	// Fatal at startup, never returned on the query path.
	ErrTableUnavailable = errors.New("flux: table unavailable")

	// ErrInvalidQuery rejects NaN or negative query parameters before any
	// interpolation runs.
	ErrInvalidQuery = errors.New("flux: invalid query parameters")
)

// Point is one grid measurement.
type Point struct {
	AltKm     float64
	IncDeg    float64
	SizeMinCm float64
	SizeMaxCm float64
	Flux      float64 // impacts per m² per year
}

// Outcome describes how a query was resolved.
type Outcome string

const (
	OutcomeInterpolated  Outcome = "interpolated"
	OutcomeNearest       Outcome = "nearest"
	OutcomeGlobalNearest Outcome = "global_nearest"
)

// Table is an immutable in-memory flux grid.
type Table struct {
	points []Point
}

// expected CSV header columns, in order.
var header = []string{"altitude_km", "inclination_deg", "size_min_cm", "size_max_cm", "flux_per_m2_per_year"}

// Load parses the grid from CSV. The reader must yield a header row
// followed by at least one measurement.
func Load(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	head, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrTableUnavailable, err)
	}
	if len(head) != len(header) {
		return nil, fmt.Errorf("%w: header has %d columns, expected %d", ErrTableUnavailable, len(head), len(header))
	}
	for i, col := range header {
		if strings.TrimSpace(head[i]) != col {
			return nil, fmt.Errorf("%w: column %d is %q, expected %q", ErrTableUnavailable, i, head[i], col)
		}
	}

	var points []Point
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrTableUnavailable, line, err)
		}

		vals := make([]float64, len(header))
		for i, raw := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %v", ErrTableUnavailable, line, header[i], err)
			}
			vals[i] = v
		}
		points = append(points, Point{
			AltKm:     vals[0],
			IncDeg:    vals[1],
			SizeMinCm: vals[2],
			SizeMaxCm: vals[3],
			Flux:      vals[4],
		})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no grid points", ErrTableUnavailable)
	}
	return &Table{points: points}, nil
}

// LoadFile reads the grid from a CSV file on disk.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTableUnavailable, err)
	}
	defer f.Close()
	return Load(f)
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// Default returns the embedded sample grid, loaded at most once per process.
func Default() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = Load(strings.NewReader(sampleGrid))
	})
	return defaultTable, defaultErr
}

// Len returns the number of grid points.
func (t *Table) Len() int { return len(t.points) }

// feq compares grid coordinates with a tolerance suited to tabulated values.
func feq(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

// Query returns the flux for the given altitude, inclination, and size bin.
//
// Only points whose size bin matches exactly are interpolation candidates.
// The altitude bracket [a1, a2] takes the largest tabulated altitude ≤ query
// (or the tabulated minimum) and the smallest ≥ query (or the maximum); the
// inclination bracket follows the same rule. With fewer than two distinct
// altitudes or inclinations among the corners, the nearest corner by L1
// distance wins. If no point matches the size bin at all, the globally
// nearest point across all four coordinates is returned.
func (t *Table) Query(altKm, incDeg, sizeMinCm, sizeMaxCm float64) (float64, Outcome, error) {
	for _, v := range [...]float64{altKm, incDeg, sizeMinCm, sizeMaxCm} {
		if math.IsNaN(v) || v < 0 {
			return 0, "", fmt.Errorf("%w: alt=%v inc=%v size=[%v,%v]", ErrInvalidQuery, altKm, incDeg, sizeMinCm, sizeMaxCm)
		}
	}
	if sizeMaxCm < sizeMinCm {
		return 0, "", fmt.Errorf("%w: size bin [%v,%v] inverted", ErrInvalidQuery, sizeMinCm, sizeMaxCm)
	}

	var candidates []Point
	for _, p := range t.points {
		if feq(p.SizeMinCm, sizeMinCm) && feq(p.SizeMaxCm, sizeMaxCm) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return t.globalNearest(altKm, incDeg, sizeMinCm, sizeMaxCm), OutcomeGlobalNearest, nil
	}

	a1, a2 := bracket(distinct(candidates, func(p Point) float64 { return p.AltKm }), altKm)
	i1, i2 := bracket(distinct(candidates, func(p Point) float64 { return p.IncDeg }), incDeg)

	var corners []Point
	for _, a := range [...]float64{a1, a2} {
		for _, i := range [...]float64{i1, i2} {
			if p, ok := pointAt(candidates, a, i); ok && !contains(corners, a, i) {
				corners = append(corners, p)
			}
		}
	}
	if len(corners) == 0 {
		return t.globalNearest(altKm, incDeg, sizeMinCm, sizeMaxCm), OutcomeGlobalNearest, nil
	}

	aVals := distinct(corners, func(p Point) float64 { return p.AltKm })
	iVals := distinct(corners, func(p Point) float64 { return p.IncDeg })
	if len(aVals) < 2 || len(iVals) < 2 || len(corners) < 4 {
		return nearestL1(corners, altKm, incDeg), OutcomeNearest, nil
	}

	f11, _ := pointAt(corners, aVals[0], iVals[0])
	f12, _ := pointAt(corners, aVals[0], iVals[1])
	f21, _ := pointAt(corners, aVals[1], iVals[0])
	f22, _ := pointAt(corners, aVals[1], iVals[1])

	tw := 0.0
	if !feq(aVals[0], aVals[1]) {
		tw = (altKm - aVals[0]) / (aVals[1] - aVals[0])
	}
	u := 0.0
	if !feq(iVals[0], iVals[1]) {
		u = (incDeg - iVals[0]) / (iVals[1] - iVals[0])
	}

	flux := f11.Flux*(1-tw)*(1-u) +
		f21.Flux*tw*(1-u) +
		f12.Flux*(1-tw)*u +
		f22.Flux*tw*u
	return flux, OutcomeInterpolated, nil
}

// bracket returns the pair (largest value ≤ q or minimum, smallest value ≥ q
// or maximum) from a sorted ascending slice.
func bracket(sorted []float64, q float64) (float64, float64) {
	lo := sorted[0]
	hi := sorted[len(sorted)-1]
	for _, v := range sorted {
		if v <= q {
			lo = v
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] >= q {
			hi = sorted[i]
		}
	}
	return lo, hi
}

// distinct extracts sorted unique coordinate values.
func distinct(points []Point, key func(Point) float64) []float64 {
	var vals []float64
	for _, p := range points {
		v := key(p)
		found := false
		for _, existing := range vals {
			if feq(existing, v) {
				found = true
				break
			}
		}
		if !found {
			vals = append(vals, v)
		}
	}
	sort.Float64s(vals)
	return vals
}

func pointAt(points []Point, alt, inc float64) (Point, bool) {
	for _, p := range points {
		if feq(p.AltKm, alt) && feq(p.IncDeg, inc) {
			return p, true
		}
	}
	return Point{}, false
}

func contains(points []Point, alt, inc float64) bool {
	_, ok := pointAt(points, alt, inc)
	return ok
}

func nearestL1(points []Point, altKm, incDeg float64) float64 {
	best := points[0]
	bestDist := math.Abs(best.AltKm-altKm) + math.Abs(best.IncDeg-incDeg)
	for _, p := range points[1:] {
		d := math.Abs(p.AltKm-altKm) + math.Abs(p.IncDeg-incDeg)
		if d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best.Flux
}

func (t *Table) globalNearest(altKm, incDeg, sizeMinCm, sizeMaxCm float64) float64 {
	best := t.points[0]
	bestDist := math.Inf(1)
	for _, p := range t.points {
		d := math.Abs(p.AltKm-altKm) +
			math.Abs(p.IncDeg-incDeg) +
			math.Abs(p.SizeMinCm-sizeMinCm) +
			math.Abs(p.SizeMaxCm-sizeMaxCm)
		if d < bestDist {
			best = p
			bestDist = d
		}
	}
	return best.Flux
}
