package propagation

import (
	"errors"
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/orbit/orbitguard/internal/tle"
	"github.com/orbit/orbitguard/internal/transform"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite
//
// Pure Go, no CGO, explicit TEME output, and the same library the
// go-satellite ecosystem validates GMST/ECEF math against.
//
// Note: Propagate() takes Satellite by value so SGP4 error codes are not
// visible to the caller. Propagation failures are detected by checking the
// output for NaN/Inf and unreasonable position magnitudes.

// ErrInvalidOrbitalElements is returned when the SGP4 model cannot be
// seeded from a record's mean elements, or when propagation degenerates.
var ErrInvalidOrbitalElements = errors.New("propagation: invalid orbital elements")

// ErrInvalidWindow is returned for out-of-range duration or step arguments.
var ErrInvalidWindow = errors.New("propagation: invalid time window")

// Model is an initialized SGP4 propagation model for one record.
// Construction is explicit and fallible; there is no lazy global state.
type Model struct {
	sat       satellite.Satellite
	catalogID uint32
}

// NewModel seeds an SGP4 model from the record's mean orbital elements.
// The record's lines are assumed pre-validated by the TLE store; the
// library's own initialization error codes are still checked because
// well-formed lines can carry degenerate elements.
func NewModel(rec tle.Record) (*Model, error) {
	sat := satellite.TLEToSat(rec.Line1, rec.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("%w: catalog %d: sgp4 init code=%d %s",
			ErrInvalidOrbitalElements, rec.CatalogID, sat.Error, sat.ErrorStr)
	}
	return &Model{sat: sat, catalogID: rec.CatalogID}, nil
}

// StateTEME computes the TEME state vector at t (km, km/s).
func (m *Model) StateTEME(t time.Time) (transform.TEME, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(m.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return transform.TEME{}, fmt.Errorf("%w: catalog %d: output is NaN/Inf", ErrInvalidOrbitalElements, m.catalogID)
	}

	// Position magnitude for anything this model handles sits between
	// ~6200 km (decaying LEO) and ~50000 km (above GEO).
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return transform.TEME{}, fmt.Errorf("%w: catalog %d: unreasonable position magnitude %.1f km",
			ErrInvalidOrbitalElements, m.catalogID, mag)
	}

	return transform.TEME{
		X: pos.X, Y: pos.Y, Z: pos.Z,
		VX: vel.X, VY: vel.Y, VZ: vel.Z,
	}, nil
}

// GeodeticAt computes the geodetic subpoint and altitude at t.
func (m *Model) GeodeticAt(t time.Time) (transform.Geodetic, error) {
	teme, err := m.StateTEME(t)
	if err != nil {
		return transform.Geodetic{}, err
	}
	ecef := transform.TEMEToECEF(teme, t)
	return transform.ECEFToGeodetic(ecef), nil
}
