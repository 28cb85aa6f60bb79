package transform

import (
	"math"
	"time"
)

// TEME is a position/velocity state vector in the TEME frame (km, km/s).
type TEME struct {
	X, Y, Z    float64
	VX, VY, VZ float64
}

// ECEF is a position/velocity state vector in the ECEF frame (km, km/s).
type ECEF struct {
	X, Y, Z    float64
	VX, VY, VZ float64
}

// TEMEToECEF transforms a TEME state to ECEF at the given UTC time.
func TEMEToECEF(teme TEME, t time.Time) ECEF {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST transforms TEME to ECEF using a precomputed GMST angle
// (radians). Callers propagating many states to the same instant compute
// GMST once.
//
// Position: r_ECEF = R3(θ) * r_TEME
// Velocity: v_ECEF = R3(θ) * v_TEME - ω × r_ECEF, ω = [0, 0, ω_earth].
func TEMEToECEFWithGMST(teme TEME, gmst float64) ECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	x := teme.X*cosG + teme.Y*sinG
	y := -teme.X*sinG + teme.Y*cosG
	z := teme.Z

	vx := teme.VX*cosG + teme.VY*sinG
	vy := -teme.VX*sinG + teme.VY*cosG
	vz := teme.VZ

	// ω × r_ECEF = [-ω*y, ω*x, 0]
	return ECEF{
		X: x, Y: y, Z: z,
		VX: vx + OmegaEarth*y,
		VY: vy - OmegaEarth*x,
		VZ: vz,
	}
}

// Valid reports whether the position is physically plausible for an
// Earth-orbiting object: finite, and between ~6200 km and ~50000 km from
// the geocenter (below LEO floor and above GEO ceiling are both rejected).
func (e ECEF) Valid() bool {
	if math.IsNaN(e.X) || math.IsNaN(e.Y) || math.IsNaN(e.Z) {
		return false
	}
	if math.IsInf(e.X, 0) || math.IsInf(e.Y, 0) || math.IsInf(e.Z, 0) {
		return false
	}
	mag := math.Sqrt(e.X*e.X + e.Y*e.Y + e.Z*e.Z)
	return mag >= 6200.0 && mag <= 50000.0
}
