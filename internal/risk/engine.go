// Package risk scores debris candidates against an owned object: 3-D
// separation on a spherical Earth, circular-orbit relative speed, a blended
// proximity factor, and a Poisson annualized collision probability.
//
// All functions are pure; the package owns no state.
package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

const (
	// earthRadiusKm is the mean spherical Earth radius used by the
	// proximity geometry (not the WGS-84 semi-major axis: the risk model
	// works on the sphere, matching the flux grid's altitude axis).
	earthRadiusKm = 6371.0

	// muEarth is the standard gravitational parameter, km³/s².
	muEarth = 398600.0

	// velocityNormKmS caps the relative-velocity contribution: anything
	// at or above 10 km/s counts as maximal.
	velocityNormKmS = 10.0

	distanceWeight = 0.7
	velocityWeight = 0.3
)

// ErrInvalidRiskParameters rejects negative or NaN inputs before any
// probability or scoring computation runs.
var ErrInvalidRiskParameters = errors.New("risk: invalid parameters")

// Position is a geodetic position consumed by the proximity model.
type Position struct {
	LatDeg float64
	LonDeg float64
	AltKm  float64
}

// Candidate is a debris or satellite snapshot supplied by the enumerator.
// The engine consumes it read-only.
type Candidate struct {
	CatalogID uint32
	Name      string
	Position  Position
	SizeCm    float64
}

// Assessment is the derived risk for one candidate. Recomputed per query,
// never persisted.
type Assessment struct {
	Candidate           Candidate
	DistanceKm          float64
	RelativeVelocityKmS float64
	ProximityRiskFactor float64 // in [0, 1]
	Threat              ThreatLevel
}

// cartesian converts a geodetic position to Earth-centered coordinates on
// the R=6371 km sphere: r = R + alt, x = r·cosφ·cosλ, y = r·cosφ·sinλ,
// z = r·sinφ.
func cartesian(p Position) (x, y, z float64) {
	r := earthRadiusKm + p.AltKm
	lat := p.LatDeg * math.Pi / 180.0
	lon := p.LonDeg * math.Pi / 180.0
	return r * math.Cos(lat) * math.Cos(lon),
		r * math.Cos(lat) * math.Sin(lon),
		r * math.Sin(lat)
}

// Distance3D returns the Euclidean separation of two positions in km.
func Distance3D(a, b Position) float64 {
	ax, ay, az := cartesian(a)
	bx, by, bz := cartesian(b)
	dx, dy, dz := ax-bx, ay-by, az-bz
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// RelativeVelocity approximates the speed difference of two bodies on
// circular orbits at their own radii: |sqrt(μ/r_a) - sqrt(μ/r_b)|, km/s.
func RelativeVelocity(a, b Position) float64 {
	va := math.Sqrt(muEarth / (earthRadiusKm + a.AltKm))
	vb := math.Sqrt(muEarth / (earthRadiusKm + b.AltKm))
	return math.Abs(va - vb)
}

// ProximityRisk blends closeness and closing speed into [0, 1]:
//
//	0.7·(max-d)/max + 0.3·min(1, v/10)
//
// The second return is false when the candidate lies beyond maxDistanceKm;
// such candidates are excluded from results entirely, not scored at zero.
func ProximityRisk(distanceKm, relativeVelocityKmS, maxDistanceKm float64) (float64, bool) {
	if distanceKm > maxDistanceKm {
		return 0, false
	}
	distFactor := (maxDistanceKm - distanceKm) / maxDistanceKm
	velFactor := math.Min(1, relativeVelocityKmS/velocityNormKmS)
	return distanceWeight*distFactor + velocityWeight*velFactor, true
}

// RankByProximity orders assessments by descending proximity risk factor.
// The sort is stable: ties keep their input order.
func RankByProximity(assessments []Assessment) {
	sort.SliceStable(assessments, func(i, j int) bool {
		return assessments[i].ProximityRiskFactor > assessments[j].ProximityRiskFactor
	})
}

// Assess scores every candidate within maxDistanceKm of own and returns
// them ranked by descending risk. Candidates beyond the radius are dropped.
func Assess(own Position, candidates []Candidate, maxDistanceKm float64) ([]Assessment, error) {
	if math.IsNaN(maxDistanceKm) || maxDistanceKm <= 0 {
		return nil, fmt.Errorf("%w: max distance %v km", ErrInvalidRiskParameters, maxDistanceKm)
	}
	if err := validPosition(own); err != nil {
		return nil, err
	}

	assessments := make([]Assessment, 0, len(candidates))
	for _, c := range candidates {
		if err := validPosition(c.Position); err != nil {
			return nil, err
		}
		d := Distance3D(own, c.Position)
		v := RelativeVelocity(own, c.Position)
		factor, ok := ProximityRisk(d, v, maxDistanceKm)
		if !ok {
			continue
		}
		assessments = append(assessments, Assessment{
			Candidate:           c,
			DistanceKm:          d,
			RelativeVelocityKmS: v,
			ProximityRiskFactor: factor,
			Threat:              ClassifyDistance(d),
		})
	}

	RankByProximity(assessments)
	return assessments, nil
}

// CollisionProbability is the Poisson no-collision model
// P = 1 - exp(-flux·area·years). Monotonically increasing in each input,
// zero exactly when the product is zero, saturating toward one.
func CollisionProbability(crossSectionM2, durationYears, fluxPerM2Year float64) (float64, error) {
	for _, v := range [...]float64{crossSectionM2, durationYears, fluxPerM2Year} {
		if math.IsNaN(v) || v < 0 {
			return 0, fmt.Errorf("%w: area=%v years=%v flux=%v", ErrInvalidRiskParameters,
				crossSectionM2, durationYears, fluxPerM2Year)
		}
	}
	return 1.0 - math.Exp(-fluxPerM2Year*crossSectionM2*durationYears), nil
}

// Summary rolls up one assessment batch.
type Summary struct {
	Assessed  int
	HighRisk  int // Critical or High threat
	NearestKm float64
}

// Summarize computes batch rollups. NearestKm is zero for an empty batch.
func Summarize(assessments []Assessment) Summary {
	s := Summary{Assessed: len(assessments)}
	for i, a := range assessments {
		if a.Threat == ThreatCritical || a.Threat == ThreatHigh {
			s.HighRisk++
		}
		if i == 0 || a.DistanceKm < s.NearestKm {
			s.NearestKm = a.DistanceKm
		}
	}
	return s
}
