package risk

import (
	"fmt"
	"math"
)

// RiskLevel classifies an annualized collision probability.
//
// This scale and ThreatLevel are deliberately independent: one grades a
// probability, the other a raw separation distance. They must not be
// compared or converted into each other.
type RiskLevel string

const (
	RiskCritical RiskLevel = "CRITICAL"
	RiskHigh     RiskLevel = "HIGH"
	RiskModerate RiskLevel = "MODERATE"
	RiskLow      RiskLevel = "LOW"
)

// ClassifyProbability maps a collision probability to a RiskLevel.
func ClassifyProbability(p float64) RiskLevel {
	switch {
	case p > 0.1:
		return RiskCritical
	case p > 0.01:
		return RiskHigh
	case p > 0.001:
		return RiskModerate
	default:
		return RiskLow
	}
}

// ThreatLevel classifies a proximity distance. See RiskLevel for why the
// two scales stay separate.
type ThreatLevel string

const (
	ThreatCritical ThreatLevel = "CRITICAL"
	ThreatHigh     ThreatLevel = "HIGH"
	ThreatMedium   ThreatLevel = "MEDIUM"
	ThreatLow      ThreatLevel = "LOW"
)

// ClassifyDistance maps a separation in km to a ThreatLevel.
func ClassifyDistance(distanceKm float64) ThreatLevel {
	switch {
	case distanceKm < 50:
		return ThreatCritical
	case distanceKm < 200:
		return ThreatHigh
	case distanceKm < 500:
		return ThreatMedium
	default:
		return ThreatLow
	}
}

// validPosition rejects positions the geometry cannot handle.
func validPosition(p Position) error {
	for _, v := range [...]float64{p.LatDeg, p.LonDeg, p.AltKm} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: position (%v, %v, %v)", ErrInvalidRiskParameters, p.LatDeg, p.LonDeg, p.AltKm)
		}
	}
	if p.LatDeg < -90 || p.LatDeg > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidRiskParameters, p.LatDeg)
	}
	if p.AltKm < -earthRadiusKm {
		return fmt.Errorf("%w: altitude %v below geocenter", ErrInvalidRiskParameters, p.AltKm)
	}
	return nil
}
