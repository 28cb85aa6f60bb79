package propagation

import "time"

// Sample is one geodetic position along a propagated track.
// Samples are produced in ascending timestamp order.
type Sample struct {
	Timestamp time.Time
	LatDeg    float64
	LonDeg    float64
	AltKm     float64
}

// Config holds propagation settings loaded from the environment.
type Config struct {
	Workers int // worker pool size (default: runtime.NumCPU())
}
