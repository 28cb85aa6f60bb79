package propagation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/orbit/orbitguard/internal/metrics"
	"github.com/orbit/orbitguard/internal/tle"
)

// Propagator turns TLE records into geodetic position tracks.
// It is stateless with respect to queries; any number of Propagate calls
// may run concurrently.
type Propagator struct {
	pool   *WorkerPool
	config Config
	logger *slog.Logger
}

// NewPropagator creates a Propagator with the given configuration.
func NewPropagator(config Config, logger *slog.Logger) *Propagator {
	return &Propagator{
		pool:   NewWorkerPool(config.Workers, logger),
		config: config,
		logger: logger,
	}
}

// Propagate produces floor(durationMinutes*60/stepSeconds)+1 samples,
// uniformly spaced from start through the final step inclusive.
// Returns ErrInvalidWindow for out-of-range arguments and
// ErrInvalidOrbitalElements when the record cannot seed the SGP4 model.
func (p *Propagator) Propagate(ctx context.Context, rec tle.Record, start time.Time, durationMinutes, stepSeconds int) ([]Sample, error) {
	if durationMinutes < 1 {
		return nil, fmt.Errorf("%w: duration %d min, must be >= 1", ErrInvalidWindow, durationMinutes)
	}
	if stepSeconds < 1 {
		return nil, fmt.Errorf("%w: step %d s, must be >= 1", ErrInvalidWindow, stepSeconds)
	}

	model, err := NewModel(rec)
	if err != nil {
		return nil, err
	}

	steps := durationMinutes * 60 / stepSeconds
	times := make([]time.Time, steps+1)
	for i := range times {
		times[i] = start.Add(time.Duration(i*stepSeconds) * time.Second).UTC()
	}

	began := time.Now()
	samples, err := p.pool.SampleTimes(ctx, model, times)
	if err != nil {
		return nil, err
	}
	duration := time.Since(began)

	metrics.RecordPropagation(duration, len(samples))
	p.logger.Debug("propagation complete",
		"catalog_id", rec.CatalogID,
		"samples", len(samples),
		"duration_ms", duration.Milliseconds(),
	)

	return samples, nil
}

// PositionAt computes the single geodetic position of rec at t.
func (p *Propagator) PositionAt(rec tle.Record, t time.Time) (Sample, error) {
	model, err := NewModel(rec)
	if err != nil {
		return Sample{}, err
	}
	geo, err := model.GeodeticAt(t)
	if err != nil {
		return Sample{}, err
	}
	return Sample{
		Timestamp: t.UTC(),
		LatDeg:    geo.LatDeg,
		LonDeg:    geo.LonDeg,
		AltKm:     geo.AltKm,
	}, nil
}
