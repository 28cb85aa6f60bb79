package propagation

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/orbit/orbitguard/internal/tle"
)

// ISS TLE (epoch 2024). Real orbital elements used for testing.
const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func issRecord(t *testing.T) tle.Record {
	t.Helper()
	records, err := tle.Parse(strings.NewReader("ISS (ZARYA)\n"+issLine1+"\n"+issLine2+"\n"), testLogger())
	if err != nil || len(records) != 1 {
		t.Fatalf("fixture parse failed: %v (%d records)", err, len(records))
	}
	return records[0]
}

// TestPropagateSampleCount verifies the window arithmetic: a 120-minute
// window at 60 s steps yields 121 samples, start inclusive.
func TestPropagateSampleCount(t *testing.T) {
	prop := NewPropagator(Config{Workers: 4}, testLogger())
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

	samples, err := prop.Propagate(context.Background(), issRecord(t), start, 120, 60)
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}
	if len(samples) != 121 {
		t.Fatalf("got %d samples, want 121", len(samples))
	}

	if !samples[0].Timestamp.Equal(start) {
		t.Errorf("first sample at %v, want %v", samples[0].Timestamp, start)
	}
	for i := 1; i < len(samples); i++ {
		if got := samples[i].Timestamp.Sub(samples[i-1].Timestamp); got != 60*time.Second {
			t.Fatalf("sample %d spacing = %v, want 60s", i, got)
		}
	}
}

// TestPropagatePhysicallyPlausible verifies the ISS track stays in its
// expected altitude band with inclination-bounded latitudes.
func TestPropagatePhysicallyPlausible(t *testing.T) {
	prop := NewPropagator(Config{Workers: 4}, testLogger())
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

	samples, err := prop.Propagate(context.Background(), issRecord(t), start, 90, 30)
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	for i, s := range samples {
		if s.AltKm < 300 || s.AltKm > 500 {
			t.Errorf("sample %d altitude %.1f km outside ISS band [300, 500]", i, s.AltKm)
		}
		// Latitude cannot exceed the orbital inclination.
		if math.Abs(s.LatDeg) > 51.64+0.5 {
			t.Errorf("sample %d latitude %.2f exceeds inclination bound", i, s.LatDeg)
		}
		if s.LonDeg <= -180 || s.LonDeg > 180 {
			t.Errorf("sample %d longitude %.2f outside (-180, 180]", i, s.LonDeg)
		}
	}
}

// TestPropagateInvalidWindow verifies window validation.
func TestPropagateInvalidWindow(t *testing.T) {
	prop := NewPropagator(Config{Workers: 2}, testLogger())
	rec := issRecord(t)
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		minutes int
		step    int
	}{
		{"zero duration", 0, 60},
		{"negative duration", -5, 60},
		{"zero step", 120, 0},
		{"negative step", 120, -1},
	}

	for _, tc := range tests {
		_, err := prop.Propagate(context.Background(), rec, start, tc.minutes, tc.step)
		if !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("%s: got %v, want ErrInvalidWindow", tc.name, err)
		}
	}
}

// TestPropagateInvalidElements verifies a structurally valid record with
// degenerate elements surfaces ErrInvalidOrbitalElements.
func TestPropagateInvalidElements(t *testing.T) {
	// Mean motion of zero: the line is well formed but cannot seed SGP4.
	rec := tle.Record{
		CatalogID: 99999,
		Name:      "DEGENERATE",
		Line1:     "1 99999U 24001A   24100.50000000  .00000000  00000-0  00000-0 0  9999",
		Line2:     "2 99999   0.0000   0.0000 0000000   0.0000   0.0000  0.00000000    00",
	}

	prop := NewPropagator(Config{Workers: 2}, testLogger())
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

	_, err := prop.Propagate(context.Background(), rec, start, 10, 60)
	if !errors.Is(err, ErrInvalidOrbitalElements) {
		t.Errorf("got %v, want ErrInvalidOrbitalElements", err)
	}
}

// TestPropagateCanceledContext verifies cancellation aborts the batch.
func TestPropagateCanceledContext(t *testing.T) {
	prop := NewPropagator(Config{Workers: 2}, testLogger())
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := prop.Propagate(ctx, issRecord(t), start, 1440, 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

// TestPositionAt verifies the single-instant helper matches the batch path.
func TestPositionAt(t *testing.T) {
	prop := NewPropagator(Config{Workers: 2}, testLogger())
	rec := issRecord(t)
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)

	single, err := prop.PositionAt(rec, start)
	if err != nil {
		t.Fatalf("PositionAt failed: %v", err)
	}

	samples, err := prop.Propagate(context.Background(), rec, start, 1, 60)
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	if math.Abs(single.LatDeg-samples[0].LatDeg) > 1e-9 ||
		math.Abs(single.LonDeg-samples[0].LonDeg) > 1e-9 ||
		math.Abs(single.AltKm-samples[0].AltKm) > 1e-9 {
		t.Errorf("PositionAt %+v differs from batch sample %+v", single, samples[0])
	}
}

// TestWorkerPoolSingleWorker verifies the pool degrades to serial execution.
func TestWorkerPoolSingleWorker(t *testing.T) {
	model, err := NewModel(issRecord(t))
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}

	pool := NewWorkerPool(0, testLogger()) // clamped to 1
	start := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	times := []time.Time{start, start.Add(time.Minute), start.Add(2 * time.Minute)}

	samples, err := pool.SampleTimes(context.Background(), model, times)
	if err != nil {
		t.Fatalf("SampleTimes failed: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	for i, s := range samples {
		if !s.Timestamp.Equal(times[i]) {
			t.Errorf("sample %d at %v, want %v (order must be preserved)", i, s.Timestamp, times[i])
		}
	}
}

// TestWorkerPoolEmptyInput verifies the zero-work case.
func TestWorkerPoolEmptyInput(t *testing.T) {
	model, err := NewModel(issRecord(t))
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	pool := NewWorkerPool(4, testLogger())
	samples, err := pool.SampleTimes(context.Background(), model, nil)
	if err != nil || samples != nil {
		t.Errorf("SampleTimes(nil) = %v, %v; want nil, nil", samples, err)
	}
}
