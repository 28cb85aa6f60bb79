package propagation

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orbit/orbitguard/internal/transform"
)

// WorkerPool fans the sample instants of one propagation window out across
// a fixed number of goroutines. Each worker writes to its own index of the
// output slice, so ascending time order is preserved without sorting.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{workers: workers, logger: logger}
}

// SampleTimes propagates the model to every instant in times.
// The whole batch fails on the first propagation error: a degenerate
// track must not surface as partial output.
func (wp *WorkerPool) SampleTimes(ctx context.Context, model *Model, times []time.Time) ([]Sample, error) {
	if len(times) == 0 {
		return nil, nil
	}

	samples := make([]Sample, len(times))
	indices := make(chan int, wp.workers*2)

	var (
		wg       sync.WaitGroup
		failed   atomic.Bool
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
		failed.Store(true)
	}

	for w := 0; w < wp.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Keep draining after a failure so the feeder never blocks.
			for i := range indices {
				if failed.Load() {
					continue
				}
				t := times[i]
				teme, err := model.StateTEME(t)
				if err != nil {
					fail(err)
					continue
				}
				geo := transform.ECEFToGeodetic(transform.TEMEToECEF(teme, t))
				samples[i] = Sample{
					Timestamp: t.UTC(),
					LatDeg:    geo.LatDeg,
					LonDeg:    geo.LonDeg,
					AltKm:     geo.AltKm,
				}
			}
		}()
	}

	for i := range times {
		select {
		case indices <- i:
		case <-ctx.Done():
			fail(ctx.Err())
		}
		if failed.Load() {
			break
		}
	}
	close(indices)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return samples, nil
}
