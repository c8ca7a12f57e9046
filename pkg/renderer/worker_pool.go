package renderer

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// PixelRange is a half-open range [Start, End) of pixel indices
type PixelRange struct {
	Start, End int
}

// Len returns the number of pixels in the range
func (r PixelRange) Len() int { return r.End - r.Start }

// PartitionPixels splits [0, pixelCount) into at most workers contiguous
// chunks of ceil(pixelCount/workers) pixels. Empty chunks are dropped, so the
// result covers every index exactly once.
func PartitionPixels(pixelCount, workers int) []PixelRange {
	if pixelCount <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (pixelCount + workers - 1) / workers
	ranges := make([]PixelRange, 0, workers)
	for start := 0; start < pixelCount; start += chunk {
		ranges = append(ranges, PixelRange{Start: start, End: min(start+chunk, pixelCount)})
	}
	return ranges
}

// WorkerPool fork-joins a fixed number of workers over static pixel ranges.
// No goroutines outlive a Run call.
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a pool; numWorkers <= 0 uses the CPU count
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Run partitions pixelCount pixels and calls fn once per range concurrently,
// returning after every worker has finished
func (wp *WorkerPool) Run(pixelCount int, fn func(worker int, r PixelRange) error) error {
	ranges := PartitionPixels(pixelCount, wp.numWorkers)
	for i, r := range ranges {
		if r.Start < 0 || r.End > pixelCount || r.Len() <= 0 {
			return fmt.Errorf("worker %d: range [%d, %d) outside %d pixels", i, r.Start, r.End, pixelCount)
		}
	}

	var g errgroup.Group
	for i, r := range ranges {
		i, r := i, r // per-iteration copies; go.mod targets go1.21 loop semantics
		g.Go(func() error {
			return fn(i, r)
		})
	}
	return g.Wait()
}
