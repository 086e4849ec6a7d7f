package objective

import (
	"context"
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
)

// WorkerPool manages a pool of worker goroutines for parallel candidate
// evaluation
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a pool. A non-positive count uses DefaultWorkers.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkers()
	}
	return &WorkerPool{
		numWorkers: numWorkers,
	}
}

// DefaultWorkers returns the host's logical CPU count
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Workers returns the configured worker count
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// EvalFunc scores the candidate at index
type EvalFunc func(index int, candidate []float64) float64

// jobItem represents a single evaluation job
type jobItem struct {
	candidate []float64
	index     int
}

// resultItem represents the result of an evaluation job
type resultItem struct {
	loss  float64
	index int
}

// Run distributes candidates across workers and returns the losses in input
// order. Jobs not started before ctx is cancelled score WorstLoss.
func (wp *WorkerPool) Run(ctx context.Context, candidates [][]float64, eval EvalFunc) []float64 {
	numCandidates := len(candidates)
	if numCandidates == 0 {
		return []float64{}
	}

	jobs := make(chan jobItem, numCandidates)
	results := make(chan resultItem, numCandidates)

	var wg sync.WaitGroup
	numActualWorkers := wp.numWorkers
	if numCandidates < numActualWorkers {
		numActualWorkers = numCandidates // Don't spawn more workers than candidates
	}

	for i := 0; i < numActualWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results, eval)
		}()
	}

	for idx, candidate := range candidates {
		jobs <- jobItem{
			index:     idx,
			candidate: candidate,
		}
	}
	close(jobs)

	// Full join before collecting
	wg.Wait()
	close(results)

	losses := make([]float64, numCandidates)
	for result := range results {
		losses[result.index] = result.loss
	}
	return losses
}

// worker is the worker goroutine that processes evaluation jobs
func worker(ctx context.Context, jobs <-chan jobItem, results chan<- resultItem, eval EvalFunc) {
	for job := range jobs {
		loss := WorstLoss
		if ctx.Err() == nil {
			loss = eval(job.index, job.candidate)
		}
		results <- resultItem{
			index: job.index,
			loss:  loss,
		}
	}
}
