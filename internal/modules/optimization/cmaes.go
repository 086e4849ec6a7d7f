package optimization

import (
	"context"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/optimize"
)

// CMAES adapts gonum's Cholesky-based CMA-ES to the Optimizer interface.
// Population × Iterations bounds the number of function evaluations.
type CMAES struct {
	Population   int
	Iterations   int
	InitStepSize float64 // defaults to half the init interval
	InitLow      float64
	InitHigh     float64
	Concurrent   int // parallel evaluations, defaults to Population
}

// NewCMAES derives a CMA-ES configuration from a swarm configuration so the
// two strategies share the same evaluation budget
func NewCMAES(cfg SwarmConfig) *CMAES {
	return &CMAES{
		Population: cfg.ParticleCount,
		Iterations: cfg.Iterations,
		InitLow:    cfg.InitLow,
		InitHigh:   cfg.InitHigh,
	}
}

// Minimize starts from the centre of the init interval
func (c *CMAES) Minimize(ctx context.Context, objective BatchObjective, dims int) (*Result, error) {
	if dims < 1 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dims)
	}
	if c.Population < 2 || c.Iterations < 1 {
		return nil, fmt.Errorf("cma-es needs population >= 2 and iterations >= 1, got %d and %d", c.Population, c.Iterations)
	}

	step := c.InitStepSize
	if step <= 0 {
		step = (c.InitHigh - c.InitLow) / 2
	}
	if step <= 0 {
		step = 0.5
	}
	concurrent := c.Concurrent
	if concurrent <= 0 {
		concurrent = c.Population
	}

	init := make([]float64, dims)
	for i := range init {
		init[i] = (c.InitLow + c.InitHigh) / 2
	}

	tracker := &bestTracker{best: math.Inf(1), every: c.Population}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if ctx.Err() != nil {
				return math.Inf(1)
			}
			loss := objective.EvaluateBatch(ctx, [][]float64{x})[0]
			if math.IsNaN(loss) {
				loss = math.Inf(1)
			}
			tracker.observe(x, loss)
			return loss
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: c.Population * c.Iterations,
		Concurrent:      concurrent,
		Converger:       optimize.NeverTerminate{},
	}
	method := &optimize.CmaEsChol{
		InitStepSize: step,
		Population:   c.Population,
	}

	_, err := optimize.Minimize(problem, init, settings, method)
	res := tracker.result()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, fmt.Errorf("cma-es stopped after %d evaluations: %w", res.Evaluations, ctxErr)
	}
	if err != nil {
		return nil, fmt.Errorf("cma-es failed: %w", err)
	}
	return res, nil
}

// bestTracker records the best location across concurrent evaluations and
// closes one history entry per generation
type bestTracker struct {
	mu      sync.Mutex
	best    float64
	pos     []float64
	history []float64
	evals   int
	every   int
}

func (t *bestTracker) observe(x []float64, loss float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.evals++
	if loss < t.best || t.pos == nil {
		if loss < t.best {
			t.best = loss
		}
		t.pos = append(t.pos[:0], x...)
	}
	if t.evals%t.every == 0 {
		t.history = append(t.history, t.best)
	}
}

func (t *bestTracker) result() *Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	history := append([]float64(nil), t.history...)
	if t.evals%t.every != 0 {
		history = append(history, t.best)
	}
	return &Result{
		BestLoss:     t.best,
		BestPosition: append([]float64(nil), t.pos...),
		History:      history,
		Iterations:   len(history),
		Evaluations:  t.evals,
	}
}
