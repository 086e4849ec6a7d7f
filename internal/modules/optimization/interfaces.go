package optimization

import "context"

// BatchObjective scores a batch of candidate positions. Result i must belong
// to candidate i. Implementations must not retain or modify the candidates.
type BatchObjective interface {
	EvaluateBatch(ctx context.Context, candidates [][]float64) []float64
}

// Optimizer is a gradient-free global search over a fixed-dimension
// continuous space. Lower losses are better.
type Optimizer interface {
	Minimize(ctx context.Context, objective BatchObjective, dims int) (*Result, error)
}

// Result is the outcome of a search
type Result struct {
	BestLoss     float64
	BestPosition []float64
	History      []float64 // best loss after each iteration, non-increasing
	Iterations   int
	Evaluations  int
}

// Box is an axis-aligned interval applied to every dimension
type Box struct {
	Lower float64 `yaml:"lower"`
	Upper float64 `yaml:"upper"`
}

// Clamp limits v to the box
func (b Box) Clamp(v float64) float64 {
	if v < b.Lower {
		return b.Lower
	}
	if v > b.Upper {
		return b.Upper
	}
	return v
}

// ObjectiveFunc adapts a plain function to BatchObjective
type ObjectiveFunc func(x []float64) float64

// EvaluateBatch evaluates candidates sequentially
func (f ObjectiveFunc) EvaluateBatch(_ context.Context, candidates [][]float64) []float64 {
	out := make([]float64, len(candidates))
	for i, c := range candidates {
		out[i] = f(c)
	}
	return out
}
