// Package objective turns a candidate weight vector into a scalar loss by
// running the allocation network and the backtest over fixed tables.
package objective

import (
	"context"
	"math"

	"github.com/aristath/thalia/internal/domain"
	"github.com/aristath/thalia/internal/modules/backtest"
	"github.com/aristath/thalia/internal/modules/network"
	"github.com/rs/zerolog"
)

// WorstLoss is the score assigned to candidates whose evaluation fails
var WorstLoss = math.Inf(1)

// Function binds the read-only price and feature tables of one segment. It
// holds no mutable state and is safe for concurrent use.
type Function struct {
	prices   *domain.PriceTable
	features *domain.FeatureTable
	topology domain.Topology
	omega    float64
	simOpts  []backtest.Option
	pool     *WorkerPool
	log      zerolog.Logger
}

// Option customizes a Function
type Option func(*Function)

// WithWorkers sets the batch worker count
func WithWorkers(n int) Option {
	return func(f *Function) {
		f.pool = NewWorkerPool(n)
	}
}

// WithBenchmark passes a named benchmark asset to the backtest
func WithBenchmark(asset string) Option {
	return func(f *Function) {
		if asset != "" {
			f.simOpts = append(f.simOpts, backtest.WithBenchmark(asset))
		}
	}
}

// WithLogger attaches a logger for failed candidates
func WithLogger(log zerolog.Logger) Option {
	return func(f *Function) {
		f.log = log.With().Str("component", "objective").Logger()
	}
}

// New creates an objective over one segment
func New(prices *domain.PriceTable, features *domain.FeatureTable, topo domain.Topology, omega float64, opts ...Option) (*Function, error) {
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	if features.Width() != topo.InputWidth() {
		return nil, &domain.DimensionMismatchError{What: "feature width", Got: features.Width(), Expected: topo.InputWidth()}
	}
	if prices.NumAssets() != topo.Assets {
		return nil, &domain.DimensionMismatchError{What: "price columns", Got: prices.NumAssets(), Expected: topo.Assets}
	}

	f := &Function{
		prices:   prices,
		features: features,
		topology: topo,
		omega:    omega,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.pool == nil {
		f.pool = NewWorkerPool(0)
	}
	return f, nil
}

// Dimensions is the weight vector length this objective expects
func (f *Function) Dimensions() int {
	return f.topology.Dimensions()
}

// Evaluate returns -metric for one candidate
func (f *Function) Evaluate(w domain.WeightVector) (float64, error) {
	alloc, err := network.Forward(f.features, w, f.topology, f.prices.Assets)
	if err != nil {
		return 0, err
	}
	res, err := backtest.Simulate(f.prices, alloc, f.topology.Lags, f.omega, f.simOpts...)
	if err != nil {
		return 0, err
	}
	return -res.Metric, nil
}

// EvaluateBatch scores every candidate independently. Result i belongs to
// candidate i; a candidate that errors or panics scores WorstLoss. The call
// returns only once every candidate has been scored.
func (f *Function) EvaluateBatch(ctx context.Context, candidates [][]float64) []float64 {
	return f.pool.Run(ctx, candidates, f.safeEvaluate)
}

func (f *Function) safeEvaluate(index int, w []float64) (loss float64) {
	defer func() {
		if p := recover(); p != nil {
			f.log.Debug().Int("candidate", index).Interface("panic", p).Msg("Candidate evaluation panicked")
			loss = WorstLoss
		}
	}()

	loss, err := f.Evaluate(w)
	if err != nil {
		f.log.Debug().Int("candidate", index).Err(err).Msg("Candidate scored as worst loss")
		return WorstLoss
	}
	return loss
}
