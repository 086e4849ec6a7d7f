package optimization

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/aristath/thalia/internal/domain"
	"github.com/aristath/thalia/internal/modules/objective"
	"github.com/rs/zerolog"
)

// Driver runs an Optimizer over the objective of one price segment
type Driver struct {
	optimizer Optimizer
	workers   int
	benchmark string
	log       zerolog.Logger
}

// DriverOption customizes a Driver
type DriverOption func(*Driver)

// WithWorkers sets the objective's batch worker count
func WithWorkers(n int) DriverOption {
	return func(d *Driver) {
		d.workers = n
	}
}

// WithBenchmark names the benchmark asset used by the backtest
func WithBenchmark(asset string) DriverOption {
	return func(d *Driver) {
		d.benchmark = asset
	}
}

// NewDriver creates a search driver
func NewDriver(opt Optimizer, log zerolog.Logger, opts ...DriverOption) *Driver {
	d := &Driver{
		optimizer: opt,
		log:       log.With().Str("component", "search").Logger(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Optimize returns the best loss and its weight vector
func (d *Driver) Optimize(ctx context.Context, ft *domain.FeatureTable, pt *domain.PriceTable, topo domain.Topology, omega float64) (float64, domain.WeightVector, error) {
	res, err := d.Search(ctx, ft, pt, topo, omega)
	if err != nil {
		return 0, nil, err
	}
	return res.BestLoss, res.BestPosition, nil
}

// Search runs the optimizer and returns its full result
func (d *Driver) Search(ctx context.Context, ft *domain.FeatureTable, pt *domain.PriceTable, topo domain.Topology, omega float64) (*Result, error) {
	fn, err := objective.New(pt, ft, topo, omega,
		objective.WithWorkers(d.workers),
		objective.WithBenchmark(d.benchmark),
		objective.WithLogger(d.log),
	)
	if err != nil {
		return nil, err
	}

	d.log.Info().
		Int("dimensions", topo.Dimensions()).
		Int("rows", pt.Len()).
		Int("assets", topo.Assets).
		Int("lags", topo.Lags).
		Int("neurons", topo.Neurons).
		Float64("omega", omega).
		Msg("Starting weight search")

	start := time.Now()
	res, err := d.optimizer.Minimize(ctx, &progressObjective{inner: fn, log: d.log, best: math.Inf(1)}, topo.Dimensions())
	if err != nil {
		if res != nil {
			// interrupted: hand back the best position found so far
			d.log.Warn().Err(err).Int("iterations", res.Iterations).Msg("Weight search interrupted")
		}
		return res, err
	}

	d.log.Info().
		Float64("best_loss", res.BestLoss).
		Float64("best_metric", -res.BestLoss).
		Int("iterations", res.Iterations).
		Int("evaluations", res.Evaluations).
		Dur("elapsed", time.Since(start)).
		Msg("Weight search complete")

	return res, nil
}

// progressObjective logs the running best after every batch
type progressObjective struct {
	inner   BatchObjective
	log     zerolog.Logger
	mu      sync.Mutex
	batches int
	best    float64
}

func (p *progressObjective) EvaluateBatch(ctx context.Context, candidates [][]float64) []float64 {
	losses := p.inner.EvaluateBatch(ctx, candidates)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches++
	failed := 0
	for _, l := range losses {
		if math.IsInf(l, 1) {
			failed++
		}
		if l < p.best {
			p.best = l
		}
	}
	if len(candidates) > 1 {
		p.log.Debug().
			Int("batch", p.batches).
			Int("candidates", len(candidates)).
			Int("failed", failed).
			Float64("best_loss", p.best).
			Msg("Batch evaluated")
	}
	return losses
}
