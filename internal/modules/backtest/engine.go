// Package backtest replays allocation tables against realized returns and
// scores the result with an annualized, risk-scaled excess-return ratio.
package backtest

import (
	"math"

	"github.com/aristath/thalia/internal/domain"
	"github.com/aristath/thalia/pkg/formulas"
)

// InitialCash is the starting value of every cash trajectory
const InitialCash = 100.0

// benchmarkOffset selects the third-from-last column when no benchmark
// asset is named
const benchmarkOffset = 3

// Result is the outcome of one simulation
type Result struct {
	Metric     float64   // MeanExcess / (VolExcess * omega)
	FinalCash  float64   // last value of Cash
	Cash       []float64 // InitialCash followed by one value per step
	Returns    []float64 // portfolio return per step
	Excess     []float64 // portfolio return minus benchmark return per step
	MeanExcess float64   // annualized mean of Excess
	VolExcess  float64   // annualized sample stdev of Excess
	Benchmark  string    // benchmark asset identifier, empty when unnamed
}

type options struct {
	benchmark string
}

// Option customizes a simulation
type Option func(*options)

// WithBenchmark measures excess returns against a named asset instead of the
// third-from-last column
func WithBenchmark(asset string) Option {
	return func(o *options) {
		o.benchmark = asset
	}
}

// BenchmarkIndex resolves the benchmark column for a table
func BenchmarkIndex(pt *domain.PriceTable, asset string) (int, error) {
	if asset != "" {
		idx := pt.AssetIndex(asset)
		if idx < 0 {
			return -1, &domain.DimensionMismatchError{What: "benchmark asset " + asset, Got: -1, Expected: pt.NumAssets()}
		}
		return idx, nil
	}
	if pt.NumAssets() < benchmarkOffset {
		return -1, &domain.DimensionMismatchError{What: "asset count for default benchmark", Got: pt.NumAssets(), Expected: benchmarkOffset}
	}
	return pt.NumAssets() - benchmarkOffset, nil
}

// Simulate compounds cash over steps t = nLag..len-1, applying allocation row
// t-nLag to the percent change observed at t. The first price row has no
// prior price; when nLag is 0 that step is skipped.
//
// A zero (or non-finite) excess volatility returns the populated Result
// together with a *domain.DegenerateMetricError.
func Simulate(pt *domain.PriceTable, alloc *domain.AllocationTable, nLag int, omega float64, opts ...Option) (*Result, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if nLag < 0 {
		return nil, &domain.DimensionMismatchError{What: "lag depth", Got: nLag, Expected: 0}
	}
	if pt.Len() <= nLag {
		return nil, &domain.InsufficientDataError{Rows: pt.Len(), Required: nLag, Message: "nothing to simulate"}
	}
	if need := pt.Len() - nLag; alloc.Len() < need {
		return nil, &domain.DimensionMismatchError{What: "allocation rows", Got: alloc.Len(), Expected: need}
	}

	bench, err := BenchmarkIndex(pt, o.benchmark)
	if err != nil {
		return nil, err
	}

	start := nLag
	if start == 0 {
		start = 1
	}
	steps := pt.Len() - start

	res := &Result{
		Cash:      make([]float64, 1, steps+1),
		Returns:   make([]float64, 0, steps),
		Excess:    make([]float64, 0, steps),
		Benchmark: o.benchmark,
	}
	res.Cash[0] = InitialCash

	cash := InitialCash
	n := pt.NumAssets()
	for t := start; t < pt.Len(); t++ {
		weights := alloc.Rows[t-nLag]
		if len(weights) != n {
			return nil, &domain.DimensionMismatchError{What: "allocation row width", Got: len(weights), Expected: n}
		}

		prev, curr := pt.Prices[t-1], pt.Prices[t]
		stepReturn := 0.0
		for c := 0; c < n; c++ {
			stepReturn += formulas.PctChange(prev[c], curr[c]) * weights[c]
		}

		cash *= 1 + stepReturn
		res.Cash = append(res.Cash, cash)
		res.Returns = append(res.Returns, stepReturn)
		res.Excess = append(res.Excess, stepReturn-formulas.PctChange(prev[bench], curr[bench]))
	}
	res.FinalCash = cash

	res.MeanExcess = formulas.AnnualizedMean(res.Excess)
	res.VolExcess = formulas.AnnualizedVolatility(res.Excess)
	res.Metric = res.MeanExcess / (res.VolExcess * omega)

	if res.VolExcess == 0 || !formulas.IsFinite(res.Metric) {
		return res, &domain.DegenerateMetricError{
			Mean:       res.MeanExcess,
			Volatility: res.VolExcess,
			Metric:     res.Metric,
		}
	}
	return res, nil
}

// MaxDrawdown returns the largest peak-to-trough loss of a cash trajectory
// as a fraction of the peak
func MaxDrawdown(cash []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, c := range cash {
		if c > peak {
			peak = c
		}
		if peak > 0 {
			if dd := (peak - c) / peak; dd > worst {
				worst = dd
			}
		}
	}
	return worst
}
