// Package report backtests a trained weight vector on a set of segments.
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/aristath/thalia/internal/domain"
	"github.com/aristath/thalia/internal/modules/backtest"
	"github.com/aristath/thalia/internal/modules/dataset"
	"github.com/aristath/thalia/internal/modules/features"
	"github.com/aristath/thalia/internal/modules/network"
	"golang.org/x/sync/errgroup"
)

// Segment roles used by the default train / validate / hold-out flow
const (
	RoleTrain       = "train"
	RoleValidation  = "validation"
	RoleOutOfSample = "out_of_sample"
)

// Segment is a named price table to evaluate
type Segment struct {
	Index  int
	Role   string
	Prices *domain.PriceTable
}

// SegmentReport is the backtest of one segment
type SegmentReport struct {
	Segment     Segment
	Rows        int
	Metric      float64
	FinalCash   float64
	MaxDrawdown float64
	Degenerate  bool
	Result      *backtest.Result
}

type options struct {
	benchmark string
	limit     int
}

// Option customizes Evaluate
type Option func(*options)

// WithBenchmark passes a named benchmark asset to every backtest
func WithBenchmark(asset string) Option {
	return func(o *options) { o.benchmark = asset }
}

// WithConcurrency bounds the number of segments evaluated at once; n <= 0
// leaves it unbounded
func WithConcurrency(n int) Option {
	return func(o *options) { o.limit = n }
}

// Evaluate runs lag features, the allocation network and the backtest on each
// segment. Reports keep the order of segments. A degenerate metric is reported
// with Degenerate set rather than failing the whole evaluation.
func Evaluate(ctx context.Context, segments []Segment, w domain.WeightVector, topo domain.Topology, omega float64, opts ...Option) ([]SegmentReport, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	net, err := network.New(w, topo)
	if err != nil {
		return nil, fmt.Errorf("failed to build network: %w", err)
	}

	var simOpts []backtest.Option
	if o.benchmark != "" {
		simOpts = append(simOpts, backtest.WithBenchmark(o.benchmark))
	}

	reports := make([]SegmentReport, len(segments))
	g, ctx := errgroup.WithContext(ctx)
	if o.limit > 0 {
		g.SetLimit(o.limit)
	}

	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rep, err := evaluateSegment(net, seg, topo.Lags, omega, simOpts)
			if err != nil {
				return fmt.Errorf("segment %d (%s): %w", seg.Index, seg.Role, err)
			}
			reports[i] = rep
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func evaluateSegment(net *network.Network, seg Segment, nLag int, omega float64, simOpts []backtest.Option) (SegmentReport, error) {
	ft, err := features.LagVariables(seg.Prices, nLag)
	if err != nil {
		return SegmentReport{}, err
	}
	alloc, err := net.Forward(ft, seg.Prices.Assets)
	if err != nil {
		return SegmentReport{}, err
	}

	res, err := backtest.Simulate(seg.Prices, alloc, nLag, omega, simOpts...)
	var degenerate *domain.DegenerateMetricError
	if err != nil && !errors.As(err, &degenerate) {
		return SegmentReport{}, err
	}

	return SegmentReport{
		Segment:     seg,
		Rows:        seg.Prices.Len(),
		Metric:      res.Metric,
		FinalCash:   res.FinalCash,
		MaxDrawdown: backtest.MaxDrawdown(res.Cash),
		Degenerate:  degenerate != nil,
		Result:      res,
	}, nil
}

// DefaultSegments builds the train, validation and combined hold-out
// segments from a split: segment 0, segment 1 and the concatenation of
// segments 1..n-1.
func DefaultSegments(parts []*domain.PriceTable) ([]Segment, error) {
	if len(parts) == 0 {
		return nil, &domain.InvalidSplitError{Splits: 0, Rows: 0}
	}

	segments := []Segment{{Index: 0, Role: RoleTrain, Prices: parts[0]}}
	if len(parts) < 2 {
		return segments, nil
	}
	segments = append(segments, Segment{Index: 1, Role: RoleValidation, Prices: parts[1]})
	if len(parts) < 3 {
		return segments, nil
	}

	holdout, err := dataset.Concat(parts[1:]...)
	if err != nil {
		return nil, err
	}
	return append(segments, Segment{Index: 2, Role: RoleOutOfSample, Prices: holdout}), nil
}
