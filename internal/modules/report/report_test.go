package report

import (
	"context"
	"testing"

	"github.com/aristath/thalia/internal/domain"
	"github.com/aristath/thalia/internal/modules/backtest"
	testingpkg "github.com/aristath/thalia/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var topo = domain.Topology{Assets: 3, Lags: 1, Neurons: 2}

func TestEvaluate_ZeroWeightsHoldCash(t *testing.T) {
	w := make(domain.WeightVector, topo.Dimensions())

	reports, err := Evaluate(context.Background(), []Segment{{Index: 0, Role: RoleTrain, Prices: testingpkg.FivePrices()}}, w, topo, 1.0)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	rep := reports[0]
	assert.Equal(t, backtest.InitialCash, rep.FinalCash)
	assert.Equal(t, 0.0, rep.MaxDrawdown)
	assert.Equal(t, 5, rep.Rows)
	assert.False(t, rep.Degenerate)
	// excess is the negated benchmark return, as with nLag 0
	assert.InDelta(t, -5.882, rep.Metric, 1e-3)
}

func TestEvaluate_DegenerateSegmentIsReported(t *testing.T) {
	w := make(domain.WeightVector, topo.Dimensions())
	segments := []Segment{
		{Index: 0, Role: RoleTrain, Prices: testingpkg.FivePrices()},
		{Index: 1, Role: RoleValidation, Prices: testingpkg.FlatPrices(6)},
	}

	reports, err := Evaluate(context.Background(), segments, w, topo, 2.0)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.False(t, reports[0].Degenerate)
	assert.True(t, reports[1].Degenerate)
	assert.Equal(t, RoleValidation, reports[1].Segment.Role)
}

func TestEvaluate_KeepsSegmentOrder(t *testing.T) {
	w := make(domain.WeightVector, topo.Dimensions())
	var segments []Segment
	for i := 0; i < 12; i++ {
		segments = append(segments, Segment{Index: i, Role: RoleValidation, Prices: testingpkg.FlatPrices(i + 2)})
	}

	reports, err := Evaluate(context.Background(), segments, w, topo, 1.0, WithConcurrency(3))
	require.NoError(t, err)
	for i, rep := range reports {
		assert.Equal(t, i, rep.Segment.Index)
		assert.Equal(t, i+2, rep.Rows)
	}
}

func TestEvaluate_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Evaluate(ctx, nil, domain.WeightVector{1, 2}, topo, 1.0)
	assert.Error(t, err, "wrong weight length")

	w := make(domain.WeightVector, topo.Dimensions())
	_, err = Evaluate(ctx, []Segment{{Index: 0, Role: RoleTrain, Prices: testingpkg.FlatPrices(1)}}, w, topo, 1.0)
	var insufficient *domain.InsufficientDataError
	assert.ErrorAs(t, err, &insufficient)

	_, err = Evaluate(ctx, []Segment{{Index: 0, Role: RoleTrain, Prices: testingpkg.FivePrices()}}, w, topo, 1.0, WithBenchmark("Z"))
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Evaluate(cancelled, []Segment{{Index: 0, Role: RoleTrain, Prices: testingpkg.FivePrices()}}, w, topo, 1.0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultSegments(t *testing.T) {
	parts := []*domain.PriceTable{testingpkg.FlatPrices(4), testingpkg.FlatPrices(4), testingpkg.FlatPrices(5)}

	segments, err := DefaultSegments(parts)
	require.NoError(t, err)
	require.Len(t, segments, 3)
	assert.Equal(t, RoleTrain, segments[0].Role)
	assert.Equal(t, RoleValidation, segments[1].Role)
	assert.Equal(t, RoleOutOfSample, segments[2].Role)
	assert.Equal(t, 9, segments[2].Prices.Len())

	segments, err = DefaultSegments(parts[:1])
	require.NoError(t, err)
	assert.Len(t, segments, 1)

	_, err = DefaultSegments(nil)
	assert.Error(t, err)
}
