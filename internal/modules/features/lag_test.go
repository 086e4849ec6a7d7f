package features

import (
	"errors"
	"testing"

	"github.com/aristath/thalia/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() *domain.PriceTable {
	return &domain.PriceTable{
		Assets: []string{"A", "B"},
		Prices: [][]float64{
			{100, 10},
			{110, 11},
			{99, 11},
			{99, 12.1},
			{108.9, 6.05},
		},
	}
}

func pct(prev, curr float64) float64 {
	return (curr - prev) / prev
}

func TestLagVariables_RowCountAndWidth(t *testing.T) {
	pt := fixture()
	for nLag := 0; nLag < pt.Len(); nLag++ {
		ft, err := LagVariables(pt, nLag)
		require.NoError(t, err)
		assert.Equal(t, pt.Len()-nLag, ft.Len(), "nLag=%d", nLag)
		assert.Equal(t, pt.NumAssets()*nLag, ft.Width(), "nLag=%d", nLag)
		for _, row := range ft.Rows {
			assert.Len(t, row, ft.Width())
		}
	}
}

func TestLagVariables_MatchesManualWindows(t *testing.T) {
	pt := fixture()
	ft, err := LagVariables(pt, 2)
	require.NoError(t, err)
	require.Equal(t, 3, ft.Len())

	for r, row := range ft.Rows {
		p := pt.Prices
		expected := []float64{
			pct(p[r][0], p[r+1][0]), pct(p[r][1], p[r+1][1]),
			pct(p[r+1][0], p[r+2][0]), pct(p[r+1][1], p[r+2][1]),
		}
		assert.InDeltaSlice(t, expected, row, 1e-12, "row %d", r)
	}

	assert.InDelta(t, 0.10, ft.Rows[0][0], 1e-12)
	assert.InDelta(t, -0.10, ft.Rows[0][2], 1e-12)
	assert.InDelta(t, -0.5, ft.Rows[2][3], 1e-12)
}

func TestLagVariables_InsufficientData(t *testing.T) {
	pt := fixture()
	for _, nLag := range []int{5, 6} {
		_, err := LagVariables(pt, nLag)
		var dataErr *domain.InsufficientDataError
		require.True(t, errors.As(err, &dataErr), "nLag=%d", nLag)
		assert.Equal(t, 5, dataErr.Rows)
	}

	_, err := LagVariables(pt, -1)
	var dimErr *domain.DimensionMismatchError
	assert.True(t, errors.As(err, &dimErr))
}

func TestColumnNames(t *testing.T) {
	assert.Equal(t,
		[]string{"A-2", "B-2", "A-1", "B-1", "A", "B"},
		ColumnNames([]string{"A", "B"}, 3))
	assert.Equal(t, []string{"A"}, ColumnNames([]string{"A"}, 1))
	assert.Empty(t, ColumnNames([]string{"A"}, 0))
}
