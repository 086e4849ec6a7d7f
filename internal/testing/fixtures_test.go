package testing

import (
	"strings"
	"testing"

	"github.com/aristath/thalia/internal/modules/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPricesCSV_LoadsBack(t *testing.T) {
	pt := WavePrices(30, "X", "Y", "Z")

	loaded, err := dataset.LoadCSV(strings.NewReader(PricesCSV(pt)), dataset.LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, pt.Assets, loaded.Assets)
	require.Equal(t, 30, loaded.Len())
	for i := range pt.Prices {
		assert.InDeltaSlice(t, pt.Prices[i], loaded.Prices[i], 1e-6)
	}
	assert.Equal(t, 2006, loaded.Dates[29].Year())
}

func TestNewTestDB_CleanupIsIdempotent(t *testing.T) {
	db, cleanup := NewTestDB(t, "runs")
	require.NoError(t, db.Conn().Ping())
	cleanup()
	cleanup()
}

func TestConstantAllocation_CopiesRows(t *testing.T) {
	at := ConstantAllocation([]string{"A", "B"}, []float64{0.25, 0.75}, 3)
	require.Equal(t, 3, at.Len())
	at.Rows[0][0] = 1
	assert.Equal(t, 0.25, at.Rows[1][0])
}
