package testing

import (
	"fmt"
	"math"
	"strings"

	"github.com/aristath/thalia/internal/domain"
)

// FivePrices returns the five-row, three-asset table used for hand-computed
// backtest values. Column A is third from last and so the default benchmark.
func FivePrices() *domain.PriceTable {
	return &domain.PriceTable{
		Assets: []string{"A", "B", "C"},
		Prices: [][]float64{
			{100, 50, 10},
			{101, 51, 10.2},
			{102, 50.5, 10.1},
			{100, 52, 10.3},
			{103, 53, 10.6},
		},
	}
}

// FlatPrices returns a three-asset table whose prices never change
func FlatPrices(rows int) *domain.PriceTable {
	pt := &domain.PriceTable{Assets: []string{"A", "B", "C"}}
	for i := 0; i < rows; i++ {
		pt.Prices = append(pt.Prices, []float64{10, 20, 30})
	}
	return pt
}

// WavePrices returns a deterministic table of smooth oscillating prices,
// one column per asset name
func WavePrices(rows int, assets ...string) *domain.PriceTable {
	if len(assets) == 0 {
		assets = []string{"A", "B", "C", "D"}
	}
	pt := &domain.PriceTable{Assets: assets, Prices: make([][]float64, rows)}
	for i := range pt.Prices {
		row := make([]float64, len(assets))
		x := float64(i)
		for c := range row {
			k := float64(c + 1)
			row[c] = 10*k + 0.2*k*x + 2*math.Sin(x/(k+1)+k)
		}
		pt.Prices[i] = row
	}
	return pt
}

var ptMonths = []string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}

// PricesCSV renders pt as a CSV with a "Data" column of Portuguese month
// labels starting at Jan-2004
func PricesCSV(pt *domain.PriceTable) string {
	var b strings.Builder
	b.WriteString("Data," + strings.Join(pt.Assets, ",") + "\n")
	for i, row := range pt.Prices {
		fmt.Fprintf(&b, "%s-%d", ptMonths[i%12], 2004+i/12)
		for _, v := range row {
			fmt.Fprintf(&b, ",%.6f", v)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// ConstantAllocation repeats one allocation vector n times
func ConstantAllocation(assets []string, weights []float64, n int) *domain.AllocationTable {
	rows := make([][]float64, n)
	for i := range rows {
		row := make([]float64, len(weights))
		copy(row, weights)
		rows[i] = row
	}
	return &domain.AllocationTable{Assets: assets, Rows: rows}
}
