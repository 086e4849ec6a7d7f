// Package domain contains the value types shared by every stage of the
// search pipeline: price, feature and allocation tables, the network topology
// and the typed errors the stages return.
package domain

import (
	"math"
	"time"

	"github.com/aristath/thalia/pkg/formulas"
)

// PriceTable is a time-ordered table of asset prices. Rows are indexed by
// time step, columns by asset. Column order is significant.
//
// Tables are treated as immutable once built: slicing shares the backing rows.
type PriceTable struct {
	Assets []string
	Dates  []time.Time // optional, len(Dates) == Len() when present
	Prices [][]float64
}

// NewPriceTable builds and validates a table
func NewPriceTable(assets []string, dates []time.Time, prices [][]float64) (*PriceTable, error) {
	pt := &PriceTable{Assets: assets, Dates: dates, Prices: prices}
	if err := pt.Validate(); err != nil {
		return nil, err
	}
	return pt, nil
}

// Len returns the number of time steps
func (pt *PriceTable) Len() int {
	return len(pt.Prices)
}

// NumAssets returns the number of asset columns
func (pt *PriceTable) NumAssets() int {
	return len(pt.Assets)
}

// AssetIndex returns the column position of an asset, or -1
func (pt *PriceTable) AssetIndex(name string) int {
	for i, a := range pt.Assets {
		if a == name {
			return i
		}
	}
	return -1
}

// Validate checks the fixed column set, price sign and the optional dates
func (pt *PriceTable) Validate() error {
	if len(pt.Assets) == 0 {
		return &PriceTableError{Row: -1, Message: "no asset columns"}
	}
	seen := make(map[string]struct{}, len(pt.Assets))
	for _, a := range pt.Assets {
		if _, dup := seen[a]; dup {
			return &PriceTableError{Row: -1, Message: "duplicate asset column " + a}
		}
		seen[a] = struct{}{}
	}
	if len(pt.Dates) != 0 && len(pt.Dates) != len(pt.Prices) {
		return &PriceTableError{Row: -1, Message: "date count does not match row count"}
	}
	for r, row := range pt.Prices {
		if len(row) != len(pt.Assets) {
			return &PriceTableError{Row: r, Column: len(row), Message: "row width differs from asset count"}
		}
		for c, p := range row {
			if math.IsNaN(p) || math.IsInf(p, 0) {
				return &PriceTableError{Row: r, Column: c, Message: "price is not finite"}
			}
			if p <= 0 {
				return &PriceTableError{Row: r, Column: c, Message: "price is not positive"}
			}
		}
		if r > 0 && len(pt.Dates) != 0 && pt.Dates[r].Before(pt.Dates[r-1]) {
			return &PriceTableError{Row: r, Column: -1, Message: "dates are not time-ordered"}
		}
	}
	return nil
}

// Slice returns rows [i, j) as a new table sharing the underlying rows
func (pt *PriceTable) Slice(i, j int) *PriceTable {
	out := &PriceTable{
		Assets: pt.Assets,
		Prices: pt.Prices[i:j],
	}
	if len(pt.Dates) != 0 {
		out.Dates = pt.Dates[i:j]
	}
	return out
}

// PctChange returns the one-step percent change of every column. Row 0 has
// no predecessor and is all NaN.
func (pt *PriceTable) PctChange() [][]float64 {
	out := make([][]float64, pt.Len())
	for t := range pt.Prices {
		row := make([]float64, pt.NumAssets())
		for c := range row {
			if t == 0 {
				row[c] = math.NaN()
				continue
			}
			row[c] = formulas.PctChange(pt.Prices[t-1][c], pt.Prices[t][c])
		}
		out[t] = row
	}
	return out
}
