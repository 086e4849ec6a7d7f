// Package features builds lagged percent-change feature rows from prices.
package features

import (
	"fmt"

	"github.com/aristath/thalia/internal/domain"
	"github.com/aristath/thalia/pkg/formulas"
)

// LagVariables returns one row per end index i in [nLag, len-1]. A row is the
// row-major flattening of the nLag percent-change vectors computed inside
// the window of price rows [i-nLag, i].
func LagVariables(pt *domain.PriceTable, nLag int) (*domain.FeatureTable, error) {
	if nLag < 0 {
		return nil, &domain.DimensionMismatchError{What: "lag depth", Got: nLag, Expected: 0}
	}
	if pt.Len() <= nLag {
		return nil, &domain.InsufficientDataError{
			Rows:     pt.Len(),
			Required: nLag,
			Message:  fmt.Sprintf("a lag of %d needs %d price rows", nLag, nLag+1),
		}
	}

	n := pt.NumAssets()
	rows := make([][]float64, 0, pt.Len()-nLag)
	for i := nLag; i < pt.Len(); i++ {
		row := make([]float64, 0, n*nLag)
		for t := i - nLag + 1; t <= i; t++ {
			prev, curr := pt.Prices[t-1], pt.Prices[t]
			for c := 0; c < n; c++ {
				row = append(row, formulas.PctChange(prev[c], curr[c]))
			}
		}
		rows = append(rows, row)
	}

	return &domain.FeatureTable{
		Columns: ColumnNames(pt.Assets, nLag),
		Rows:    rows,
	}, nil
}

// ColumnNames labels lag block k (oldest first) with the suffix
// "-(nLag-k-1)". The most recent block keeps the bare asset names.
func ColumnNames(assets []string, nLag int) []string {
	names := make([]string, 0, len(assets)*nLag)
	for k := 0; k < nLag; k++ {
		offset := nLag - k - 1
		for _, a := range assets {
			if offset == 0 {
				names = append(names, a)
				continue
			}
			names = append(names, fmt.Sprintf("%s-%d", a, offset))
		}
	}
	return names
}
