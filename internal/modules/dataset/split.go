// Package dataset slices price tables into time-contiguous segments and
// loads them from delimited files.
package dataset

import (
	"fmt"

	"github.com/aristath/thalia/internal/domain"
)

// Split cuts a table into n contiguous, non-overlapping segments of
// len/n rows each. The last segment absorbs the remainder.
func Split(pt *domain.PriceTable, n int) ([]*domain.PriceTable, error) {
	if n < 1 || n > pt.Len() {
		return nil, &domain.InvalidSplitError{Splits: n, Rows: pt.Len()}
	}

	portion := pt.Len() / n
	segments := make([]*domain.PriceTable, 0, n)
	start := 0
	for i := 0; i < n; i++ {
		end := start + portion
		if i == n-1 {
			end = pt.Len()
		}
		segments = append(segments, pt.Slice(start, end))
		start = end
	}
	return segments, nil
}

// Concat joins segments in order. All segments must share the same asset
// columns.
func Concat(segments ...*domain.PriceTable) (*domain.PriceTable, error) {
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments to concatenate")
	}

	assets := segments[0].Assets
	withDates := true
	out := &domain.PriceTable{Assets: assets}
	for i, s := range segments {
		if len(s.Assets) != len(assets) {
			return nil, fmt.Errorf("segment %d has %d assets, expected %d", i, len(s.Assets), len(assets))
		}
		for c := range assets {
			if s.Assets[c] != assets[c] {
				return nil, fmt.Errorf("segment %d column %d is %q, expected %q", i, c, s.Assets[c], assets[c])
			}
		}
		out.Prices = append(out.Prices, s.Prices...)
		if len(s.Dates) == 0 && s.Len() > 0 {
			withDates = false
		}
		out.Dates = append(out.Dates, s.Dates...)
	}
	if !withDates {
		out.Dates = nil
	}
	return out, nil
}
