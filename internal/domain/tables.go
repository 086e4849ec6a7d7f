package domain

// FeatureTable holds lagged percent-change rows. Row t is built from price
// rows [t, t+lags].
type FeatureTable struct {
	Columns []string
	Rows    [][]float64
}

// Len returns the number of feature rows
func (ft *FeatureTable) Len() int {
	return len(ft.Rows)
}

// Width returns the number of columns
func (ft *FeatureTable) Width() int {
	return len(ft.Columns)
}

// AllocationTable holds one non-negative allocation vector per feature row.
// A row is either normalized to sum 1 or all zero (no exposure).
type AllocationTable struct {
	Assets []string
	Rows   [][]float64
}

// Len returns the number of allocation rows
func (at *AllocationTable) Len() int {
	return len(at.Rows)
}
