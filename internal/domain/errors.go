package domain

import "fmt"

// InsufficientDataError is returned when a window needs more history than
// the table provides
type InsufficientDataError struct {
	Rows     int
	Required int
	Message  string
}

func (e *InsufficientDataError) Error() string {
	msg := fmt.Sprintf("insufficient data: have %d rows, need more than %d", e.Rows, e.Required)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	return msg
}

// InvalidSplitError is returned when a split count is out of range
type InvalidSplitError struct {
	Splits int
	Rows   int
}

func (e *InvalidSplitError) Error() string {
	return fmt.Sprintf("invalid split: cannot cut %d rows into %d segments", e.Rows, e.Splits)
}

// DimensionMismatchError reports a shape or length that does not match the
// configured topology
type DimensionMismatchError struct {
	What     string
	Got      int
	Expected int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: %s is %d, expected %d", e.What, e.Got, e.Expected)
}

// DegenerateMetricError is returned when the excess-return volatility is zero
// or the metric is otherwise not finite
type DegenerateMetricError struct {
	Mean       float64
	Volatility float64
	Metric     float64
}

func (e *DegenerateMetricError) Error() string {
	return fmt.Sprintf("degenerate metric %v (mean=%v, volatility=%v)", e.Metric, e.Mean, e.Volatility)
}

// PriceTableError reports a table that violates the price table invariants
type PriceTableError struct {
	Row     int
	Column  int
	Message string
}

func (e *PriceTableError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("invalid price table: %s", e.Message)
	}
	return fmt.Sprintf("invalid price table at row %d, column %d: %s", e.Row, e.Column, e.Message)
}
