package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/thalia/internal/domain"
)

// DefaultDateColumn is the header of the date column in the source sheets
const DefaultDateColumn = "Data"

// monthReplacer maps Portuguese month abbreviations that differ from the
// English ones. Jan, Mar, Jun, Jul and Nov are identical in both.
var monthReplacer = strings.NewReplacer(
	"Fev", "Feb",
	"Abr", "Apr",
	"Mai", "May",
	"Ago", "Aug",
	"Set", "Sep",
	"Out", "Oct",
	"Dez", "Dec",
)

var dateLayouts = []string{"Jan-2006", "Jan-06", "2006-01-02", "2006-01"}

// LoadOptions controls CSV parsing
type LoadOptions struct {
	DateColumn   string // defaults to "Data"
	Comma        rune   // field separator, defaults to ','
	DecimalComma bool   // parse "1.234,5" style numbers
}

// NormalizeMonth rewrites Portuguese month abbreviations to English
func NormalizeMonth(s string) string {
	return monthReplacer.Replace(s)
}

// ParseDate parses a month-year label such as "Fev-2004" or an ISO date
func ParseDate(s string) (time.Time, error) {
	s = NormalizeMonth(strings.TrimSpace(s))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// LoadCSVFile opens path and parses it with LoadCSV
func LoadCSVFile(path string, opts LoadOptions) (*domain.PriceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()

	pt, err := LoadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return pt, nil
}

// LoadCSV reads a header row followed by one row per time step. The date
// column is optional; every other column is an asset price.
func LoadCSV(r io.Reader, opts LoadOptions) (*domain.PriceTable, error) {
	if opts.DateColumn == "" {
		opts.DateColumn = DefaultDateColumn
	}

	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	dateIdx := -1
	var assets []string
	var assetIdx []int
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == opts.DateColumn {
			dateIdx = i
			continue
		}
		assets = append(assets, name)
		assetIdx = append(assetIdx, i)
	}

	var dates []time.Time
	var prices [][]float64
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if dateIdx >= 0 {
			d, err := ParseDate(record[dateIdx])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			dates = append(dates, d)
		}

		row := make([]float64, len(assetIdx))
		for c, idx := range assetIdx {
			v, err := parseNumber(record[idx], opts.DecimalComma)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, assets[c], err)
			}
			row[c] = v
		}
		prices = append(prices, row)
	}

	return domain.NewPriceTable(assets, dates, prices)
}

func parseNumber(s string, decimalComma bool) (float64, error) {
	s = strings.TrimSpace(s)
	if decimalComma {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	return strconv.ParseFloat(s, 64)
}
