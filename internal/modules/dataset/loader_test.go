package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate_PortugueseMonths(t *testing.T) {
	tests := []struct {
		in    string
		month time.Month
		year  int
	}{
		{"Jan-2004", time.January, 2004},
		{"Fev-2004", time.February, 2004},
		{"Abr-2005", time.April, 2005},
		{"Mai-2006", time.May, 2006},
		{"Ago-2010", time.August, 2010},
		{"Set-2011", time.September, 2011},
		{"Out-2012", time.October, 2012},
		{"Dez-2015", time.December, 2015},
		{"2015-12-01", time.December, 2015},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.month, d.Month())
			assert.Equal(t, tt.year, d.Year())
		})
	}

	_, err := ParseDate("not a date")
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	input := strings.Join([]string{
		"Data,IBOV,PETR4,VALE3",
		"Jan-2004,100,20.5,30",
		"Fev-2004,101,21,29.5",
		"Mar-2004,102.5,20,31",
	}, "\n")

	pt, err := LoadCSV(strings.NewReader(input), LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"IBOV", "PETR4", "VALE3"}, pt.Assets)
	require.Equal(t, 3, pt.Len())
	assert.Equal(t, time.February, pt.Dates[1].Month())
	assert.Equal(t, []float64{102.5, 20, 31}, pt.Prices[2])
}

func TestLoadCSV_DecimalCommaAndSemicolon(t *testing.T) {
	input := "Data;A;B\nJan-2004;1.000,5;2,25\nFev-2004;1.001,0;2,5\n"

	pt, err := LoadCSV(strings.NewReader(input), LoadOptions{Comma: ';', DecimalComma: true})
	require.NoError(t, err)
	assert.Equal(t, []float64{1000.5, 2.25}, pt.Prices[0])
}

func TestLoadCSV_WithoutDateColumn(t *testing.T) {
	pt, err := LoadCSV(strings.NewReader("A,B\n1,2\n3,4\n"), LoadOptions{})
	require.NoError(t, err)
	assert.Nil(t, pt.Dates)
	assert.Equal(t, 2, pt.Len())
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"bad number", "Data,A\nJan-2004,abc\n"},
		{"bad date", "Data,A\nFoo,1\n"},
		{"negative price", "Data,A\nJan-2004,-1\n"},
		{"ragged", "Data,A,B\nJan-2004,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(strings.NewReader(tt.input), LoadOptions{})
			assert.Error(t, err)
		})
	}
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte("Data,A\nJan-2004,1\nFev-2004,2\n"), 0o644))

	pt, err := LoadCSVFile(path, LoadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, pt.Len())

	_, err = LoadCSVFile(filepath.Join(t.TempDir(), "missing.csv"), LoadOptions{})
	assert.Error(t, err)
}
