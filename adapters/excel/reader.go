// Package excel loads tabular data from Excel workbooks and CSV files
// into the domain table representation. The first row is the header;
// column kinds are inferred from a sample of the data unless overridden.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"tablefit/domain/table"
)

// sheet read from workbooks when none is configured
const defaultSheet = "Sheet1"

// rows sampled per column for kind inference
const inferenceSample = 500

// a column whose distinct-value ratio falls below this is treated as
// nominal even when every value parses as a number (status codes etc.)
const categoricalRatio = 0.1

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// Reader implements ports.TableSource over .xlsx and .csv files.
type Reader struct {
	path  string
	sheet string
	kinds map[string]table.Kind // caller overrides, by column name
}

// Option configures a Reader
type Option func(*Reader)

// WithSheet selects a workbook sheet other than Sheet1. Ignored for CSV.
func WithSheet(name string) Option {
	return func(r *Reader) { r.sheet = name }
}

// WithKind pins a column to a kind instead of inferring it
func WithKind(column string, kind table.Kind) Option {
	return func(r *Reader) { r.kinds[column] = kind }
}

// NewReader creates a source for the given file. The extension decides
// the format: .csv is parsed as CSV, anything else as an Excel workbook.
func NewReader(path string, opts ...Option) *Reader {
	r := &Reader{path: path, sheet: defaultSheet, kinds: make(map[string]table.Kind)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads the file and assembles a table
func (r *Reader) Load(ctx context.Context) (table.Table, error) {
	if err := ctx.Err(); err != nil {
		return table.Table{}, err
	}
	if _, err := os.Stat(r.path); err != nil {
		return table.Table{}, fmt.Errorf("excel: %w", err)
	}

	var rows [][]string
	var err error
	if strings.EqualFold(filepath.Ext(r.path), ".csv") {
		rows, err = r.readCSV()
	} else {
		rows, err = r.readWorkbook()
	}
	if err != nil {
		return table.Table{}, err
	}
	if len(rows) < 2 {
		return table.Table{}, fmt.Errorf("excel: %s needs a header row and at least one data row", r.path)
	}
	return r.assemble(rows)
}

func (r *Reader) readWorkbook() ([][]string, error) {
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("excel: open %s: %w", r.path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("excel: read sheet %q: %w", r.sheet, err)
	}
	return rows, nil
}

func (r *Reader) readCSV() ([][]string, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("excel: open %s: %w", r.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("excel: parse %s: %w", r.path, err)
	}
	return rows, nil
}

func (r *Reader) assemble(rows [][]string) (table.Table, error) {
	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	// column-major cells, short rows padded with empties
	n := len(rows) - 1
	cells := make([][]string, len(headers))
	for j := range cells {
		cells[j] = make([]string, n)
	}
	for i := 1; i < len(rows); i++ {
		for j := range headers {
			if j < len(rows[i]) {
				cells[j][i-1] = strings.TrimSpace(rows[i][j])
			}
		}
	}

	cols := make([]table.Column, 0, len(headers))
	for j, name := range headers {
		kind, ok := r.kinds[name]
		if !ok {
			kind = inferKind(cells[j])
		}
		col, err := buildColumn(name, kind, cells[j])
		if err != nil {
			return table.Table{}, err
		}
		cols = append(cols, col)
	}
	return table.New(cols...)
}

// inferKind samples the column and picks numeric, datetime or nominal.
// Empty cells are missing values and carry no type signal.
func inferKind(cells []string) table.Kind {
	sample := cells
	if len(sample) > inferenceSample {
		// evenly spaced so late-file surprises still show up
		step := float64(len(cells)) / float64(inferenceSample)
		sample = make([]string, 0, inferenceSample)
		for i := 0; i < inferenceSample; i++ {
			sample = append(sample, cells[int(float64(i)*step)])
		}
	}

	seen := make(map[string]struct{})
	observed, numeric, datetime := 0, 0, 0
	for _, v := range sample {
		if v == "" {
			continue
		}
		observed++
		seen[v] = struct{}{}
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			numeric++
			continue
		}
		if _, ok := parseDatetime(v); ok {
			datetime++
		}
	}
	if observed == 0 {
		return table.Nominal
	}
	if numeric == observed {
		if float64(len(seen))/float64(observed) < categoricalRatio && len(seen) <= 20 {
			return table.Nominal
		}
		return table.Numeric
	}
	if datetime == observed {
		return table.Datetime
	}
	return table.Nominal
}

func parseDatetime(v string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, v); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func buildColumn(name string, kind table.Kind, cells []string) (table.Column, error) {
	missing := make([]bool, len(cells))
	switch kind {
	case table.Numeric:
		values := make([]float64, len(cells))
		for i, v := range cells {
			if v == "" {
				missing[i] = true
				continue
			}
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return table.Column{}, fmt.Errorf("excel: column %q row %d: %q is not numeric", name, i+1, v)
			}
			values[i] = parsed
		}
		return table.NewNumeric(name, values).WithMissing(missing), nil
	case table.Datetime:
		values := make([]time.Time, len(cells))
		for i, v := range cells {
			if v == "" {
				missing[i] = true
				continue
			}
			ts, ok := parseDatetime(v)
			if !ok {
				return table.Column{}, fmt.Errorf("excel: column %q row %d: %q is not a datetime", name, i+1, v)
			}
			values[i] = ts
		}
		return table.NewDatetime(name, values).WithMissing(missing), nil
	case table.Identifier:
		return table.NewIdentifier(name, cells), nil
	case table.Ordinal:
		for i, v := range cells {
			missing[i] = v == ""
		}
		return table.NewOrdinal(name, cells).WithMissing(missing), nil
	default:
		for i, v := range cells {
			missing[i] = v == ""
		}
		return table.NewNominal(name, cells).WithMissing(missing), nil
	}
}
