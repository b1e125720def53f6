// Package timeseries provides the date-by-symbol table that the analytics
// pipeline operates on, with derived return and growth tables.
package timeseries

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Table is a rectangular time series: one row per trading day, one column
// per symbol. Dates are ascending and unique. Missing observations are
// stored as NaN until DropIncomplete removes their rows.
type Table struct {
	Dates   []time.Time
	Symbols []string
	Values  [][]float64 // len(Dates) rows × len(Symbols) columns
}

// NewTable constructs a Table after validating shape and date ordering.
func NewTable(dates []time.Time, symbols []string, values [][]float64) (*Table, error) {
	if len(values) != len(dates) {
		return nil, fmt.Errorf("timeseries: %d rows for %d dates", len(values), len(dates))
	}
	for i, row := range values {
		if len(row) != len(symbols) {
			return nil, fmt.Errorf("timeseries: row %d has %d values for %d symbols", i, len(row), len(symbols))
		}
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("timeseries: dates not strictly ascending at row %d (%s)", i, dates[i].Format("2006-01-02"))
		}
	}
	return &Table{Dates: dates, Symbols: symbols, Values: values}, nil
}

// Builder accumulates (date, symbol, value) observations and produces a
// sorted Table. Later observations for the same cell overwrite earlier ones.
type Builder struct {
	symbols []string
	colIdx  map[string]int
	rows    map[int64][]float64 // unix day → row
}

// NewBuilder creates a Builder with a fixed symbol column order.
func NewBuilder(symbols []string) *Builder {
	colIdx := make(map[string]int, len(symbols))
	for i, s := range symbols {
		colIdx[s] = i
	}
	return &Builder{symbols: symbols, colIdx: colIdx, rows: make(map[int64][]float64)}
}

// Set records one observation. Unknown symbols are ignored.
func (b *Builder) Set(date time.Time, symbol string, value float64) {
	col, ok := b.colIdx[symbol]
	if !ok {
		return
	}
	day := date.UTC().Truncate(24 * time.Hour)
	key := day.Unix()
	row, ok := b.rows[key]
	if !ok {
		row = make([]float64, len(b.symbols))
		for i := range row {
			row[i] = math.NaN()
		}
		b.rows[key] = row
	}
	row[col] = value
}

// Build produces the Table sorted by date.
func (b *Builder) Build() *Table {
	keys := make([]int64, 0, len(b.rows))
	for k := range b.rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	dates := make([]time.Time, len(keys))
	values := make([][]float64, len(keys))
	for i, k := range keys {
		dates[i] = time.Unix(k, 0).UTC()
		values[i] = b.rows[k]
	}
	return &Table{Dates: dates, Symbols: b.symbols, Values: values}
}

// NRows returns the number of rows in the table.
func (t *Table) NRows() int { return len(t.Dates) }

// Column returns the values of one symbol, or nil if the symbol is absent.
func (t *Table) Column(symbol string) []float64 {
	col := -1
	for i, s := range t.Symbols {
		if s == symbol {
			col = i
			break
		}
	}
	if col < 0 {
		return nil
	}
	out := make([]float64, len(t.Values))
	for i, row := range t.Values {
		out[i] = row[col]
	}
	return out
}

// DropIncomplete returns a copy without any row containing a missing value.
func (t *Table) DropIncomplete() *Table {
	dates := make([]time.Time, 0, len(t.Dates))
	values := make([][]float64, 0, len(t.Values))
	for i, row := range t.Values {
		complete := true
		for _, v := range row {
			if math.IsNaN(v) {
				complete = false
				break
			}
		}
		if complete {
			dates = append(dates, t.Dates[i])
			values = append(values, row)
		}
	}
	return &Table{Dates: dates, Symbols: t.Symbols, Values: values}
}

// From returns the sub-table with dates at or after start.
func (t *Table) From(start time.Time) *Table {
	i := sort.Search(len(t.Dates), func(i int) bool { return !t.Dates[i].Before(start) })
	return &Table{Dates: t.Dates[i:], Symbols: t.Symbols, Values: t.Values[i:]}
}

// Slice returns the sub-table covering rows [lo, hi).
func (t *Table) Slice(lo, hi int) *Table {
	return &Table{Dates: t.Dates[lo:hi], Symbols: t.Symbols, Values: t.Values[lo:hi]}
}

// Returns computes the day-over-day percentage change per symbol. The first
// input row has no defined return and is dropped: the result has one row
// fewer than the input.
func (t *Table) Returns() *Table {
	if len(t.Values) < 1 {
		return &Table{Symbols: t.Symbols}
	}
	dates := make([]time.Time, len(t.Dates)-1)
	values := make([][]float64, len(t.Values)-1)
	for i := 1; i < len(t.Values); i++ {
		row := make([]float64, len(t.Symbols))
		for j := range row {
			prev := t.Values[i-1][j]
			row[j] = t.Values[i][j]/prev - 1
		}
		dates[i-1] = t.Dates[i]
		values[i-1] = row
	}
	return &Table{Dates: dates, Symbols: t.Symbols, Values: values}
}

// CumulativeSum computes the running sum per symbol, used for cumulative
// return charts over a return table.
func (t *Table) CumulativeSum() *Table {
	values := make([][]float64, len(t.Values))
	totals := make([]float64, len(t.Symbols))
	for i, row := range t.Values {
		out := make([]float64, len(row))
		for j, v := range row {
			totals[j] += v
			out[j] = totals[j]
		}
		values[i] = out
	}
	return &Table{Dates: t.Dates, Symbols: t.Symbols, Values: values}
}

// GrowthOf1 normalizes a price table so every symbol starts at 1.0 on the
// first row.
func (t *Table) GrowthOf1() *Table {
	if len(t.Values) == 0 {
		return &Table{Symbols: t.Symbols}
	}
	base := t.Values[0]
	values := make([][]float64, len(t.Values))
	for i, row := range t.Values {
		out := make([]float64, len(row))
		for j, v := range row {
			out[j] = v / base[j]
		}
		values[i] = out
	}
	return &Table{Dates: t.Dates, Symbols: t.Symbols, Values: values}
}
