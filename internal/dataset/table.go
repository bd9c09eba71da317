// Package dataset loads hourly air-quality measurements from CSV into an
// immutable, memoized table.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Column names the dashboard depends on. Any other columns are carried along.
const (
	ColYear      = "year"
	ColMonth     = "month"
	ColDay       = "day"
	ColHour      = "hour"
	ColPM10      = "PM10"
	ColTimestamp = "timestamp"
)

// TimestampLayout is the format of the derived timestamp column
const TimestampLayout = "2006-01-02 15:04:05"

// RequiredColumns must be present in every data file
var RequiredColumns = []string{ColYear, ColMonth, ColDay, ColHour, ColPM10}

// Record is one hourly observation. PM10 is NaN when the reading is missing.
type Record struct {
	Year      int
	Month     int
	Day       int
	Hour      int
	PM10      float64
	Timestamp time.Time
}

// HasPM10 reports whether the record carries a PM10 reading
func (r Record) HasPM10() bool {
	return !math.IsNaN(r.PM10)
}

// Table is a loaded data file. It is never modified after construction, so
// it can be shared between concurrent requests without locking.
type Table struct {
	source   string
	loadedAt time.Time
	records  []Record
	frame    dataframe.DataFrame
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.records)
}

// At returns row i
func (t *Table) At(i int) Record {
	return t.records[i]
}

// Source is the file the table was read from
func (t *Table) Source() string {
	return t.source
}

// LoadedAt is when the file was parsed
func (t *Table) LoadedAt() time.Time {
	return t.loadedAt
}

// Columns lists every column in file order, followed by the derived timestamp
func (t *Table) Columns() []string {
	return t.frame.Names()
}

// Preview returns the header and the first n rows formatted as strings
func (t *Table) Preview(n int) ([]string, [][]string) {
	if n > t.Len() {
		n = t.Len()
	}
	if n <= 0 {
		return t.frame.Names(), nil
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	rows := t.frame.Subset(idx).Records()
	return rows[0], rows[1:]
}

// FromRecords builds a table directly from records. The derived timestamp is
// recomputed from the date fields so the result matches a loaded file.
func FromRecords(source string, records []Record) (*Table, error) {
	raw := make([][]string, 0, len(records)+1)
	raw = append(raw, RequiredColumns)
	for _, r := range records {
		pm := "NaN"
		if r.HasPM10() {
			pm = strconv.FormatFloat(r.PM10, 'f', -1, 64)
		}
		raw = append(raw, []string{
			strconv.Itoa(r.Year),
			strconv.Itoa(r.Month),
			strconv.Itoa(r.Day),
			strconv.Itoa(r.Hour),
			pm,
		})
	}

	frame := dataframe.LoadRecords(raw, loadOptions()...)
	return build(source, frame)
}

func loadOptions() []dataframe.LoadOption {
	return []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.NaNValues([]string{"NA", "NaN", "nan", "<nil>", ""}),
		dataframe.WithTypes(map[string]series.Type{
			ColYear:  series.Int,
			ColMonth: series.Int,
			ColDay:   series.Int,
			ColHour:  series.Int,
			ColPM10:  series.Float,
		}),
	}
}

// build validates the frame, extracts typed records and appends the derived
// timestamp column.
func build(source string, frame dataframe.DataFrame) (*Table, error) {
	if frame.Err != nil {
		return nil, fmt.Errorf("parse csv: %w", frame.Err)
	}

	present := make(map[string]bool, frame.Ncol())
	for _, name := range frame.Names() {
		present[name] = true
	}
	for _, col := range RequiredColumns {
		if !present[col] {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	ints := make(map[string][]int, 4)
	for _, col := range []string{ColYear, ColMonth, ColDay, ColHour} {
		vals, err := frame.Col(col).Int()
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", col, err)
		}
		ints[col] = vals
	}
	pm10 := frame.Col(ColPM10).Float()

	n := frame.Nrow()
	records := make([]Record, n)
	stamps := make([]string, n)
	for i := 0; i < n; i++ {
		r := Record{
			Year:  ints[ColYear][i],
			Month: ints[ColMonth][i],
			Day:   ints[ColDay][i],
			Hour:  ints[ColHour][i],
			PM10:  pm10[i],
		}
		ts, err := deriveTimestamp(r.Year, r.Month, r.Day, r.Hour)
		if err != nil {
			// +2: one for the header, one for 1-based line numbers
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}
		r.Timestamp = ts
		records[i] = r
		stamps[i] = ts.Format(TimestampLayout)
	}

	frame = frame.Mutate(series.New(stamps, series.String, ColTimestamp))
	if frame.Err != nil {
		return nil, fmt.Errorf("add %s column: %w", ColTimestamp, frame.Err)
	}

	return &Table{
		source:   source,
		loadedAt: time.Now(),
		records:  records,
		frame:    frame,
	}, nil
}

// deriveTimestamp combines the date columns into one UTC instant, rejecting
// dates that do not exist on the calendar.
func deriveTimestamp(year, month, day, hour int) (time.Time, error) {
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month %d out of range", month)
	}
	if hour < 0 || hour > 23 {
		return time.Time{}, fmt.Errorf("hour %d out of range", hour)
	}
	ts := time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
	if ts.Year() != year || ts.Month() != time.Month(month) || ts.Day() != day {
		return time.Time{}, fmt.Errorf("invalid date %04d-%02d-%02d", year, month, day)
	}
	return ts, nil
}
