// Package analysis computes the PM10 aggregates shown on the dashboard. All
// functions are pure projections of a loaded table.
package analysis

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/chrissnell/pm10dash/internal/dataset"
)

// HourlyMean is the mean PM10 for one hour of the day across the whole table.
// Mean is NaN when every reading in the group is missing (Count == 0).
type HourlyMean struct {
	Hour  int
	Mean  float64
	Count int
}

// Valid reports whether the group had at least one reading
func (h HourlyMean) Valid() bool {
	return h.Count > 0
}

// MonthlyMean is the mean PM10 for one month of the selected year
type MonthlyMean struct {
	Month int
	Mean  float64
	Count int
}

// Valid reports whether the group had at least one reading
func (m MonthlyMean) Valid() bool {
	return m.Count > 0
}

// group is the set of non-missing PM10 readings sharing a key
type group struct {
	key    int
	values []float64
}

func (g group) mean() float64 {
	if len(g.values) == 0 {
		return math.NaN()
	}
	return stat.Mean(g.values, nil)
}

// groupBy collects PM10 readings by key, skipping rows where keep is false.
// A key whose readings are all missing still yields a group. Groups are
// returned in ascending key order.
func groupBy(t *dataset.Table, key func(dataset.Record) int, keep func(dataset.Record) bool) []group {
	byKey := make(map[int]*group)
	for i := 0; i < t.Len(); i++ {
		r := t.At(i)
		if keep != nil && !keep(r) {
			continue
		}
		k := key(r)
		g, ok := byKey[k]
		if !ok {
			g = &group{key: k}
			byKey[k] = g
		}
		if r.HasPM10() {
			g.values = append(g.values, r.PM10)
		}
	}

	out := make([]group, 0, len(byKey))
	for _, g := range byKey {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out
}

// HourlyMeans returns the mean PM10 per hour of day, one entry per hour
// present in t, ordered by hour.
func HourlyMeans(t *dataset.Table) ([]HourlyMean, error) {
	if t == nil {
		return nil, &Error{Section: SectionHourly, Cause: errors.New("no data loaded")}
	}

	groups := groupBy(t, func(r dataset.Record) int { return r.Hour }, nil)
	out := make([]HourlyMean, len(groups))
	for i, g := range groups {
		out[i] = HourlyMean{Hour: g.key, Mean: g.mean(), Count: len(g.values)}
	}
	return out, nil
}

// Peak returns the entry with the highest mean. On an exact tie the earliest
// hour wins. Groups without readings never win.
func Peak(means []HourlyMean) (HourlyMean, error) {
	ordered := make([]HourlyMean, len(means))
	copy(ordered, means)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Hour < ordered[j].Hour })

	var best HourlyMean
	found := false
	for _, m := range ordered {
		if !m.Valid() {
			continue
		}
		if !found || m.Mean > best.Mean {
			best = m
			found = true
		}
	}
	if !found {
		return HourlyMean{}, ErrNoData
	}
	return best, nil
}

// PeakHour returns the hour of day with the highest mean PM10
func PeakHour(t *dataset.Table) (HourlyMean, error) {
	means, err := HourlyMeans(t)
	if err != nil {
		return HourlyMean{}, err
	}
	return Peak(means)
}

// MonthlyMeans returns the mean PM10 per month for rows of the given year,
// ordered by month. The result is empty when no row belongs to year.
func MonthlyMeans(t *dataset.Table, year int) ([]MonthlyMean, error) {
	if t == nil {
		return nil, &Error{Section: SectionMonthly, Cause: errors.New("no data loaded")}
	}

	groups := groupBy(t,
		func(r dataset.Record) int { return r.Month },
		func(r dataset.Record) bool { return r.Year == year },
	)
	out := make([]MonthlyMean, len(groups))
	for i, g := range groups {
		out[i] = MonthlyMean{Month: g.key, Mean: g.mean(), Count: len(g.values)}
	}
	return out, nil
}

// Years returns the distinct years in t in ascending order
func Years(t *dataset.Table) []int {
	if t == nil {
		return nil
	}
	seen := make(map[int]struct{})
	for i := 0; i < t.Len(); i++ {
		seen[t.At(i).Year] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// DefaultYear picks preferred if it is among years, otherwise the earliest
// year. years must be sorted ascending. Returns 0 when years is empty.
func DefaultYear(years []int, preferred int) int {
	for _, y := range years {
		if y == preferred {
			return preferred
		}
	}
	if len(years) > 0 {
		return years[0]
	}
	return 0
}

// HasYear reports whether year is among years
func HasYear(years []int, year int) bool {
	for _, y := range years {
		if y == year {
			return true
		}
	}
	return false
}
