// Package query implements the read-only engine that answers country and
// date-range queries against the derived dataset. The engine indexes the
// dataset once at construction and never mutates it afterwards, so any
// number of concurrent queries can run without locking.
package query

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"covidcli/pkg/contracts/domain"
)

// ErrUnknownCountry reports a query for a country absent from the dataset.
// Callers are expected to offer only values from Countries(); failing fast
// here surfaces selector bugs instead of masking them as empty results.
var ErrUnknownCountry = errors.New("country not in dataset")

// KPIs are the scalar summaries computed over a filtered series.
//
// The totals use max over the range rather than sum because confirmed,
// deaths and recovered are cumulative counts: the maximum approximates the
// latest cumulative total within the window. ActiveNow instead reads the
// last record only, as a point-in-time snapshot at the end of the range.
// The max-vs-latest asymmetry is intentional.
type KPIs struct {
	TotalConfirmed int64 `json:"total_confirmed"`
	TotalDeaths    int64 `json:"total_deaths"`
	TotalRecovered int64 `json:"total_recovered"`
	ActiveNow      int64 `json:"active_now"`
}

// Result is the answer to one query: the matching records in ascending date
// order plus the KPIs computed over them. An empty range is not an error;
// it yields an empty series and all-zero KPIs.
type Result struct {
	Series []domain.DerivedRecord `json:"series"`
	KPIs   KPIs                   `json:"kpis"`
}

// Engine answers queries against one immutable dataset.
type Engine struct {
	countries []string
	series    map[string][]domain.DerivedRecord
	minDate   time.Time
	maxDate   time.Time
}

// NewEngine indexes the dataset: per-country series sorted by date, the
// sorted country list, and the global date bounds. The dataset is shared
// read-only; the engine never writes to it.
func NewEngine(ds *domain.Dataset) *Engine {
	e := &Engine{
		series: make(map[string][]domain.DerivedRecord),
	}

	for _, r := range ds.Records {
		e.series[r.Country] = append(e.series[r.Country], r)
		if e.minDate.IsZero() || r.Date.Before(e.minDate) {
			e.minDate = r.Date
		}
		if e.maxDate.IsZero() || r.Date.After(e.maxDate) {
			e.maxDate = r.Date
		}
	}

	e.countries = make([]string, 0, len(e.series))
	for c := range e.series {
		e.countries = append(e.countries, c)
		sort.Slice(e.series[c], func(i, j int) bool {
			return e.series[c][i].Date.Before(e.series[c][j].Date)
		})
	}
	sort.Strings(e.countries)

	return e
}

// Countries returns the distinct countries present in the dataset, sorted.
// The returned slice is a copy; callers may keep or modify it.
func (e *Engine) Countries() []string {
	out := make([]string, len(e.countries))
	copy(out, e.countries)
	return out
}

// DateBounds returns the global min and max calendar date across the
// dataset. ok is false for an empty dataset.
func (e *Engine) DateBounds() (min, max time.Time, ok bool) {
	if len(e.countries) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return e.minDate, e.maxDate, true
}

// Query filters the country's series to startDate ≤ date ≤ endDate (both
// bounds inclusive, truncated to calendar dates) and computes the KPIs over
// the match. A reversed range degenerates to an empty result. A country not
// present in Countries() is a caller contract violation and returns
// ErrUnknownCountry.
func (e *Engine) Query(country string, startDate, endDate time.Time) (*Result, error) {
	series, ok := e.series[country]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCountry, country)
	}

	start := domain.Day(startDate)
	end := domain.Day(endDate)

	// Series is date-ascending, so the inclusive range is one contiguous run.
	lo := sort.Search(len(series), func(i int) bool {
		return !series[i].Date.Before(start)
	})
	hi := sort.Search(len(series), func(i int) bool {
		return series[i].Date.After(end)
	})

	result := &Result{Series: []domain.DerivedRecord{}}
	if lo >= hi {
		return result, nil
	}

	result.Series = make([]domain.DerivedRecord, hi-lo)
	copy(result.Series, series[lo:hi])

	for _, r := range result.Series {
		if r.Confirmed > result.KPIs.TotalConfirmed {
			result.KPIs.TotalConfirmed = r.Confirmed
		}
		if r.Deaths > result.KPIs.TotalDeaths {
			result.KPIs.TotalDeaths = r.Deaths
		}
		if r.Recovered > result.KPIs.TotalRecovered {
			result.KPIs.TotalRecovered = r.Recovered
		}
	}
	result.KPIs.ActiveNow = result.Series[len(result.Series)-1].Active

	return result, nil
}
