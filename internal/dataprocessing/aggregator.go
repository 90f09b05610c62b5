package dataprocessing

import (
	"sort"
	"time"

	"covidcli/pkg/contracts/domain"
)

// dayKey identifies one country's calendar day. Dates are UTC midnight
// values produced by domain.Day, so plain equality is reliable.
type dayKey struct {
	country string
	date    time.Time
}

// Aggregate collapses normalized records into exactly one record per
// (country, date) pair, summing confirmed and deaths across all regional
// snapshots that reported under the same country on the same day. Input
// order does not affect the result: output is sorted by country, then date.
// Single-member groups degenerate to a plain copy.
func Aggregate(records []domain.NormalizedRecord) []domain.DailyCountryRecord {
	groups := make(map[dayKey]*domain.DailyCountryRecord)

	for _, r := range records {
		key := dayKey{country: r.Country, date: r.Date}
		if g, ok := groups[key]; ok {
			g.Confirmed += r.Confirmed
			g.Deaths += r.Deaths
			continue
		}
		groups[key] = &domain.DailyCountryRecord{
			Country:   r.Country,
			Date:      r.Date,
			Confirmed: r.Confirmed,
			Deaths:    r.Deaths,
		}
	}

	out := make([]domain.DailyCountryRecord, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Country != out[j].Country {
			return out[i].Country < out[j].Country
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
