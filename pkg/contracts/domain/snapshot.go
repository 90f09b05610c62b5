package domain

import (
	"time"
)

// RawSnapshot represents one regional snapshot row as supplied by the
// ingestion boundary. The timestamp is kept in its raw textual form; the
// normalizer owns parsing and calendar-date truncation. Raw rows are not
// retained after normalization.
type RawSnapshot struct {
	Country   string `json:"country"`
	Timestamp string `json:"timestamp"`
	Confirmed int64  `json:"confirmed" validate:"min=0"`
	Deaths    int64  `json:"deaths" validate:"min=0"`
}

// NormalizedRecord is a raw snapshot whose timestamp has been coerced to a
// pure calendar date (UTC midnight). Two records with different times of day
// on the same calendar date for the same country are duplicates from the
// aggregator's point of view.
type NormalizedRecord struct {
	Country   string    `json:"country"`
	Date      time.Time `json:"date"`
	Confirmed int64     `json:"confirmed"`
	Deaths    int64     `json:"deaths"`
}

// DailyCountryRecord is the aggregated daily total for one country: the sum
// of all regional snapshots reporting under that country on that date.
// There is exactly one record per (country, date) pair.
type DailyCountryRecord struct {
	Country   string    `json:"country" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Confirmed int64     `json:"confirmed" validate:"min=0"`
	Deaths    int64     `json:"deaths" validate:"min=0"`
}

// DerivedRecord extends a DailyCountryRecord with modeled metrics. Recovered
// is a synthetic estimate (80% of confirmed minus deaths, clamped to zero
// before scaling, then floored): true recovered figures are not present in
// the source data, so this is a modeled proxy, not an observed quantity.
// Active is confirmed - deaths - recovered, which keeps the conservation law
// recovered + active + deaths == confirmed true by construction.
type DerivedRecord struct {
	DailyCountryRecord
	Recovered int64 `json:"recovered"`
	Active    int64 `json:"active"`
}

// LoadStats describes one pipeline run. Excluded counts rows dropped for
// unparseable timestamps or malformed shapes; they are never silently lost.
type LoadStats struct {
	RawRows   int       `json:"raw_rows"`
	Parsed    int       `json:"parsed"`
	Excluded  int       `json:"excluded"`
	Countries int       `json:"countries"`
	Days      int       `json:"days"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// Dataset is the fully derived collection produced by one pipeline run.
// It is immutable after construction and shared read-only with the query
// engine, so concurrent queries need no locking.
type Dataset struct {
	Records []DerivedRecord `json:"records"`
	Stats   LoadStats       `json:"stats"`
}

// Day truncates t to its calendar date in UTC. All pipeline stages use this
// single definition so (country, date) keys compare reliably.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
