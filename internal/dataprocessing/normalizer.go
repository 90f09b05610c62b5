package dataprocessing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"covidcli/pkg/contracts/domain"
)

// timestampLayouts covers the textual forms seen in snapshot exports: full
// RFC 3339 instants, zone-naive datetime variants, US-style short dates, and
// bare calendar dates. Zone-naive values are read as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/06 15:04",
	"1/2/2006",
}

// Normalizer converts raw snapshot rows into calendar-dated records.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a new normalizer.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		logger: logger.With(slog.String("component", "normalizer")),
	}
}

// Normalize parses every raw timestamp, converts it to UTC and truncates it
// to the calendar date. Rows whose timestamp cannot be parsed or whose
// country is blank are excluded rather than failing the run; the returned
// count makes the exclusions observable to the caller. Duplicate
// (country, date) records are expected here and left for the aggregator.
func (n *Normalizer) Normalize(ctx context.Context, rows []domain.RawSnapshot) ([]domain.NormalizedRecord, int) {
	records := make([]domain.NormalizedRecord, 0, len(rows))
	excluded := 0

	for _, row := range rows {
		country := strings.TrimSpace(row.Country)
		if country == "" {
			excluded++
			continue
		}

		day, ok := parseSnapshotDate(row.Timestamp)
		if !ok {
			excluded++
			n.logger.DebugContext(ctx, "dropping row with unparseable timestamp",
				slog.String("country", country),
				slog.String("timestamp", row.Timestamp))
			continue
		}

		records = append(records, domain.NormalizedRecord{
			Country:   country,
			Date:      day,
			Confirmed: row.Confirmed,
			Deaths:    row.Deaths,
		})
	}

	if excluded > 0 {
		n.logger.WarnContext(ctx, "excluded rows during normalization",
			slog.Int("excluded", excluded),
			slog.Int("kept", len(records)))
	}

	return records, excluded
}

// parseSnapshotDate tries each known layout and reduces the first match to
// its UTC calendar date.
func parseSnapshotDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return domain.Day(t), true
	}
	return time.Time{}, false
}
