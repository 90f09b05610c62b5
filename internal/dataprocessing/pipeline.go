package dataprocessing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"

	"covidcli/pkg/contracts/domain"
)

// ErrNoUsableData reports that the pipeline produced an empty dataset: no
// input rows at all, or every row excluded during normalization. This is
// fatal at startup; the process must not serve queries without a dataset.
var ErrNoUsableData = errors.New("no usable snapshot data")

// Pipeline wires the three stages together and publishes load metrics.
type Pipeline struct {
	normalizer       *Normalizer
	logger           *slog.Logger
	rowsExcluded     metric.Int64Counter
	rowsParsed       metric.Int64Counter
	datasetCountries metric.Int64Gauge
	datasetDays      metric.Int64Gauge
}

// NewPipeline creates the pipeline. The meter is optional; passing nil
// (as tests do) disables metric publication but changes nothing else.
func NewPipeline(logger *slog.Logger, meter metric.Meter) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		normalizer: NewNormalizer(logger),
		logger:     logger.With(slog.String("component", "pipeline")),
	}

	if meter != nil {
		var err error
		p.rowsExcluded, err = meter.Int64Counter(
			"covid_rows_excluded_total",
			metric.WithDescription("Raw snapshot rows dropped during normalization"),
		)
		if err != nil {
			return nil, err
		}
		p.rowsParsed, err = meter.Int64Counter(
			"covid_rows_parsed_total",
			metric.WithDescription("Raw snapshot rows successfully normalized"),
		)
		if err != nil {
			return nil, err
		}
		p.datasetCountries, err = meter.Int64Gauge(
			"covid_dataset_countries",
			metric.WithDescription("Distinct countries in the served dataset"),
		)
		if err != nil {
			return nil, err
		}
		p.datasetDays, err = meter.Int64Gauge(
			"covid_dataset_days",
			metric.WithDescription("Distinct calendar dates in the served dataset"),
		)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// BuildDataset runs Normalize → Aggregate → Derive over the raw rows and
// returns the finished immutable dataset. The caller publishes the returned
// value atomically (assign once, share read-only) and must not mutate it.
func (p *Pipeline) BuildDataset(ctx context.Context, rows []domain.RawSnapshot) (*domain.Dataset, error) {
	start := time.Now()

	normalized, excluded := p.normalizer.Normalize(ctx, rows)
	if p.rowsExcluded != nil {
		p.rowsExcluded.Add(ctx, int64(excluded))
	}
	if p.rowsParsed != nil {
		p.rowsParsed.Add(ctx, int64(len(normalized)))
	}

	if len(normalized) == 0 {
		p.logger.ErrorContext(ctx, "pipeline produced no usable records",
			slog.Int("raw_rows", len(rows)),
			slog.Int("excluded", excluded))
		return nil, ErrNoUsableData
	}

	daily := Aggregate(normalized)
	derived := Derive(daily)

	countries := make(map[string]struct{})
	days := make(map[time.Time]struct{})
	for _, r := range derived {
		countries[r.Country] = struct{}{}
		days[r.Date] = struct{}{}
	}

	ds := &domain.Dataset{
		Records: derived,
		Stats: domain.LoadStats{
			RawRows:   len(rows),
			Parsed:    len(normalized),
			Excluded:  excluded,
			Countries: len(countries),
			Days:      len(days),
			LoadedAt:  time.Now().UTC(),
		},
	}

	if p.datasetCountries != nil {
		p.datasetCountries.Record(ctx, int64(ds.Stats.Countries))
		p.datasetDays.Record(ctx, int64(ds.Stats.Days))
	}

	p.logger.InfoContext(ctx, "dataset built",
		slog.Int("raw_rows", ds.Stats.RawRows),
		slog.Int("excluded", ds.Stats.Excluded),
		slog.Int("daily_records", len(derived)),
		slog.Int("countries", ds.Stats.Countries),
		slog.Int("days", ds.Stats.Days),
		slog.Duration("elapsed", time.Since(start)))

	return ds, nil
}
