package exporter

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"covidcli/pkg/contracts/domain"
)

// DerivedExporter writes derived daily records to CSV files.
type DerivedExporter struct {
	csvWriter *CSVWriter
	logger    *slog.Logger
}

// NewDerivedExporter creates a new derived dataset exporter
func NewDerivedExporter(logger *slog.Logger) *DerivedExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DerivedExporter{
		csvWriter: NewCSVWriter(logger),
		logger:    logger.With(slog.String("component", "exporter")),
	}
}

// ExportCombined writes the entire derived dataset to one CSV file, in the
// dataset's country-then-date order.
func (d *DerivedExporter) ExportCombined(records []domain.DerivedRecord, filePath string) error {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, recordToCSVRow(r))
	}

	if err := d.csvWriter.WriteSimpleCSV(filePath, derivedHeaders(), rows); err != nil {
		return fmt.Errorf("export combined dataset: %w", err)
	}

	d.logger.Info("combined dataset exported",
		slog.String("path", filePath),
		slog.Int("records", len(records)))

	return nil
}

// ExportByCountry writes one CSV file per country under outputDir, each
// holding that country's full daily series.
func (d *DerivedExporter) ExportByCountry(records []domain.DerivedRecord, outputDir string) error {
	byCountry := make(map[string][]domain.DerivedRecord)
	for _, r := range records {
		byCountry[r.Country] = append(byCountry[r.Country], r)
	}

	var countries []string
	for c := range byCountry {
		countries = append(countries, c)
	}
	sort.Strings(countries)

	for _, country := range countries {
		series := byCountry[country]
		sort.Slice(series, func(i, j int) bool {
			return series[i].Date.Before(series[j].Date)
		})

		rows := make([][]string, 0, len(series))
		for _, r := range series {
			rows = append(rows, recordToCSVRow(r))
		}

		filePath := filepath.Join(outputDir, fmt.Sprintf("covid_daily_%s.csv", sanitizeFilename(country)))
		if err := d.csvWriter.WriteSimpleCSV(filePath, derivedHeaders(), rows); err != nil {
			return fmt.Errorf("export country %q: %w", country, err)
		}
	}

	d.logger.Info("per-country datasets exported",
		slog.String("dir", outputDir),
		slog.Int("countries", len(countries)))

	return nil
}

func derivedHeaders() []string {
	return []string{"Country", "Date", "Confirmed", "Deaths", "Recovered", "Active"}
}

func recordToCSVRow(r domain.DerivedRecord) []string {
	return []string{
		r.Country,
		r.Date.Format("2006-01-02"),
		strconv.FormatInt(r.Confirmed, 10),
		strconv.FormatInt(r.Deaths, 10),
		strconv.FormatInt(r.Recovered, 10),
		strconv.FormatInt(r.Active, 10),
	}
}

// sanitizeFilename keeps country names filesystem-safe.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		" ", "_",
		"/", "-",
		"\\", "-",
		"*", "",
		"?", "",
		":", "",
	)
	return replacer.Replace(name)
}
