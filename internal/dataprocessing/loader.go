package dataprocessing

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"covidcli/pkg/contracts/domain"
)

// Loader reads snapshot files from the ingestion boundary into raw rows.
// It understands the CSV export shape of the upstream dashboard feed
// (Country_Region, Last_Update, Confirmed, Deaths) plus a few header
// variants, and the same shape inside XLSX workbooks.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new snapshot loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger: logger.With(slog.String("component", "loader")),
	}
}

// columnMap holds the resolved positions of the four required columns.
type columnMap struct {
	country   int
	timestamp int
	confirmed int
	deaths    int
}

// mapColumns resolves header names to column positions. Matching is
// case-insensitive and tolerant of the naming drift seen across snapshot
// exports. Returns false when any required column is missing.
func mapColumns(header []string) (columnMap, bool) {
	cm := columnMap{country: -1, timestamp: -1, confirmed: -1, deaths: -1}
	for i, h := range header {
		switch normalizeHeader(h) {
		case "country_region", "country/region", "country", "countryregion":
			if cm.country == -1 {
				cm.country = i
			}
		case "last_update", "last update", "lastupdate", "date", "updated":
			if cm.timestamp == -1 {
				cm.timestamp = i
			}
		case "confirmed", "confirmed_cases", "cases":
			if cm.confirmed == -1 {
				cm.confirmed = i
			}
		case "deaths", "death":
			if cm.deaths == -1 {
				cm.deaths = i
			}
		}
	}
	ok := cm.country >= 0 && cm.timestamp >= 0 && cm.confirmed >= 0 && cm.deaths >= 0
	return cm, ok
}

func normalizeHeader(h string) string {
	// CSV exports often carry a UTF-8 BOM on the first header cell.
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

// parseCount reads a cumulative count cell. Thousands separators and float
// renderings ("1,234", "1234.0") are tolerated; anything else fails.
func parseCount(cell string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse count %q: %w", cell, err)
	}
	return int64(f), nil
}

// rowsFromRecords converts tabular rows (header first) into raw snapshots.
// Malformed data rows are skipped and counted, matching the best-effort
// ingestion policy of the normalizer.
func (l *Loader) rowsFromRecords(ctx context.Context, source string, records [][]string) ([]domain.RawSnapshot, int, error) {
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("%s: empty file", source)
	}

	cm, ok := mapColumns(records[0])
	if !ok {
		return nil, 0, fmt.Errorf("%s: required columns not found in header %v", source, records[0])
	}

	maxIdx := cm.country
	for _, i := range []int{cm.timestamp, cm.confirmed, cm.deaths} {
		if i > maxIdx {
			maxIdx = i
		}
	}

	rows := make([]domain.RawSnapshot, 0, len(records)-1)
	skipped := 0
	for _, rec := range records[1:] {
		if len(rec) <= maxIdx {
			skipped++
			continue
		}
		confirmed, err := parseCount(rec[cm.confirmed])
		if err != nil {
			skipped++
			continue
		}
		deaths, err := parseCount(rec[cm.deaths])
		if err != nil {
			skipped++
			continue
		}
		rows = append(rows, domain.RawSnapshot{
			Country:   rec[cm.country],
			Timestamp: rec[cm.timestamp],
			Confirmed: confirmed,
			Deaths:    deaths,
		})
	}

	if skipped > 0 {
		l.logger.WarnContext(ctx, "skipped malformed rows",
			slog.String("source", source),
			slog.Int("skipped", skipped))
	}

	return rows, skipped, nil
}

// LoadCSV reads one CSV snapshot file.
func (l *Loader) LoadCSV(ctx context.Context, path string) ([]domain.RawSnapshot, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open snapshot file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read %s: %w", path, err)
		}
		records = append(records, rec)
	}

	return l.rowsFromRecords(ctx, filepath.Base(path), records)
}

// LoadXLSX reads one XLSX snapshot workbook. The first sheet whose header
// row carries the required columns wins.
func (l *Loader) LoadXLSX(ctx context.Context, path string) ([]domain.RawSnapshot, int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open snapshot workbook: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		records, err := f.GetRows(sheet)
		if err != nil || len(records) == 0 {
			continue
		}
		if _, ok := mapColumns(records[0]); !ok {
			continue
		}
		return l.rowsFromRecords(ctx, fmt.Sprintf("%s[%s]", filepath.Base(path), sheet), records)
	}

	return nil, 0, fmt.Errorf("%s: no sheet with snapshot columns", filepath.Base(path))
}

// LoadFile dispatches on the file extension.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]domain.RawSnapshot, int, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return l.LoadCSV(ctx, path)
	case ".xlsx":
		return l.LoadXLSX(ctx, path)
	default:
		return nil, 0, fmt.Errorf("unsupported snapshot format: %s", path)
	}
}

// LoadDir loads every *.csv and *.xlsx file under dir, in parallel. Files
// that fail to parse are logged and skipped; the load only fails when the
// directory has no readable snapshot files at all, which callers should
// treat the same as ErrNoUsableData.
func (l *Loader) LoadDir(ctx context.Context, dir string) ([]domain.RawSnapshot, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("read snapshot directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".xlsx":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, 0, fmt.Errorf("%w: no snapshot files in %s", ErrNoUsableData, dir)
	}

	type fileResult struct {
		rows    []domain.RawSnapshot
		skipped int
	}

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			rows, skipped, err := l.LoadFile(gctx, path)
			if err != nil {
				// Problem files are tolerated the same way malformed rows are.
				l.logger.WarnContext(gctx, "skipping unreadable snapshot file",
					slog.String("path", path),
					slog.String("error", err.Error()))
				return nil
			}
			results[i] = fileResult{rows: rows, skipped: skipped}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var all []domain.RawSnapshot
	skipped := 0
	for _, res := range results {
		all = append(all, res.rows...)
		skipped += res.skipped
	}

	if len(all) == 0 {
		return nil, skipped, fmt.Errorf("%w: no readable rows under %s", ErrNoUsableData, dir)
	}

	l.logger.InfoContext(ctx, "snapshot files loaded",
		slog.Int("files", len(paths)),
		slog.Int("rows", len(all)),
		slog.Int("skipped_rows", skipped))

	return all, skipped, nil
}
