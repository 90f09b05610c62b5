// Command processor runs the snapshot pipeline once from the command line:
// it ingests snapshot files, builds the derived dataset, and writes it out
// as CSV. Useful for offline inspection and smoke checks without starting
// the web server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"covidcli/internal/dataprocessing"
	"covidcli/internal/exporter"
	"covidcli/pkg/contracts/domain"
)

func main() {
	inPath := flag.String("in", "data", "snapshot file or directory to ingest")
	outPath := flag.String("out", "derived.csv", "output CSV path for the derived dataset")
	byCountry := flag.String("by-country", "", "also write one CSV per country into this directory")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := run(context.Background(), logger, *inPath, *outPath, *byCountry); err != nil {
		logger.Error("processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, inPath, outPath, byCountryDir string) error {
	loader := dataprocessing.NewLoader(logger)

	info, err := os.Stat(inPath)
	if err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	var rows []domain.RawSnapshot
	var skipped int
	if info.IsDir() {
		rows, skipped, err = loader.LoadDir(ctx, inPath)
	} else {
		rows, skipped, err = loader.LoadFile(ctx, inPath)
	}
	if err != nil {
		return err
	}

	pipeline, err := dataprocessing.NewPipeline(logger, nil)
	if err != nil {
		return err
	}

	dataset, err := pipeline.BuildDataset(ctx, rows)
	if err != nil {
		return err
	}

	exp := exporter.NewDerivedExporter(logger)
	if err := exp.ExportCombined(dataset.Records, outPath); err != nil {
		return err
	}
	if byCountryDir != "" {
		if err := exp.ExportByCountry(dataset.Records, byCountryDir); err != nil {
			return err
		}
	}

	logger.Info("derived dataset written",
		slog.String("path", outPath),
		slog.Int("records", len(dataset.Records)),
		slog.Int("countries", dataset.Stats.Countries),
		slog.Int("excluded_rows", dataset.Stats.Excluded),
		slog.Int("skipped_rows", skipped))

	return nil
}
