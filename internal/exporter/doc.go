// Package exporter writes derived snapshot datasets out as CSV files.
//
// CSVWriter is the core writer: headers, append mode, and an optional UTF-8
// BOM for Excel compatibility. DerivedExporter sits on top and knows the
// column layout of the derived dataset, exporting either one combined file
// or one file per country.
package exporter
