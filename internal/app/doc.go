// Package app wires the application together: configuration, logging,
// OpenTelemetry, the one-shot ingestion pipeline, the service layer, and
// the chi router with its middleware chain. The dataset is built before
// the server accepts its first request and is never mutated afterwards.
package app
