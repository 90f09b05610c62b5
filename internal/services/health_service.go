package services

import (
	"context"
	"log/slog"
	"time"

	"covidcli/pkg/contracts/domain"
)

// HealthService reports process liveness and dataset readiness.
type HealthService struct {
	version   string
	startedAt time.Time
	stats     domain.LoadStats
	logger    *slog.Logger
}

// NewHealthService creates a new health service.
func NewHealthService(version string, stats domain.LoadStats, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		startedAt: time.Now(),
		stats:     stats,
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthStatus is the liveness payload.
type HealthStatus struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessStatus is the readiness payload. The dataset is loaded before
// the server starts accepting traffic, so a serving process is always
// ready; the stats are included for operators.
type ReadinessStatus struct {
	Status  string           `json:"status"`
	Dataset domain.LoadStats `json:"dataset"`
}

// HealthCheck handles the liveness probe.
func (s *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "healthy",
		Version:   s.version,
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Timestamp: time.Now().UTC(),
	}
}

// ReadinessCheck handles the readiness probe.
func (s *HealthService) ReadinessCheck(ctx context.Context) ReadinessStatus {
	return ReadinessStatus{
		Status:  "ready",
		Dataset: s.stats,
	}
}
