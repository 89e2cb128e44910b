package services

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"idxcast/internal/config"
)

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	DataFile  string    `json:"data_file"`
	DataReady bool      `json:"data_ready"`
	GoVersion string    `json:"go_version"`
	CheckedAt time.Time `json:"checked_at"`
}

// HealthService reports process and data readiness.
type HealthService struct {
	cfg     *config.Config
	logger  *slog.Logger
	version string
	started time.Time
}

// NewHealthService creates a health service.
func NewHealthService(cfg *config.Config, logger *slog.Logger, version string) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		cfg:     cfg,
		logger:  logger,
		version: version,
		started: time.Now(),
	}
}

// Check returns the current health status. The service is degraded, not
// down, when the data file is missing.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	_, err := os.Stat(s.cfg.Paths.DataFile)
	ready := err == nil

	status := "healthy"
	if !ready {
		status = "degraded"
		s.logger.WarnContext(ctx, "data file not found",
			"data_file", s.cfg.Paths.DataFile,
		)
	}

	return HealthStatus{
		Status:    status,
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		DataFile:  s.cfg.Paths.DataFile,
		DataReady: ready,
		GoVersion: runtime.Version(),
		CheckedAt: time.Now().UTC(),
	}
}
