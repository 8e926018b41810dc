package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"cosmedcli/internal/config"
	"cosmedcli/internal/infrastructure"
	"cosmedcli/pkg/contracts"
)

// ConnectionCounter exposes the number of connected WebSocket clients.
type ConnectionCounter interface {
	ClientCount() int
}

// RuntimeStatsProvider reports process vitals sampled by the runtime
// metrics collector.
type RuntimeStatsProvider interface {
	Current(ctx context.Context) *infrastructure.RuntimeStats
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	repoURL   string
	buildTime string
	buildID   string
	paths     *config.Paths
	hub       ConnectionCounter
	batches   *BatchService
	vitals    RuntimeStatsProvider
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// SystemStats represents system statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	ReportFiles      int     `json:"report_files"`
	ReportSizeBytes  int64   `json:"report_size_bytes"`
	UploadedFiles    int     `json:"uploaded_files"`
	UploadSizeBytes  int64   `json:"upload_size_bytes"`
	WebSocketClients int     `json:"websocket_clients"`
	ActiveBatches    int     `json:"active_batches"`
	Goroutines       int     `json:"goroutines,omitempty"`
	HeapAllocBytes   uint64  `json:"heap_alloc_bytes,omitempty"`
	GCCount          uint32  `json:"gc_count,omitempty"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a new health service with injected dependencies and default logger
func NewHealthService(version, repoURL string, paths *config.Paths, hub ConnectionCounter, batches *BatchService, logger *slog.Logger) *HealthService {
	return NewHealthServiceWithBuildInfo(version, repoURL, "", "", paths, hub, batches, nil, logger)
}

// NewHealthServiceWithBuildInfo creates a new health service with build information
func NewHealthServiceWithBuildInfo(version, repoURL, buildTime, buildID string, paths *config.Paths, hub ConnectionCounter, batches *BatchService, vitals RuntimeStatsProvider, logger *slog.Logger) *HealthService {
	// Ensure we have a logger
	if logger == nil {
		logger = slog.Default()
	}

	// Log service initialization
	logger.Info("HealthService initialized with full dependencies",
		slog.String("version", version),
		slog.String("repo_url", repoURL),
		slog.String("build_time", buildTime),
		slog.String("build_id", buildID))

	return &HealthService{
		version:   version,
		repoURL:   repoURL,
		buildTime: buildTime,
		buildID:   buildID,
		paths:     paths,
		hub:       hub,
		batches:   batches,
		vitals:    vitals,
		startTime: time.Now(),
		logger:    logger,
	}
}

// NewHealthServiceWithLogger creates a new health service with a specific logger (simplified constructor for test)
func NewHealthServiceWithLogger(version, repoURL string, logger *slog.Logger) *HealthService {
	// Ensure we have a logger
	if logger == nil {
		logger = slog.Default()
	}

	// Log service initialization
	logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("repo_url", repoURL))

	return &HealthService{
		version:   version,
		repoURL:   repoURL,
		startTime: time.Now(),
		logger:    logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	// Log health check operation
	hs.logger.Debug("HealthCheck: performing health check",
		slog.String("version", hs.version),
		slog.String("uptime", time.Since(hs.startTime).String()))

	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}

	// Log the result
	hs.logger.Info("HealthCheck: completed",
		slog.String("status", status.Status),
		slog.Time("timestamp", status.Timestamp))

	return status
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]interface{}),
	}

	// Check individual services
	status.Services["websocket"] = hs.checkWebSocketHealth()
	status.Services["batches"] = hs.checkBatchHealth()
	status.Services["uploads"] = hs.checkDirectoryHealth("uploads", hs.uploadsDir())
	status.Services["reports"] = hs.checkDirectoryHealth("reports", hs.reportsDir())

	// Determine overall readiness
	allReady := true
	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			allReady = false
			break
		}
	}

	if !allReady {
		status.Status = "not_ready"
	}

	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	info := contracts.GetVersionInfo()
	result := map[string]interface{}{
		"version":      hs.version,
		"stage":        info.Stage,
		"go_version":   info.GoVersion,
		"os":           info.OS,
		"arch":         info.Architecture,
		"data_format":  info.DataFormat,
		"api_version":  info.APIVersion,
		"prerelease":   contracts.IsPrerelease(),
		"repo_url":     hs.repoURL,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	// Include build info if available
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

// SystemStats returns system statistics
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	reportFiles, reportBytes := countFiles(hs.reportsDir())
	uploadFiles, uploadBytes := countFiles(hs.uploadsDir())

	stats := SystemStats{
		UptimeSeconds:   time.Since(hs.startTime).Seconds(),
		ReportFiles:     reportFiles,
		ReportSizeBytes: reportBytes,
		UploadedFiles:   uploadFiles,
		UploadSizeBytes: uploadBytes,
		GoVersion:       runtime.Version(),
		OS:              runtime.GOOS,
		Arch:            runtime.GOARCH,
	}

	if hs.hub != nil {
		stats.WebSocketClients = hs.hub.ClientCount()
	}
	if hs.batches != nil {
		stats.ActiveBatches = len(hs.batches.ListBatches(ctx))
	}
	if hs.vitals != nil {
		vitals := hs.vitals.Current(ctx)
		stats.Goroutines = vitals.Goroutines
		stats.HeapAllocBytes = vitals.HeapAlloc
		stats.GCCount = vitals.GCCount
	}

	return stats, nil
}

// checkWebSocketHealth checks WebSocket service health
func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "WebSocket hub not initialized",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "WebSocket service is healthy",
		Uptime:  time.Since(hs.startTime).String(),
	}
}

// checkBatchHealth checks the batch registry health
func (hs *HealthService) checkBatchHealth() ServiceHealth {
	if hs.batches == nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "batch service not initialized",
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: "batch service is healthy",
	}
}

// checkDirectoryHealth checks that a data directory exists and is writable
func (hs *HealthService) checkDirectoryHealth(name, dir string) ServiceHealth {
	if dir == "" {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("%s directory not configured", name),
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return ServiceHealth{
			Status:  "not_ready",
			Message: fmt.Sprintf("Cannot access %s directory: %v", name, err),
		}
	}

	return ServiceHealth{
		Status:  "ready",
		Message: fmt.Sprintf("%s directory is accessible", name),
	}
}

func (hs *HealthService) uploadsDir() string {
	if hs.paths == nil {
		return ""
	}
	return hs.paths.UploadsDir
}

func (hs *HealthService) reportsDir() string {
	if hs.paths == nil {
		return ""
	}
	return hs.paths.ReportsDir
}

// countFiles walks dir and totals the regular files beneath it
func countFiles(dir string) (int, int64) {
	if dir == "" {
		return 0, 0
	}

	var count int
	var size int64
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			count++
			size += info.Size()
		}
		return nil
	})

	return count, size
}

// GetDetailedHealth returns comprehensive health information
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]interface{} {
	stats, _ := hs.SystemStats(ctx)

	return map[string]interface{}{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
		"stats":     stats,
	}
}
