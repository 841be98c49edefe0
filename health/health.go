// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.

// Package health writes the single-object health file consumed by
// external monitoring. The file is overwritten atomically on each state
// change so a reader never observes a torn document.
package health

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"go.uber.org/zap"

	"github.com/netcheck/netcheck/publicip"
)

// Status is the lifecycle state of the current run.
type Status string

const (
	StatusStarting  Status = "starting"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Report is the health.json document shape.
type Report struct {
	Status            Status  `json:"status"`
	Timestamp         string  `json:"timestamp"`
	Version           string  `json:"version"`
	Uptime            float64 `json:"uptime"`
	MemoryUsageMB     float64 `json:"memory_usage_mb"`
	TargetsConfigured int     `json:"targets_configured"`
	PID               int     `json:"pid"`
	RunID             string  `json:"run_id,omitempty"`
	SourcePublicIP    string  `json:"source_public_ip,omitempty"`
}

// Reporter writes health reports for one process lifetime.
type Reporter struct {
	path    string
	version string
	start   time.Time
	fetcher publicip.Fetcher
	logger  *zap.Logger
}

// NewReporter returns a Reporter writing to path. fetcher may be nil to
// skip public IP enrichment.
func NewReporter(path, version string, fetcher publicip.Fetcher, logger *zap.Logger) *Reporter {
	return &Reporter{
		path:    path,
		version: version,
		start:   time.Now(),
		fetcher: fetcher,
		logger:  logger,
	}
}

// Write overwrites the health file with the current state. Failures are
// logged, never fatal: health reporting must not break a run.
func (r *Reporter) Write(status Status, targetsConfigured int, runID string) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	report := Report{
		Status:            status,
		Timestamp:         time.Now().UTC().Format(time.RFC3339),
		Version:           r.version,
		Uptime:            time.Since(r.start).Seconds(),
		MemoryUsageMB:     float64(mem.Alloc) / (1 << 20),
		TargetsConfigured: targetsConfigured,
		PID:               os.Getpid(),
		RunID:             runID,
	}

	if r.fetcher != nil {
		if ip, err := r.fetcher.IP(); err == nil {
			report.SourcePublicIP = ip.String()
		} else {
			r.logger.Debug("public ip lookup failed", zap.Error(err))
		}
	}

	if err := r.write(report); err != nil {
		r.logger.Warn("could not write health file", zap.String("path", r.path), zap.Error(err))
	}
}

func (r *Reporter) write(report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".health-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}
