package monitor

import (
	"context"

	"github.com/netvigil/netvigil/internal/scan"
	"github.com/netvigil/netvigil/pkg/models"
)

// PersistenceSink accepts completed scan results for durable storage.
// Implementations must be safe to call from the monitor loop goroutine.
// A write failure is logged and suppressed: it never aborts the monitor.
type PersistenceSink interface {
	InsertScan(ctx context.Context, result *models.ScanResult) error
}

// NopSink discards every scan result. It is the default when no
// persistence backend is configured.
type NopSink struct{}

// InsertScan implements PersistenceSink by doing nothing.
func (NopSink) InsertScan(ctx context.Context, result *models.ScanResult) error {
	return nil
}

// ScanRunner runs one full discovery pass. scan.Orchestrator satisfies
// this so the monitor can be tested against a fake.
type ScanRunner interface {
	RunScan(ctx context.Context, progress scan.ProgressFunc) (*models.ScanResult, error)
}
