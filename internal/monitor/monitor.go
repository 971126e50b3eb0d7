package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/netvigil/netvigil/internal/metrics"
	"github.com/netvigil/netvigil/internal/scan"
	"github.com/netvigil/netvigil/pkg/models"
)

// ErrAlreadyRunning is returned by Start when the monitor loop is already
// active.
var ErrAlreadyRunning = errors.New("monitor: already running")

// MonitoringStatus is a point-in-time snapshot of the monitor's state.
type MonitoringStatus struct {
	IsRunning       bool
	IntervalSeconds int
	ScanCount       uint32
	LastScanTime    *time.Time
	DevicesOnline   int
	DevicesTotal    int
}

// Monitor runs the scan pipeline on a recurring interval and emits
// NetworkEvents for the resulting device churn.
type Monitor struct {
	runner ScanRunner
	sink   PersistenceSink
	logger *zap.Logger

	minInterval time.Duration
	maxInterval time.Duration

	isRunning atomic.Bool
	scanCount atomic.Uint32

	mu              sync.Mutex
	intervalSeconds int
	lastScanTime    *time.Time
	previousDevices map[string]models.DeviceSnapshot

	stopCh chan struct{}
	doneCh chan struct{}
}

// New builds a Monitor. defaultInterval, minInterval, and maxInterval
// come from the scan.Config-adjacent monitor tunables.
func New(runner ScanRunner, sink PersistenceSink, logger *zap.Logger, defaultInterval, minInterval, maxInterval time.Duration) *Monitor {
	if sink == nil {
		sink = NopSink{}
	}
	return &Monitor{
		runner:          runner,
		sink:            sink,
		logger:          logger,
		minInterval:     minInterval,
		maxInterval:     maxInterval,
		intervalSeconds: clampSeconds(int(defaultInterval.Seconds()), minInterval, maxInterval),
		previousDevices: make(map[string]models.DeviceSnapshot),
	}
}

// Start spawns the monitor loop if it is not already running. interval, if
// non-nil, overrides the configured default and is clamped to [min, max].
func (m *Monitor) Start(callback Subscriber, interval *time.Duration) error {
	if !m.isRunning.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	m.mu.Lock()
	if interval != nil {
		m.intervalSeconds = clampSeconds(int(interval.Seconds()), m.minInterval, m.maxInterval)
	}
	currentInterval := m.intervalSeconds
	m.mu.Unlock()

	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})

	emit(callback, monitoringStarted(currentInterval))
	go m.loop(callback)
	return nil
}

// Stop signals the loop to exit after its current scan completes. It does
// not block; callers that need to wait should receive from Done().
func (m *Monitor) Stop() {
	if !m.isRunning.CompareAndSwap(true, false) {
		return
	}
	close(m.stopCh)
}

// Done returns a channel closed once the loop has fully exited after Stop.
func (m *Monitor) Done() <-chan struct{} {
	return m.doneCh
}

// Status reports a snapshot of the monitor's current state.
func (m *Monitor) Status() MonitoringStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	online := 0
	for _, d := range m.previousDevices {
		if d.IsOnline {
			online++
		}
	}

	return MonitoringStatus{
		IsRunning:       m.isRunning.Load(),
		IntervalSeconds: m.intervalSeconds,
		ScanCount:       m.scanCount.Load(),
		LastScanTime:    m.lastScanTime,
		DevicesOnline:   online,
		DevicesTotal:    len(m.previousDevices),
	}
}

func (m *Monitor) loop(callback Subscriber) {
	defer close(m.doneCh)

	for m.isRunning.Load() {
		scanNumber := m.scanCount.Add(1)
		emit(callback, scanStarted(scanNumber))

		result, err := m.runner.RunScan(context.Background(), func(phase string, percent int, message string) {
			emit(callback, scanProgress(phase, percent, message))
		})
		if err != nil {
			metrics.Get().RecordScanFailure()
			emit(callback, monitoringError(err.Error()))
		} else {
			m.completeScan(callback, scanNumber, result)
		}

		if !m.sleepInterruptible() {
			break
		}
	}

	emit(callback, monitoringStopped())
}

func (m *Monitor) completeScan(callback Subscriber, scanNumber uint32, result *models.ScanResult) {
	current := snapshotsFromHosts(result.ActiveHosts)

	m.mu.Lock()
	previous := m.previousDevices
	m.previousDevices = current
	now := time.Now()
	m.lastScanTime = &now
	m.mu.Unlock()

	reg := metrics.Get()
	for _, ev := range diffSnapshots(previous, current) {
		reg.RecordChurn(churnKind(ev.Kind))
		emit(callback, ev)
	}

	if err := m.sink.InsertScan(context.Background(), result); err != nil {
		reg.PersistenceErrors.Inc()
		m.logger.Warn("persistence sink failed", zap.Error(err))
	}

	reg.RecordScan(result.TotalHosts, result.ArpDiscovered, result.IcmpDiscovered, float64(result.ScanDurationMs)/1000)
	emit(callback, scanCompleted(scanNumber, result.TotalHosts, result.ScanDurationMs))
}

// sleepInterruptible sleeps for the configured interval in 1-second ticks,
// returning false as soon as Stop is observed so cancellation is prompt.
func (m *Monitor) sleepInterruptible() bool {
	m.mu.Lock()
	remaining := m.intervalSeconds
	m.mu.Unlock()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for remaining > 0 {
		select {
		case <-m.stopCh:
			return false
		case <-ticker.C:
			remaining--
		}
	}
	return m.isRunning.Load()
}

func emit(callback Subscriber, ev NetworkEvent) {
	if callback != nil {
		callback(ev)
	}
}

func churnKind(kind EventKind) string {
	switch kind {
	case EventNewDeviceDiscovered:
		return "new"
	case EventDeviceWentOffline:
		return "offline"
	case EventDeviceIpChanged:
		return "ip_changed"
	default:
		return "unknown"
	}
}

func clampSeconds(seconds int, min, max time.Duration) int {
	minS, maxS := int(min.Seconds()), int(max.Seconds())
	switch {
	case seconds < minS:
		return minS
	case seconds > maxS:
		return maxS
	default:
		return seconds
	}
}

var _ ScanRunner = (*scan.Orchestrator)(nil)
