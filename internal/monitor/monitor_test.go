package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/netvigil/netvigil/internal/scan"
	"github.com/netvigil/netvigil/pkg/models"
)

type fakeRunner struct {
	results []*models.ScanResult
	errs    []error
	calls   int
}

func (f *fakeRunner) RunScan(ctx context.Context, progress scan.ProgressFunc) (*models.ScanResult, error) {
	i := f.calls
	f.calls++
	if progress != nil {
		progress(scan.PhaseInit, 5, "selecting interface")
		progress(scan.PhaseComplete, 100, "scan complete")
	}
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return &models.ScanResult{}, nil
}

type fakeSink struct {
	inserted []*models.ScanResult
}

func (f *fakeSink) InsertScan(ctx context.Context, result *models.ScanResult) error {
	f.inserted = append(f.inserted, result)
	return nil
}

func hostWith(mac, ip string) models.HostInfo {
	return models.HostInfo{MAC: mac, IP: ip, DeviceType: models.DeviceTypeUnknown}
}

func TestMonitor_StartTwiceReturnsAlreadyRunning(t *testing.T) {
	runner := &fakeRunner{}
	m := New(runner, &fakeSink{}, zap.NewNop(), time.Minute, time.Second, time.Hour)

	if err := m.Start(nil, nil); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	defer m.Stop()

	if err := m.Start(nil, nil); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start error = %v, want ErrAlreadyRunning", err)
	}
}

func TestMonitor_DiffEmitsNewDeviceThenStop(t *testing.T) {
	scan1 := &models.ScanResult{ActiveHosts: []models.HostInfo{hostWith("AA", "192.168.50.20")}}
	scan2 := &models.ScanResult{ActiveHosts: []models.HostInfo{
		hostWith("AA", "192.168.50.20"),
		hostWith("BB", "192.168.50.21"),
	}}

	runner := &fakeRunner{results: []*models.ScanResult{scan1, scan2}}
	sink := &fakeSink{}
	m := New(runner, sink, zap.NewNop(), 0, time.Second, time.Hour)

	var events []NetworkEvent
	done := make(chan struct{})
	var seenSecondScan bool

	callback := func(ev NetworkEvent) {
		events = append(events, ev)
		if ev.Kind == EventScanCompleted && ev.ScanNumber == 2 {
			seenSecondScan = true
			m.Stop()
		}
		if ev.Kind == EventMonitoringStopped {
			close(done)
		}
	}

	interval := time.Duration(0)
	if err := m.Start(callback, &interval); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for monitor to stop")
	}

	if !seenSecondScan {
		t.Fatal("expected to observe the second scan complete")
	}
	if len(sink.inserted) != 2 {
		t.Errorf("sink received %d results, want 2", len(sink.inserted))
	}

	var sawNewDevice bool
	for _, ev := range events {
		if ev.Kind == EventNewDeviceDiscovered && ev.MAC == "BB" {
			sawNewDevice = true
		}
	}
	if !sawNewDevice {
		t.Errorf("expected a NewDeviceDiscovered event for BB, got %+v", events)
	}
}

func TestMonitor_ScanErrorEmitsMonitoringError(t *testing.T) {
	runner := &fakeRunner{errs: []error{errors.New("boom")}}
	m := New(runner, &fakeSink{}, zap.NewNop(), 0, time.Second, time.Hour)

	done := make(chan struct{})
	var sawError bool
	callback := func(ev NetworkEvent) {
		if ev.Kind == EventMonitoringError {
			sawError = true
			m.Stop()
		}
		if ev.Kind == EventMonitoringStopped {
			close(done)
		}
	}

	interval := time.Duration(0)
	if err := m.Start(callback, &interval); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for monitor to stop")
	}

	if !sawError {
		t.Error("expected a MonitoringError event")
	}
}

func TestClampSeconds(t *testing.T) {
	cases := []struct {
		seconds  int
		min, max time.Duration
		want     int
	}{
		{5, 10 * time.Second, time.Hour, 10},
		{7200, 10 * time.Second, time.Hour, 3600},
		{120, 10 * time.Second, time.Hour, 120},
	}
	for _, c := range cases {
		if got := clampSeconds(c.seconds, c.min, c.max); got != c.want {
			t.Errorf("clampSeconds(%d) = %d, want %d", c.seconds, got, c.want)
		}
	}
}
