// Package monitor runs the scan orchestrator on a recurring interval,
// diffs successive snapshots to detect devices joining, leaving, or
// changing address, and fans resulting events out to subscribers.
package monitor

import "github.com/netvigil/netvigil/pkg/models"

// EventKind discriminates the NetworkEvent variants.
type EventKind string

const (
	EventMonitoringStarted   EventKind = "MonitoringStarted"
	EventScanStarted         EventKind = "ScanStarted"
	EventScanProgress        EventKind = "ScanProgress"
	EventScanCompleted       EventKind = "ScanCompleted"
	EventNewDeviceDiscovered EventKind = "NewDeviceDiscovered"
	EventDeviceWentOffline   EventKind = "DeviceWentOffline"
	EventDeviceIpChanged     EventKind = "DeviceIpChanged"
	EventMonitoringError     EventKind = "MonitoringError"
	EventMonitoringStopped   EventKind = "MonitoringStopped"
)

// NetworkEvent is a value-type tagged union over the nine monitor events.
// Only the fields relevant to Kind are populated; the rest are zero.
type NetworkEvent struct {
	Kind EventKind

	// MonitoringStarted
	IntervalSeconds int

	// ScanStarted / ScanCompleted
	ScanNumber uint32
	HostsFound int
	DurationMs int64

	// ScanProgress
	Phase   string
	Percent int
	Message string

	// NewDeviceDiscovered / DeviceWentOffline / DeviceIpChanged
	IP         string
	MAC        string
	Hostname   string
	DeviceType models.DeviceType
	LastIP     string
	OldIP      string
	NewIP      string
}

// Subscriber receives NetworkEvent values synchronously from the monitor
// loop. Implementations must return promptly or spawn their own work.
type Subscriber func(NetworkEvent)

func monitoringStarted(intervalSeconds int) NetworkEvent {
	return NetworkEvent{Kind: EventMonitoringStarted, IntervalSeconds: intervalSeconds}
}

func scanStarted(scanNumber uint32) NetworkEvent {
	return NetworkEvent{Kind: EventScanStarted, ScanNumber: scanNumber}
}

func scanProgress(phase string, percent int, message string) NetworkEvent {
	return NetworkEvent{Kind: EventScanProgress, Phase: phase, Percent: percent, Message: message}
}

func scanCompleted(scanNumber uint32, hostsFound int, durationMs int64) NetworkEvent {
	return NetworkEvent{Kind: EventScanCompleted, ScanNumber: scanNumber, HostsFound: hostsFound, DurationMs: durationMs}
}

func newDeviceDiscovered(snap models.DeviceSnapshot) NetworkEvent {
	return NetworkEvent{
		Kind:       EventNewDeviceDiscovered,
		IP:         snap.IP,
		MAC:        snap.MAC,
		Hostname:   snap.Hostname,
		DeviceType: snap.DeviceType,
	}
}

func deviceWentOffline(snap models.DeviceSnapshot) NetworkEvent {
	return NetworkEvent{
		Kind:     EventDeviceWentOffline,
		MAC:      snap.MAC,
		LastIP:   snap.IP,
		Hostname: snap.Hostname,
	}
}

func deviceIpChanged(mac, oldIP, newIP string) NetworkEvent {
	return NetworkEvent{Kind: EventDeviceIpChanged, MAC: mac, OldIP: oldIP, NewIP: newIP}
}

func monitoringError(message string) NetworkEvent {
	return NetworkEvent{Kind: EventMonitoringError, Message: message}
}

func monitoringStopped() NetworkEvent {
	return NetworkEvent{Kind: EventMonitoringStopped}
}
