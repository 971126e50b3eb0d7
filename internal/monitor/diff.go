package monitor

import "github.com/netvigil/netvigil/pkg/models"

// diffSnapshots compares the previous and current device snapshots, keyed
// by MAC, and returns the events implied by the transition. Order within
// the result is new devices, then offline devices, then IP changes; callers
// must not assume any ordering beyond that grouping.
func diffSnapshots(previous, current map[string]models.DeviceSnapshot) []NetworkEvent {
	var events []NetworkEvent

	for mac, snap := range current {
		if _, ok := previous[mac]; !ok {
			events = append(events, newDeviceDiscovered(snap))
		}
	}

	for mac, snap := range previous {
		if _, ok := current[mac]; !ok {
			events = append(events, deviceWentOffline(snap))
		}
	}

	for mac, curr := range current {
		prev, ok := previous[mac]
		if !ok {
			continue
		}
		if prev.IP != curr.IP {
			events = append(events, deviceIpChanged(mac, prev.IP, curr.IP))
		}
	}

	return events
}

// snapshotsFromHosts builds the mac-keyed snapshot map a scan produces.
func snapshotsFromHosts(hosts []models.HostInfo) map[string]models.DeviceSnapshot {
	out := make(map[string]models.DeviceSnapshot, len(hosts))
	for _, h := range hosts {
		if h.MAC == "" {
			continue
		}
		out[h.MAC] = models.SnapshotFromHost(h)
	}
	return out
}
