// Package models holds the data types shared across the scan pipeline,
// the background monitor, and the persistence sink.
package models

import "net"

// DeviceType categorizes a discovered host by the enricher's inference rules.
type DeviceType string

const (
	DeviceTypeRouter  DeviceType = "ROUTER"
	DeviceTypeMobile  DeviceType = "MOBILE"
	DeviceTypePrinter DeviceType = "PRINTER"
	DeviceTypeIoT     DeviceType = "IOT"
	DeviceTypePC      DeviceType = "PC"
	DeviceTypeUnknown DeviceType = "UNKNOWN"
)

// InterfaceInfo is the NIC chosen by the interface selector. Immutable
// after construction; owned by the orchestrator for one scan's duration.
type InterfaceInfo struct {
	Name      string
	IP        net.IP
	MAC       net.HardwareAddr
	PrefixLen int
}

// HostInfo is the canonical per-device record assembled by the enricher.
type HostInfo struct {
	IP              string   `json:"ip"`
	MAC             string   `json:"mac"`
	Vendor          string   `json:"vendor,omitempty"`
	IsRandomized    bool     `json:"is_randomized,omitempty"`
	ResponseTimeMs  *int64   `json:"response_time_ms,omitempty"`
	TTL             *int     `json:"ttl,omitempty"`
	OSGuess         string   `json:"os_guess,omitempty"`
	DeviceType      DeviceType `json:"device_type"`
	RiskScore       int      `json:"risk_score"`
	OpenPorts       []int    `json:"open_ports,omitempty"`
	DiscoveryMethod string   `json:"discovery_method"`
	Hostname        string   `json:"hostname,omitempty"`
	Neighbors       []NeighborInfo `json:"neighbors,omitempty"`
}

// NeighborInfo is reserved for LLDP/CDP topology enrichment, which is out
// of scope; HostInfo.Neighbors is always empty in this implementation.
type NeighborInfo struct {
	LocalPort    string `json:"local_port"`
	RemoteDevice string `json:"remote_device"`
	RemotePort   string `json:"remote_port"`
	RemoteIP     string `json:"remote_ip,omitempty"`
}

// ScanResult is the output of one full pipeline run.
type ScanResult struct {
	ScanID          string     `json:"scan_id"`
	InterfaceName   string     `json:"interface_name"`
	LocalIP         string     `json:"local_ip"`
	LocalMAC        string     `json:"local_mac"`
	Subnet          string     `json:"subnet"`
	ScanMethod      string     `json:"scan_method"`
	ArpDiscovered   int        `json:"arp_discovered"`
	IcmpDiscovered  int        `json:"icmp_discovered"`
	TotalHosts      int        `json:"total_hosts"`
	ScanDurationMs  int64      `json:"scan_duration_ms"`
	ActiveHosts     []HostInfo `json:"active_hosts"`
}

// DeviceSnapshot is the monitor's diff key. Identity is MAC, not IP, so a
// DHCP-issued IP change never registers as a new device.
type DeviceSnapshot struct {
	MAC        string
	IP         string
	Hostname   string
	DeviceType DeviceType
	IsOnline   bool
}

// SnapshotFromHost projects a HostInfo into the monitor's diff key.
func SnapshotFromHost(h HostInfo) DeviceSnapshot {
	return DeviceSnapshot{
		MAC:        h.MAC,
		IP:         h.IP,
		Hostname:   h.Hostname,
		DeviceType: h.DeviceType,
		IsOnline:   true,
	}
}
