package scan

import (
	"sort"
	"strings"

	"github.com/netvigil/netvigil/pkg/models"
)

// sensitivePorts carry the heaviest risk weight: remote-shell and
// remote-desktop style access.
var sensitivePorts = map[int]bool{23: true, 21: true, 3389: true}

// moderatePorts are file-sharing and service-discovery ports, weighted
// below the sensitive set but above a generic open port.
var moderatePorts = map[int]bool{445: true, 5353: true}

// InferDeviceType classifies a host from vendor, hostname, open ports, and
// the gateway heuristic. Rules are evaluated in order; the first match
// wins.
func InferDeviceType(vendor, hostname string, openPorts []int, isGateway bool) models.DeviceType {
	hasPort := func(p int) bool {
		for _, op := range openPorts {
			if op == p {
				return true
			}
		}
		return false
	}

	switch {
	case isGateway && vendorMatchesAny(vendor, routerVendors):
		return models.DeviceTypeRouter
	case vendorMatchesAny(vendor, mobileVendors):
		return models.DeviceTypeMobile
	case strings.Contains(strings.ToLower(hostname), "printer"):
		return models.DeviceTypePrinter
	case strings.Contains(strings.ToLower(hostname), "iot") || vendorMatchesAny(vendor, iotVendors):
		return models.DeviceTypeIoT
	case hasPort(62078):
		return models.DeviceTypeMobile
	case hasPort(445) || hasPort(3389):
		return models.DeviceTypePC
	default:
		return models.DeviceTypeUnknown
	}
}

// IsGateway applies the spec's gateway hint: last IPv4 octet is 1, or port
// 80 is open.
func IsGateway(ip string, openPorts []int) bool {
	if strings.HasSuffix(ip, ".1") {
		return true
	}
	for _, p := range openPorts {
		if p == 80 {
			return true
		}
	}
	return false
}

// RiskScore computes the 0-100 composite risk score from a host's signals.
func RiskScore(isRandomized bool, openPorts []int, deviceType models.DeviceType) int {
	score := 10
	if isRandomized {
		score += 30
	}
	for _, p := range openPorts {
		switch {
		case sensitivePorts[p]:
			score += 20
		case moderatePorts[p]:
			score += 10
		default:
			score += 5
		}
	}
	switch deviceType {
	case models.DeviceTypeRouter:
		if score < 10 {
			score = 10
		}
	case models.DeviceTypeUnknown:
		score += 15
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// OSGuessFromTTL buckets an IP-header TTL into a coarse OS family guess.
func OSGuessFromTTL(ttl int) string {
	switch {
	case ttl <= 64:
		return "Linux/Unix"
	case ttl <= 128:
		return "Windows"
	default:
		return "network device"
	}
}

// DedupSortPorts returns ports sorted ascending with duplicates removed.
func DedupSortPorts(ports []int) []int {
	seen := make(map[int]bool, len(ports))
	out := make([]int, 0, len(ports))
	for _, p := range ports {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// DiscoveryMethod assembles the composite tag from the signals present for
// one host.
func DiscoveryMethod(hasARP, hasICMP bool, openPorts []int, hasSNMP bool) string {
	var parts []string
	if hasARP {
		parts = append(parts, "ARP")
	}
	if hasICMP {
		parts = append(parts, "ICMP")
	}
	if len(openPorts) > 0 {
		parts = append(parts, "TCP")
	}
	if hasSNMP {
		parts = append(parts, "SNMP")
	}
	return strings.Join(parts, "+")
}
