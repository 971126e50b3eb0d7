package scan

import (
	"net"
	"strings"

	"go.uber.org/zap"

	"github.com/netvigil/netvigil/pkg/models"
)

// virtualNameSubstrings flags adapter names that belong to hypervisors and
// container runtimes rather than physical LAN segments.
var virtualNameSubstrings = []string{
	"hyper-v", "vmware", "virtualbox", "docker", "vethernet", "wsl",
}

// scoreForIP ranks a private/public IPv4 address by how likely it is to be
// the machine's real LAN-facing address, highest first.
func scoreForIP(ip net.IP, prefixLen int) int {
	switch {
	case ip[0] == 192 && ip[1] == 168:
		return 100
	case ip[0] == 10:
		return 90
	case ip[0] == 172 && ip[1] >= 16 && ip[1] <= 31:
		return 50
	default:
		return 70
	}
}

// isVirtualName reports whether name carries a hypervisor/container
// substring, case-insensitively.
func isVirtualName(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range virtualNameSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// isSuspiciousVirtualSwitch flags large 172.16/12 allocations with a short
// prefix, the common signature of a hypervisor virtual switch rather than a
// real LAN.
func isSuspiciousVirtualSwitch(ip net.IP, prefixLen int) bool {
	return ip[0] == 172 && ip[1] >= 16 && ip[1] <= 31 && prefixLen <= 20
}

// candidate pairs an interface with the IPv4 address and score used to pick
// among several eligible NICs.
type candidate struct {
	info  models.InterfaceInfo
	score int
}

// SelectInterface enumerates OS-visible NICs and returns the best-scoring
// IPv4 interface, or ErrNoInterface if none qualify.
func SelectInterface(logger *zap.Logger) (models.InterfaceInfo, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return models.InterfaceInfo{}, err
	}

	var best *candidate
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if len(iface.HardwareAddr) == 0 || isAllZeroMAC(iface.HardwareAddr) {
			continue
		}
		if isVirtualName(iface.Name) {
			logger.Debug("rejecting virtual interface", zap.String("iface", iface.Name))
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil {
				continue
			}
			if ip4.IsLinkLocalUnicast() {
				continue
			}
			prefixLen, _ := ipNet.Mask.Size()
			if isSuspiciousVirtualSwitch(ip4, prefixLen) {
				logger.Debug("rejecting suspicious virtual-switch subnet",
					zap.String("iface", iface.Name), zap.String("ip", ip4.String()))
				continue
			}

			score := scoreForIP(ip4, prefixLen)
			c := candidate{
				info: models.InterfaceInfo{
					Name:      iface.Name,
					IP:        ip4,
					MAC:       iface.HardwareAddr,
					PrefixLen: prefixLen,
				},
				score: score,
			}
			if best == nil || c.score > best.score {
				bc := c
				best = &bc
			}
			break // first IPv4 address per interface, matching the teacher's convention
		}
	}

	if best == nil {
		return models.InterfaceInfo{}, ErrNoInterface
	}
	return best.info, nil
}

func isAllZeroMAC(mac net.HardwareAddr) bool {
	for _, b := range mac {
		if b != 0 {
			return false
		}
	}
	return true
}
