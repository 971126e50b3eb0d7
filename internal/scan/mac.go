package scan

import (
	"fmt"
	"net"
	"strings"
)

// FormatMAC renders a hardware address in the spec's canonical form:
// uppercase, colon-delimited hex octets.
func FormatMAC(addr net.HardwareAddr) string {
	if len(addr) == 0 {
		return ""
	}
	parts := make([]string, len(addr))
	for i, b := range addr {
		parts[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(parts, ":")
}
