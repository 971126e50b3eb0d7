package scan

import (
	"net"
	"testing"

	"github.com/netvigil/netvigil/pkg/models"
)

func TestCalculateSubnetIPs_Slash24(t *testing.T) {
	iface := models.InterfaceInfo{
		Name:      "eth0",
		IP:        net.ParseIP("192.168.50.10"),
		MAC:       net.HardwareAddr{1, 2, 3, 4, 5, 6},
		PrefixLen: 24,
	}

	cidr, ips, err := CalculateSubnetIPs(iface)
	if err != nil {
		t.Fatalf("CalculateSubnetIPs: %v", err)
	}
	if cidr != "192.168.50.0/24" {
		t.Errorf("cidr = %s, want 192.168.50.0/24", cidr)
	}
	if len(ips) != 254 {
		t.Errorf("len(ips) = %d, want 254", len(ips))
	}
	if ips[0].String() != "192.168.50.1" {
		t.Errorf("first ip = %s, want .1", ips[0])
	}
	if ips[len(ips)-1].String() != "192.168.50.254" {
		t.Errorf("last ip = %s, want .254", ips[len(ips)-1])
	}
}

func TestCalculateSubnetIPs_Slash31And32AreNoOps(t *testing.T) {
	for _, prefix := range []int{31, 32} {
		iface := models.InterfaceInfo{IP: net.ParseIP("10.0.0.5"), PrefixLen: prefix}
		_, ips, err := CalculateSubnetIPs(iface)
		if err != nil {
			t.Fatalf("CalculateSubnetIPs(/%d): %v", prefix, err)
		}
		if len(ips) != 0 {
			t.Errorf("prefix /%d: len(ips) = %d, want 0", prefix, len(ips))
		}
	}
}
