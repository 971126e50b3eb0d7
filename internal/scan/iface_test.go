package scan

import (
	"net"
	"testing"
)

func TestScoreForIP(t *testing.T) {
	cases := []struct {
		ip   net.IP
		want int
	}{
		{net.ParseIP("192.168.1.10").To4(), 100},
		{net.ParseIP("10.0.0.5").To4(), 90},
		{net.ParseIP("172.20.0.5").To4(), 50},
		{net.ParseIP("8.8.8.8").To4(), 70},
	}
	for _, c := range cases {
		if got := scoreForIP(c.ip, 24); got != c.want {
			t.Errorf("scoreForIP(%s) = %d, want %d", c.ip, got, c.want)
		}
	}
}

func TestIsVirtualName(t *testing.T) {
	yes := []string{"vEthernet (WSL)", "VMware Network Adapter", "docker0", "VirtualBox Host-Only"}
	for _, name := range yes {
		if !isVirtualName(name) {
			t.Errorf("isVirtualName(%q) = false, want true", name)
		}
	}
	if isVirtualName("eth0") {
		t.Error("isVirtualName(\"eth0\") = true, want false")
	}
}

func TestIsSuspiciousVirtualSwitch(t *testing.T) {
	if !isSuspiciousVirtualSwitch(net.ParseIP("172.20.0.1").To4(), 20) {
		t.Error("expected 172.20.0.0/20 to be flagged")
	}
	if isSuspiciousVirtualSwitch(net.ParseIP("172.20.0.1").To4(), 24) {
		t.Error("did not expect a /24 on 172.20 to be flagged")
	}
	if isSuspiciousVirtualSwitch(net.ParseIP("192.168.1.1").To4(), 16) {
		t.Error("did not expect 192.168 to be flagged")
	}
}

func TestIsAllZeroMAC(t *testing.T) {
	if !isAllZeroMAC(net.HardwareAddr{0, 0, 0, 0, 0, 0}) {
		t.Error("expected all-zero MAC to be detected")
	}
	if isAllZeroMAC(net.HardwareAddr{0, 0, 0, 0, 0, 1}) {
		t.Error("did not expect non-zero MAC to be flagged")
	}
}
