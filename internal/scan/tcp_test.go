package scan

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestTCPProbeScanner_Scan_NoHostsReturnsEmpty(t *testing.T) {
	scanner := NewTCPProbeScanner(100*time.Millisecond, nil, 4, zap.NewNop())
	results := scanner.Scan(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("expected empty result set, got %v", results)
	}
}

func TestTCPProbeScanner_Scan_UsesInjectedProbe(t *testing.T) {
	scanner := &TCPProbeScanner{timeout: time.Second, ports: []int{22, 80, 443}, concurrency: 4, logger: zap.NewNop()}
	scanner.probe = func(ctx context.Context, ip string, port int, timeout time.Duration) bool {
		return ip == "192.168.1.10" && (port == 22 || port == 443)
	}

	hosts := []net.IP{net.ParseIP("192.168.1.10"), net.ParseIP("192.168.1.11")}
	results := scanner.Scan(context.Background(), hosts)

	if len(results) != 1 {
		t.Fatalf("expected exactly one host with open ports, got %v", results)
	}
	open, ok := results["192.168.1.10"]
	if !ok {
		t.Fatal("expected 192.168.1.10 to be present")
	}
	if len(open) != 2 || open[0] != 22 || open[1] != 443 {
		t.Errorf("open ports = %v, want [22 443] (ascending, deduped)", open)
	}
}

func TestTCPProbeScanner_Scan_NoOpenPortsOmitsHost(t *testing.T) {
	scanner := &TCPProbeScanner{timeout: time.Second, ports: []int{22, 80}, concurrency: 4, logger: zap.NewNop()}
	scanner.probe = func(ctx context.Context, ip string, port int, timeout time.Duration) bool {
		return false
	}

	results := scanner.Scan(context.Background(), []net.IP{net.ParseIP("192.168.1.10")})
	if _, ok := results["192.168.1.10"]; ok {
		t.Errorf("expected no entry for a host with no open ports, got %v", results["192.168.1.10"])
	}
}
