package scan

import (
	"testing"

	"github.com/netvigil/netvigil/pkg/models"
)

func TestInferDeviceType_Router(t *testing.T) {
	got := InferDeviceType("Cisco Systems", "", []int{80}, true)
	if got != models.DeviceTypeRouter {
		t.Errorf("got %s, want ROUTER", got)
	}
}

func TestInferDeviceType_MobileByVendor(t *testing.T) {
	got := InferDeviceType("Apple, Inc.", "", nil, false)
	if got != models.DeviceTypeMobile {
		t.Errorf("got %s, want MOBILE", got)
	}
}

func TestInferDeviceType_MobileBySyncPort(t *testing.T) {
	got := InferDeviceType("", "", []int{62078}, false)
	if got != models.DeviceTypeMobile {
		t.Errorf("got %s, want MOBILE", got)
	}
}

func TestInferDeviceType_PCByFileSharePort(t *testing.T) {
	got := InferDeviceType("", "", []int{445}, false)
	if got != models.DeviceTypePC {
		t.Errorf("got %s, want PC", got)
	}
}

func TestInferDeviceType_Unknown(t *testing.T) {
	got := InferDeviceType("", "", nil, false)
	if got != models.DeviceTypeUnknown {
		t.Errorf("got %s, want UNKNOWN", got)
	}
}

func TestRiskScore_RandomizedMACMeetsFloor(t *testing.T) {
	// Scenario: randomized MAC, no vendor match, no open ports -> UNKNOWN device.
	deviceType := InferDeviceType("", "", nil, false)
	score := RiskScore(true, nil, deviceType)
	if score < 40 {
		t.Errorf("score = %d, want >= 40", score)
	}
	if score < 0 || score > 100 {
		t.Errorf("score %d out of [0,100]", score)
	}
}

func TestRiskScore_ClampedTo100(t *testing.T) {
	score := RiskScore(true, []int{21, 23, 3389, 445, 5353, 1, 2, 3, 4, 5}, models.DeviceTypeUnknown)
	if score != 100 {
		t.Errorf("score = %d, want 100", score)
	}
}

func TestRiskScore_RouterFloor(t *testing.T) {
	score := RiskScore(false, nil, models.DeviceTypeRouter)
	if score < 10 {
		t.Errorf("score = %d, want >= 10", score)
	}
}

func TestOSGuessFromTTL(t *testing.T) {
	cases := map[int]string{
		64:  "Linux/Unix",
		128: "Windows",
		200: "network device",
	}
	for ttl, want := range cases {
		if got := OSGuessFromTTL(ttl); got != want {
			t.Errorf("OSGuessFromTTL(%d) = %s, want %s", ttl, got, want)
		}
	}
}

func TestDedupSortPorts(t *testing.T) {
	got := DedupSortPorts([]int{443, 22, 22, 80})
	want := []int{22, 80, 443}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDiscoveryMethod_Composition(t *testing.T) {
	got := DiscoveryMethod(true, true, []int{80}, false)
	if got != "ARP+ICMP+TCP" {
		t.Errorf("got %q, want ARP+ICMP+TCP", got)
	}

	got = DiscoveryMethod(true, false, nil, false)
	if got != "ARP" {
		t.Errorf("got %q, want ARP", got)
	}
}

func TestIsGateway(t *testing.T) {
	if !IsGateway("192.168.1.1", nil) {
		t.Error("expected .1 address to be a gateway")
	}
	if !IsGateway("192.168.1.50", []int{80}) {
		t.Error("expected port 80 open to imply gateway")
	}
	if IsGateway("192.168.1.50", []int{22}) {
		t.Error("expected non-gateway host not to be flagged")
	}
}
