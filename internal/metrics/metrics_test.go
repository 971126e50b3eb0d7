package metrics

import "testing"

func TestGet_ReturnsSingleton(t *testing.T) {
	a := Get()
	b := Get()
	if a != b {
		t.Error("expected Get() to return the same registry instance")
	}
}

func TestRecordScan_DoesNotPanic(t *testing.T) {
	r := Get()
	r.RecordScan(10, 8, 6, 1.5)
	r.RecordScanFailure()
	r.RecordChurn("new")
	r.RecordChurn("offline")
	r.RecordChurn("ip_changed")
	r.PersistenceErrors.Inc()
}
