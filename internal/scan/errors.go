package scan

import "errors"

// Sentinel errors for the pipeline's fatal-to-scan conditions. Per-host and
// per-phase soft failures never use these; they simply reduce the result.
var (
	// ErrNoInterface is returned by SelectInterface when no NIC survives
	// the exclusion rules and scoring.
	ErrNoInterface = errors.New("scan: no valid IPv4 interface found")

	// ErrL2Send is returned when the raw L2 channel cannot be opened
	// (insufficient privilege, missing driver support). Fatal to the scan.
	ErrL2Send = errors.New("scan: failed to open raw L2 send channel")

	// ErrL2Recv is returned only when the raw L2 channel dies mid-scan;
	// ordinary read timeouts are not an error and drive the adaptive wait.
	ErrL2Recv = errors.New("scan: raw L2 receive channel failed")
)
