// Package metrics exposes the process-wide Prometheus counters and
// histograms the monitor loop updates on every scan.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds every metric netvigil records.
type Registry struct {
	ScansTotal        *prometheus.CounterVec
	ScanDuration      prometheus.Histogram
	HostsDiscovered   prometheus.Gauge
	ArpHostsFound     prometheus.Gauge
	IcmpHostsFound    prometheus.Gauge
	PhaseDuration     *prometheus.HistogramVec
	DeviceChurnTotal  *prometheus.CounterVec
	PersistenceErrors prometheus.Counter
}

var (
	once     sync.Once
	registry *Registry
)

// Get returns the global metrics registry, creating and registering it
// with the default Prometheus registerer on first use.
func Get() *Registry {
	once.Do(func() {
		registry = newRegistry()
	})
	return registry
}

func newRegistry() *Registry {
	r := &Registry{}

	r.ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netvigil_scans_total",
		Help: "Total completed scans, by outcome",
	}, []string{"outcome"})

	r.ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "netvigil_scan_duration_seconds",
		Help:    "Full pipeline duration per scan",
		Buckets: prometheus.DefBuckets,
	})

	r.HostsDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netvigil_hosts_discovered",
		Help: "Total active hosts found in the most recent scan",
	})

	r.ArpHostsFound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netvigil_arp_hosts_found",
		Help: "Hosts that answered the ARP sweep in the most recent scan",
	})

	r.IcmpHostsFound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "netvigil_icmp_hosts_found",
		Help: "Hosts that answered ICMP echo in the most recent scan",
	})

	r.PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "netvigil_phase_duration_seconds",
		Help:    "Duration of each pipeline phase",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	r.DeviceChurnTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "netvigil_device_churn_total",
		Help: "Device join/leave/ip-change events, by kind",
	}, []string{"kind"})

	r.PersistenceErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "netvigil_persistence_errors_total",
		Help: "Persistence sink write failures",
	})

	return r
}

// RecordScan updates the scan-level metrics for one completed pass.
func (r *Registry) RecordScan(totalHosts, arpHosts, icmpHosts int, durationSeconds float64) {
	r.ScansTotal.WithLabelValues("success").Inc()
	r.ScanDuration.Observe(durationSeconds)
	r.HostsDiscovered.Set(float64(totalHosts))
	r.ArpHostsFound.Set(float64(arpHosts))
	r.IcmpHostsFound.Set(float64(icmpHosts))
}

// RecordScanFailure records a scan that ended in MonitoringError.
func (r *Registry) RecordScanFailure() {
	r.ScansTotal.WithLabelValues("error").Inc()
}

// RecordChurn records one device-churn event of the given kind
// ("new", "offline", "ip_changed").
func (r *Registry) RecordChurn(kind string) {
	r.DeviceChurnTotal.WithLabelValues(kind).Inc()
}
