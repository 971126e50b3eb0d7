// Package scan implements the multi-phase LAN host-discovery pipeline:
// interface selection, active ARP sweep, ICMP echo, TCP probing,
// reverse-DNS resolution, and enrichment into a ScanResult.
package scan

import (
	"context"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/netvigil/netvigil/internal/metrics"
	"github.com/netvigil/netvigil/pkg/models"
)

// Progress phases emitted during one orchestrator run.
const (
	PhaseInit     = "INIT"
	PhaseARP      = "ARP"
	PhaseICMP     = "ICMP"
	PhaseDNS      = "DNS"
	PhaseComplete = "COMPLETE"
)

// ProgressFunc receives phase transitions during RunScan.
type ProgressFunc func(phase string, percent int, message string)

// Config bundles every pipeline tunable the orchestrator needs.
type Config struct {
	ARP ARPConfig

	PingTimeout        time.Duration
	PingRetries        int
	MaxConcurrentPings int

	TCPProbeTimeout time.Duration
	TCPProbePorts   []int

	DNSTimeout     time.Duration
	DNSConcurrency int

	DefaultPrefixLen int
}

// Orchestrator runs the full pipeline: A -> B -> D -> (E||F||G) -> H.
type Orchestrator struct {
	cfg    Config
	logger *zap.Logger

	selectInterface func(*zap.Logger) (models.InterfaceInfo, error)
	arp             *ARPScanner
	icmp            *ICMPScanner
	tcp             *TCPProbeScanner
	dns             *DNSScanner
}

// NewOrchestrator builds an Orchestrator wired to real scanner components.
func NewOrchestrator(cfg Config, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:             cfg,
		logger:          logger,
		selectInterface: SelectInterface,
		arp:             NewARPScanner(cfg.ARP, logger.Named("arp")),
		icmp:            NewICMPScanner(cfg.PingTimeout, cfg.PingRetries, cfg.MaxConcurrentPings, logger.Named("icmp")),
		tcp:             NewTCPProbeScanner(cfg.TCPProbeTimeout, cfg.TCPProbePorts, cfg.MaxConcurrentPings, logger.Named("tcp")),
		dns:             NewDNSScanner(cfg.DNSTimeout, cfg.DNSConcurrency, logger.Named("dns")),
	}
}

// RunScan executes one full pipeline pass and assembles a ScanResult.
// progress, if non-nil, is invoked with monotonically increasing phase
// percentages.
func (o *Orchestrator) RunScan(ctx context.Context, progress ProgressFunc) (*models.ScanResult, error) {
	start := time.Now()
	emit := func(phase string, percent int, msg string) {
		if progress != nil {
			progress(phase, percent, msg)
		}
	}

	reg := metrics.Get()
	phaseStart := start
	mark := func(phase string) {
		now := time.Now()
		reg.PhaseDuration.WithLabelValues(phase).Observe(now.Sub(phaseStart).Seconds())
		phaseStart = now
	}

	emit(PhaseInit, 5, "selecting interface")
	iface, err := o.selectInterface(o.logger)
	if err != nil {
		return nil, err
	}

	subnetCIDR, targets, err := CalculateSubnetIPs(iface)
	if err != nil {
		return nil, err
	}
	mark(PhaseInit)

	emit(PhaseARP, 20, "sweeping ARP")
	arpResult, err := o.arp.Scan(ctx, iface, targets, subnetCIDR)
	if err != nil {
		return nil, err
	}
	mark(PhaseARP)

	hostIPs := make([]net.IP, 0, len(arpResult))
	for ipStr := range arpResult {
		hostIPs = append(hostIPs, net.ParseIP(ipStr))
	}

	var (
		icmpResults map[string]IcmpResult
		tcpResults  map[string][]int
		dnsResults  map[string]string
	)
	emit(PhaseICMP, 50, "probing ICMP, TCP, and DNS")
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		icmpResults = o.icmp.Scan(ctx, hostIPs)
	}()
	go func() {
		defer wg.Done()
		tcpResults = o.tcp.Scan(ctx, hostIPs)
	}()
	go func() {
		defer wg.Done()
		dnsResults = o.dns.Scan(ctx, hostIPs)
	}()
	wg.Wait()
	mark(PhaseICMP)

	emit(PhaseDNS, 80, "resolved hostnames")
	mark(PhaseDNS)

	hosts := make([]models.HostInfo, 0, len(arpResult)+1)
	for ipStr, mac := range arpResult {
		hosts = append(hosts, o.enrichHost(ipStr, mac, icmpResults[ipStr], tcpResults[ipStr], dnsResults[ipStr]))
	}

	hosts = append(hosts, localHostEntry(iface))
	sortHostsByIP(hosts)

	result := &models.ScanResult{
		ScanID:         uuid.NewString(),
		InterfaceName:  iface.Name,
		LocalIP:        iface.IP.String(),
		LocalMAC:       FormatMAC(iface.MAC),
		Subnet:         subnetCIDR,
		ScanMethod:     "arp+icmp+tcp+dns",
		ArpDiscovered:  len(arpResult),
		IcmpDiscovered: len(icmpResults),
		TotalHosts:     len(hosts),
		ScanDurationMs: time.Since(start).Milliseconds(),
		ActiveHosts:    hosts,
	}

	emit(PhaseComplete, 100, "scan complete")
	return result, nil
}

func (o *Orchestrator) enrichHost(ip, mac string, icmp IcmpResult, openPorts []int, hostname string) models.HostInfo {
	vendorInfo := LookupVendorInfo(mac)
	openPorts = DedupSortPorts(openPorts)

	host := models.HostInfo{
		IP:           ip,
		MAC:          mac,
		Vendor:       vendorInfo.Vendor,
		IsRandomized: vendorInfo.IsRandomized,
		OpenPorts:    openPorts,
		Hostname:     hostname,
	}

	hasICMP := icmp.Duration > 0 || icmp.TTL > 0
	if hasICMP {
		ms := icmp.Duration.Milliseconds()
		host.ResponseTimeMs = &ms
		if icmp.TTL > 0 {
			ttl := icmp.TTL
			host.TTL = &ttl
			host.OSGuess = OSGuessFromTTL(ttl)
		}
	}

	isGateway := IsGateway(ip, openPorts)
	host.DeviceType = InferDeviceType(vendorInfo.Vendor, hostname, openPorts, isGateway)
	host.RiskScore = RiskScore(vendorInfo.IsRandomized, openPorts, host.DeviceType)
	host.DiscoveryMethod = DiscoveryMethod(true, hasICMP, openPorts, false)

	return host
}

func localHostEntry(iface models.InterfaceInfo) models.HostInfo {
	zero := int64(0)
	return models.HostInfo{
		IP:              iface.IP.String(),
		MAC:             FormatMAC(iface.MAC),
		ResponseTimeMs:  &zero,
		DeviceType:      models.DeviceTypePC,
		DiscoveryMethod: "LOCAL",
	}
}

func sortHostsByIP(hosts []models.HostInfo) {
	sort.Slice(hosts, func(i, j int) bool {
		return ipToUint32(net.ParseIP(hosts[i].IP).To4()) < ipToUint32(net.ParseIP(hosts[j].IP).To4())
	})
}
