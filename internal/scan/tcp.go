package scan

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTCPProbePorts is the fixed probe-port set from §4.6.
var DefaultTCPProbePorts = []int{22, 80, 443, 445, 8080, 3389, 5353, 62078}

// TCPProbeScanner attempts a bounded-parallel connect() against a fixed
// port list per host.
type TCPProbeScanner struct {
	timeout     time.Duration
	ports       []int
	concurrency int
	logger      *zap.Logger

	// probe reports whether ip:port accepted a connection; overridden in
	// tests so no real socket is opened.
	probe func(ctx context.Context, ip string, port int, timeout time.Duration) bool
}

// NewTCPProbeScanner builds a TCPProbeScanner wired to real TCP connect()
// probes.
func NewTCPProbeScanner(timeout time.Duration, ports []int, concurrency int, logger *zap.Logger) *TCPProbeScanner {
	if len(ports) == 0 {
		ports = DefaultTCPProbePorts
	}
	return &TCPProbeScanner{
		timeout:     timeout,
		ports:       ports,
		concurrency: concurrency,
		logger:      logger,
		probe:       dialPortOpen,
	}
}

// Scan probes every host's fixed port list concurrently, returning the
// ascending, duplicate-free set of open ports per host that had at least
// one open port.
func (s *TCPProbeScanner) Scan(ctx context.Context, hosts []net.IP) map[string][]int {
	results := make(map[string][]int)
	if len(hosts) == 0 {
		return results
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)

	for _, ip := range hosts {
		ipStr := ip.String()
		wg.Add(1)
		go func(ip string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}
			defer func() { <-sem }()

			var open []int
			for _, port := range s.ports {
				if s.probe(ctx, ip, port, s.timeout) {
					open = append(open, port)
				}
			}
			if len(open) == 0 {
				return
			}
			open = DedupSortPorts(open)
			mu.Lock()
			results[ip] = open
			mu.Unlock()
		}(ipStr)
	}

	wg.Wait()
	return results
}

// dialPortOpen is the real connect() probe wired in by NewTCPProbeScanner.
func dialPortOpen(ctx context.Context, ip string, port int, timeout time.Duration) bool {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
