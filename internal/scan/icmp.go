package scan

import (
	"context"
	"net"
	"runtime"
	"time"

	probing "github.com/prometheus-community/pro-bing"
	"go.uber.org/zap"
)

// IcmpResult is the per-host result of the echo phase.
type IcmpResult struct {
	Duration time.Duration
	TTL      int // 0 means unknown/absent
}

// ICMPScanner issues bounded-parallel ICMP echoes against a host list.
type ICMPScanner struct {
	timeout     time.Duration
	retries     int
	concurrency int
	logger      *zap.Logger

	// ping performs a single echo attempt; overridden in tests so the
	// network is never touched.
	ping func(ctx context.Context, ip string, timeout time.Duration, privileged bool) (IcmpResult, bool)
}

// NewICMPScanner builds an ICMPScanner from the pipeline's tunables, wired
// to real ICMP echoes via github.com/prometheus-community/pro-bing.
func NewICMPScanner(timeout time.Duration, retries, concurrency int, logger *zap.Logger) *ICMPScanner {
	return &ICMPScanner{
		timeout:     timeout,
		retries:     retries,
		concurrency: concurrency,
		logger:      logger,
		ping: func(ctx context.Context, ip string, timeout time.Duration, privileged bool) (IcmpResult, bool) {
			return pingOnce(ctx, ip, timeout, privileged, logger)
		},
	}
}

// Scan pings every host concurrently, bounded by a counting gate of
// capacity s.concurrency, and returns a result only for hosts that
// answered within s.retries attempts.
func (s *ICMPScanner) Scan(ctx context.Context, hosts []net.IP) map[string]IcmpResult {
	results := make(map[string]IcmpResult)
	if len(hosts) == 0 {
		return results
	}

	type pair struct {
		ip  string
		res IcmpResult
		ok  bool
	}

	sem := make(chan struct{}, s.concurrency)
	out := make(chan pair, len(hosts))
	privileged := runtime.GOOS == "windows"

	for _, ip := range hosts {
		ipStr := ip.String()
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			continue
		}
		go func(ip string) {
			defer func() { <-sem }()
			res, ok := s.pingWithRetries(ctx, ip, privileged)
			out <- pair{ip: ip, res: res, ok: ok}
		}(ipStr)
	}

	for range hosts {
		p := <-out
		if p.ok {
			results[p.ip] = p.res
		}
	}
	return results
}

// pingWithRetries attempts up to s.retries echoes, each bounded by
// s.timeout; the first success wins.
func (s *ICMPScanner) pingWithRetries(ctx context.Context, ip string, privileged bool) (IcmpResult, bool) {
	attempts := s.retries
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if res, ok := s.ping(ctx, ip, s.timeout, privileged); ok {
			return res, true
		}
	}
	return IcmpResult{}, false
}

// pingOnce is the real echo implementation wired in by NewICMPScanner.
func pingOnce(ctx context.Context, ip string, timeout time.Duration, privileged bool, logger *zap.Logger) (IcmpResult, bool) {
	pinger, err := probing.NewPinger(ip)
	if err != nil {
		logger.Debug("icmp: failed to create pinger", zap.String("ip", ip), zap.Error(err))
		return IcmpResult{}, false
	}
	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(privileged)

	var ttl int
	pinger.OnRecv = func(pkt *probing.Packet) {
		if ttl == 0 {
			ttl = pkt.TTL
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := pinger.Run(); err != nil {
			logger.Debug("icmp: ping failed", zap.String("ip", ip), zap.Error(err))
		}
	}()

	select {
	case <-done:
	case <-ctx.Done():
		pinger.Stop()
		return IcmpResult{}, false
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return IcmpResult{}, false
	}
	return IcmpResult{Duration: stats.AvgRtt, TTL: ttl}, true
}
