package scan

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DNSScanner performs bounded-concurrency reverse lookups.
type DNSScanner struct {
	timeout     time.Duration
	concurrency int
	logger      *zap.Logger

	// resolve performs the raw PTR lookup; overridden in tests so no real
	// DNS query is issued.
	resolve func(ctx context.Context, ip string, timeout time.Duration) ([]string, error)
}

// NewDNSScanner builds a DNSScanner wired to the standard resolver.
func NewDNSScanner(timeout time.Duration, concurrency int, logger *zap.Logger) *DNSScanner {
	return &DNSScanner{
		timeout:     timeout,
		concurrency: concurrency,
		logger:      logger,
		resolve:     lookupAddr,
	}
}

// lookupAddr is the real PTR lookup wired in by NewDNSScanner.
func lookupAddr(ctx context.Context, ip string, timeout time.Duration) ([]string, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return net.DefaultResolver.LookupAddr(lookupCtx, ip)
}

// Scan resolves PTR records for every host, bounded by s.concurrency
// concurrent queries, each with a per-query timeout. A hostname equal to
// the literal IP text, or any lookup failure, is silently omitted.
func (s *DNSScanner) Scan(ctx context.Context, hosts []net.IP) map[string]string {
	results := make(map[string]string)
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

			name, ok := s.reverseLookup(ctx, ip)
			if !ok {
				return
			}
			mu.Lock()
			results[ip] = name
			mu.Unlock()
		}(ipStr)
	}

	wg.Wait()
	return results
}

func (s *DNSScanner) reverseLookup(ctx context.Context, ip string) (string, bool) {
	names, err := s.resolve(ctx, ip, s.timeout)
	if err != nil || len(names) == 0 {
		return "", false
	}

	name := trimTrailingDot(names[0])
	if name == ip {
		return "", false
	}
	return name, true
}

func trimTrailingDot(s string) string {
	if len(s) > 0 && s[len(s)-1] == '.' {
		return s[:len(s)-1]
	}
	return s
}
