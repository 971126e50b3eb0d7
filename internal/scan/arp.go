package scan

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/mdlayher/packet"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/netvigil/netvigil/pkg/models"
)

const (
	ethTypeARP = 0x0806
	arpOpReq   = 1
	arpOpReply = 2

	ethHeaderLen = 14
	arpPacketLen = 28
)

var broadcastMAC = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// ARPConfig tunes the active ARP sweep's timing policy (§4.4).
type ARPConfig struct {
	MaxWait       time.Duration
	CheckInterval time.Duration
	IdleTimeout   time.Duration
	Rounds        int
}

// arpConn abstracts the raw L2 channel so the scanner is testable without
// opening a real socket.
type arpConn interface {
	WriteTo(b []byte, addr net.Addr) (int, error)
	ReadFrom(b []byte) (int, net.Addr, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// ARPScanner performs the active Layer-2 ARP sweep.
type ARPScanner struct {
	cfg    ARPConfig
	logger *zap.Logger

	// dial opens the raw L2 channel bound to the named interface;
	// overridden in tests to avoid a real socket.
	dial func(ifaceName string) (arpConn, error)
}

// NewARPScanner builds an ARPScanner bound to a real raw L2 socket via
// github.com/mdlayher/packet.
func NewARPScanner(cfg ARPConfig, logger *zap.Logger) *ARPScanner {
	return &ARPScanner{
		cfg:    cfg,
		logger: logger,
		dial: func(ifaceName string) (arpConn, error) {
			netIface, err := net.InterfaceByName(ifaceName)
			if err != nil {
				return nil, err
			}
			conn, err := packet.Listen(netIface, packet.Raw, unix.ETH_P_ARP, nil)
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
	}
}

// Scan runs up to cfg.Rounds adaptive-wait rounds of ARP request/reply
// against targets, returning a map of resolved IPv4 (dotted text) to
// canonical MAC. Fails with ErrL2Send if the raw channel cannot be opened.
func (s *ARPScanner) Scan(ctx context.Context, iface models.InterfaceInfo, targets []net.IP, subnetCIDR string) (map[string]string, error) {
	conn, err := s.dial(iface.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrL2Send, err)
	}
	defer conn.Close()

	_, subnet, err := net.ParseCIDR(subnetCIDR)
	if err != nil {
		return nil, fmt.Errorf("scan: invalid subnet %q: %w", subnetCIDR, err)
	}

	result := make(map[string]string)
	remaining := make([]net.IP, 0, len(targets))
	for _, ip := range targets {
		if !ip.Equal(iface.IP) {
			remaining = append(remaining, ip)
		}
	}

	rounds := s.cfg.Rounds
	if rounds < 1 {
		rounds = 1
	}
	for round := 0; round < rounds && len(remaining) > 0 && ctx.Err() == nil; round++ {
		for _, ip := range remaining {
			frame := buildARPRequest(iface.MAC, iface.IP, ip)
			if _, err := conn.WriteTo(frame, &packet.Addr{HardwareAddr: broadcastMAC}); err != nil {
				s.logger.Debug("arp: send failed", zap.String("ip", ip.String()), zap.Error(err))
			}
		}

		found, err := s.receiveRound(ctx, conn, iface.IP, subnet, result)
		if err != nil {
			return result, fmt.Errorf("%w: %v", ErrL2Recv, err)
		}

		remaining = unresolvedTargets(remaining, found)
	}

	return result, nil
}

// receiveRound drains replies for one round using the adaptive-wait policy:
// stop once MaxWait total has elapsed, or once IdleTimeout has elapsed
// since the last newly resolved host (provided at least one was found).
func (s *ARPScanner) receiveRound(ctx context.Context, conn arpConn, localIP net.IP, subnet *net.IPNet, result map[string]string) (map[string]bool, error) {
	found := make(map[string]bool)
	buf := make([]byte, 1500)

	start := time.Now()
	lastNew := start

	checkInterval := s.cfg.CheckInterval
	if checkInterval <= 0 {
		checkInterval = 200 * time.Millisecond
	}

	for {
		if ctx.Err() != nil {
			return found, nil
		}

		elapsedTotal := time.Since(start)
		if elapsedTotal >= s.cfg.MaxWait {
			return found, nil
		}
		if len(found) > 0 && time.Since(lastNew) >= s.cfg.IdleTimeout {
			return found, nil
		}

		conn.SetReadDeadline(time.Now().Add(checkInterval))
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return found, err
		}

		ip, mac, ok := parseARPReply(buf[:n], localIP, subnet)
		if !ok {
			continue
		}
		if _, already := result[ip]; !already {
			lastNew = time.Now()
		}
		result[ip] = mac
		found[ip] = true
	}
}

func unresolvedTargets(targets []net.IP, found map[string]bool) []net.IP {
	var rest []net.IP
	for _, ip := range targets {
		if !found[ip.String()] {
			rest = append(rest, ip)
		}
	}
	return rest
}

// buildARPRequest crafts the 14-byte Ethernet header plus 28-byte ARP
// request payload described in §4.4.
func buildARPRequest(srcMAC net.HardwareAddr, srcIP, dstIP net.IP) []byte {
	frame := make([]byte, ethHeaderLen+arpPacketLen)

	copy(frame[0:6], broadcastMAC)
	copy(frame[6:12], srcMAC)
	binary.BigEndian.PutUint16(frame[12:14], ethTypeARP)

	arp := frame[ethHeaderLen:]
	binary.BigEndian.PutUint16(arp[0:2], 1)      // hw_type = Ethernet
	binary.BigEndian.PutUint16(arp[2:4], 0x0800) // proto_type = IPv4
	arp[4] = 6                                   // hw_len
	arp[5] = 4                                   // proto_len
	binary.BigEndian.PutUint16(arp[6:8], arpOpReq)
	copy(arp[8:14], srcMAC)
	copy(arp[14:18], srcIP.To4())
	// target_hw left zero
	copy(arp[24:28], dstIP.To4())

	return frame
}

// parseARPReply decodes an inbound frame and validates it as an ARP reply
// that is in-subnet, not the local interface, and not a zero sender MAC.
func parseARPReply(frame []byte, localIP net.IP, subnet *net.IPNet) (ip, mac string, ok bool) {
	if len(frame) < ethHeaderLen+arpPacketLen {
		return "", "", false
	}
	if binary.BigEndian.Uint16(frame[12:14]) != ethTypeARP {
		return "", "", false
	}

	arp := frame[ethHeaderLen:]
	if binary.BigEndian.Uint16(arp[6:8]) != arpOpReply {
		return "", "", false
	}

	senderHW := net.HardwareAddr(arp[8:14])
	if isAllZeroMAC(senderHW) {
		return "", "", false
	}
	senderIP := net.IP(arp[14:18])

	if !subnet.Contains(senderIP) {
		return "", "", false
	}
	if senderIP.Equal(localIP) {
		return "", "", false
	}

	return senderIP.String(), FormatMAC(senderHW), true
}
