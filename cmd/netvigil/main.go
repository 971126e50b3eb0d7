package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/netvigil/netvigil/internal/config"
	"github.com/netvigil/netvigil/internal/monitor"
	"github.com/netvigil/netvigil/internal/scan"
	"github.com/netvigil/netvigil/internal/store"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML/TOML/JSON config file (optional)")
	once := flag.Bool("once", false, "Run a single scan and exit instead of monitoring continuously")
	flag.Parse()

	cfg, v, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	orchestrator := scan.NewOrchestrator(scanConfig(cfg), logger.Named("scan"))

	if *once {
		runOnce(orchestrator, logger)
		return
	}

	sink, err := store.Open(cfg.Store.DSN)
	if err != nil {
		logger.Fatal("open persistence sink", zap.Error(err))
	}
	defer sink.Close()

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	mon := monitor.New(orchestrator, sink, logger.Named("monitor"),
		cfg.Monitor.DefaultInterval, cfg.Monitor.MinInterval, cfg.Monitor.MaxInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		mon.Stop()
	}()

	if err := mon.Start(logEvent(logger), nil); err != nil {
		logger.Fatal("start monitor", zap.Error(err))
	}

	<-mon.Done()
	logger.Info("netvigil stopped")
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	logger.Info("metrics listener started", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics listener stopped", zap.Error(err))
	}
}

func runOnce(orchestrator *scan.Orchestrator, logger *zap.Logger) {
	result, err := orchestrator.RunScan(context.Background(), func(phase string, percent int, message string) {
		logger.Info("scan progress", zap.String("phase", phase), zap.Int("percent", percent), zap.String("message", message))
	})
	if err != nil {
		logger.Fatal("scan failed", zap.Error(err))
	}
	logger.Info("scan complete",
		zap.String("scan_id", result.ScanID),
		zap.Int("total_hosts", result.TotalHosts),
		zap.Int64("duration_ms", result.ScanDurationMs),
	)
}

// logEvent adapts the monitor's NetworkEvent stream into structured log
// lines. Subscribers must return promptly; this one only logs.
func logEvent(logger *zap.Logger) monitor.Subscriber {
	return func(ev monitor.NetworkEvent) {
		switch ev.Kind {
		case monitor.EventMonitoringStarted:
			logger.Info("monitoring started", zap.Int("interval_seconds", ev.IntervalSeconds))
		case monitor.EventScanStarted:
			logger.Info("scan started", zap.Uint32("scan_number", ev.ScanNumber))
		case monitor.EventScanProgress:
			logger.Debug("scan progress", zap.String("phase", ev.Phase), zap.Int("percent", ev.Percent))
		case monitor.EventScanCompleted:
			logger.Info("scan completed",
				zap.Uint32("scan_number", ev.ScanNumber),
				zap.Int("hosts_found", ev.HostsFound),
				zap.Int64("duration_ms", ev.DurationMs),
			)
		case monitor.EventNewDeviceDiscovered:
			logger.Info("new device discovered",
				zap.String("ip", ev.IP), zap.String("mac", ev.MAC), zap.String("device_type", string(ev.DeviceType)))
		case monitor.EventDeviceWentOffline:
			logger.Info("device went offline", zap.String("mac", ev.MAC), zap.String("last_ip", ev.LastIP))
		case monitor.EventDeviceIpChanged:
			logger.Info("device ip changed", zap.String("mac", ev.MAC), zap.String("old_ip", ev.OldIP), zap.String("new_ip", ev.NewIP))
		case monitor.EventMonitoringError:
			logger.Warn("monitoring error", zap.String("message", ev.Message))
		case monitor.EventMonitoringStopped:
			logger.Info("monitoring stopped")
		}
	}
}

func scanConfig(cfg *config.Config) scan.Config {
	return scan.Config{
		ARP: scan.ARPConfig{
			MaxWait:       cfg.Scan.ArpMaxWait,
			CheckInterval: cfg.Scan.ArpCheckInterval,
			IdleTimeout:   cfg.Scan.ArpIdleTimeout,
			Rounds:        cfg.Scan.ArpRounds,
		},
		PingTimeout:        cfg.Scan.PingTimeout,
		PingRetries:        cfg.Scan.PingRetries,
		MaxConcurrentPings: cfg.Scan.MaxConcurrentPings,
		TCPProbeTimeout:    cfg.Scan.TCPProbeTimeout,
		TCPProbePorts:      cfg.Scan.TCPProbePorts,
		DNSTimeout:         cfg.Scan.DNSTimeout,
		DNSConcurrency:     cfg.Scan.DNSConcurrency,
		DefaultPrefixLen:   cfg.Scan.DefaultPrefixLen,
	}
}
