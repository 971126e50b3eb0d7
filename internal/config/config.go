// Package config loads the engine's layered configuration: compiled-in
// defaults, an optional config file, then environment variable overrides.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the full tunable surface.
type Config struct {
	Logging LoggingConfig `mapstructure:"logging"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Store   StoreConfig   `mapstructure:"store"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls the zap logger built by NewLogger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ScanConfig holds every pipeline-phase tunable.
type ScanConfig struct {
	MaxConcurrentPings int           `mapstructure:"max_concurrent_pings"`
	PingTimeout        time.Duration `mapstructure:"ping_timeout"`
	PingRetries        int           `mapstructure:"ping_retries"`
	DefaultPrefixLen   int           `mapstructure:"default_prefix_len"`

	ArpMaxWait       time.Duration `mapstructure:"arp_max_wait"`
	ArpCheckInterval time.Duration `mapstructure:"arp_check_interval"`
	ArpIdleTimeout   time.Duration `mapstructure:"arp_idle_timeout"`
	ArpRounds        int           `mapstructure:"arp_rounds"`

	TCPProbeTimeout time.Duration `mapstructure:"tcp_probe_timeout"`
	TCPProbePorts   []int         `mapstructure:"tcp_probe_ports"`

	DNSTimeout     time.Duration `mapstructure:"dns_timeout"`
	DNSConcurrency int           `mapstructure:"dns_concurrency"`
}

// MonitorConfig controls the background monitor's cadence.
type MonitorConfig struct {
	DefaultInterval time.Duration `mapstructure:"default_interval"`
	MinInterval     time.Duration `mapstructure:"min_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
}

// StoreConfig controls the optional SQLite persistence sink.
type StoreConfig struct {
	DSN string `mapstructure:"dsn"`
}

// MetricsConfig controls the Prometheus /metrics HTTP listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// Load builds a Config from defaults, an optional file at path (ignored if
// empty or missing), and environment variables prefixed NETVIGIL_. It also
// returns the underlying *viper.Viper so callers can build a logger (via
// NewLogger) from the same layered settings.
func Load(path string) (*Config, *viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("netvigil")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, nil, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, err
	}
	return &cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("scan.max_concurrent_pings", 100)
	v.SetDefault("scan.ping_timeout", 2*time.Second)
	v.SetDefault("scan.ping_retries", 2)
	v.SetDefault("scan.default_prefix_len", 24)

	v.SetDefault("scan.arp_max_wait", 1500*time.Millisecond)
	v.SetDefault("scan.arp_check_interval", 200*time.Millisecond)
	v.SetDefault("scan.arp_idle_timeout", 400*time.Millisecond)
	v.SetDefault("scan.arp_rounds", 2)

	v.SetDefault("scan.tcp_probe_timeout", 500*time.Millisecond)
	v.SetDefault("scan.tcp_probe_ports", []int{22, 80, 443, 445, 8080, 3389, 5353, 62078})

	v.SetDefault("scan.dns_timeout", 2*time.Second)
	v.SetDefault("scan.dns_concurrency", 10)

	v.SetDefault("monitor.default_interval", 5*time.Minute)
	v.SetDefault("monitor.min_interval", 30*time.Second)
	v.SetDefault("monitor.max_interval", 24*time.Hour)

	v.SetDefault("store.dsn", "netvigil.db")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9091")
}
