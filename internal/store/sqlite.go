// Package store provides the optional SQLite persistence sink that records
// completed scans and the device history derived from them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/netvigil/netvigil/internal/monitor"
	"github.com/netvigil/netvigil/pkg/models"
)

var _ monitor.PersistenceSink = (*SQLiteSink)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id              TEXT PRIMARY KEY,
	scan_time       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	interface_name  TEXT NOT NULL,
	local_ip        TEXT NOT NULL,
	local_mac       TEXT NOT NULL,
	subnet          TEXT NOT NULL,
	scan_method     TEXT NOT NULL,
	arp_discovered  INTEGER NOT NULL,
	icmp_discovered INTEGER NOT NULL,
	total_hosts     INTEGER NOT NULL,
	duration_ms     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS devices (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	mac           TEXT NOT NULL UNIQUE,
	first_seen    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_seen     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	last_ip       TEXT NOT NULL,
	vendor        TEXT,
	device_type   TEXT NOT NULL,
	hostname      TEXT,
	is_randomized INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS device_history (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	scan_id          TEXT NOT NULL REFERENCES scans(id),
	device_id        INTEGER NOT NULL REFERENCES devices(id),
	ip               TEXT NOT NULL,
	response_time_ms INTEGER,
	ttl              INTEGER,
	risk_score       INTEGER NOT NULL,
	discovery_method TEXT NOT NULL,
	open_ports       TEXT
);
`

// SQLiteSink implements monitor.PersistenceSink against a local SQLite
// database, one write connection at a time.
type SQLiteSink struct {
	db *sql.DB
}

// Open creates (or attaches to) a SQLite database at dsn and applies the
// schema and recommended pragmas.
func Open(dsn string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", dsn, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", dsn, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

// InsertScan persists a scan and its hosts in a single transaction: the
// scan row, an upsert into devices keyed by mac, and one device_history
// row per host. Any failure rolls back and returns a wrapped error.
func (s *SQLiteSink) InsertScan(ctx context.Context, result *models.ScanResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := s.insertScanRow(ctx, tx, result); err != nil {
		return rollback(tx, err)
	}

	for _, host := range result.ActiveHosts {
		if host.MAC == "" {
			continue
		}
		deviceID, err := s.upsertDevice(ctx, tx, host)
		if err != nil {
			return rollback(tx, err)
		}
		if err := s.insertDeviceHistory(ctx, tx, result.ScanID, deviceID, host); err != nil {
			return rollback(tx, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit scan %s: %w", result.ScanID, err)
	}
	return nil
}

func (s *SQLiteSink) insertScanRow(ctx context.Context, tx *sql.Tx, r *models.ScanResult) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO scans (id, interface_name, local_ip, local_mac, subnet, scan_method,
			arp_discovered, icmp_discovered, total_hosts, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ScanID, r.InterfaceName, r.LocalIP, r.LocalMAC, r.Subnet, r.ScanMethod,
		r.ArpDiscovered, r.IcmpDiscovered, r.TotalHosts, r.ScanDurationMs)
	if err != nil {
		return fmt.Errorf("insert scan %s: %w", r.ScanID, err)
	}
	return nil
}

func (s *SQLiteSink) upsertDevice(ctx context.Context, tx *sql.Tx, host models.HostInfo) (int64, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO devices (mac, last_ip, vendor, device_type, hostname, is_randomized)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(mac) DO UPDATE SET
			last_seen = CURRENT_TIMESTAMP,
			last_ip = excluded.last_ip,
			vendor = excluded.vendor,
			device_type = excluded.device_type,
			hostname = excluded.hostname,
			is_randomized = excluded.is_randomized`,
		host.MAC, host.IP, host.Vendor, string(host.DeviceType), host.Hostname, host.IsRandomized)
	if err != nil {
		return 0, fmt.Errorf("upsert device %s: %w", host.MAC, err)
	}

	row := tx.QueryRowContext(ctx, `SELECT id FROM devices WHERE mac = ?`, host.MAC)
	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup device %s: %w", host.MAC, err)
	}
	return id, nil
}

func (s *SQLiteSink) insertDeviceHistory(ctx context.Context, tx *sql.Tx, scanID string, deviceID int64, host models.HostInfo) error {
	var ports sql.NullString
	if len(host.OpenPorts) > 0 {
		b, err := json.Marshal(host.OpenPorts)
		if err != nil {
			return fmt.Errorf("marshal open ports for %s: %w", host.MAC, err)
		}
		ports = sql.NullString{String: string(b), Valid: true}
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO device_history (scan_id, device_id, ip, response_time_ms, ttl, risk_score, discovery_method, open_ports)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		scanID, deviceID, host.IP, host.ResponseTimeMs, host.TTL, host.RiskScore, host.DiscoveryMethod, ports)
	if err != nil {
		return fmt.Errorf("insert device_history for %s: %w", host.MAC, err)
	}
	return nil
}

func rollback(tx *sql.Tx, cause error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		return fmt.Errorf("rollback failed: %v (original: %w)", rbErr, cause)
	}
	return cause
}
