// Package history is the durable time-series store for process and
// system samples, backed by modernc.org/sqlite (no cgo, unlike
// mattn/go-sqlite3, matching the rest of this module's cgo-free stack).
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nsolari/procwatch/model"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed history of process and system samples.
type Store struct {
	db *sql.DB
}

// Open creates (or reuses) the SQLite database at path and ensures its
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS process_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			pid INTEGER NOT NULL,
			name TEXT NOT NULL,
			user_name TEXT NOT NULL,
			cpu_usage REAL NOT NULL,
			memory_usage INTEGER NOT NULL,
			memory_percent REAL NOT NULL,
			command TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_timestamp ON process_history(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_pid ON process_history(pid)`,
		`CREATE TABLE IF NOT EXISTS system_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			cpu_count INTEGER NOT NULL,
			load_avg_1 REAL NOT NULL,
			load_avg_5 REAL NOT NULL,
			load_avg_15 REAL NOT NULL,
			total_memory INTEGER NOT NULL,
			used_memory INTEGER NOT NULL,
			total_swap INTEGER NOT NULL,
			used_swap INTEGER NOT NULL,
			uptime INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sys_timestamp ON system_history(timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("history: init schema: %w", err)
		}
	}
	return nil
}

// ProcessRow is one stored process-history sample.
type ProcessRow struct {
	Timestamp     int64
	PID           int
	Name          string
	User          string
	CPUUsage      float64
	MemoryUsageKB uint64
	MemoryPercent float64
	Command       string
}

// SystemRow is one stored system-history sample.
type SystemRow struct {
	Timestamp    int64
	CPUCount     int
	Load1        float64
	Load5        float64
	Load15       float64
	TotalMemory  uint64
	UsedMemory   uint64
	TotalSwap    uint64
	UsedSwap     uint64
	Uptime       uint64
}

// RecordProcesses inserts every process in snap as one timestamped batch,
// wrapped in a single transaction so a crash mid-insert can't leave a
// half-written sample — an intentional strengthening over inserting each
// row autocommit.
func (s *Store) RecordProcesses(snap model.Snapshot) (inserted, failed int, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("history: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO process_history
		(timestamp, pid, name, user_name, cpu_usage, memory_usage, memory_percent, command)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, 0, fmt.Errorf("history: prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := snap.Timestamp.Unix()
	for _, p := range snap.Processes {
		if _, err := stmt.Exec(ts, p.PID, p.Name, p.User, p.CPUPercent, p.RSSKB, p.MemoryPercent, p.Command); err != nil {
			failed++
			continue
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, failed, fmt.Errorf("history: commit: %w", err)
	}
	return inserted, failed, nil
}

// RecordSystem inserts one system-metrics sample.
func (s *Store) RecordSystem(m model.SystemMetrics, at time.Time) error {
	_, err := s.db.Exec(`INSERT INTO system_history
		(timestamp, cpu_count, load_avg_1, load_avg_5, load_avg_15,
		 total_memory, used_memory, total_swap, used_swap, uptime)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		at.Unix(), m.CPUCount, m.Load1, m.Load5, m.Load15,
		m.TotalMemoryKB, m.UsedMemoryKB, m.TotalSwapKB, m.UsedSwapKB, m.UptimeSeconds)
	if err != nil {
		return fmt.Errorf("history: record system: %w", err)
	}
	return nil
}

// GetProcessHistory returns pid's samples in [start,end], oldest first.
func (s *Store) GetProcessHistory(pid int, start, end time.Time) ([]ProcessRow, error) {
	rows, err := s.db.Query(`SELECT timestamp, pid, name, user_name, cpu_usage, memory_usage, memory_percent, command
		FROM process_history
		WHERE pid = ? AND timestamp BETWEEN ? AND ?
		ORDER BY timestamp ASC`, pid, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("history: query process history: %w", err)
	}
	defer rows.Close()

	var out []ProcessRow
	for rows.Next() {
		var r ProcessRow
		var command sql.NullString
		if err := rows.Scan(&r.Timestamp, &r.PID, &r.Name, &r.User, &r.CPUUsage, &r.MemoryUsageKB, &r.MemoryPercent, &command); err != nil {
			return nil, fmt.Errorf("history: scan process row: %w", err)
		}
		r.Command = command.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetSystemHistory returns system samples in [start,end], oldest first.
func (s *Store) GetSystemHistory(start, end time.Time) ([]SystemRow, error) {
	rows, err := s.db.Query(`SELECT timestamp, cpu_count, load_avg_1, load_avg_5, load_avg_15,
		total_memory, used_memory, total_swap, used_swap, uptime
		FROM system_history
		WHERE timestamp BETWEEN ? AND ?
		ORDER BY timestamp ASC`, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("history: query system history: %w", err)
	}
	defer rows.Close()

	var out []SystemRow
	for rows.Next() {
		var r SystemRow
		if err := rows.Scan(&r.Timestamp, &r.CPUCount, &r.Load1, &r.Load5, &r.Load15,
			&r.TotalMemory, &r.UsedMemory, &r.TotalSwap, &r.UsedSwap, &r.Uptime); err != nil {
			return nil, fmt.Errorf("history: scan system row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TopCPUConsumer is one row of the get_top_cpu_consumers aggregate.
type TopCPUConsumer struct {
	Name    string
	AvgCPU  float64
}

// GetTopCPUConsumers returns the limit process names with the highest
// average CPU usage in [start,end].
func (s *Store) GetTopCPUConsumers(start, end time.Time, limit int) ([]TopCPUConsumer, error) {
	rows, err := s.db.Query(`SELECT name, AVG(cpu_usage) as avg_cpu
		FROM process_history
		WHERE timestamp BETWEEN ? AND ?
		GROUP BY name
		ORDER BY avg_cpu DESC
		LIMIT ?`, start.Unix(), end.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("history: query top cpu consumers: %w", err)
	}
	defer rows.Close()

	var out []TopCPUConsumer
	for rows.Next() {
		var t TopCPUConsumer
		if err := rows.Scan(&t.Name, &t.AvgCPU); err != nil {
			return nil, fmt.Errorf("history: scan top cpu row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CleanOldData deletes process/system rows older than retentionDays and
// reclaims the freed space with VACUUM.
func (s *Store) CleanOldData(retentionDays int) (deleted int64, err error) {
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour).Unix()

	res, err := s.db.Exec(`DELETE FROM process_history WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("history: delete old process rows: %w", err)
	}
	deleted, _ = res.RowsAffected()

	if _, err := s.db.Exec(`DELETE FROM system_history WHERE timestamp < ?`, cutoff); err != nil {
		return deleted, fmt.Errorf("history: delete old system rows: %w", err)
	}

	if _, err := s.db.Exec(`VACUUM`); err != nil {
		return deleted, fmt.Errorf("history: vacuum: %w", err)
	}
	return deleted, nil
}

// DBSize returns the on-disk database size in bytes via PRAGMA
// page_count * page_size.
func (s *Store) DBSize() (uint64, error) {
	var pageCount, pageSize int64
	if err := s.db.QueryRow(`PRAGMA page_count`).Scan(&pageCount); err != nil {
		return 0, fmt.Errorf("history: pragma page_count: %w", err)
	}
	if err := s.db.QueryRow(`PRAGMA page_size`).Scan(&pageSize); err != nil {
		return 0, fmt.Errorf("history: pragma page_size: %w", err)
	}
	return uint64(pageCount * pageSize), nil
}
