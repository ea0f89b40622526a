/*
 * Copyright 2025 The Vigil Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/vigilmon/vigil/pkg/models"
)

// migrations is an ordered list of SQL statements applied on startup.
// Each entry is idempotent (IF NOT EXISTS) so re-running is safe.
var migrations = []string{
	// token is NULL once revoked; UNIQUE still holds for live tokens.
	`CREATE TABLE IF NOT EXISTS agents (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		token          TEXT UNIQUE,
		cpu_name       TEXT NOT NULL DEFAULT '',
		arch           TEXT NOT NULL DEFAULT '',
		cpu_cores      INTEGER NOT NULL DEFAULT 0,
		os             TEXT NOT NULL DEFAULT '',
		kernel_version TEXT NOT NULL DEFAULT '',
		gpu_name       TEXT NOT NULL DEFAULT '',
		virtualization TEXT NOT NULL DEFAULT '',
		mem_total      INTEGER NOT NULL DEFAULT 0,
		swap_total     INTEGER NOT NULL DEFAULT 0,
		disk_total     INTEGER NOT NULL DEFAULT 0,
		version        TEXT NOT NULL DEFAULT '',
		ipv4           TEXT NOT NULL DEFAULT '',
		ipv6           TEXT NOT NULL DEFAULT '',
		created_at     TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_agents_token ON agents (token)`,
	`CREATE TABLE IF NOT EXISTS ping_tasks (
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		target           TEXT NOT NULL,
		interval_seconds INTEGER NOT NULL DEFAULT 60,
		timeout_seconds  INTEGER NOT NULL DEFAULT 5,
		enabled          INTEGER NOT NULL DEFAULT 1,
		created_at       TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ping_records (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		task_id    TEXT NOT NULL,
		time       TEXT NOT NULL,
		latency_ms REAL,
		success    INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ping_records_task_time ON ping_records (task_id, time DESC)`,
}

const agentColumns = `id, name, token, cpu_name, arch, cpu_cores, os, kernel_version,
	gpu_name, virtualization, mem_total, swap_total, disk_total, version, ipv4, ipv6, created_at`

// SQLiteStore implements Service using a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Service = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at path and runs
// migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("%s?_journal=WAL&_busy_timeout=5000", path)

	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1) // SQLite handles one writer at a time.

	s := &SQLiteStore{db: sqlDB}
	if err := s.migrate(); err != nil {
		_ = sqlDB.Close()

		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateAgent(ctx context.Context, agent *models.Agent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO agents (`+agentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.ID, agent.DisplayName, agent.Token,
		agent.Info.CPUName, agent.Info.Arch, agent.Info.CPUCores, agent.Info.OS,
		agent.Info.KernelVersion, agent.Info.GPUName, agent.Info.Virtualization,
		agent.Info.MemTotal, agent.Info.SwapTotal, agent.Info.DiskTotal,
		agent.Info.Version, agent.Info.IPv4, agent.Info.IPv6,
		agent.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create agent: %w", err)
	}

	return nil
}

func (s *SQLiteStore) GetAgent(ctx context.Context, id string) (*models.Agent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE id = ?`, id)

	return scanAgent(row)
}

func (s *SQLiteStore) ListAgents(ctx context.Context) ([]*models.Agent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+agentColumns+` FROM agents ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*models.Agent

	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}

		agents = append(agents, agent)
	}

	return agents, rows.Err()
}

func (s *SQLiteStore) UpdateDisplayName(ctx context.Context, id, name string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE agents SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("failed to rename agent: %w", err)
	}

	return requireRow(res)
}

func (s *SQLiteStore) UpdateStaticInfo(ctx context.Context, id string, info *models.StaticInfo) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE agents SET cpu_name = ?, arch = ?, cpu_cores = ?, os = ?,
		 kernel_version = ?, gpu_name = ?, virtualization = ?, mem_total = ?,
		 swap_total = ?, disk_total = ?, version = ?, ipv4 = ?, ipv6 = ?
		 WHERE id = ?`,
		info.CPUName, info.Arch, info.CPUCores, info.OS, info.KernelVersion,
		info.GPUName, info.Virtualization, info.MemTotal, info.SwapTotal,
		info.DiskTotal, info.Version, info.IPv4, info.IPv6, id)
	if err != nil {
		return fmt.Errorf("failed to update agent info: %w", err)
	}

	return requireRow(res)
}

// ClearToken nulls the agent's token column so a revocation survives a
// restart.
func (s *SQLiteStore) ClearToken(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE agents SET token = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to clear token: %w", err)
	}

	return requireRow(res)
}

func (s *SQLiteStore) DeleteAgent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM agents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}

	return requireRow(res)
}

const pingTaskColumns = `id, name, target, interval_seconds, timeout_seconds, enabled, created_at`

func (s *SQLiteStore) CreatePingTask(ctx context.Context, task *models.PingTask) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ping_tasks (`+pingTaskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.Name, task.Target, task.IntervalSeconds, task.TimeoutSeconds,
		task.Enabled, task.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to create ping task: %w", err)
	}

	return nil
}

func (s *SQLiteStore) GetPingTask(ctx context.Context, id string) (*models.PingTask, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pingTaskColumns+` FROM ping_tasks WHERE id = ?`, id)

	return scanPingTask(row)
}

func (s *SQLiteStore) ListPingTasks(ctx context.Context) ([]*models.PingTask, error) {
	return s.queryPingTasks(ctx,
		`SELECT `+pingTaskColumns+` FROM ping_tasks ORDER BY name`)
}

func (s *SQLiteStore) ListEnabledPingTasks(ctx context.Context) ([]*models.PingTask, error) {
	return s.queryPingTasks(ctx,
		`SELECT `+pingTaskColumns+` FROM ping_tasks WHERE enabled = 1 ORDER BY name`)
}

func (s *SQLiteStore) queryPingTasks(ctx context.Context, query string) ([]*models.PingTask, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list ping tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.PingTask

	for rows.Next() {
		task, err := scanPingTask(rows)
		if err != nil {
			return nil, err
		}

		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// DeletePingTask removes the task and its records.
func (s *SQLiteStore) DeletePingTask(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM ping_records WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete ping records: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM ping_tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ping task: %w", err)
	}

	return requirePingRow(res)
}

func (s *SQLiteStore) InsertPingRecord(ctx context.Context, record *models.PingRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ping_records (task_id, time, latency_ms, success)
		 VALUES (?, ?, ?, ?)`,
		record.TaskID, record.Time.UTC().Format(time.RFC3339Nano),
		record.LatencyMS, record.Success)
	if err != nil {
		return fmt.Errorf("failed to insert ping record: %w", err)
	}

	return nil
}

// RecentPingRecords returns up to limit records for the task, newest-first.
func (s *SQLiteStore) RecentPingRecords(ctx context.Context, taskID string, limit int) ([]*models.PingRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, time, latency_ms, success FROM ping_records
		 WHERE task_id = ? ORDER BY time DESC LIMIT ?`, taskID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list ping records: %w", err)
	}
	defer rows.Close()

	var records []*models.PingRecord

	for rows.Next() {
		var (
			record     models.PingRecord
			recordTime string
		)

		if err := rows.Scan(&record.ID, &record.TaskID, &recordTime,
			&record.LatencyMS, &record.Success); err != nil {
			return nil, fmt.Errorf("failed to scan ping record: %w", err)
		}

		record.Time, err = time.Parse(time.RFC3339Nano, recordTime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse record time: %w", err)
		}

		records = append(records, &record)
	}

	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*models.Agent, error) {
	var (
		agent     models.Agent
		token     sql.NullString
		createdAt string
	)

	err := row.Scan(&agent.ID, &agent.DisplayName, &token,
		&agent.Info.CPUName, &agent.Info.Arch, &agent.Info.CPUCores,
		&agent.Info.OS, &agent.Info.KernelVersion, &agent.Info.GPUName,
		&agent.Info.Virtualization, &agent.Info.MemTotal, &agent.Info.SwapTotal,
		&agent.Info.DiskTotal, &agent.Info.Version, &agent.Info.IPv4,
		&agent.Info.IPv6, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAgentNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan agent: %w", err)
	}

	agent.Token = token.String

	agent.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &agent, nil
}

func scanPingTask(row rowScanner) (*models.PingTask, error) {
	var (
		task      models.PingTask
		createdAt string
	)

	err := row.Scan(&task.ID, &task.Name, &task.Target, &task.IntervalSeconds,
		&task.TimeoutSeconds, &task.Enabled, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPingTaskNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to scan ping task: %w", err)
	}

	task.CreatedAt, err = time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}

	return &task, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrAgentNotFound
	}

	return nil
}

func requirePingRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if n == 0 {
		return ErrPingTaskNotFound
	}

	return nil
}
