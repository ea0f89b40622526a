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

// Package ping runs reachability checks against configured network targets
// and keeps their recent results queryable next to the agent fleet.
package ping

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vigilmon/vigil/pkg/db"
	"github.com/vigilmon/vigil/pkg/logger"
	"github.com/vigilmon/vigil/pkg/models"
)

const (
	defaultIntervalSeconds = 60
	defaultTimeoutSeconds  = 5
)

// Manager owns ping task configuration and result queries.
type Manager struct {
	db     db.Service
	logger logger.Logger
}

func NewManager(database db.Service, log logger.Logger) *Manager {
	return &Manager{db: database, logger: log}
}

// CreateTask registers a new ping task. Zero interval or timeout fall back
// to the defaults (60s interval, 5s timeout); tasks start enabled.
func (m *Manager) CreateTask(ctx context.Context, name, target string, intervalSeconds, timeoutSeconds int) (*models.PingTask, error) {
	if intervalSeconds <= 0 {
		intervalSeconds = defaultIntervalSeconds
	}

	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	task := &models.PingTask{
		ID:              uuid.NewString(),
		Name:            name,
		Target:          target,
		IntervalSeconds: intervalSeconds,
		TimeoutSeconds:  timeoutSeconds,
		Enabled:         true,
		CreatedAt:       time.Now().UTC(),
	}

	if err := m.db.CreatePingTask(ctx, task); err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("task_id", task.ID).
		Str("target", task.Target).
		Msg("Ping task created")

	return task, nil
}

// ListTasks returns all configured tasks ordered by name.
func (m *Manager) ListTasks(ctx context.Context) ([]*models.PingTask, error) {
	return m.db.ListPingTasks(ctx)
}

// GetTask returns one task by id.
func (m *Manager) GetTask(ctx context.Context, id string) (*models.PingTask, error) {
	return m.db.GetPingTask(ctx, id)
}

// DeleteTask removes the task and all of its records.
func (m *Manager) DeleteTask(ctx context.Context, id string) error {
	if err := m.db.DeletePingTask(ctx, id); err != nil {
		return err
	}

	m.logger.Info().Str("task_id", id).Msg("Ping task deleted")

	return nil
}

// RecentRecords returns up to limit results for the task, newest-first.
// The task must exist.
func (m *Manager) RecentRecords(ctx context.Context, taskID string, limit int) ([]*models.PingRecord, error) {
	if _, err := m.db.GetPingTask(ctx, taskID); err != nil {
		return nil, err
	}

	return m.db.RecentPingRecords(ctx, taskID, limit)
}
