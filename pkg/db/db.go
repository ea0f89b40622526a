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

// Package db persists agent identities. Live status and history are
// in-memory only; the database holds what must survive a restart: the
// agent record, its token, and its last uploaded hardware descriptor.
package db

import (
	"context"
	"errors"

	"github.com/vigilmon/vigil/pkg/models"
)

var (
	ErrAgentNotFound    = errors.New("agent not found")
	ErrPingTaskNotFound = errors.New("ping task not found")
)

// Service is the persistence interface for agent identities and ping tasks.
// Implementations must be safe for concurrent use.
type Service interface {
	CreateAgent(ctx context.Context, agent *models.Agent) error
	GetAgent(ctx context.Context, id string) (*models.Agent, error)
	ListAgents(ctx context.Context) ([]*models.Agent, error)
	UpdateDisplayName(ctx context.Context, id, name string) error
	UpdateStaticInfo(ctx context.Context, id string, info *models.StaticInfo) error
	ClearToken(ctx context.Context, id string) error
	DeleteAgent(ctx context.Context, id string) error

	CreatePingTask(ctx context.Context, task *models.PingTask) error
	GetPingTask(ctx context.Context, id string) (*models.PingTask, error)
	ListPingTasks(ctx context.Context) ([]*models.PingTask, error)
	ListEnabledPingTasks(ctx context.Context) ([]*models.PingTask, error)
	DeletePingTask(ctx context.Context, id string) error
	InsertPingRecord(ctx context.Context, record *models.PingRecord) error
	RecentPingRecords(ctx context.Context, taskID string, limit int) ([]*models.PingRecord, error)

	Close() error
}
