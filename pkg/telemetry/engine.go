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

// Package telemetry implements the agent telemetry ingestion and
// live-status engine: report validation, the live status table, per-agent
// history rings, the staleness watchdog, and the broadcast hub.
package telemetry

import (
	"time"

	"github.com/vigilmon/vigil/pkg/logger"
	"github.com/vigilmon/vigil/pkg/models"
)

// Engine ties the ingestion path together: validate, apply to the status
// table, append to history, broadcast. One Engine is created at startup and
// shared by the HTTP and websocket ingestion paths.
type Engine struct {
	status  *StatusTable
	history *History
	hub     *Hub
	logger  logger.Logger
	nowFn   func() time.Time
}

func NewEngine(status *StatusTable, history *History, hub *Hub, log logger.Logger) *Engine {
	return &Engine{
		status:  status,
		history: history,
		hub:     hub,
		logger:  log,
		nowFn:   time.Now,
	}
}

// Ingest validates and applies one report for an authenticated agent.
// Validation failures reject the report before any state is touched.
func (e *Engine) Ingest(agentID string, in *models.ReportInput) (*models.Snapshot, error) {
	snapshot, err := ValidateReport(in, e.nowFn())
	if err != nil {
		return nil, err
	}

	e.status.Apply(agentID, snapshot)
	e.history.Append(agentID, snapshot)

	entry, _ := e.status.Get(agentID)
	e.hub.Publish(models.StatusEvent{AgentID: agentID, Entry: entry})

	return snapshot, nil
}

// Status returns the agent's live status entry.
func (e *Engine) Status(agentID string) (models.LiveStatusEntry, bool) {
	return e.status.Get(agentID)
}

// StatusList returns every agent's live status.
func (e *Engine) StatusList() []models.AgentStatus {
	return e.status.List()
}

// Recent returns up to limit history snapshots for the agent, oldest-first.
func (e *Engine) Recent(agentID string, limit int) []models.Snapshot {
	return e.history.Recent(agentID, limit)
}

// Purge drops all live-status and history state for a deleted agent.
func (e *Engine) Purge(agentID string) {
	e.status.Remove(agentID)
	e.history.Remove(agentID)

	e.logger.Debug().Str("agent_id", agentID).Msg("Engine state purged")
}
