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

package telemetry

import (
	"sync"
	"time"

	"github.com/vigilmon/vigil/pkg/models"
)

// StatusTable is the process-wide source of truth for "is this agent
// currently reporting". Entries live in a sync.Map and each entry carries
// its own lock, so ingestion for one agent never contends with ingestion or
// reads for another.
type StatusTable struct {
	entries sync.Map // agent id -> *statusEntry
}

type statusEntry struct {
	mu     sync.RWMutex
	latest *models.Snapshot
	online bool
}

func NewStatusTable() *StatusTable {
	return &StatusTable{}
}

// Apply atomically replaces the latest snapshot for the agent, advances
// last_seen_at to the snapshot's receipt time, and marks the agent online.
func (t *StatusTable) Apply(agentID string, snapshot *models.Snapshot) {
	entry := t.entry(agentID)

	entry.mu.Lock()
	entry.latest = snapshot
	entry.online = true
	entry.mu.Unlock()
}

// Get returns the agent's live status entry.
func (t *StatusTable) Get(agentID string) (models.LiveStatusEntry, bool) {
	value, ok := t.entries.Load(agentID)
	if !ok {
		return models.LiveStatusEntry{}, false
	}

	return value.(*statusEntry).snapshotEntry(), true
}

// List returns every agent's status. Each entry is internally consistent;
// the list as a whole is not a single atomic snapshot across agents.
func (t *StatusTable) List() []models.AgentStatus {
	var statuses []models.AgentStatus

	t.entries.Range(func(key, value interface{}) bool {
		statuses = append(statuses, models.AgentStatus{
			AgentID: key.(string),
			Entry:   value.(*statusEntry).snapshotEntry(),
		})

		return true
	})

	return statuses
}

// MarkOffline flips the agent offline if its last accepted snapshot is not
// newer than threshold, keeping the snapshot itself so dashboards still show
// the last known values flagged stale. The staleness check happens under the
// entry lock, so a report racing the sweep always wins. Only the watchdog
// calls this. Returns false when nothing changed.
func (t *StatusTable) MarkOffline(agentID string, threshold time.Time) bool {
	value, ok := t.entries.Load(agentID)
	if !ok {
		return false
	}

	entry := value.(*statusEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if !entry.online {
		return false
	}

	if entry.latest != nil && entry.latest.ReceivedAt.After(threshold) {
		return false
	}

	entry.online = false

	return true
}

// Remove purges the agent's entry entirely. Used on agent deletion.
func (t *StatusTable) Remove(agentID string) {
	t.entries.Delete(agentID)
}

func (t *StatusTable) entry(agentID string) *statusEntry {
	value, _ := t.entries.LoadOrStore(agentID, &statusEntry{})

	return value.(*statusEntry)
}

func (e *statusEntry) snapshotEntry() models.LiveStatusEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	entry := models.LiveStatusEntry{Online: e.online}
	if e.latest != nil {
		entry.Latest = e.latest
		entry.LastSeenAt = e.latest.ReceivedAt
	}

	return entry
}
