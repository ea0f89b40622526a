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
	"context"
	"time"

	"github.com/vigilmon/vigil/pkg/logger"
	"github.com/vigilmon/vigil/pkg/models"
)

// Watchdog periodically sweeps the status table and demotes agents whose
// last report is older than the staleness timeout. It is the only path that
// flips an agent offline; ingestion only ever flips it back. The timeout
// must comfortably exceed the agent report interval so jitter does not cause
// flapping.
type Watchdog struct {
	status   *StatusTable
	hub      *Hub
	interval time.Duration
	timeout  time.Duration
	logger   logger.Logger
}

func NewWatchdog(status *StatusTable, hub *Hub, interval, timeout time.Duration, log logger.Logger) *Watchdog {
	return &Watchdog{
		status:   status,
		hub:      hub,
		interval: interval,
		timeout:  timeout,
		logger:   log,
	}
}

// Run sweeps until the context is canceled.
func (w *Watchdog) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info().
		Dur("interval", w.interval).
		Dur("timeout", w.timeout).
		Msg("Staleness watchdog started")

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Staleness watchdog stopped")

			return
		case <-ticker.C:
			w.Sweep(time.Now())
		}
	}
}

// Sweep demotes every online agent whose last report predates now-timeout
// and broadcasts each transition. Exported so tests can drive the clock.
func (w *Watchdog) Sweep(now time.Time) {
	threshold := now.Add(-w.timeout)

	for _, status := range w.status.List() {
		if !status.Entry.Online || status.Entry.LastSeenAt.After(threshold) {
			continue
		}

		if !w.status.MarkOffline(status.AgentID, threshold) {
			// A report slipped in between List and MarkOffline.
			continue
		}

		entry, _ := w.status.Get(status.AgentID)

		w.logger.Info().
			Str("agent_id", status.AgentID).
			Time("last_seen", status.Entry.LastSeenAt).
			Msg("Agent marked offline")

		w.hub.Publish(models.StatusEvent{AgentID: status.AgentID, Entry: entry})
	}
}
