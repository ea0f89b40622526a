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

package ping

import (
	"context"
	"net"
	"time"

	"github.com/vigilmon/vigil/pkg/db"
	"github.com/vigilmon/vigil/pkg/logger"
	"github.com/vigilmon/vigil/pkg/models"
)

const proberTick = time.Second

// probeFunc measures one reachability check against target.
type probeFunc func(target string, timeout time.Duration) (time.Duration, error)

// Prober runs enabled ping tasks on their configured intervals and records
// each outcome. Probe failures are results, not errors; only storage
// problems are logged.
type Prober struct {
	db      db.Service
	probe   probeFunc
	lastRun map[string]time.Time
	logger  logger.Logger
}

func NewProber(database db.Service, log logger.Logger) *Prober {
	return &Prober{
		db:      database,
		probe:   tcpProbe,
		lastRun: make(map[string]time.Time),
		logger:  log,
	}
}

// Run probes until the context is canceled.
func (p *Prober) Run(ctx context.Context) {
	ticker := time.NewTicker(proberTick)
	defer ticker.Stop()

	p.logger.Info().Msg("Ping prober started")

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("Ping prober stopped")

			return
		case <-ticker.C:
			p.Sweep(ctx, time.Now())
		}
	}
}

// Sweep runs every enabled task whose interval has elapsed since its last
// run. Exported so tests can drive the clock.
func (p *Prober) Sweep(ctx context.Context, now time.Time) {
	tasks, err := p.db.ListEnabledPingTasks(ctx)
	if err != nil {
		p.logger.Error().Err(err).Msg("Failed to load ping tasks")

		return
	}

	for _, task := range tasks {
		interval := time.Duration(task.IntervalSeconds) * time.Second
		if last, ok := p.lastRun[task.ID]; ok && now.Sub(last) < interval {
			continue
		}

		p.lastRun[task.ID] = now
		p.runTask(ctx, task, now)
	}
}

func (p *Prober) runTask(ctx context.Context, task *models.PingTask, now time.Time) {
	timeout := time.Duration(task.TimeoutSeconds) * time.Second

	record := &models.PingRecord{TaskID: task.ID, Time: now}

	latency, err := p.probe(task.Target, timeout)
	if err != nil {
		p.logger.Debug().
			Err(err).
			Str("task_id", task.ID).
			Str("target", task.Target).
			Msg("Probe failed")
	} else {
		ms := float64(latency) / float64(time.Millisecond)
		record.LatencyMS = &ms
		record.Success = true
	}

	if err := p.db.InsertPingRecord(ctx, record); err != nil {
		p.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("Failed to record probe result")
	}
}

// tcpProbe measures connection setup time to a host:port target.
func tcpProbe(target string, timeout time.Duration) (time.Duration, error) {
	start := time.Now()

	conn, err := net.DialTimeout("tcp", target, timeout)
	if err != nil {
		return 0, err
	}

	_ = conn.Close()

	return time.Since(start), nil
}
