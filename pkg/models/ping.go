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

package models

import "time"

// PingTask is a configured reachability check against one network target.
type PingTask struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Target          string    `json:"target"`
	IntervalSeconds int       `json:"interval_seconds"`
	TimeoutSeconds  int       `json:"timeout_seconds"`
	Enabled         bool      `json:"enabled"`
	CreatedAt       time.Time `json:"created_at"`
}

// PingRecord is one probe outcome for a task. LatencyMS is nil when the
// probe failed or timed out.
type PingRecord struct {
	ID        int64     `json:"id"`
	TaskID    string    `json:"task_id"`
	Time      time.Time `json:"time"`
	LatencyMS *float64  `json:"latency_ms"`
	Success   bool      `json:"success"`
}
