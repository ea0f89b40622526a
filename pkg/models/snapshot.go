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

// ReportInput is the resource-usage payload as sent by an agent, either as
// an HTTP POST body or as one websocket text frame. Field names match the
// agent wire protocol. Any client-supplied timestamp is ignored; the server
// assigns ReceivedAt when the report is accepted.
type ReportInput struct {
	CPU            float64 `json:"cpu"`
	GPU            float64 `json:"gpu"`
	RAM            int64   `json:"ram"`
	RAMTotal       int64   `json:"ram_total"`
	Swap           int64   `json:"swap"`
	SwapTotal      int64   `json:"swap_total"`
	Load           float64 `json:"load"`
	Temp           float64 `json:"temp"`
	Disk           int64   `json:"disk"`
	DiskTotal      int64   `json:"disk_total"`
	NetIn          int64   `json:"net_in"`
	NetOut         int64   `json:"net_out"`
	NetTotalUp     int64   `json:"net_total_up"`
	NetTotalDown   int64   `json:"net_total_down"`
	Process        int     `json:"process"`
	Connections    int     `json:"connections"`
	ConnectionsUDP int     `json:"connections_udp"`
	Uptime         int64   `json:"uptime"`
}

// Snapshot is one accepted point-in-time report. ReceivedAt is assigned from
// the server clock and is the authoritative ordering key; snapshots are
// immutable once created.
type Snapshot struct {
	CPU            float64   `json:"cpu"`
	GPU            float64   `json:"gpu"`
	RAM            int64     `json:"ram"`
	RAMTotal       int64     `json:"ram_total"`
	Swap           int64     `json:"swap"`
	SwapTotal      int64     `json:"swap_total"`
	Load           float64   `json:"load"`
	Temp           float64   `json:"temp"`
	Disk           int64     `json:"disk"`
	DiskTotal      int64     `json:"disk_total"`
	NetIn          int64     `json:"net_in"`
	NetOut         int64     `json:"net_out"`
	NetTotalUp     int64     `json:"net_total_up"`
	NetTotalDown   int64     `json:"net_total_down"`
	Process        int       `json:"process"`
	Connections    int       `json:"connections"`
	ConnectionsUDP int       `json:"connections_udp"`
	Uptime         int64     `json:"uptime"`
	ReceivedAt     time.Time `json:"time"`
}

// LiveStatusEntry is the current derived state for one agent: the latest
// accepted snapshot, when it arrived, and whether the agent is considered
// online. Latest is nil for agents that have never reported.
type LiveStatusEntry struct {
	Latest     *Snapshot `json:"latest,omitempty"`
	LastSeenAt time.Time `json:"last_seen_at"`
	Online     bool      `json:"online"`
}

// AgentStatus pairs an agent id with its live status entry in list results.
type AgentStatus struct {
	AgentID string          `json:"agent_id"`
	Entry   LiveStatusEntry `json:"entry"`
}

// StatusEvent is one status-change notification fanned out to dashboard
// subscribers: a fresh report was applied or the watchdog demoted an agent.
type StatusEvent struct {
	AgentID string          `json:"agent_id"`
	Entry   LiveStatusEntry `json:"entry"`
}
