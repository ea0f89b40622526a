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

// Package models defines the wire and domain types shared across the server.
package models

import "time"

// Agent is the persistent identity of one monitored host.
// Token is the agent's secret credential; it is never serialized in API
// responses except at registration and through the admin token endpoint.
type Agent struct {
	ID          string     `json:"id"`
	DisplayName string     `json:"name"`
	Token       string     `json:"-"`
	Info        StaticInfo `json:"info"`
	CreatedAt   time.Time  `json:"created_at"`
}

// StaticInfo is the hardware/OS descriptor uploaded by an agent. Each upload
// replaces the previous descriptor wholesale; fields are never merged.
type StaticInfo struct {
	CPUName        string `json:"cpu_name"`
	Arch           string `json:"arch"`
	CPUCores       int    `json:"cpu_cores"`
	OS             string `json:"os"`
	KernelVersion  string `json:"kernel_version"`
	GPUName        string `json:"gpu_name"`
	Virtualization string `json:"virtualization"`
	MemTotal       int64  `json:"mem_total"`
	SwapTotal      int64  `json:"swap_total"`
	DiskTotal      int64  `json:"disk_total"`
	Version        string `json:"version"`
	IPv4           string `json:"ipv4,omitempty"`
	IPv6           string `json:"ipv6,omitempty"`
}
