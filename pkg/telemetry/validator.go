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
	"fmt"
	"time"

	"github.com/vigilmon/vigil/pkg/models"
)

const maxPercent = 100

// ValidationError reports a malformed or out-of-range payload field.
// Reports that fail validation never reach the status table or history.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ValidateInfo checks a hardware descriptor upload in place. Optional fields
// (gpu_name, ipv6) stay empty when absent; strings are accepted as-is.
func ValidateInfo(info *models.StaticInfo) error {
	if info.CPUCores < 0 {
		return &ValidationError{Field: "cpu_cores", Reason: "must be non-negative"}
	}

	byteFields := []struct {
		name  string
		value int64
	}{
		{"mem_total", info.MemTotal},
		{"swap_total", info.SwapTotal},
		{"disk_total", info.DiskTotal},
	}

	for _, f := range byteFields {
		if f.value < 0 {
			return &ValidationError{Field: f.name, Reason: "must be non-negative"}
		}
	}

	return nil
}

// ValidateReport normalizes a usage report into a Snapshot. Percentages
// above 100 are clamped; negative values of any field are rejected. A report
// with both ram_total and disk_total zero is clearly malformed and is
// rejected outright. ReceivedAt is set from now; the server clock is
// authoritative, never client-supplied time.
func ValidateReport(in *models.ReportInput, now time.Time) (*models.Snapshot, error) {
	floatFields := []struct {
		name  string
		value float64
	}{
		{"cpu", in.CPU},
		{"gpu", in.GPU},
		{"load", in.Load},
		{"temp", in.Temp},
	}

	for _, f := range floatFields {
		if f.value < 0 {
			return nil, &ValidationError{Field: f.name, Reason: "must be non-negative"}
		}
	}

	intFields := []struct {
		name  string
		value int64
	}{
		{"ram", in.RAM},
		{"ram_total", in.RAMTotal},
		{"swap", in.Swap},
		{"swap_total", in.SwapTotal},
		{"disk", in.Disk},
		{"disk_total", in.DiskTotal},
		{"net_in", in.NetIn},
		{"net_out", in.NetOut},
		{"net_total_up", in.NetTotalUp},
		{"net_total_down", in.NetTotalDown},
		{"process", int64(in.Process)},
		{"connections", int64(in.Connections)},
		{"connections_udp", int64(in.ConnectionsUDP)},
		{"uptime", in.Uptime},
	}

	for _, f := range intFields {
		if f.value < 0 {
			return nil, &ValidationError{Field: f.name, Reason: "must be non-negative"}
		}
	}

	if in.RAMTotal == 0 && in.DiskTotal == 0 {
		return nil, &ValidationError{Field: "ram_total", Reason: "ram_total and disk_total are both zero"}
	}

	return &models.Snapshot{
		CPU:            clampPercent(in.CPU),
		GPU:            clampPercent(in.GPU),
		RAM:            in.RAM,
		RAMTotal:       in.RAMTotal,
		Swap:           in.Swap,
		SwapTotal:      in.SwapTotal,
		Load:           in.Load,
		Temp:           in.Temp,
		Disk:           in.Disk,
		DiskTotal:      in.DiskTotal,
		NetIn:          in.NetIn,
		NetOut:         in.NetOut,
		NetTotalUp:     in.NetTotalUp,
		NetTotalDown:   in.NetTotalDown,
		Process:        in.Process,
		Connections:    in.Connections,
		ConnectionsUDP: in.ConnectionsUDP,
		Uptime:         in.Uptime,
		ReceivedAt:     now.UTC(),
	}, nil
}

func clampPercent(v float64) float64 {
	if v > maxPercent {
		return maxPercent
	}

	return v
}
