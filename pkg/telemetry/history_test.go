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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilmon/vigil/pkg/models"
)

func numberedSnapshot(seq int64) *models.Snapshot {
	return &models.Snapshot{Uptime: seq, RAMTotal: 1 << 30}
}

func TestHistoryAppendAndRecent(t *testing.T) {
	history := NewHistory(60)

	assert.Nil(t, history.Recent("agent-1", 10), "unknown agent yields nil")

	for i := int64(1); i <= 3; i++ {
		history.Append("agent-1", numberedSnapshot(i))
	}

	recent := history.Recent("agent-1", 0)
	require.Len(t, recent, 3)

	// Oldest-first.
	assert.Equal(t, int64(1), recent[0].Uptime)
	assert.Equal(t, int64(3), recent[2].Uptime)
}

func TestHistoryEvictsOldestAtCapacity(t *testing.T) {
	history := NewHistory(60)

	for i := int64(1); i <= 61; i++ {
		history.Append("agent-1", numberedSnapshot(i))
	}

	recent := history.Recent("agent-1", 0)
	require.Len(t, recent, 60)

	// The first snapshot fell off; 2..61 remain in order.
	assert.Equal(t, int64(2), recent[0].Uptime)
	assert.Equal(t, int64(61), recent[59].Uptime)

	for i := 1; i < len(recent); i++ {
		assert.Equal(t, recent[i-1].Uptime+1, recent[i].Uptime)
	}
}

func TestHistoryRecentLimit(t *testing.T) {
	history := NewHistory(60)

	for i := int64(1); i <= 10; i++ {
		history.Append("agent-1", numberedSnapshot(i))
	}

	tests := []struct {
		name      string
		limit     int
		wantLen   int
		wantFirst int64
		wantLast  int64
	}{
		{name: "limit below count returns most recent", limit: 4, wantLen: 4, wantFirst: 7, wantLast: 10},
		{name: "limit above count returns all", limit: 100, wantLen: 10, wantFirst: 1, wantLast: 10},
		{name: "zero limit returns all", limit: 0, wantLen: 10, wantFirst: 1, wantLast: 10},
		{name: "negative limit returns all", limit: -1, wantLen: 10, wantFirst: 1, wantLast: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recent := history.Recent("agent-1", tt.limit)
			require.Len(t, recent, tt.wantLen)
			assert.Equal(t, tt.wantFirst, recent[0].Uptime)
			assert.Equal(t, tt.wantLast, recent[len(recent)-1].Uptime)
		})
	}
}

func TestHistoryRecentLimitAfterWraparound(t *testing.T) {
	history := NewHistory(5)

	for i := int64(1); i <= 8; i++ {
		history.Append("agent-1", numberedSnapshot(i))
	}

	// Ring holds 4..8; the 2 most recent are 7 and 8.
	recent := history.Recent("agent-1", 2)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(7), recent[0].Uptime)
	assert.Equal(t, int64(8), recent[1].Uptime)
}

func TestHistoryPerAgentIsolation(t *testing.T) {
	history := NewHistory(60)

	history.Append("agent-1", numberedSnapshot(1))
	history.Append("agent-2", numberedSnapshot(100))

	recent := history.Recent("agent-1", 0)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(1), recent[0].Uptime)

	recent = history.Recent("agent-2", 0)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(100), recent[0].Uptime)
}

func TestHistoryRemove(t *testing.T) {
	history := NewHistory(60)

	history.Append("agent-1", numberedSnapshot(1))
	history.Remove("agent-1")

	assert.Nil(t, history.Recent("agent-1", 0))
}

func TestHistoryDefaultsBadCapacity(t *testing.T) {
	history := NewHistory(0)
	assert.Equal(t, 1, history.Capacity())

	history.Append("agent-1", numberedSnapshot(1))
	history.Append("agent-1", numberedSnapshot(2))

	recent := history.Recent("agent-1", 0)
	require.Len(t, recent, 1)
	assert.Equal(t, int64(2), recent[0].Uptime)
}
