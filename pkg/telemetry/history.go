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

	"github.com/vigilmon/vigil/pkg/models"
)

// History keeps a fixed-capacity ring of recent snapshots per agent for
// short-term charting. Appends come only from the ingestion path; reads are
// copies, so callers never observe a buffer mid-write. Capacity is a
// process-wide constant set at construction.
type History struct {
	capacity int
	buffers  sync.Map // agent id -> *ringBuffer
}

type ringBuffer struct {
	mu    sync.Mutex
	data  []models.Snapshot
	head  int // index of the oldest element
	count int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}

	return &History{capacity: capacity}
}

// Append pushes a snapshot to the tail of the agent's ring, evicting the
// oldest entry once the ring is full. O(1), strict FIFO.
func (h *History) Append(agentID string, snapshot *models.Snapshot) {
	value, _ := h.buffers.LoadOrStore(agentID, &ringBuffer{
		data: make([]models.Snapshot, h.capacity),
	})
	rb := value.(*ringBuffer)

	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count < len(rb.data) {
		rb.data[(rb.head+rb.count)%len(rb.data)] = *snapshot
		rb.count++

		return
	}

	// Full: overwrite the head slot and advance it.
	rb.data[rb.head] = *snapshot
	rb.head = (rb.head + 1) % len(rb.data)
}

// Recent returns up to min(limit, capacity) snapshots for the agent,
// oldest-first. A non-positive limit means "everything retained".
func (h *History) Recent(agentID string, limit int) []models.Snapshot {
	value, ok := h.buffers.Load(agentID)
	if !ok {
		return nil
	}

	rb := value.(*ringBuffer)

	rb.mu.Lock()
	defer rb.mu.Unlock()

	n := rb.count
	if limit > 0 && limit < n {
		n = limit
	}

	// When limited, return the n most recent entries, still oldest-first.
	start := rb.head + rb.count - n

	out := make([]models.Snapshot, n)
	for i := 0; i < n; i++ {
		out[i] = rb.data[(start+i)%len(rb.data)]
	}

	return out
}

// Remove drops the agent's buffer. Used on agent deletion.
func (h *History) Remove(agentID string) {
	h.buffers.Delete(agentID)
}

// Capacity returns the per-agent retention limit.
func (h *History) Capacity() int {
	return h.capacity
}
