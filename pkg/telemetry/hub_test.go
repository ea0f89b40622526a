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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilmon/vigil/pkg/logger"
	"github.com/vigilmon/vigil/pkg/models"
)

func statusEvent(agentID string, seq int64) models.StatusEvent {
	return models.StatusEvent{
		AgentID: agentID,
		Entry: models.LiveStatusEntry{
			Online: true,
			Latest: &models.Snapshot{Uptime: seq, RAMTotal: 1 << 30},
		},
	}
}

func TestHubPublishReachesAllSubscribers(t *testing.T) {
	hub := NewHub(8, logger.NewTestLogger())

	sub1 := hub.Subscribe()
	defer sub1.Close()

	sub2 := hub.Subscribe()
	defer sub2.Close()

	assert.Equal(t, 2, hub.Subscribers())

	hub.Publish(statusEvent("agent-1", 1))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for _, sub := range []*Subscriber{sub1, sub2} {
		event, err := sub.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, "agent-1", event.AgentID)
		assert.Equal(t, int64(1), event.Entry.Latest.Uptime)
	}
}

func TestHubDropsOldestOnOverflow(t *testing.T) {
	hub := NewHub(2, logger.NewTestLogger())

	sub := hub.Subscribe()
	defer sub.Close()

	hub.Publish(statusEvent("agent-1", 1))
	hub.Publish(statusEvent("agent-1", 2))
	hub.Publish(statusEvent("agent-1", 3))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	// Event 1 was dropped; 2 and 3 survive in order.
	event, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), event.Entry.Latest.Uptime)

	event, err = sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), event.Entry.Latest.Uptime)

	assert.Equal(t, uint64(1), sub.Dropped())
}

func TestHubPerAgentOrdering(t *testing.T) {
	hub := NewHub(64, logger.NewTestLogger())

	sub := hub.Subscribe()
	defer sub.Close()

	for i := int64(1); i <= 20; i++ {
		hub.Publish(statusEvent("agent-1", i))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := int64(1); i <= 20; i++ {
		event, err := sub.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, i, event.Entry.Latest.Uptime)
	}
}

func TestHubPublishWithoutSubscribersDoesNotBlock(t *testing.T) {
	hub := NewHub(2, logger.NewTestLogger())

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := int64(0); i < 1000; i++ {
			hub.Publish(statusEvent("agent-1", i))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked with no subscribers attached")
	}
}

func TestSubscriberNextBlocksUntilPublish(t *testing.T) {
	hub := NewHub(8, logger.NewTestLogger())

	sub := hub.Subscribe()
	defer sub.Close()

	go func() {
		time.Sleep(20 * time.Millisecond)
		hub.Publish(statusEvent("agent-1", 7))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	event, err := sub.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), event.Entry.Latest.Uptime)
}

func TestSubscriberNextContextCanceled(t *testing.T) {
	hub := NewHub(8, logger.NewTestLogger())

	sub := hub.Subscribe()
	defer sub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := sub.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubscriberClose(t *testing.T) {
	hub := NewHub(8, logger.NewTestLogger())

	sub := hub.Subscribe()
	sub.Close()

	assert.Equal(t, 0, hub.Subscribers())

	_, err := sub.Next(context.Background())
	require.ErrorIs(t, err, ErrSubscriberClosed)

	// Publishing after close is harmless.
	hub.Publish(statusEvent("agent-1", 1))

	// Close is idempotent.
	sub.Close()
}

func TestHubSlowSubscriberDoesNotAffectOthers(t *testing.T) {
	hub := NewHub(2, logger.NewTestLogger())

	slow := hub.Subscribe()
	defer slow.Close()

	fast := hub.Subscribe()
	defer fast.Close()

	for i := int64(1); i <= 10; i++ {
		hub.Publish(statusEvent("agent-1", i))

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)

		event, err := fast.Next(ctx)

		cancel()
		require.NoError(t, err)
		assert.Equal(t, i, event.Entry.Latest.Uptime)
	}

	assert.Equal(t, uint64(0), fast.Dropped())
	assert.Equal(t, uint64(8), slow.Dropped())
}
