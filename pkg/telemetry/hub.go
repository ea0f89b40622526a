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
	"errors"
	"sync"

	"github.com/vigilmon/vigil/pkg/logger"
	"github.com/vigilmon/vigil/pkg/models"
)

// ErrSubscriberClosed is returned by Next once a subscription is closed.
var ErrSubscriberClosed = errors.New("subscriber closed")

const defaultSubscriberQueue = 64

// Hub fans status-change events out to dashboard subscribers. Delivery is
// best-effort: each subscriber has a bounded queue and the oldest queued
// event is dropped on overflow, so a slow or disconnected subscriber can
// never stall ingestion. The feed is therefore lossy; dashboards recover
// full state by polling the status table. Events for the same agent reach a
// given subscriber in publish order.
type Hub struct {
	mu        sync.RWMutex
	subs      map[uint64]*Subscriber
	nextID    uint64
	queueSize int
	logger    logger.Logger
}

// Subscriber is one dashboard subscription handle. Consume events with Next;
// a closed subscription cannot be rewound, create a new one instead.
type Subscriber struct {
	id      uint64
	hub     *Hub
	mu      sync.Mutex
	queue   []models.StatusEvent
	dropped uint64
	closed  bool
	notify  chan struct{}
}

func NewHub(queueSize int, log logger.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = defaultSubscriberQueue
	}

	return &Hub{
		subs:      make(map[uint64]*Subscriber),
		queueSize: queueSize,
		logger:    log,
	}
}

// Subscribe registers a new subscriber starting at the current point in the
// event stream.
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{
		hub:    h,
		notify: make(chan struct{}, 1),
	}

	h.mu.Lock()
	h.nextID++
	sub.id = h.nextID
	h.subs[sub.id] = sub
	h.mu.Unlock()

	return sub
}

// Publish delivers the event to every subscriber without ever blocking the
// caller.
func (h *Hub) Publish(event models.StatusEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		sub.push(event, h.queueSize)
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.subs)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

func (s *Subscriber) push(event models.StatusEvent, limit int) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return
	}

	if len(s.queue) == limit {
		s.queue = s.queue[1:]
		s.dropped++
	}

	s.queue = append(s.queue, event)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until an event is available, the context is canceled, or the
// subscription is closed.
func (s *Subscriber) Next(ctx context.Context) (models.StatusEvent, error) {
	for {
		s.mu.Lock()

		if len(s.queue) > 0 {
			event := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			return event, nil
		}

		closed := s.closed
		s.mu.Unlock()

		if closed {
			return models.StatusEvent{}, ErrSubscriberClosed
		}

		select {
		case <-ctx.Done():
			return models.StatusEvent{}, ctx.Err()
		case <-s.notify:
		}
	}
}

// Dropped reports how many events were discarded due to queue overflow.
func (s *Subscriber) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.dropped
}

// Close detaches the subscriber from the hub. Pending events are discarded.
func (s *Subscriber) Close() {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return
	}

	s.closed = true
	s.queue = nil
	s.mu.Unlock()

	s.hub.remove(s.id)

	select {
	case s.notify <- struct{}{}:
	default:
	}
}
