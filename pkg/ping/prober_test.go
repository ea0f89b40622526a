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
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilmon/vigil/pkg/logger"
	"github.com/vigilmon/vigil/pkg/models"
)

func TestSweepRecordsSuccess(t *testing.T) {
	manager, database := newTestManager(t)

	task, err := manager.CreateTask(context.Background(), "edge", "example.com:443", 30, 2)
	require.NoError(t, err)

	prober := NewProber(database, logger.NewTestLogger())
	prober.probe = func(target string, timeout time.Duration) (time.Duration, error) {
		assert.Equal(t, "example.com:443", target)
		assert.Equal(t, 2*time.Second, timeout)

		return 12500 * time.Microsecond, nil
	}

	prober.Sweep(context.Background(), time.Now())

	records, err := database.RecentPingRecords(context.Background(), task.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.True(t, records[0].Success)
	require.NotNil(t, records[0].LatencyMS)
	assert.InDelta(t, 12.5, *records[0].LatencyMS, 0.0001)
}

func TestSweepRecordsFailureWithoutLatency(t *testing.T) {
	manager, database := newTestManager(t)

	task, err := manager.CreateTask(context.Background(), "edge", "10.0.0.1:9", 30, 2)
	require.NoError(t, err)

	prober := NewProber(database, logger.NewTestLogger())
	prober.probe = func(string, time.Duration) (time.Duration, error) {
		return 0, errors.New("connection refused")
	}

	prober.Sweep(context.Background(), time.Now())

	records, err := database.RecentPingRecords(context.Background(), task.ID, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.False(t, records[0].Success)
	assert.Nil(t, records[0].LatencyMS)
}

func TestSweepHonorsTaskInterval(t *testing.T) {
	manager, database := newTestManager(t)

	task, err := manager.CreateTask(context.Background(), "edge", "example.com:443", 30, 2)
	require.NoError(t, err)

	probes := 0

	prober := NewProber(database, logger.NewTestLogger())
	prober.probe = func(string, time.Duration) (time.Duration, error) {
		probes++

		return time.Millisecond, nil
	}

	base := time.Now()

	prober.Sweep(context.Background(), base)
	prober.Sweep(context.Background(), base.Add(10*time.Second))
	prober.Sweep(context.Background(), base.Add(29*time.Second))
	assert.Equal(t, 1, probes)

	prober.Sweep(context.Background(), base.Add(30*time.Second))
	assert.Equal(t, 2, probes)

	records, err := database.RecentPingRecords(context.Background(), task.ID, 10)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSweepSkipsDisabledTasks(t *testing.T) {
	_, database := newTestManager(t)

	disabled := &models.PingTask{
		ID:              "p1",
		Name:            "paused",
		Target:          "example.com:443",
		IntervalSeconds: 30,
		TimeoutSeconds:  2,
		Enabled:         false,
		CreatedAt:       time.Now().UTC(),
	}
	require.NoError(t, database.CreatePingTask(context.Background(), disabled))

	probes := 0

	prober := NewProber(database, logger.NewTestLogger())
	prober.probe = func(string, time.Duration) (time.Duration, error) {
		probes++

		return time.Millisecond, nil
	}

	prober.Sweep(context.Background(), time.Now())
	assert.Equal(t, 0, probes)
}

func TestTCPProbe(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defer listener.Close()

	go func() {
		conn, aerr := listener.Accept()
		if aerr == nil {
			_ = conn.Close()
		}
	}()

	latency, err := tcpProbe(listener.Addr().String(), time.Second)
	require.NoError(t, err)
	assert.Greater(t, latency, time.Duration(0))

	_, err = tcpProbe("127.0.0.1:1", 100*time.Millisecond)
	require.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	_, database := newTestManager(t)

	prober := NewProber(database, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})

	go func() {
		prober.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("prober did not stop after cancel")
	}
}
