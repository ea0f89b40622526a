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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilmon/vigil/pkg/db"
	"github.com/vigilmon/vigil/pkg/logger"
)

func newTestManager(t *testing.T) (*Manager, db.Service) {
	t.Helper()

	database, err := db.NewSQLiteStore(filepath.Join(t.TempDir(), "vigil.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	return NewManager(database, logger.NewTestLogger()), database
}

func TestCreateTask(t *testing.T) {
	manager, _ := newTestManager(t)

	task, err := manager.CreateTask(context.Background(), "edge", "example.com:443", 30, 2)
	require.NoError(t, err)

	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "edge", task.Name)
	assert.Equal(t, "example.com:443", task.Target)
	assert.Equal(t, 30, task.IntervalSeconds)
	assert.Equal(t, 2, task.TimeoutSeconds)
	assert.True(t, task.Enabled)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestCreateTaskAppliesDefaults(t *testing.T) {
	manager, _ := newTestManager(t)

	task, err := manager.CreateTask(context.Background(), "edge", "example.com:443", 0, -1)
	require.NoError(t, err)

	assert.Equal(t, defaultIntervalSeconds, task.IntervalSeconds)
	assert.Equal(t, defaultTimeoutSeconds, task.TimeoutSeconds)
}

func TestDeleteTask(t *testing.T) {
	manager, _ := newTestManager(t)

	task, err := manager.CreateTask(context.Background(), "edge", "example.com:443", 0, 0)
	require.NoError(t, err)

	require.NoError(t, manager.DeleteTask(context.Background(), task.ID))

	_, err = manager.GetTask(context.Background(), task.ID)
	require.ErrorIs(t, err, db.ErrPingTaskNotFound)

	require.ErrorIs(t, manager.DeleteTask(context.Background(), task.ID), db.ErrPingTaskNotFound)
}

func TestRecentRecordsRequiresTask(t *testing.T) {
	manager, _ := newTestManager(t)

	_, err := manager.RecentRecords(context.Background(), "missing", 10)
	require.ErrorIs(t, err, db.ErrPingTaskNotFound)
}
