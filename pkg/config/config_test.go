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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigilmon/vigil/pkg/models"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "vigil.db", cfg.DBPath)
	assert.Equal(t, 15*time.Second, time.Duration(cfg.StalenessTimeout))
	assert.Equal(t, 5*time.Second, time.Duration(cfg.SweepInterval))
	assert.Equal(t, 60*time.Second, time.Duration(cfg.SessionIdleTimeout))
	assert.Equal(t, 60, cfg.HistorySize)
	assert.Equal(t, 64, cfg.SubscriberQueue)
	assert.Empty(t, cfg.AdminAPIKey)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.json")
	content := `{
		"listen_addr": ":9090",
		"db_path": "/var/lib/vigil/vigil.db",
		"admin_api_key": "secret",
		"staleness_timeout": "30s",
		"sweep_interval": "10s",
		"history_size": 120,
		"subscriber_queue": 128,
		"session_idle_timeout": "2m",
		"cors_origins": ["https://dash.example.com"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "/var/lib/vigil/vigil.db", cfg.DBPath)
	assert.Equal(t, "secret", cfg.AdminAPIKey)
	assert.Equal(t, 30*time.Second, time.Duration(cfg.StalenessTimeout))
	assert.Equal(t, 10*time.Second, time.Duration(cfg.SweepInterval))
	assert.Equal(t, 120, cfg.HistorySize)
	assert.Equal(t, 128, cfg.SubscriberQueue)
	assert.Equal(t, 2*time.Minute, time.Duration(cfg.SessionIdleTimeout))
	assert.Equal(t, []string{"https://dash.example.com"}, cfg.CORSOrigins)
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listen_addr": ":7000"}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.ListenAddr)
	assert.Equal(t, "vigil.db", cfg.DBPath)
	assert.Equal(t, 15*time.Second, time.Duration(cfg.StalenessTimeout))
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VIGIL_LISTEN_ADDR", ":6060")
	t.Setenv("VIGIL_DB_PATH", "/tmp/override.db")
	t.Setenv("VIGIL_ADMIN_API_KEY", "env-secret")
	t.Setenv("VIGIL_STALENESS_TIMEOUT", "45s")
	t.Setenv("VIGIL_SWEEP_INTERVAL", "3s")

	path := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"listen_addr": ":9090"}`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	// Environment wins over the file.
	assert.Equal(t, ":6060", cfg.ListenAddr)
	assert.Equal(t, "/tmp/override.db", cfg.DBPath)
	assert.Equal(t, "env-secret", cfg.AdminAPIKey)
	assert.Equal(t, 45*time.Second, time.Duration(cfg.StalenessTimeout))
	assert.Equal(t, 3*time.Second, time.Duration(cfg.SweepInterval))
}

func TestDurationJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "string form", input: `"15s"`, want: 15 * time.Second},
		{name: "compound string", input: `"1m30s"`, want: 90 * time.Second},
		{name: "nanosecond number", input: `5000000000`, want: 5 * time.Second},
		{name: "garbage string", input: `"soon"`, wantErr: true},
		{name: "wrong type", input: `[1]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d models.Duration

			err := d.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}
