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

// Package config loads the server configuration from a JSON file with
// environment variable overrides.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/vigilmon/vigil/pkg/models"
)

const (
	defaultListenAddr       = ":8080"
	defaultDBPath           = "vigil.db"
	defaultStalenessTimeout = 15 * time.Second
	defaultSweepInterval    = 5 * time.Second
	defaultSessionIdle      = 60 * time.Second
	defaultHistorySize      = 60
	defaultSubscriberQueue  = 64
)

// Load reads the configuration file at path, applies environment overrides,
// and fills in defaults for unset fields. A missing file is not an error;
// the defaults are used.
func Load(path string) (*models.ServerConfig, error) {
	cfg := &models.ServerConfig{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// Fall through to defaults.
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *models.ServerConfig) {
	if v := os.Getenv("VIGIL_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}

	if v := os.Getenv("VIGIL_DB_PATH"); v != "" {
		cfg.DBPath = v
	}

	if v := os.Getenv("VIGIL_ADMIN_API_KEY"); v != "" {
		cfg.AdminAPIKey = v
	}

	if v := os.Getenv("VIGIL_STALENESS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.StalenessTimeout = models.Duration(d)
		}
	}

	if v := os.Getenv("VIGIL_SWEEP_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.SweepInterval = models.Duration(d)
		}
	}
}

func setDefaults(cfg *models.ServerConfig) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}

	if cfg.DBPath == "" {
		cfg.DBPath = defaultDBPath
	}

	if cfg.StalenessTimeout <= 0 {
		cfg.StalenessTimeout = models.Duration(defaultStalenessTimeout)
	}

	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = models.Duration(defaultSweepInterval)
	}

	if cfg.SessionIdleTimeout <= 0 {
		cfg.SessionIdleTimeout = models.Duration(defaultSessionIdle)
	}

	if cfg.HistorySize <= 0 {
		cfg.HistorySize = defaultHistorySize
	}

	if cfg.SubscriberQueue <= 0 {
		cfg.SubscriberQueue = defaultSubscriberQueue
	}
}
