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

package models

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/vigilmon/vigil/pkg/logger"
)

var ErrInvalidDuration = errors.New("invalid duration value")

// Duration is a wrapper around time.Duration for JSON unmarshaling. It
// accepts either a duration string ("15s") or nanoseconds as a number.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}

		*d = Duration(tmp)
	default:
		return ErrInvalidDuration
	}

	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// ServerConfig is the top-level configuration for the vigil server.
type ServerConfig struct {
	ListenAddr         string         `json:"listen_addr"`
	DBPath             string         `json:"db_path"`
	AdminAPIKey        string         `json:"admin_api_key"`
	StalenessTimeout   Duration       `json:"staleness_timeout"`
	SweepInterval      Duration       `json:"sweep_interval"`
	HistorySize        int            `json:"history_size"`
	SubscriberQueue    int            `json:"subscriber_queue"`
	SessionIdleTimeout Duration       `json:"session_idle_timeout"`
	CORSOrigins        []string       `json:"cors_origins"`
	Logging            *logger.Config `json:"logging,omitempty"`
}

// ErrorResponse is the JSON error body returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
