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

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vigilmon/vigil/pkg/models"
	"github.com/vigilmon/vigil/pkg/telemetry"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024
	wsWriteTimeout    = 10 * time.Second
	wsMaxFrameSize    = 64 * 1024
)

// StreamMessage is one message on the dashboard live feed.
type StreamMessage struct {
	Type      string              `json:"type"` // "status"
	Data      *models.StatusEvent `json:"data,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

func (s *Server) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  wsReadBufferSize,
		WriteBufferSize: wsWriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return s.checkWebSocketOrigin(r)
		},
	}
}

func (s *Server) checkWebSocketOrigin(r *http.Request) bool {
	if len(s.config.CORSOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// Non-browser clients (agents) send no Origin header.
		return true
	}

	for _, allowed := range s.config.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// handleAgentWS is the agent streaming endpoint: a long-lived connection on
// which each text frame carries one report payload. The server replies with
// transport-level keepalive only; there is no per-message ack. Connection
// loss is not an offline transition by itself; the watchdog decides that
// from report staleness.
func (s *Server) handleAgentWS(w http.ResponseWriter, r *http.Request) {
	agentID := agentIDFromContext(r.Context())

	upgrader := s.upgrader()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("agent_id", agentID).
			Str("remote_addr", r.RemoteAddr).
			Msg("Failed to upgrade agent connection")

		return
	}

	session := s.sessions.Open(agentID, r.RemoteAddr, conn)
	defer s.sessions.Close(session)

	idleTimeout := time.Duration(s.config.SessionIdleTimeout)
	pingPeriod := idleTimeout * 9 / 10

	conn.SetReadLimit(wsMaxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(idleTimeout))
	})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.agentKeepalive(ctx, conn, pingPeriod)

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn().
					Err(err).
					Str("agent_id", agentID).
					Msg("Agent stream error")
			}

			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(idleTimeout))
		s.sessions.Touch(session)

		if messageType != websocket.TextMessage {
			continue
		}

		var report models.ReportInput

		if err := json.Unmarshal(data, &report); err != nil {
			s.logger.Warn().
				Err(err).
				Str("agent_id", agentID).
				Msg("Invalid report frame")

			continue
		}

		if _, err := s.engine.Ingest(agentID, &report); err != nil {
			var validationErr *telemetry.ValidationError
			if errors.As(err, &validationErr) {
				s.logger.Warn().
					Err(err).
					Str("agent_id", agentID).
					Msg("Report rejected")

				continue
			}

			s.logger.Error().
				Err(err).
				Str("agent_id", agentID).
				Msg("Report ingestion failed")
		}
	}
}

func (s *Server) agentKeepalive(ctx context.Context, conn *websocket.Conn, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(wsWriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// handleDashboardWS streams status-change events to one dashboard viewer.
// The feed is lossy under backpressure (oldest events dropped); viewers
// re-sync full state via GET /api/clients.
func (s *Server) handleDashboardWS(w http.ResponseWriter, r *http.Request) {
	upgrader := s.upgrader()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("Failed to upgrade dashboard connection")

		return
	}

	defer conn.Close()

	sub := s.hub.Subscribe()
	defer sub.Close()

	s.logger.Info().
		Str("remote_addr", r.RemoteAddr).
		Int("subscribers", s.hub.Subscribers()).
		Msg("Dashboard subscriber connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Viewers only listen; the read loop exists to detect disconnect.
	go func() {
		defer cancel()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		event, err := sub.Next(ctx)
		if err != nil {
			s.logger.Debug().
				Str("remote_addr", r.RemoteAddr).
				Uint64("dropped", sub.Dropped()).
				Msg("Dashboard subscriber disconnected")

			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))

		msg := StreamMessage{Type: "status", Data: &event, Timestamp: time.Now()}
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
