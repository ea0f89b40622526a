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
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vigilmon/vigil/pkg/logger"
)

// Session is one open agent streaming connection. Destroying a session only
// stops the liveness feed for that connection; the agent's online state is
// decided solely by the staleness watchdog, so an agent alternating between
// HTTP push and streaming is handled uniformly.
type Session struct {
	AgentID    string
	RemoteAddr string
	OpenedAt   time.Time

	mu           sync.Mutex
	lastActivity time.Time
	conn         *websocket.Conn
}

// LastActivity returns when the session last carried an inbound frame.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastActivity
}

// SessionManager tracks open agent streaming sessions. Multiple concurrent
// sessions for the same agent are allowed; each feeds the same ingestion
// path.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[*Session]struct{}
	logger   logger.Logger
}

func NewSessionManager(log logger.Logger) *SessionManager {
	return &SessionManager{
		sessions: make(map[*Session]struct{}),
		logger:   log,
	}
}

// Open registers a session for an already-authenticated agent.
func (m *SessionManager) Open(agentID, remoteAddr string, conn *websocket.Conn) *Session {
	now := time.Now()
	session := &Session{
		AgentID:      agentID,
		RemoteAddr:   remoteAddr,
		OpenedAt:     now,
		lastActivity: now,
		conn:         conn,
	}

	m.mu.Lock()
	m.sessions[session] = struct{}{}
	count := len(m.sessions)
	m.mu.Unlock()

	m.logger.Info().
		Str("agent_id", agentID).
		Str("remote_addr", remoteAddr).
		Int("open_sessions", count).
		Msg("Agent session opened")

	return session
}

// Touch records inbound activity on the session.
func (m *SessionManager) Touch(session *Session) {
	session.mu.Lock()
	session.lastActivity = time.Now()
	session.mu.Unlock()
}

// Close removes the session and closes its connection. Idempotent; safe to
// call from both the read loop and CloseAgent.
func (m *SessionManager) Close(session *Session) {
	m.mu.Lock()
	_, open := m.sessions[session]
	delete(m.sessions, session)
	m.mu.Unlock()

	if !open {
		return
	}

	session.mu.Lock()
	conn := session.conn
	session.conn = nil
	session.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}

	m.logger.Info().
		Str("agent_id", session.AgentID).
		Str("remote_addr", session.RemoteAddr).
		Msg("Agent session closed")
}

// CloseAgent closes all sessions for one agent. Used when the agent is
// deleted; pending reports on those connections are abandoned, not awaited.
func (m *SessionManager) CloseAgent(agentID string) {
	m.mu.Lock()

	var toClose []*Session

	for session := range m.sessions {
		if session.AgentID == agentID {
			toClose = append(toClose, session)
		}
	}

	m.mu.Unlock()

	for _, session := range toClose {
		m.Close(session)
	}
}

// Count returns the number of open sessions.
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}
