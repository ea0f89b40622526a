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

// Package identity issues and validates per-agent tokens and owns the
// agent records backing them.
package identity

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vigilmon/vigil/pkg/db"
	"github.com/vigilmon/vigil/pkg/logger"
	"github.com/vigilmon/vigil/pkg/models"
)

var (
	// ErrUnauthorized covers missing, malformed, unknown, and revoked tokens.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrAgentNotFound is returned for operations on unknown agent ids.
	ErrAgentNotFound = errors.New("agent not found")
)

const (
	// tokenPrefix identifies vigil agent tokens at a glance without
	// revealing anything about their value.
	tokenPrefix = "vgl_"

	tokenRandomBytes = 32

	defaultDisplayName = "New Server"
)

// Store maps tokens to agent identities. Lookups go through an in-memory
// index keyed by the token's SHA-256 digest, so authentication cost does not
// depend on how closely a presented token matches a real one. The index is
// rebuilt from the database at startup; mutations write through.
type Store struct {
	mu      sync.RWMutex
	agents  map[string]*models.Agent // agent id -> record
	byToken map[string]string        // sha256(token) hex -> agent id
	db      db.Service
	logger  logger.Logger
}

// NewStore loads all persisted agents and builds the token index.
func NewStore(ctx context.Context, database db.Service, log logger.Logger) (*Store, error) {
	agents, err := database.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load agents: %w", err)
	}

	s := &Store{
		agents:  make(map[string]*models.Agent, len(agents)),
		byToken: make(map[string]string, len(agents)),
		db:      database,
		logger:  log,
	}

	for _, agent := range agents {
		s.agents[agent.ID] = agent

		// Revoked agents persist with no token; they must never re-enter
		// the authentication index.
		if agent.Token != "" {
			s.byToken[hashToken(agent.Token)] = agent.ID
		}
	}

	log.Info().Int("agents", len(agents)).Msg("Identity store loaded")

	return s, nil
}

// Register creates a new agent with a random id and token. An empty display
// name gets the default placeholder. The plaintext token is returned exactly
// once here; afterwards it is only reachable through the admin token lookup.
func (s *Store) Register(ctx context.Context, displayName string) (*models.Agent, error) {
	if displayName == "" {
		displayName = defaultDisplayName
	}

	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	agent := &models.Agent{
		ID:          uuid.NewString(),
		DisplayName: displayName,
		Token:       token,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.db.CreateAgent(ctx, agent); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.agents[agent.ID] = agent
	s.byToken[hashToken(token)] = agent.ID
	s.mu.Unlock()

	s.logger.Info().
		Str("agent_id", agent.ID).
		Str("name", agent.DisplayName).
		Msg("Agent registered")

	return cloneAgent(agent), nil
}

// Authenticate resolves a presented token to an agent id. It fails with
// ErrUnauthorized for tokens that are empty, malformed, never issued, or
// revoked.
func (s *Store) Authenticate(token string) (string, error) {
	if !wellFormedToken(token) {
		return "", ErrUnauthorized
	}

	s.mu.RLock()
	agentID, ok := s.byToken[hashToken(token)]
	s.mu.RUnlock()

	if !ok {
		return "", ErrUnauthorized
	}

	return agentID, nil
}

// Revoke invalidates the agent's token, in memory and in the database, so
// the revocation holds across restarts. In-flight requests that already
// authenticated are unaffected; any later Authenticate fails.
func (s *Store) Revoke(ctx context.Context, agentID string) error {
	if err := s.db.ClearToken(ctx, agentID); err != nil {
		if errors.Is(err, db.ErrAgentNotFound) {
			return ErrAgentNotFound
		}

		return err
	}

	s.mu.Lock()
	if agent, ok := s.agents[agentID]; ok {
		delete(s.byToken, hashToken(agent.Token))
		agent.Token = ""
	}
	s.mu.Unlock()

	s.logger.Info().Str("agent_id", agentID).Msg("Agent token revoked")

	return nil
}

// Get returns a copy of the agent record.
func (s *Store) Get(agentID string) (*models.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agent, ok := s.agents[agentID]
	if !ok {
		return nil, ErrAgentNotFound
	}

	return cloneAgent(agent), nil
}

// List returns copies of all agent records ordered by creation time.
func (s *Store) List() []*models.Agent {
	s.mu.RLock()

	agents := make([]*models.Agent, 0, len(s.agents))
	for _, agent := range s.agents {
		agents = append(agents, cloneAgent(agent))
	}

	s.mu.RUnlock()

	sort.Slice(agents, func(i, j int) bool {
		if agents[i].CreatedAt.Equal(agents[j].CreatedAt) {
			return agents[i].ID < agents[j].ID
		}

		return agents[i].CreatedAt.Before(agents[j].CreatedAt)
	})

	return agents
}

// Rename updates the display name.
func (s *Store) Rename(ctx context.Context, agentID, displayName string) error {
	if err := s.db.UpdateDisplayName(ctx, agentID, displayName); err != nil {
		if errors.Is(err, db.ErrAgentNotFound) {
			return ErrAgentNotFound
		}

		return err
	}

	s.mu.Lock()
	if agent, ok := s.agents[agentID]; ok {
		agent.DisplayName = displayName
	}
	s.mu.Unlock()

	return nil
}

// SetStaticInfo replaces the agent's hardware descriptor wholesale.
func (s *Store) SetStaticInfo(ctx context.Context, agentID string, info *models.StaticInfo) error {
	if err := s.db.UpdateStaticInfo(ctx, agentID, info); err != nil {
		if errors.Is(err, db.ErrAgentNotFound) {
			return ErrAgentNotFound
		}

		return err
	}

	s.mu.Lock()
	if agent, ok := s.agents[agentID]; ok {
		agent.Info = *info
	}
	s.mu.Unlock()

	return nil
}

// Delete removes the agent record and invalidates its token.
func (s *Store) Delete(ctx context.Context, agentID string) error {
	if err := s.db.DeleteAgent(ctx, agentID); err != nil {
		if errors.Is(err, db.ErrAgentNotFound) {
			return ErrAgentNotFound
		}

		return err
	}

	s.mu.Lock()
	if agent, ok := s.agents[agentID]; ok {
		delete(s.byToken, hashToken(agent.Token))
		delete(s.agents, agentID)
	}
	s.mu.Unlock()

	s.logger.Info().Str("agent_id", agentID).Msg("Agent deleted")

	return nil
}

func generateToken() (string, error) {
	raw := make([]byte, tokenRandomBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	return tokenPrefix + hex.EncodeToString(raw), nil
}

func wellFormedToken(token string) bool {
	if len(token) != len(tokenPrefix)+tokenRandomBytes*2 {
		return false
	}

	return token[:len(tokenPrefix)] == tokenPrefix
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))

	return hex.EncodeToString(sum[:])
}

func cloneAgent(agent *models.Agent) *models.Agent {
	copied := *agent

	return &copied
}
