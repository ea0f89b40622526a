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
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vigilmon/vigil/pkg/models"
)

const defaultRecentLimit = 60

// ClientWithStatus is one dashboard row: the agent record plus its live
// status entry. Status is absent for agents that have never reported.
type ClientWithStatus struct {
	*models.Agent
	Status *models.LiveStatusEntry `json:"status,omitempty"`
}

type clientsResponse struct {
	Clients []ClientWithStatus `json:"clients"`
}

// NodeInfo is the compact node listing used by status pages.
type NodeInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Online bool   `json:"online"`
}

// handleClients returns every agent with its current status.
func (s *Server) handleClients(w http.ResponseWriter, _ *http.Request) {
	agents := s.identity.List()

	clients := make([]ClientWithStatus, 0, len(agents))

	for _, agent := range agents {
		row := ClientWithStatus{Agent: agent}

		if entry, ok := s.engine.Status(agent.ID); ok {
			row.Status = &entry
		}

		clients = append(clients, row)
	}

	s.writeJSON(w, http.StatusOK, clientsResponse{Clients: clients})
}

// handleNodes returns the compact id/name/online listing.
func (s *Server) handleNodes(w http.ResponseWriter, _ *http.Request) {
	agents := s.identity.List()

	nodes := make([]NodeInfo, 0, len(agents))

	for _, agent := range agents {
		node := NodeInfo{ID: agent.ID, Name: agent.DisplayName}

		if entry, ok := s.engine.Status(agent.ID); ok {
			node.Online = entry.Online
		}

		nodes = append(nodes, node)
	}

	s.writeJSON(w, http.StatusOK, nodes)
}

// handleRecent returns up to limit recent snapshots for one agent,
// oldest-first.
func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]

	if _, err := s.identity.Get(agentID); err != nil {
		s.writeDomainError(w, err)

		return
	}

	limit := defaultRecentLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, errTypeBadRequest, "invalid limit")

			return
		}

		limit = parsed
	}

	snapshots := s.engine.Recent(agentID, limit)
	if snapshots == nil {
		snapshots = []models.Snapshot{}
	}

	s.writeJSON(w, http.StatusOK, snapshots)
}
