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
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

type adminClientRequest struct {
	Name string `json:"name"`
}

type adminTokenResponse struct {
	UUID  string `json:"uuid"`
	Token string `json:"token"`
}

// handleAdminListClients returns full agent records, live status included.
func (s *Server) handleAdminListClients(w http.ResponseWriter, _ *http.Request) {
	agents := s.identity.List()

	clients := make([]ClientWithStatus, 0, len(agents))

	for _, agent := range agents {
		row := ClientWithStatus{Agent: agent}

		if entry, ok := s.engine.Status(agent.ID); ok {
			row.Status = &entry
		}

		clients = append(clients, row)
	}

	s.writeJSON(w, http.StatusOK, clients)
}

// handleAdminCreateClient pre-provisions an agent so its token can be
// installed on a host out of band.
func (s *Server) handleAdminCreateClient(w http.ResponseWriter, r *http.Request) {
	var req adminClientRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errTypeBadRequest, "invalid request body")

		return
	}

	agent, err := s.identity.Register(r.Context(), req.Name)
	if err != nil {
		s.writeDomainError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, adminTokenResponse{UUID: agent.ID, Token: agent.Token})
}

func (s *Server) handleAdminGetClient(w http.ResponseWriter, r *http.Request) {
	agent, err := s.identity.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeDomainError(w, err)

		return
	}

	row := ClientWithStatus{Agent: agent}

	if entry, ok := s.engine.Status(agent.ID); ok {
		row.Status = &entry
	}

	s.writeJSON(w, http.StatusOK, row)
}

func (s *Server) handleAdminRenameClient(w http.ResponseWriter, r *http.Request) {
	var req adminClientRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errTypeBadRequest, "invalid request body")

		return
	}

	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, errTypeBadRequest, "name is required")

		return
	}

	if err := s.identity.Rename(r.Context(), mux.Vars(r)["id"], req.Name); err != nil {
		s.writeDomainError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, okBody)
}

// handleAdminDeleteClient deletes an agent: the token is revoked, open
// streaming sessions are closed, and live-status and history state is
// purged. In-flight requests that already authenticated complete normally.
func (s *Server) handleAdminDeleteClient(w http.ResponseWriter, r *http.Request) {
	agentID := mux.Vars(r)["id"]

	if err := s.identity.Delete(r.Context(), agentID); err != nil {
		s.writeDomainError(w, err)

		return
	}

	s.sessions.CloseAgent(agentID)
	s.engine.Purge(agentID)

	s.writeJSON(w, http.StatusOK, okBody)
}

// handleAdminClientToken is the authenticated admin-only token re-fetch;
// outside of registration this is the only place a token leaves the server.
func (s *Server) handleAdminClientToken(w http.ResponseWriter, r *http.Request) {
	agent, err := s.identity.Get(mux.Vars(r)["id"])
	if err != nil {
		s.writeDomainError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, adminTokenResponse{UUID: agent.ID, Token: agent.Token})
}
