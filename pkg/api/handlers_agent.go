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

	"github.com/vigilmon/vigil/pkg/models"
	"github.com/vigilmon/vigil/pkg/telemetry"
)

type registerRequest struct {
	Name string `json:"name"`
}

type registerResponse struct {
	UUID  string `json:"uuid"`
	Token string `json:"token"`
}

// handleRegister creates a new agent identity. The token in the response is
// shown exactly once; agents must store it.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errTypeBadRequest, "invalid request body")

		return
	}

	agent, err := s.identity.Register(r.Context(), req.Name)
	if err != nil {
		s.writeDomainError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, registerResponse{UUID: agent.ID, Token: agent.Token})
}

// handleUploadInfo replaces the agent's hardware descriptor.
func (s *Server) handleUploadInfo(w http.ResponseWriter, r *http.Request) {
	agentID := agentIDFromContext(r.Context())

	var info models.StaticInfo

	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		s.writeError(w, http.StatusBadRequest, errTypeBadRequest, "invalid request body")

		return
	}

	if err := telemetry.ValidateInfo(&info); err != nil {
		s.writeDomainError(w, err)

		return
	}

	if err := s.identity.SetStaticInfo(r.Context(), agentID, &info); err != nil {
		s.writeDomainError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, okBody)
}

// handleUploadReport ingests one usage report over HTTP push.
func (s *Server) handleUploadReport(w http.ResponseWriter, r *http.Request) {
	agentID := agentIDFromContext(r.Context())

	var report models.ReportInput

	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		s.writeError(w, http.StatusBadRequest, errTypeBadRequest, "invalid request body")

		return
	}

	if _, err := s.engine.Ingest(agentID, &report); err != nil {
		s.writeDomainError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, okBody)
}
