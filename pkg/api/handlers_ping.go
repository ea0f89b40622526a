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
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vigilmon/vigil/pkg/models"
)

type addPingTaskRequest struct {
	Name            string `json:"name"`
	Target          string `json:"target"`
	IntervalSeconds int    `json:"interval_seconds"`
	TimeoutSeconds  int    `json:"timeout_seconds"`
}

// handlePingTasks lists all ping tasks for status pages.
func (s *Server) handlePingTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.ping.ListTasks(r.Context())
	if err != nil {
		s.writeDomainError(w, err)

		return
	}

	if tasks == nil {
		tasks = []*models.PingTask{}
	}

	s.writeJSON(w, http.StatusOK, tasks)
}

// handlePingRecords returns up to limit probe results for one task,
// newest-first.
func (s *Server) handlePingRecords(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["id"]

	limit := defaultRecentLimit

	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, errTypeBadRequest, "invalid limit")

			return
		}

		limit = parsed
	}

	records, err := s.ping.RecentRecords(r.Context(), taskID, limit)
	if err != nil {
		s.writeDomainError(w, err)

		return
	}

	if records == nil {
		records = []*models.PingRecord{}
	}

	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleAdminListPingTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.ping.ListTasks(r.Context())
	if err != nil {
		s.writeDomainError(w, err)

		return
	}

	if tasks == nil {
		tasks = []*models.PingTask{}
	}

	s.writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleAdminAddPingTask(w http.ResponseWriter, r *http.Request) {
	var req addPingTaskRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, errTypeBadRequest, "invalid request body")

		return
	}

	if req.Name == "" || req.Target == "" {
		s.writeError(w, http.StatusBadRequest, errTypeBadRequest, "name and target are required")

		return
	}

	task, err := s.ping.CreateTask(r.Context(), req.Name, req.Target, req.IntervalSeconds, req.TimeoutSeconds)
	if err != nil {
		s.writeDomainError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleAdminDeletePingTask(w http.ResponseWriter, r *http.Request) {
	if err := s.ping.DeleteTask(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeDomainError(w, err)

		return
	}

	s.writeJSON(w, http.StatusOK, okBody)
}
