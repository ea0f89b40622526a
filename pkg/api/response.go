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
	"errors"
	"net/http"

	"github.com/vigilmon/vigil/pkg/db"
	"github.com/vigilmon/vigil/pkg/identity"
	"github.com/vigilmon/vigil/pkg/models"
	"github.com/vigilmon/vigil/pkg/telemetry"
)

// Error type identifiers returned in the JSON error body.
const (
	errTypeUnauthorized = "UNAUTHORIZED"
	errTypeBadRequest   = "BAD_REQUEST"
	errTypeNotFound     = "NOT_FOUND"
	errTypeInternal     = "INTERNAL_ERROR"
)

type statusBody struct {
	Status string `json:"status"`
}

var okBody = statusBody{Status: "ok"}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, errType, message string) {
	s.writeJSON(w, status, models.ErrorResponse{Error: errType, Message: message})
}

// writeDomainError maps engine and identity errors onto the HTTP taxonomy:
// 401 for token failures, 400 for validation failures, 404 for unknown
// agents, 500 for everything unexpected.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *telemetry.ValidationError

	switch {
	case errors.Is(err, identity.ErrUnauthorized):
		s.writeError(w, http.StatusUnauthorized, errTypeUnauthorized, "invalid or revoked token")
	case errors.As(err, &validationErr):
		s.writeError(w, http.StatusBadRequest, errTypeBadRequest, validationErr.Error())
	case errors.Is(err, identity.ErrAgentNotFound):
		s.writeError(w, http.StatusNotFound, errTypeNotFound, "agent not found")
	case errors.Is(err, db.ErrPingTaskNotFound):
		s.writeError(w, http.StatusNotFound, errTypeNotFound, "ping task not found")
	default:
		s.logger.Error().Err(err).Msg("Internal error")
		s.writeError(w, http.StatusInternalServerError, errTypeInternal, "internal server error")
	}
}
