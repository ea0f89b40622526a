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
	"crypto/subtle"
	"net/http"
	"strings"
)

type contextKey string

const agentIDKey contextKey = "agent_id"

// commonMiddleware logs requests and applies CORS headers.
func (s *Server) commonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug().
			Str("remote_addr", r.RemoteAddr).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request")

		// The header carries a single origin or "*", so with an allowlist
		// configured the matching request origin is echoed back.
		if origin := s.allowedOrigin(r); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)

			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		w.Header().Set("Access-Control-Max-Age", "3600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)

			return
		}

		next.ServeHTTP(w, r)
	})
}

// allowedOrigin resolves the Access-Control-Allow-Origin value for the
// request: "*" when no allowlist is configured or the allowlist contains
// "*", the request's own origin when it is allowlisted, empty otherwise.
func (s *Server) allowedOrigin(r *http.Request) string {
	if len(s.config.CORSOrigins) == 0 {
		return "*"
	}

	requestOrigin := r.Header.Get("Origin")

	for _, allowed := range s.config.CORSOrigins {
		if allowed == "*" {
			return "*"
		}

		if requestOrigin != "" && allowed == requestOrigin {
			return requestOrigin
		}
	}

	return ""
}

// agentAuthMiddleware authenticates the Bearer token and stores the resolved
// agent id in the request context. Validation and authentication failures
// are rejected here, before any engine state can be touched.
func (s *Server) agentAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)

		agentID, err := s.identity.Authenticate(token)
		if err != nil {
			s.writeError(w, http.StatusUnauthorized, errTypeUnauthorized, "invalid or revoked token")

			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), agentIDKey, agentID)))
	})
}

// apiKeyMiddleware guards the admin routes. Admin routes are disabled
// entirely when no key is configured.
func (s *Server) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		configured := s.config.AdminAPIKey
		if configured == "" {
			s.writeError(w, http.StatusUnauthorized, errTypeUnauthorized, "admin API disabled")

			return
		}

		requestKey := r.Header.Get("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(requestKey), []byte(configured)) != 1 {
			s.logger.Warn().
				Str("remote_addr", r.RemoteAddr).
				Str("path", r.URL.Path).
				Msg("Unauthorized admin access attempt")
			s.writeError(w, http.StatusUnauthorized, errTypeUnauthorized, "invalid API key")

			return
		}

		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}

	return ""
}

func agentIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(agentIDKey).(string)

	return id
}
