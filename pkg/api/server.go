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

// Package api provides the HTTP and websocket boundary of the vigil server:
// agent registration and report ingestion, the dashboard query surface, the
// live event feed, and the admin API.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vigilmon/vigil/pkg/identity"
	"github.com/vigilmon/vigil/pkg/logger"
	"github.com/vigilmon/vigil/pkg/models"
	"github.com/vigilmon/vigil/pkg/ping"
	"github.com/vigilmon/vigil/pkg/telemetry"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server is the API server. It only reads engine state or invokes engine
// operations; all telemetry semantics live in pkg/telemetry.
type Server struct {
	config     *models.ServerConfig
	router     *mux.Router
	identity   *identity.Store
	engine     *telemetry.Engine
	hub        *telemetry.Hub
	ping       *ping.Manager
	sessions   *SessionManager
	httpServer *http.Server
	logger     logger.Logger
}

// NewServer wires the API server against the identity store, engine, and
// broadcast hub.
func NewServer(
	config *models.ServerConfig,
	identityStore *identity.Store,
	engine *telemetry.Engine,
	hub *telemetry.Hub,
	pingManager *ping.Manager,
	log logger.Logger,
) *Server {
	s := &Server{
		config:   config,
		router:   mux.NewRouter(),
		identity: identityStore,
		engine:   engine,
		hub:      hub,
		ping:     pingManager,
		sessions: NewSessionManager(log),
		logger:   log,
	}

	s.setupRoutes()

	return s
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Sessions exposes the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

func (s *Server) setupRoutes() {
	s.router.Use(s.commonMiddleware)

	// Agent API. Registration is the only unauthenticated agent call; it
	// must be registered before the authenticated subrouter so it is not
	// swallowed by the prefix match.
	s.router.HandleFunc("/api/agent/register", s.handleRegister).Methods(http.MethodPost)

	agentAuth := s.router.PathPrefix("/api/agent").Subrouter()
	agentAuth.Use(s.agentAuthMiddleware)
	agentAuth.HandleFunc("/info", s.handleUploadInfo).Methods(http.MethodPost)
	agentAuth.HandleFunc("/report", s.handleUploadReport).Methods(http.MethodPost)
	agentAuth.HandleFunc("/ws", s.handleAgentWS).Methods(http.MethodGet)

	// Dashboard query surface.
	s.router.HandleFunc("/api/clients", s.handleClients).Methods(http.MethodGet)
	s.router.HandleFunc("/api/nodes", s.handleNodes).Methods(http.MethodGet)
	s.router.HandleFunc("/api/recent/{id}", s.handleRecent).Methods(http.MethodGet)
	s.router.HandleFunc("/api/ws", s.handleDashboardWS).Methods(http.MethodGet)
	s.router.HandleFunc("/api/ping", s.handlePingTasks).Methods(http.MethodGet)
	s.router.HandleFunc("/api/ping/{id}/records", s.handlePingRecords).Methods(http.MethodGet)

	// Admin API, guarded by the configured API key.
	admin := s.router.PathPrefix("/api/admin").Subrouter()
	admin.Use(s.apiKeyMiddleware)
	admin.HandleFunc("/clients", s.handleAdminListClients).Methods(http.MethodGet)
	admin.HandleFunc("/clients", s.handleAdminCreateClient).Methods(http.MethodPost)
	admin.HandleFunc("/clients/{id}", s.handleAdminGetClient).Methods(http.MethodGet)
	admin.HandleFunc("/clients/{id}", s.handleAdminRenameClient).Methods(http.MethodPost)
	admin.HandleFunc("/clients/{id}", s.handleAdminDeleteClient).Methods(http.MethodDelete)
	admin.HandleFunc("/clients/{id}/token", s.handleAdminClientToken).Methods(http.MethodGet)
	admin.HandleFunc("/ping", s.handleAdminListPingTasks).Methods(http.MethodGet)
	admin.HandleFunc("/ping", s.handleAdminAddPingTask).Methods(http.MethodPost)
	admin.HandleFunc("/ping/{id}", s.handleAdminDeletePingTask).Methods(http.MethodDelete)
}

// Start serves HTTP until the context is canceled, then drains with a
// shutdown grace period.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.ListenAddr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.config.ListenAddr).Msg("API server listening")

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}
