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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/vigilmon/vigil/pkg/api"
	"github.com/vigilmon/vigil/pkg/config"
	"github.com/vigilmon/vigil/pkg/db"
	"github.com/vigilmon/vigil/pkg/identity"
	"github.com/vigilmon/vigil/pkg/logger"
	"github.com/vigilmon/vigil/pkg/ping"
	"github.com/vigilmon/vigil/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/vigil/server.json", "Path to server config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logCfg := cfg.Logging
	if logCfg == nil {
		logCfg = logger.DefaultConfig()
	}

	rootLog, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	rootLog.Info().Str("config", *configPath).Msg("Starting vigil server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	rootLog.Info().Str("path", cfg.DBPath).Msg("Database opened")

	identityStore, err := identity.NewStore(ctx, database, rootLog.WithComponent("identity"))
	if err != nil {
		return err
	}

	status := telemetry.NewStatusTable()
	history := telemetry.NewHistory(cfg.HistorySize)
	hub := telemetry.NewHub(cfg.SubscriberQueue, rootLog.WithComponent("hub"))
	engine := telemetry.NewEngine(status, history, hub, rootLog.WithComponent("engine"))

	watchdog := telemetry.NewWatchdog(
		status,
		hub,
		time.Duration(cfg.SweepInterval),
		time.Duration(cfg.StalenessTimeout),
		rootLog.WithComponent("watchdog"),
	)
	go watchdog.Run(ctx)

	pingManager := ping.NewManager(database, rootLog.WithComponent("ping"))
	prober := ping.NewProber(database, rootLog.WithComponent("prober"))
	go prober.Run(ctx)

	server := api.NewServer(cfg, identityStore, engine, hub, pingManager, rootLog.WithComponent("api"))

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	rootLog.Info().Msg("Server stopped")

	return nil
}
