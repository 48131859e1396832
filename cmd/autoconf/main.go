package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Gibrhan/Autoconf/internal/audit"
	"github.com/Gibrhan/Autoconf/internal/auth"
	"github.com/Gibrhan/Autoconf/internal/config"
	"github.com/Gibrhan/Autoconf/internal/fleet"
	"github.com/Gibrhan/Autoconf/internal/graph"
	"github.com/Gibrhan/Autoconf/internal/inventory"
	"github.com/Gibrhan/Autoconf/internal/maintenance"
	"github.com/Gibrhan/Autoconf/internal/monitoring"
	"github.com/Gibrhan/Autoconf/internal/probe"
	"github.com/Gibrhan/Autoconf/internal/security"
	"github.com/Gibrhan/Autoconf/internal/server"
	"github.com/Gibrhan/Autoconf/internal/store"
	"github.com/Gibrhan/Autoconf/internal/transport"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Autoconf server starting")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	// Inventory, transport, and prober.
	inv := inventory.NewFileStore(cfg.GetString("inventory.path"), logger)
	tc := transport.NewClient(
		cfg.GetDuration("transport.dial_timeout"),
		cfg.GetDuration("transport.command_timeout"),
		logger,
	)

	var prober probe.Prober
	switch mode := cfg.GetString("probe.mode"); mode {
	case "icmp":
		prober = probe.NewICMPProber(cfg.GetInt("probe.count"), cfg.GetDuration("probe.timeout"))
	default:
		prober = probe.NewSystemProber(cfg.GetInt("probe.count"), cfg.GetDuration("probe.timeout"), logger)
	}

	// Audit log.
	db, err := store.New(cfg.GetString("audit.path"))
	if err != nil {
		logger.Fatal("failed to open audit store", zap.Error(err))
	}
	defer db.Close()

	recorder, err := audit.NewRecorder(db, logger)
	if err != nil {
		logger.Fatal("failed to initialize audit recorder", zap.Error(err))
	}

	// Authentication.
	provider := auth.NewStaticProvider(cfg)
	sessions := auth.NewSessionStore()

	// Route groups.
	graphModule, err := graph.NewModule(inv, tc, logger)
	if err != nil {
		logger.Fatal("failed to build graphql module", zap.Error(err))
	}

	var routes []server.Route
	routes = append(routes, auth.NewModule(provider, sessions, logger).Routes()...)
	routes = append(routes, fleet.NewModule(inv, prober, sessions, logger).Routes()...)
	routes = append(routes, monitoring.NewModule(inv, tc, sessions, logger).Routes()...)
	routes = append(routes, maintenance.NewModule(inv, tc, sessions, recorder, cfg.GetString("backup.dir"), logger).Routes()...)
	routes = append(routes, security.NewModule(inv, tc, sessions, recorder, logger).Routes()...)
	routes = append(routes, graphModule.Routes()...)

	addr := fmt.Sprintf("%s:%d", cfg.GetString("server.host"), cfg.GetInt("server.port"))
	srv := server.New(addr, routes, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("Autoconf server ready",
		zap.String("addr", addr),
		zap.Int("devices", len(inv.Load())),
		zap.String("probe_mode", cfg.GetString("probe.mode")),
	)

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	logger.Info("Autoconf server stopped")
}
