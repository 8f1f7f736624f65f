// SPDX-License-Identifier: LGPL-3.0-or-later

// Command hashrand-server runs HashRand's HTTP API: magic-link login,
// session refresh, and the shared-secret engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hashrand-project/hashrand/httpapi"
	"github.com/hashrand-project/hashrand/internal/config"
	"github.com/hashrand-project/hashrand/internal/email"
	"github.com/hashrand-project/hashrand/internal/logger"
	"github.com/hashrand-project/hashrand/internal/metrics"
	"github.com/hashrand-project/hashrand/pkg/health"
	"github.com/hashrand-project/hashrand/secret"
	"github.com/hashrand-project/hashrand/session"
	"github.com/hashrand-project/hashrand/storage"
	"github.com/hashrand-project/hashrand/storage/memory"
	"github.com/hashrand-project/hashrand/storage/postgres"
)

const sweepInterval = 5 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 2
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting hashrand-server", logger.String("environment", cfg.Environment))

	store, err := openStore(cfg.Storage)
	if err != nil {
		log.Error("storage unavailable", logger.Error(err))
		return 3
	}
	defer store.Close()

	sessions := session.NewManager(store, session.Config{
		MagicTTL:   cfg.MagicTTL,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	defer sessions.Close()

	secretsEngine := secret.NewEngine(store, cfg.MasterKey)
	sweeper := secret.NewSweeper(secretsEngine, sweepInterval)
	defer sweeper.Close()

	mailer := buildMailer(cfg)

	srv := httpapi.NewServer(sessions, secretsEngine, store, mailer, log, cfg.MasterKey, cfg.UIHost)
	if !cfg.IsProduction() {
		srv.EnableDryRunToggle(cfg.EmailDryRun)
	}

	mux := http.NewServeMux()
	srv.Routes(mux)
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	checker := health.NewHealthChecker(5 * time.Second)
	checker.RegisterCheck("storage", health.DatabaseHealthCheck(store.Ping))
	if smtpSender, ok := mailer.(*email.SMTPSender); ok {
		checker.RegisterCheck("smtp", health.SMTPHealthCheck(smtpSender.Ping))
	}
	healthSrv := health.NewServer(checker, log, healthPort(cfg))
	if err := healthSrv.Start(); err != nil {
		log.Error("health server failed to start", logger.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("listening", logger.String("addr", cfg.ListenAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", logger.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", logger.Error(err))
		return 1
	}
	_ = healthSrv.Stop(shutdownCtx)

	return 0
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return memory.NewStore(), nil
	case "postgres":
		return postgres.NewStoreFromDSN(context.Background(), cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func buildMailer(cfg *config.Config) email.Sender {
	if cfg.EmailDryRun {
		return email.NewDryRunSender()
	}
	return email.NewSMTPSender(email.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	})
}

// healthPort derives the liveness/readiness server's port from the API
// port by convention (API port + 1), so a single LISTEN_ADDR configures
// both without a dedicated environment variable.
func healthPort(cfg *config.Config) int {
	_, portStr, err := net.SplitHostPort(cfg.ListenAddr)
	if err != nil {
		return 9091
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 9091
	}
	return port + 1
}
