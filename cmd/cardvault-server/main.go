package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jlrojas/cardvault/internal/cardvault/secure"
	"github.com/jlrojas/cardvault/internal/cardvault/service"
	"github.com/jlrojas/cardvault/internal/cardvault/store/memory"
	"github.com/jlrojas/cardvault/internal/cardvault/store/sqlite"
	"github.com/jlrojas/cardvault/internal/config"
	"github.com/jlrojas/cardvault/internal/db"
	"github.com/jlrojas/cardvault/internal/httpapi"
)

// devSigningKey is only ever used when CARDVAULT_ENV=dev and no key is
// configured. The server refuses to start in prod without a real key.
const devSigningKey = "cardvault-dev-signing-key-not-for-production"

func main() {
	cfg := config.FromEnv()

	var logger *zap.Logger
	var err error
	if cfg.Env == "prod" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	if cfg.Env == "dev" {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{UserCards: cfg.UserCards}); err != nil {
			logger.Fatal("seed dev data", zap.Error(err))
		}
	}

	writer := db.NewWorker(conn)
	defer writer.Close()

	// Stores
	auditStore := sqlite.NewAuditStore(conn, writer)
	ownershipStore := sqlite.NewOwnershipStore(conn)
	payloadStore := memory.NewPayloadStore(memory.DemoPayloads())

	// Capabilities
	signingKey := cfg.SigningKey
	if signingKey == "" {
		if cfg.Env == "prod" {
			logger.Fatal("CARDVAULT_SIGNING_KEY is required in prod")
		}
		logger.Warn("using built-in dev signing key")
		signingKey = devSigningKey
	}
	signer, err := secure.NewHMACSigner([]byte(signingKey), cfg.TokenTTL)
	if err != nil {
		logger.Fatal("build signer", zap.Error(err))
	}
	viewer := secure.NewDevViewer(logger)

	// Services
	registry := service.NewOwnershipRegistry(ownershipStore, logger)
	issuer := service.NewTokenIssuer(registry, signer, auditStore, logger)
	bridge := service.NewSecureViewBridge(payloadStore, signer, viewer, auditStore, logger)

	viewConfig := secure.DefaultViewConfig()
	if cfg.ViewTimeout > 0 {
		viewConfig.Timeout = cfg.ViewTimeout
	}
	bridge.SetViewConfig(viewConfig)

	orchestrator := service.NewAccessOrchestrator(cfg.UserID, issuer, bridge, logger)

	pruner := service.NewAuditPruner(auditStore, service.AuditPrunerConfig{
		RetentionDays: cfg.AuditRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	// HTTP
	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:       logger,
		Addr:         cfg.HTTPAddr,
		Orchestrator: orchestrator,
		Bridge:       bridge,
		Audit:        auditStore,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.Start(); err != nil {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
