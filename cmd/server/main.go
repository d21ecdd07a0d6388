package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"certmint/internal/audit"
	"certmint/internal/authenticity"
	"certmint/internal/contentstore"
	"certmint/internal/issuance"
	issuancehandler "certmint/internal/issuance/handler"
	"certmint/internal/ledger"
	"certmint/internal/platform/config"
	"certmint/internal/platform/health"
	"certmint/internal/platform/logger"
	"certmint/internal/platform/metrics"
	"certmint/internal/platform/middleware"
	"certmint/internal/registry"
	registryhandler "certmint/internal/registry/handler"
	httptransport "certmint/internal/transport/http"
	"certmint/internal/verification"
	"certmint/internal/verification/tracer"
	id "certmint/pkg/domain"
)

// tokenTTL bounds caller bearer tokens.
const tokenTTL = time.Hour

// main wires high-level dependencies, exposes the HTTP router, and keeps
// the server lifecycle small. Business logic lives in internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	log.Info("initializing certmint",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"ledger_url", cfg.LedgerURL,
		"gateway_url", cfg.GatewayURL,
		"full_audit", cfg.FullAudit,
	)

	m := metrics.New()
	tokens := middleware.NewTokenService(cfg.JWTSigningKey, tokenTTL)

	ledgerClient := ledger.NewClient(cfg.LedgerURL, cfg.LedgerToken)

	auditStore := audit.NewInMemoryStore()
	publisher := audit.NewPublisher(auditStore,
		audit.WithAsyncBuffer(256),
		audit.WithPublisherLogger(log),
	)
	defer publisher.Close()

	reg := registry.NewService(registry.NewLedgerStore(ledgerClient),
		registry.WithLogger(log),
		registry.WithMetrics(m),
		registry.WithAuditPublisher(publisher),
	)
	if cfg.AdminAddress != "" {
		admin, err := id.ParseAddress(cfg.AdminAddress)
		if err != nil {
			log.Error("invalid ADMIN_ADDRESS", "error", err)
			os.Exit(1)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := reg.Bootstrap(ctx, admin); err != nil {
			log.Error("failed to bootstrap registry admin", "error", err)
			cancel()
			os.Exit(1)
		}
		cancel()
	}

	var checker authenticity.Checker
	if cfg.OracleURL != "" {
		checker = authenticity.NewOracle(cfg.OracleURL)
		log.Info("using remote authenticity oracle", "oracle_url", cfg.OracleURL)
	} else {
		checker = authenticity.NewChecklistChecker(authenticity.Config{Threshold: cfg.AuthenticityThreshold})
	}

	content := contentstore.NewGatewayVerifier(cfg.GatewayURL,
		contentstore.WithLogger(log),
		contentstore.WithMetrics(m),
	)

	orch := verification.NewOrchestrator(reg, checker, content,
		verification.WithLogger(log),
		verification.WithMetrics(m),
		verification.WithAuditPublisher(publisher),
		verification.WithTracer(tracer.NewOTel()),
		verification.WithFullAudit(cfg.FullAudit),
		verification.WithTimeout(cfg.VerifyTimeout),
	)

	exec := issuance.NewExecutor(
		issuance.NewLedgerCredentialStore(ledgerClient),
		ledgerClient,
		issuance.NewInMemoryReconciliationStore(),
		reg,
		issuance.WithLogger(log),
		issuance.WithMetrics(m),
		issuance.WithAuditPublisher(publisher),
	)

	healthHandler := health.New(cfg.Environment)
	healthHandler.RegisterCheck("ledger", ledgerClient.Health)
	healthHandler.RegisterCheck("content_gateway", content.Health)

	router := httptransport.NewRouter(httptransport.Deps{
		Logger:   log,
		Metrics:  m,
		Tokens:   tokens,
		Health:   healthHandler,
		Registry: registryhandler.New(reg, log),
		Issuance: issuancehandler.New(orch, exec, publisher, log),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("starting http server", "addr", cfg.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
