// Command server runs the verification and reward issuance engine: proof
// verification against the deployment policy, at-most-once identity binding,
// and exactly-once dual-ledger award issuance behind role-gated endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"vibegate/internal/audit"
	"vibegate/internal/ledger"
	"vibegate/internal/ledger/badge"
	"vibegate/internal/ledger/token"
	"vibegate/internal/platform/config"
	"vibegate/internal/platform/httpserver"
	"vibegate/internal/platform/logger"
	"vibegate/internal/platform/metrics"
	"vibegate/internal/platform/redis"
	"vibegate/internal/policy"
	"vibegate/internal/registry"
	registrystore "vibegate/internal/registry/store"
	"vibegate/internal/rewards"
	rewardstore "vibegate/internal/rewards/store"
	httptransport "vibegate/internal/transport/http"
	"vibegate/internal/verifier"
	"vibegate/internal/verifier/hub"
)

const (
	ledgerOwner     = "vibegate-owner"
	ledgerAuthority = "reward-engine"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	// Policy errors are fatal: a half-configured policy must never serve.
	policyCfg, err := config.PolicyFromEnv()
	if err != nil {
		return fmt.Errorf("load policy: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// --- backing services ---

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var pool *pgxpool.Pool
	if cfg.PostgresURL != "" {
		pool, err = pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping: %w", err)
		}
	}

	var auditStore audit.Store
	if len(cfg.KafkaBrokers) > 0 {
		kafkaStore, err := audit.NewKafkaStore(cfg.KafkaBrokers, cfg.KafkaAuditTopic)
		if err != nil {
			return fmt.Errorf("connect kafka audit sink: %w", err)
		}
		defer kafkaStore.Close()
		auditStore = kafkaStore
		log.Info("audit sink: kafka", "topic", cfg.KafkaAuditTopic)
	} else {
		auditStore = audit.NewInMemoryStore()
		log.Info("audit sink: in-memory")
	}
	// Fail-open events drain through the worker; fail-closed issuance events
	// bypass the inbox and append synchronously.
	auditInbox := make(chan audit.Event, 256)
	auditor := audit.NewPublisher(auditStore, audit.WithInbox(auditInbox))
	auditWorker := audit.NewWorker(auditStore, auditInbox, audit.WithWorkerLogger(log))

	// --- verification pipeline ---

	if cfg.VerifyingKeyPath == "" {
		return fmt.Errorf("GROTH16_VK_PATH is required")
	}
	proofHub, err := hub.NewGroth16FromFile(cfg.VerifyingKeyPath)
	if err != nil {
		return fmt.Errorf("load verifying key: %w", err)
	}

	verifierSvc, err := verifier.New(policyCfg, proofHub, verifier.WithLogger(log))
	if err != nil {
		return fmt.Errorf("build verifier: %w", err)
	}

	var identityStore registry.Store
	switch {
	case pool != nil:
		identityStore = registrystore.NewPostgresStore(pool)
		log.Info("identity store: postgres")
	case redisClient != nil:
		identityStore = registrystore.NewRedisStore(redisClient.Client)
		log.Info("identity store: redis")
	default:
		identityStore = registrystore.NewInMemoryStore()
		log.Info("identity store: in-memory")
	}

	registrySvc, err := registry.New(identityStore,
		registry.WithLogger(log),
		registry.WithAuditPublisher(auditor),
		registry.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	// --- ledgers and reward engine ---

	tokenLedger := token.NewLedger(ledgerOwner)
	badgeRegistry := badge.NewRegistry(ledgerOwner)
	manager := ledger.NewManager(ledgerOwner, tokenLedger, badgeRegistry)

	// One-time authority setup. A failure here aborts the deployment rather
	// than leaving the engine without its minting capabilities.
	if err := manager.Bootstrap(ledgerAuthority); err != nil {
		return fmt.Errorf("bootstrap ledger authority: %w", err)
	}
	if err := auditor.Emit(ctx, audit.Event{
		Action: audit.EventAuthorityConfigured,
		Reason: ledgerAuthority,
	}); err != nil {
		return fmt.Errorf("record authority setup: %w", err)
	}

	amountStore := rewardstore.NewInMemoryAmountStore(policy.DefaultAwardAmounts())

	var issuanceStore rewards.IssuanceStore
	if pool != nil {
		issuanceStore = rewardstore.NewPostgresIssuanceStore(pool)
	} else {
		issuanceStore = rewardstore.NewInMemoryIssuanceStore()
	}

	rewardSvc, err := rewards.New(registrySvc, amountStore, issuanceStore, manager, manager,
		rewards.WithLogger(log),
		rewards.WithAuditPublisher(auditor),
		rewards.WithMetrics(m),
	)
	if err != nil {
		return fmt.Errorf("build reward engine: %w", err)
	}

	// --- transport ---

	handler := httptransport.NewHandler(verifierSvc, registrySvc, rewardSvc, manager, auditor, log, m)
	router := httptransport.NewRouter(handler, []byte(cfg.JWTSigningKey))
	server := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return auditWorker.Run(groupCtx)
	})

	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("server stopped")
	return nil
}
