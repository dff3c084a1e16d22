// Package main runs the HTTP API for the transfer tax engine. Stores come
// from the environment: set POSTGRES_DSN and CLICKHOUSE_DSN for persistence,
// leave them empty for in-memory stores.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"transfer-tax-lab/internal/advisor"
	"transfer-tax-lab/internal/config"
	"transfer-tax-lab/internal/explain"
	"transfer-tax-lab/internal/rules"
	"transfer-tax-lab/internal/server"
	"transfer-tax-lab/internal/storage"
	"transfer-tax-lab/internal/storage/clickhouse"
	"transfer-tax-lab/internal/storage/memory"
	"transfer-tax-lab/internal/storage/migrations"
	"transfer-tax-lab/internal/storage/postgres"
)

func main() {
	addr := flag.String("addr", "", "Listen address (overrides HTTP_ADDR)")
	flag.Parse()

	cfg, err := config.LoadServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutdown signal received")
		cancel()
	}()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Server, log *zap.Logger) error {
	registry, err := buildRegistry(cfg.RuleFile)
	if err != nil {
		return fmt.Errorf("load rules: %w", err)
	}

	var explainer explain.Explainer = explain.Noop{}
	if cfg.GeminiAPIKey != "" {
		g, err := explain.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ExplainTimeout)
		if err != nil {
			return fmt.Errorf("create explainer: %w", err)
		}
		explainer = g
		log.Info("plain-language explainer enabled")
	}

	advisorOpts := advisor.Options{Registry: registry, Explainer: explainer}
	if cfg.LargeGainThreshold != "" {
		threshold, err := decimal.NewFromString(cfg.LargeGainThreshold)
		if err != nil {
			return fmt.Errorf("parse LARGE_GAIN_THRESHOLD: %w", err)
		}
		advisorOpts.LargeGainThreshold = threshold
	}
	analyzer, err := advisor.New(advisorOpts)
	if err != nil {
		return err
	}

	var (
		ledgers    storage.LedgerStore
		strategies storage.StrategyStore
		audit      storage.AuditStore
	)

	if cfg.PostgresDSN != "" {
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			return fmt.Errorf("run postgres migrations: %w", err)
		}
		ledgers = postgres.NewLedgerStore(pool)
		strategies = postgres.NewStrategyStore(pool)
		log.Info("postgres stores enabled")
	} else {
		ledgers = memory.NewLedgerStore()
		strategies = memory.NewStrategyStore()
		log.Info("using in-memory ledger and strategy stores")
	}

	if cfg.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		if err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		defer conn.Close()
		audit = clickhouse.NewAuditStore(conn)
		log.Info("clickhouse audit store enabled")
	} else {
		audit = memory.NewAuditStore()
		log.Info("using in-memory audit store")
	}

	srv := server.New(server.Options{
		Registry:      registry,
		Analyzer:      analyzer,
		LedgerStore:   ledgers,
		StrategyStore: strategies,
		AuditStore:    audit,
		Logger:        log,
	})

	httpSrv := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Addr))
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func buildRegistry(rulePath string) (*rules.Registry, error) {
	if rulePath == "" {
		return rules.DefaultRegistry()
	}
	data, err := os.ReadFile(rulePath)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	r := rules.NewRegistry()
	if err := rules.Load(r, data); err != nil {
		return nil, err
	}
	return r, nil
}
