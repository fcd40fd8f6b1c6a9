package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mhaikal/finfit-advisor-go/internal/catalog"
	"github.com/mhaikal/finfit-advisor-go/internal/config"
	"github.com/mhaikal/finfit-advisor-go/internal/domain"
	"github.com/mhaikal/finfit-advisor-go/internal/handler"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/cache"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/client"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/observability"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/resilience"
	"github.com/mhaikal/finfit-advisor-go/internal/infra/state"
	"github.com/mhaikal/finfit-advisor-go/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("doc_ai_url", cfg.DocAIURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("ai_call_timeout", cfg.AICallTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("max_concurrency", cfg.MaxConcurrency),
		zap.String("snapshot_path", cfg.SnapshotPath),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "finfit-advisor")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Catalog ---
	cat := catalog.New()
	logger.Info("product catalog loaded", zap.Int("products", len(cat.Products())))

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("doc-ai")
	bulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	docAI := client.NewDocAI(httpClient, cfg.DocAIURL, cfg.DocAIAPIKey, cb, resilienceCfg, cfg.AICallTimeout)

	// --- Session snapshot store ---
	store := state.NewFile(cfg.SnapshotPath)

	// --- Services ---
	analyzer := service.NewAnalyzer(docAI, docAI, docAI, cat, store, bulkhead, metrics, logger)

	productCache := cache.New[*domain.Product](cfg.CacheTTL)
	designer := service.NewDesigner(docAI, productCache, metrics, logger)

	// --- Router ---
	router := handler.NewRouter(analyzer, designer, cat, metrics, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-done
	logger.Info("server stopping")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	logger.Info("server stopped")
}
