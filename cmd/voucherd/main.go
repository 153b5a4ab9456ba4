package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hoanganh/voucherd/internal/config"
	"github.com/hoanganh/voucherd/internal/db"
	dbRedis "github.com/hoanganh/voucherd/internal/db/redis"
	"github.com/hoanganh/voucherd/internal/domain"
	"github.com/hoanganh/voucherd/internal/location"
	logpkg "github.com/hoanganh/voucherd/internal/logger"
	"github.com/hoanganh/voucherd/internal/metrics"
	"github.com/hoanganh/voucherd/internal/parser"
	"github.com/hoanganh/voucherd/internal/repository/embcache"
	"github.com/hoanganh/voucherd/internal/repository/voucher"
	chiTransport "github.com/hoanganh/voucherd/internal/transport/chi"
	openaitransport "github.com/hoanganh/voucherd/internal/transport/openai"
	"github.com/hoanganh/voucherd/internal/usecase/facade"
	"github.com/hoanganh/voucherd/internal/usecase/georank"
	"github.com/hoanganh/voucherd/internal/usecase/health"
	"github.com/hoanganh/voucherd/internal/usecase/rag"
	"github.com/hoanganh/voucherd/internal/usecase/retrieval"
	"github.com/hoanganh/voucherd/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting voucherd",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("database not ready", zap.Error(err))
	}
	logger.Info("connected to database")

	ensureVoucherIndex(ctx, store, logger)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterGeneratorMetrics()

	// Ingestion (raw data cleaning, embedding computation) is an external
	// collaborator per spec: writes arrive with vectors already populated.
	// The service only needs a query-time embedder for retrieval.
	queryEmbedder := buildEmbedder(cfg, cfg.Embedding.QueryInstruction, store, logger)
	logger.Info("query embedder created",
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	generator := openaitransport.NewGenerator(&openaitransport.GeneratorConfig{
		APIKey:      cfg.Generator.APIKey,
		BaseURL:     cfg.Generator.BaseURL,
		Model:       cfg.Generator.Model,
		Temperature: float32(cfg.Generator.Temperature),
		Provider:    "openai",
		Logger:      logger,
	})

	registry := location.New()
	voucherRepo := voucher.New(store)

	retrievalEngine := retrieval.New(voucherRepo, queryEmbedder, retrieval.Config{
		LexicalSaturation:   cfg.Search.LexicalSaturation,
		OverFetchMultiplier: cfg.Search.OverFetchMultiplier,
		HardCap:             cfg.Search.HardCap,
		LocationDelta:       cfg.Search.QueryTimeDeltas.Location,
		ServiceDelta:        cfg.Search.QueryTimeDeltas.Service,
		TargetDelta:         cfg.Search.QueryTimeDeltas.Target,
	})
	ranker := georank.New(registry)
	composer := rag.New(generator, cfg.RAG.MaxContextTokens)
	queryParser := parser.New(registry)

	searchFacade := facade.New(queryParser, retrievalEngine, ranker, composer, facade.Config{
		RAGConcurrencyLimit: cfg.RAG.ConcurrencyLimit,
		EmbeddingDimension:  cfg.Search.EmbeddingDimension,
	})

	healthSvc := health.New(store, embeddingHealthChecker{queryEmbedder})

	server := chiTransport.NewServer(searchFacade, voucherRepo, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())

	r.Post("/v1/search", server.Search)
	r.Put("/v1/vouchers/{id}", func(w http.ResponseWriter, req *http.Request) {
		server.UpsertVoucher(w, req, chi.URLParam(req, "id"))
	})
	r.Get("/v1/vouchers/{id}", func(w http.ResponseWriter, req *http.Request) {
		server.GetVoucher(w, req, chi.URLParam(req, "id"))
	})
	r.Delete("/v1/vouchers/{id}", func(w http.ResponseWriter, req *http.Request) {
		server.DeleteVoucher(w, req, chi.URLParam(req, "id"))
	})
	r.Get("/healthz", server.Healthz)
	r.Get("/metrics", server.Metrics)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}

	logger.Info("server stopped gracefully")
}

// embeddingHealthChecker adapts a domain.Embedder to health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func (h embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// ensureVoucherIndex creates the FT index over voucher documents if absent.
func ensureVoucherIndex(ctx context.Context, store db.Store, logger *zap.Logger) {
	exists, err := store.IndexExists(ctx, voucher.IndexName)
	if err != nil {
		logger.Fatal("failed to check voucher index", zap.Error(err))
	}
	if exists {
		return
	}
	if err := store.CreateIndex(ctx, voucher.Definition()); err != nil {
		logger.Fatal("failed to create voucher index", zap.Error(err))
	}
	logger.Info("created voucher index", zap.String("index", voucher.IndexName))
}

// buildEmbedder assembles the decorator chain: OpenAI -> Cached -> Instruction.
func buildEmbedder(cfg config.Config, instruction string, store db.Store, logger *zap.Logger) domain.Embedder {
	base := openaitransport.NewEmbedder(&openaitransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   "openai",
		Logger:     logger,
	})

	var embedder domain.Embedder = embcache.New(base, store, metrics.EmbeddingCacheTotal, logger)

	if instruction != "" {
		return domain.NewInstructionEmbedder(embedder, instruction)
	}
	return embedder
}

func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered", zap.Any("panic", rvr), zap.Stack("stacktrace"))
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
