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

	"github.com/kailas-cloud/creatormatch/internal/config"
	dbRedis "github.com/kailas-cloud/creatormatch/internal/db/redis"
	"github.com/kailas-cloud/creatormatch/internal/domain"
	logpkg "github.com/kailas-cloud/creatormatch/internal/logger"
	"github.com/kailas-cloud/creatormatch/internal/metrics"
	"github.com/kailas-cloud/creatormatch/internal/repository/catalog"
	"github.com/kailas-cloud/creatormatch/internal/repository/persistence"
	"github.com/kailas-cloud/creatormatch/internal/repository/vectorindex"
	"github.com/kailas-cloud/creatormatch/internal/resilience"
	chiTransport "github.com/kailas-cloud/creatormatch/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/creatormatch/internal/transport/openai"
	healthuc "github.com/kailas-cloud/creatormatch/internal/usecase/health"
	matchuc "github.com/kailas-cloud/creatormatch/internal/usecase/match"
	"github.com/kailas-cloud/creatormatch/internal/usecase/scoring"
	"github.com/kailas-cloud/creatormatch/internal/version"
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

	logger.Info("Starting creatormatch API server",
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
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterResilienceMetrics()
	metrics.RegisterMatchMetrics()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	completer := openaiTransport.NewCompleter(&openaiTransport.CompleterConfig{
		APIKey:   cfg.Completion.APIKey,
		BaseURL:  cfg.Completion.BaseURL,
		Model:    cfg.Completion.Model,
		Provider: cfg.Completion.Provider,
		Logger:   logger,
	})

	vecAdapter := vectorindex.New(store, vectorindex.Config{
		IndexName:       cfg.Vector.IndexName,
		Dimension:       cfg.Vector.Dimension,
		KeyPrefix:       cfg.Vector.KeyPrefix,
		HNSWM:           cfg.Vector.HNSWM,
		HNSWEFConstruct: cfg.Vector.HNSWEFConstruct,
	})
	if err := vecAdapter.EnsureIndex(ctx); err != nil {
		logger.Fatal("Failed to ensure vector index", zap.Error(err))
	}

	var catalogSource catalog.Source
	switch cfg.Catalog.SourceKind {
	case "static-file":
		catalogSource = catalog.NewStaticFileSource(cfg.Catalog.StaticPath)
	default:
		catalogSource = catalog.NewRedisJSONSource(store, cfg.Catalog.KeyPrefix)
	}
	catalogCache := catalog.NewCache(catalogSource, time.Duration(cfg.Catalog.RefreshTTLMs)*time.Millisecond, logger)
	if err := catalogCache.Load(ctx); err != nil {
		logger.Fatal("Failed to load creator catalog", zap.Error(err))
	}
	logger.Info("Creator catalog loaded")

	persistClient := persistence.New(persistence.Config{
		BaseURL:    cfg.Persist.BaseURL,
		DeadlineMs: cfg.Persist.DeadlineMs,
	})
	// Pass nil interface (not typed nil pointer): persistClient is nil when BaseURL
	// is unset, and a typed-nil *persistence.Client wrapped in an interface is != nil.
	var persistHook matchuc.PersistenceHook
	if persistClient != nil {
		persistHook = persistClient
	}

	breakerCfg := resilience.BreakerConfig{
		FailureThreshold: cfg.Resilience.BreakerFailureThreshold,
		ResetTimeout:     time.Duration(cfg.Resilience.BreakerResetMs) * time.Millisecond,
	}
	retryCfg := resilience.RetryConfig{
		MaxAttempts: cfg.Resilience.RetryMaxAttempts,
		BaseDelay:   time.Duration(cfg.Resilience.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.Resilience.RetryMaxDelayMs) * time.Millisecond,
	}
	embedGuard := resilience.NewGuard("embedding", breakerCfg, retryCfg)
	vectorGuard := resilience.NewGuard("vector-index", breakerCfg, retryCfg)
	completionGuard := resilience.NewGuard("completion", breakerCfg, retryCfg)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(embedder))
	healthSvc.RegisterDependency("embedding", true, embedGuard.Breaker())
	healthSvc.RegisterDependency("vector-index", true, vectorGuard.Breaker())
	healthSvc.RegisterDependency("completion", false, completionGuard.Breaker())
	embedGuard.SetOutcomeRecorder(healthSvc)
	vectorGuard.SetOutcomeRecorder(healthSvc)
	completionGuard.SetOutcomeRecorder(healthSvc)

	matchSvc := matchuc.New(
		embedder,
		vectorIndexAdapter{vecAdapter},
		catalogCache,
		completer,
		persistHook,
		embedGuard, vectorGuard, completionGuard,
		healthSvc,
		matchuc.Config{
			TopK:          cfg.Match.TopK,
			ScoringFanout: cfg.Match.ScoringFanout,
			Weights: scoring.Weights{
				Semantic: cfg.Match.WeightSemantic,
				Niche:    cfg.Match.WeightNiche,
				Audience: cfg.Match.WeightAudience,
				Value:    cfg.Match.WeightValue,
			},
		},
	)

	server := chiTransport.NewServer(matchSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())

	r.Post("/matches", server.Matches)
	r.Get("/health", server.Health)
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
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// vectorIndexAdapter narrows vectorindex.Adapter's QueryResult-returning Query to
// the match.VectorIndex contract.
type vectorIndexAdapter struct {
	adapter *vectorindex.Adapter
}

func (v vectorIndexAdapter) Query(ctx context.Context, vector []float32, topK int, filters map[string]string) ([]matchuc.VectorHit, error) {
	results, err := v.adapter.Query(ctx, vector, topK, filters)
	if err != nil {
		return nil, err
	}
	hits := make([]matchuc.VectorHit, len(results))
	for i, r := range results {
		hits[i] = matchuc.VectorHit{ID: r.ID, Score: r.Score}
	}
	return hits, nil
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
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

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
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
