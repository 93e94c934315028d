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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vecmatch/internal/config"
	"github.com/kailas-cloud/vecmatch/internal/db"
	dbMemory "github.com/kailas-cloud/vecmatch/internal/db/memory"
	dbMilvus "github.com/kailas-cloud/vecmatch/internal/db/milvus"
	dbQdrant "github.com/kailas-cloud/vecmatch/internal/db/qdrant"
	dbRedis "github.com/kailas-cloud/vecmatch/internal/db/redis"
	domcol "github.com/kailas-cloud/vecmatch/internal/domain/collection"
	"github.com/kailas-cloud/vecmatch/internal/domain/entity"
	logpkg "github.com/kailas-cloud/vecmatch/internal/logger"
	"github.com/kailas-cloud/vecmatch/internal/metrics"
	chiTransport "github.com/kailas-cloud/vecmatch/internal/transport/chi"
	"github.com/kailas-cloud/vecmatch/internal/transport/vectorstore"
	"github.com/kailas-cloud/vecmatch/internal/version"
	assembleruc "github.com/kailas-cloud/vecmatch/internal/usecase/assembler"
	encoderuc "github.com/kailas-cloud/vecmatch/internal/usecase/encoder"
	gatewayuc "github.com/kailas-cloud/vecmatch/internal/usecase/gateway"
	healthuc "github.com/kailas-cloud/vecmatch/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/vecmatch/internal/usecase/ingest"
	matcheruc "github.com/kailas-cloud/vecmatch/internal/usecase/matcher"
	scoringuc "github.com/kailas-cloud/vecmatch/internal/usecase/scoring"
)

func main() {
	// Load configuration based on ENV
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

	logger.Info("Starting vecmatch API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("vector_store", cfg.VectorStore.Driver),
		zap.Strings("vector_store_addrs", cfg.VectorStore.Addrs),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterStorageMetrics()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	store, err := newVectorStore(ctx, &cfg.VectorStore)
	if err != nil {
		logger.Fatal("Failed to create vector store", zap.Error(err))
	}
	defer store.Close()

	if err := store.WaitForReady(ctx, time.Duration(cfg.VectorStore.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Vector store not ready", zap.Error(err))
	}
	logger.Info("Connected to vector store")

	// Redis backs the embedding cache and the matcher bus.
	var cache *dbRedis.Store
	if cfg.Cache.Enabled || cfg.Matcher.Enabled {
		cache, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Username: cfg.Cache.Username,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer cache.Close()
	}

	// Embedder chain — composition root
	base, err := newProvider(&cfg.Embedding, logger)
	if err != nil {
		logger.Fatal("Failed to create embedding provider", zap.Error(err))
	}
	var embCache db.KVStore
	if cfg.Cache.Enabled {
		embCache = cache
	}
	docEmbedder := buildEmbedder(base, &cfg.Embedding, cfg.Embedding.DocumentInstruction, embCache, cfg.Cache.TTL(), logger)
	queryEmbedder := buildEmbedder(base, &cfg.Embedding, cfg.Embedding.QueryInstruction, embCache, cfg.Cache.TTL(), logger)
	logger.Info("Embedders created",
		zap.String("provider", cfg.Embedding.Provider),
		zap.String("model", cfg.Embedding.Model),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
		zap.Bool("cache", embCache != nil),
	)

	encCfg := encoderuc.Config{
		MaxExhaustedRetries: cfg.Embedding.MaxExhaustedRetries,
		Timeout:             cfg.Embedding.Timeout(),
	}
	docEncoder := encoderuc.New(docEmbedder, releaserOf(base, docEmbedder), encCfg, logger)
	queryEncoder := encoderuc.New(queryEmbedder, releaserOf(base, queryEmbedder), encCfg, logger)
	asm := assembleruc.New(docEncoder, cfg.Embedding.BatchSize).
		WithMinBatchSize(cfg.Embedding.MinBatchSize).
		WithQueryEncoder(queryEncoder)

	// One gateway per entity collection
	gateways := make(map[entity.Type]*gatewayuc.Gateway)
	searchers := make(map[string]scoringuc.Searcher)
	upserters := make(map[entity.Type]ingestuc.Upserter)
	for _, et := range entity.All() {
		coll, err := domcol.New(et.Collection(), cfg.VectorStore.Dimension,
			domcol.Distance(cfg.VectorStore.Distance), cfg.VectorStore.FilterFields)
		if err != nil {
			logger.Fatal("Invalid collection config", zap.String("collection", et.Collection()), zap.Error(err))
		}
		g := gatewayuc.New(store, coll, cfg.VectorStore.Timeout()).
			WithHNSW(cfg.VectorStore.HNSWM, cfg.VectorStore.HNSWEFConstruct)
		if err := ensureCollection(ctx, store, g); err != nil {
			logger.Fatal("Failed to prepare collection", zap.String("collection", g.Name()), zap.Error(err))
		}
		gateways[et] = g
		searchers[g.Name()] = g
		upserters[et] = g
	}

	scoringSvc := scoringuc.New(searchers).WithFuzzyOverFetch(cfg.Search.FuzzyOverFetch)

	var forwarder ingestuc.Forwarder = ingestuc.NewLocalForwarder(upserters)
	if cfg.VectorStore.RemoteURL != "" {
		forwarder = vectorstore.NewClient(cfg.VectorStore.RemoteURL, cfg.VectorStore.Timeout())
		logger.Info("Forwarding embeddings to remote vector store", zap.String("url", cfg.VectorStore.RemoteURL))
	}
	ingestSvc := ingestuc.New(asm, forwarder)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(base))
	if cache != nil {
		healthSvc.WithCache(cache)
	}

	if cfg.Matcher.Enabled {
		worker, err := matcheruc.New(cache, scoringSvc, matcheruc.Config{
			JobChannel:    cfg.Matcher.JobChannel,
			ResumeChannel: cfg.Matcher.ResumeChannel,
			MatchChannel:  cfg.Matcher.MatchChannel,
			Weights:       cfg.Matcher.Weights,
			Workers:       cfg.Matcher.Workers,
		}, logger)
		if err != nil {
			logger.Fatal("Failed to create matcher", zap.Error(err))
		}
		defer worker.Close()
		go func() {
			if err := worker.Run(ctx); err != nil {
				logger.Error("Matcher stopped", zap.Error(err))
			}
		}()
	}

	server := chiTransport.NewServer(ingestSvc, asm, gateways, scoringSvc, healthSvc, chiTransport.SearchDefaults{
		TopK:           cfg.Search.DefaultTopK,
		FuzzyThreshold: cfg.Search.FuzzyThreshold,
	}, logger)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newVectorStore connects the configured vector index backend.
func newVectorStore(ctx context.Context, cfg *config.VectorStoreConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverQdrant:
		return dbQdrant.NewStore(dbQdrant.Config{Addr: cfg.Addrs[0], APIKey: cfg.APIKey})
	case config.DriverRedis:
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Addrs,
			Username: cfg.Username,
			Password: cfg.Password,
		})
	case config.DriverMilvus:
		return dbMilvus.NewStore(ctx, dbMilvus.Config{
			Address:  cfg.Addrs[0],
			Username: cfg.Username,
			Password: cfg.Password,
			Database: cfg.Database,
			Timeout:  cfg.Timeout(),
		})
	case config.DriverMemory:
		return dbMemory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector store driver %q", cfg.Driver)
	}
}

// ensureCollection creates the collection on first start. Existing data is never dropped here;
// the /collection/create endpoints do the destructive recreate.
func ensureCollection(ctx context.Context, store db.CollectionManager, g *gatewayuc.Gateway) error {
	exists, err := store.CollectionExists(ctx, g.Name())
	if err != nil {
		return fmt.Errorf("check collection: %w", err)
	}
	if exists {
		return nil
	}
	return g.CreateCollection(ctx)
}
