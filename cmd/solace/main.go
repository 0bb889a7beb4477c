package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/mirelle/solace/internal/analyzer"
	"github.com/mirelle/solace/internal/api"
	"github.com/mirelle/solace/internal/config"
	"github.com/mirelle/solace/internal/dialog"
	"github.com/mirelle/solace/internal/embedding"
	"github.com/mirelle/solace/internal/memory"
	"github.com/mirelle/solace/internal/orchestrator"
	"github.com/mirelle/solace/internal/profile"
	"github.com/mirelle/solace/internal/provider"
	"github.com/mirelle/solace/internal/recall"
	"github.com/mirelle/solace/internal/relation"
	"github.com/mirelle/solace/internal/vectorstore"
)

func main() {
	_ = godotenv.Load()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	logger.Info("Starting Solace...")

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "configs/solace.json"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.String("path", cfgPath), zap.Error(err))
	}
	logger.Info("Config loaded", zap.String("path", cfgPath))

	// Provider router
	router := provider.NewRouter(logger)
	for _, pc := range cfg.Providers {
		provCfg := provider.Config{
			ID: pc.ID, Type: pc.Type, Name: pc.Name,
			Endpoint: pc.Endpoint, APIKey: pc.APIKey, Model: pc.Model,
		}
		switch pc.Type {
		case "openai":
			router.Register(provider.NewOpenAIProvider(provCfg, logger))
		case "anthropic":
			router.Register(provider.NewAnthropicProvider(provCfg, logger))
		default:
			logger.Warn("unknown provider type", zap.String("id", pc.ID), zap.String("type", pc.Type))
		}
	}

	// PostgreSQL store. Required: sessions and exchanges live here.
	if cfg.Database.Postgres.DSN == "" {
		logger.Fatal("PostgreSQL DSN is required for session storage")
	}
	store, err := memory.NewStore(cfg.Database.Postgres.DSN, logger)
	if err != nil {
		logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
	}
	if mErr := store.Migrate(context.Background(), "migrations"); mErr != nil {
		logger.Fatal("migration failed", zap.Error(mErr))
	}

	// Redis hot cache
	var cache *memory.Cache
	if cfg.Database.Redis.URL != "" {
		c, cErr := memory.NewCache(cfg.Database.Redis.URL, logger)
		if cErr != nil {
			logger.Warn("Redis unavailable, running without history cache", zap.Error(cErr))
		} else {
			cache = c
		}
	}

	// Embedding provider
	var embedder embedding.Provider
	embCfg := embedding.Config{
		Provider:  cfg.Embedding.Provider,
		Endpoint:  cfg.Embedding.Endpoint,
		Model:     cfg.Embedding.Model,
		APIKey:    cfg.Embedding.APIKey,
		Dimension: cfg.Embedding.Dimension,
	}
	switch cfg.Embedding.Provider {
	case "api":
		embedder = embedding.NewAPIProvider(embCfg)
	case "local":
		embedder = embedding.NewLocalProvider(embCfg)
	default:
		logger.Warn("no embedding provider configured, running without semantic recall")
	}

	// Qdrant vector index + recall service
	var recallSvc *recall.Service
	if embedder != nil && cfg.Database.Qdrant.Host != "" {
		qdrant, qErr := vectorstore.NewClient(vectorstore.QdrantConfig{
			Host: cfg.Database.Qdrant.Host,
			Port: cfg.Database.Qdrant.Port,
		})
		if qErr != nil {
			logger.Warn("Qdrant unavailable, running without semantic recall", zap.Error(qErr))
		} else {
			svc := recall.NewService(embedder, qdrant, logger)
			if iErr := svc.Init(context.Background()); iErr != nil {
				logger.Warn("Qdrant collection setup failed, running without semantic recall", zap.Error(iErr))
			} else {
				recallSvc = svc
			}
			defer qdrant.Close()
		}
	}

	// Neo4j relationship graph
	var relGraph *relation.Graph
	if cfg.Database.Neo4j.URI != "" {
		g, nErr := relation.NewGraph(context.Background(), relation.Config{
			URI:      cfg.Database.Neo4j.URI,
			User:     cfg.Database.Neo4j.User,
			Password: cfg.Database.Neo4j.Password,
		}, logger)
		if nErr != nil {
			logger.Warn("Neo4j unavailable, running without relationship graph", zap.Error(nErr))
		} else {
			relGraph = g
		}
	}

	// Memory context service. Interface-typed nils must stay nil.
	var recallIface memory.Recall
	if recallSvc != nil {
		recallIface = recallSvc
	}
	var relationsIface memory.Relations
	if relGraph != nil {
		relationsIface = relGraph
	}
	memSvc := memory.NewService(store, cache, recallIface, relationsIface, logger)

	// Analyzers: shared, stateless, constructed once.
	var noise analyzer.Noise = analyzer.NoNoise{}
	if cfg.Analyzer.JitterEnabled {
		seed := cfg.Analyzer.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		stddev := cfg.Analyzer.JitterStddev
		if stddev == 0 {
			stddev = 0.1
		}
		noise = analyzer.NewGaussianNoise(seed, stddev)
	}
	personality := analyzer.NewPersonalityAnalyzer(noise, logger)
	therapeutic := analyzer.NewTherapeuticAnalyzer(logger)

	registry := profile.NewRegistry(logger)
	selector := dialog.NewSelector(therapeutic.DetectCrisis, logger)
	graph := dialog.NewGraph(logger)

	var embIface orchestrator.Embedder
	if embedder != nil {
		embIface = embedder
	}
	var vecIface orchestrator.VectorMemory
	if recallSvc != nil {
		vecIface = recallSvc
	}
	var relTurns orchestrator.Relations
	if relGraph != nil {
		relTurns = relGraph
	}
	orch := orchestrator.New(
		registry, personality, therapeutic, selector, graph,
		memSvc, embIface, vecIface, router, relTurns, store,
		orchestrator.Config{
			GenerateTimeout: time.Duration(cfg.Orchestrator.GenerateTimeoutSec) * time.Second,
			HistoryLimit:    cfg.Orchestrator.HistoryLimit,
		},
		logger,
	)

	var relSessions api.Relations
	if relGraph != nil {
		relSessions = relGraph
	}
	handler := api.NewHandler(orch, store, registry, relSessions, store, cfg.Server.AuthToken, logger)

	port := fmt.Sprintf("%d", cfg.Server.Port)
	if port == "0" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: handler.Router(),
	}

	go func() {
		logger.Info("Solace listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down Solace...")
	ctx := context.Background()
	srv.Shutdown(ctx)
	if relGraph != nil {
		relGraph.Close(ctx)
	}
	if cache != nil {
		cache.Close()
	}
	store.Close()
}
