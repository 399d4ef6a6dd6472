// Package main provides the advising chat server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/haksamate/advisor-go/internal/buildinfo"
	"github.com/haksamate/advisor-go/internal/config"
	"github.com/haksamate/advisor-go/internal/format"
	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/memory"
	"github.com/haksamate/advisor-go/internal/metrics"
	"github.com/haksamate/advisor-go/internal/orchestrator"
	"github.com/haksamate/advisor-go/internal/parser"
	"github.com/haksamate/advisor-go/internal/rag"
	"github.com/haksamate/advisor-go/internal/ratelimit"
	"github.com/haksamate/advisor-go/internal/sentry"
	"github.com/haksamate/advisor-go/internal/storage"
	"github.com/haksamate/advisor-go/internal/tools"
	"github.com/haksamate/advisor-go/internal/validate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Infof("Starting advisor server")

	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Version,
	}); err != nil {
		log.WithError(err).Warnf("Sentry initialization failed, error tracking disabled")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.WithError(err).Errorf("Failed to create data directory")
		os.Exit(1)
	}

	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Errorf("Failed to open database")
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Infof("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)

	searcher, bm25Index, vectorDB := buildSearcher(cfg, db, m, log)

	mem := memory.NewStore(cfg.MemoryWindow, m, log)
	defer mem.Stop()

	toolRegistry := tools.NewRegistry(m, log)
	toolRegistry.Register(parser.CategoryStudentInfo, tools.NewStudentLookup(db, log))
	toolRegistry.Register(parser.CategoryCourseSearch, tools.NewCourseSearch(db, cfg.PageSize, log))
	toolRegistry.Register(parser.CategoryEnrollmentHistory, tools.NewEnrollmentHistory(db, cfg.PageSize, log))
	toolRegistry.Register(parser.CategoryGraduation, tools.NewGraduationRequirement(db, searcher, cfg.SimilarityTopK, log))
	toolRegistry.Register(parser.CategoryRecommendation, tools.NewRecommendation(db, cfg.RecommendTopK, cfg.MaxTermCredits, log))

	orch := orchestrator.New(orchestrator.Config{
		Parser:    parser.New(log),
		Validator: validate.New(),
		Registry:  toolRegistry,
		Formatter: format.New(),
		Memory:    mem,
		Metrics:   m,
		Logger:    log,
	})

	studentLimiter := ratelimit.NewPerKey(ratelimit.PerKeyConfig{
		MaxTokens:  cfg.StudentRateBurst,
		RefillRate: cfg.StudentRateRefill,
	})
	studentLimiter.OnDrop(func() {
		m.RateLimiterDropped.WithLabelValues("student").Inc()
	})
	defer studentLimiter.Stop()

	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log, m))

	setupRoutes(router, routeDeps{
		orch:      orch,
		db:        db,
		limiter:   studentLimiter,
		registry:  registry,
		bm25Index: bm25Index,
		vectorDB:  vectorDB,
		log:       log.WithModule("http"),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.HTTPRead,
		WriteTimeout: config.HTTPWrite,
		IdleTimeout:  config.HTTPIdle,
	}

	go func() {
		log.WithField("port", cfg.Port).Infof("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Errorf("Server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infof("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Errorf("Server forced to shutdown")
	}

	if sentry.IsEnabled() {
		sentry.Flush(2 * time.Second)
	}
	log.Infof("Server stopped")
}

// buildSearcher assembles the similarity-search stack from the requirement
// documents in the store. Without a Gemini API key the vector backend stays
// off and BM25 serves alone; with no usable backend the graduation tool
// degrades to its narrative-unavailable path.
func buildSearcher(cfg *config.Config, db *storage.DB, m *metrics.Metrics, log *logger.Logger) (rag.Searcher, *rag.BM25Index, *rag.VectorDB) {
	ctx := context.Background()

	docs, err := db.ListRequirementDocs(ctx)
	if err != nil {
		log.WithError(err).Warnf("Failed to load requirement documents, similarity search disabled")
		return nil, nil, nil
	}
	if len(docs) == 0 {
		log.Warnf("No requirement documents in store, similarity search disabled")
		return nil, nil, nil
	}

	var vectorDB *rag.VectorDB
	if cfg.GeminiAPIKey != "" {
		vectorDB, err = rag.NewVectorDB(cfg.DataDir, cfg.GeminiAPIKey, log)
		if err != nil {
			log.WithError(err).Warnf("Failed to create vector store, continuing with BM25 only")
			vectorDB = nil
		}
	} else {
		log.Infof("Gemini API key not configured, semantic search disabled")
	}

	bm25Index := rag.NewBM25Index(log)
	searcher := rag.NewHybridSearcher(vectorDB, bm25Index, float32(cfg.SimilarityMinimum), m, log)
	if err := searcher.Initialize(ctx, docs); err != nil {
		log.WithError(err).Warnf("Similarity search initialization failed")
		return nil, nil, nil
	}

	log.WithFields(map[string]any{
		"documents":      len(docs),
		"vector_enabled": vectorDB.IsEnabled(),
		"bm25_enabled":   bm25Index.IsEnabled(),
	}).Infof("Similarity search initialized")
	return searcher, bm25Index, vectorDB
}
