// Package main is the entry point for the API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/denuncia-labs/conversation-insights/internal/config"
	"github.com/denuncia-labs/conversation-insights/internal/handler"
	"github.com/denuncia-labs/conversation-insights/internal/middleware"
	natsclient "github.com/denuncia-labs/conversation-insights/internal/nats"
	"github.com/denuncia-labs/conversation-insights/internal/pipeline"
	"github.com/denuncia-labs/conversation-insights/internal/service"
	"github.com/denuncia-labs/conversation-insights/internal/source"
	"github.com/denuncia-labs/conversation-insights/pkg/logger"
	"github.com/denuncia-labs/conversation-insights/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "conversation-insights", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to the structured case store. Absence or failure is not fatal:
	// the pipeline degrades to the remaining sources.
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Warn("failed to configure postgres, structured source disabled", zap.Error(err))
			pool = nil
		} else {
			defer pool.Close()
		}
	}

	// Connect to the event-log store under the same degradation rule.
	var mongoClient *mongo.Client
	if cfg.MongoURI != "" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		mongoClient, err = mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
		cancel()
		if err != nil {
			log.Warn("failed to configure mongodb, log source disabled", zap.Error(err))
			mongoClient = nil
		} else {
			defer mongoClient.Disconnect(ctx)
		}
	}

	// Connect to NATS if configured; publishing is optional.
	var natsConn *natsclient.Client
	var publisher service.RefreshPublisher
	if cfg.NATSURL != "" {
		natsConn, err = natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Warn("failed to connect to NATS, refresh events disabled", zap.Error(err))
		} else {
			defer natsConn.Close()
			pub := natsclient.NewPublisher(natsConn)
			if err := pub.EnsureStream(ctx); err != nil {
				log.Warn("failed to ensure stream, refresh events disabled", zap.Error(err))
			} else {
				publisher = pub
			}
		}
	}

	// Assemble the pipeline
	classifier := pipeline.NewClassifier()
	aggregator := pipeline.NewAggregator(classifier, log)
	generator := pipeline.NewGenerator(cfg.SyntheticSeed, cfg.SyntheticRows)
	caseReader := source.NewPostgresReader(pool, log)
	logReader := source.NewMongoReader(mongoClient, cfg.MongoDatabase, cfg.MongoCollection, cfg.LogWindow(), log)
	reconciler := pipeline.NewReconciler(caseReader, logReader, aggregator, generator, classifier, log)

	// Initialize services
	insightsSvc := service.NewInsightsService(reconciler, classifier, publisher, cfg.RefreshInterval, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsConn)
	insightsHandler := handler.NewInsightsHandler(insightsSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Prometheus endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/conversations", insightsHandler.ListConversations)
		r.Get("/metrics", insightsHandler.GetMetrics)
		r.Get("/logs", insightsHandler.ListLogs)
		r.Get("/logs/summary", insightsHandler.GetLogSummary)
		r.Post("/refresh", insightsHandler.Refresh)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
