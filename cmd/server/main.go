package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aqlhr/ingest/internal/auth"
	"github.com/aqlhr/ingest/internal/config"
	"github.com/aqlhr/ingest/internal/db"
	"github.com/aqlhr/ingest/internal/docingest"
	"github.com/aqlhr/ingest/internal/embedder"
	"github.com/aqlhr/ingest/internal/export"
	"github.com/aqlhr/ingest/internal/extract"
	"github.com/aqlhr/ingest/internal/importer"
	"github.com/aqlhr/ingest/internal/middleware"
	"github.com/aqlhr/ingest/internal/repository"
	"github.com/aqlhr/ingest/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database, "./migrations"); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	jobRepo := repository.NewImportJobRepository(conn.Pool)
	rowRepo := repository.NewImportRowRepository(conn.Pool, cfg.Import.DiagnosticsChunk)
	employeeRepo := repository.NewEmployeeRepository(conn.Pool)
	govDocRepo := repository.NewGovDocumentRepository(conn.Pool)
	documentRepo := repository.NewDocumentRepository(conn.Pool)
	vectorRepo := repository.NewDocumentVectorRepository(conn.Pool)
	credentialRepo := repository.NewCredentialRepository(conn.Pool)

	resolver := auth.NewResolver(credentialRepo)

	// Services
	importService := importer.NewService(jobRepo, rowRepo, employeeRepo, govDocRepo, cfg.Import.BatchSize, logger)
	importHandler := importer.NewHandler(importService, resolver, logger)

	storageClient := storage.NewHTTPClient(cfg.Storage.BaseURL, cfg.Storage.ServiceKey)
	var embedClient embedder.Client
	if cfg.Embedder.Enabled {
		embedClient = embedder.NewHTTPClient(cfg.Embedder.BaseURL, cfg.Embedder.APIKey, cfg.Embedder.Model)
	}
	docService := docingest.NewService(storageClient, documentRepo, vectorRepo, extract.NewExtractor(), embedClient, logger)
	docHandler := docingest.NewHandler(docService, resolver, logger)

	reportService := export.NewService(jobRepo, rowRepo)
	reportHandler := export.NewHandler(reportService, resolver, logger)

	// Router
	router := chi.NewRouter()
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Recover(logger))
	router.MethodNotAllowed(importer.MethodNotAllowed)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/import", importHandler.ImportJSON)
		r.Post("/import/file", importHandler.ImportFile)
		r.Get("/import/{jobID}/report", reportHandler.Report)
		r.Post("/documents/ingest", docHandler.Ingest)
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      corsHandler.Handler(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}
