package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/products-rbac-api/internal/app/service"
	"github.com/mrops-br/products-rbac-api/internal/domain"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/auth"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/config"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/http"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/repository/mongodb"
	"github.com/mrops-br/products-rbac-api/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	telem, err := telemetry.New(&cfg.OTLP)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	tracer := telem.TracerProvider.Tracer("products-api")
	meter := telem.MeterProvider.Meter("products-api")
	logger := telem.Logger

	logger.Info("Starting Products API",
		slog.String("store", cfg.Store.Driver),
	)

	repo, err := newRepository(ctx, &cfg.Store, tracer, logger)
	if err != nil {
		logger.Error("Failed to initialize repository", slog.String("error", err.Error()))
		os.Exit(1)
	}

	productService := service.NewProductService(repo, tracer, meter, logger)
	productHandler := handler.NewProductHandler(productService, logger)
	server := http.NewServer(&cfg.Server, productHandler, auth.NewJWTAuth(cfg.Auth.JWTSecret), telem)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", slog.String("error", err.Error()))
	}

	logger.Info("Server stopped")
}

func newRepository(ctx context.Context, cfg *config.StoreConfig, tracer trace.Tracer, logger *slog.Logger) (domain.ProductRepository, error) {
	if cfg.Driver == config.StoreMemory {
		return memory.NewProductRepository(tracer, logger), nil
	}

	db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		ConnectTimeout: cfg.ConnectTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	return mongodb.NewProductRepository(db, tracer, logger), nil
}
