package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"docstore/docs"
	"docstore/internal/config"
	"docstore/internal/database"
	"docstore/internal/database/migration"
	handlers "docstore/internal/http/handler"
	"docstore/internal/http/middleware"
	"docstore/internal/logging"
	"docstore/internal/otel"
	"docstore/internal/repository"
	repoMem "docstore/internal/repository/memory"
	"docstore/internal/repository/postgres"
	"docstore/internal/service"
	"docstore/internal/storage"
	fsstore "docstore/internal/storage/fs"
	blobMem "docstore/internal/storage/memory"
	miniostore "docstore/internal/storage/minio"
	s3store "docstore/internal/storage/s3"
)

// @title Document Store API
// @version 1.0
// @description Stores documents as content blobs plus descriptors.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.TimeLocation(), cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Str("event", "config_invalid").Msg("")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Str("event", "tracing_init_failed").Msg("")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	repo, db, err := openMetadata(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("event", "metadata_init_failed").Msg("")
	}
	if db != nil {
		defer db.Close()
	}

	blobs, err := openBlobs(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("event", "blob_init_failed").Msg("")
	}

	metrics, err := service.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Str("event", "metrics_init_failed").Msg("")
	}
	httpMetrics, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatal().Err(err).Str("event", "metrics_init_failed").Msg("")
	}

	docSvc := service.NewDocumentService(blobs, repo,
		service.WithLogger(log),
		service.WithMetrics(metrics),
		service.WithMaxContentBytes(cfg.MaxContentBytes),
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		// base64 inflates content by 4/3; leave room for the JSON envelope.
		BodyLimit: int(cfg.MaxContentBytes/3*4) + 64<<10,
	})

	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Logger(log.With().Str("component", "http").Logger()))
	app.Use(httpMetrics.Handler())

	handlers.RegisterRoutes(app, repo, docSvc)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		log.Info().Str("event", "server_shutdown").Msg("")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = app.ShutdownWithContext(sctx)
	}()

	addr := ":" + cfg.Port
	log.Info().
		Str("event", "server_start").
		Str("addr", addr).
		Str("metadata_backend", cfg.MetadataBackend).
		Str("blob_backend", cfg.Blob.Backend).
		Str("blob_compression", cfg.Blob.Compression).
		Msg("")

	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Str("event", "server_failed").Msg("")
	}
}

// openMetadata returns the configured metadata store. db is nil unless the
// postgres backend is selected.
func openMetadata(ctx context.Context, cfg *config.AppConfig, log zerolog.Logger) (repository.DocumentRepository, *sql.DB, error) {
	switch cfg.MetadataBackend {
	case config.MetadataMemory:
		return repoMem.NewDocumentMemory(), nil, nil
	case config.MetadataPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, err
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return postgres.NewDocumentPostgres(db), db, nil
	default:
		return nil, nil, fmt.Errorf("unsupported metadata backend %q", cfg.MetadataBackend)
	}
}

// openBlobs returns the configured blob store, wrapped for compression if enabled.
func openBlobs(ctx context.Context, cfg *config.AppConfig) (storage.BlobStore, error) {
	var (
		blobs storage.BlobStore
		err   error
	)
	switch cfg.Blob.Backend {
	case config.BlobMinIO:
		blobs, err = miniostore.New(cfg.MinIO)
	case config.BlobS3:
		blobs, err = s3store.New(ctx, cfg.S3)
	case config.BlobFS:
		blobs, err = fsstore.New(cfg.Blob.FSRoot)
	case config.BlobMemory:
		blobs = blobMem.New()
	default:
		err = fmt.Errorf("unsupported blob backend %q", cfg.Blob.Backend)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Blob.Compression == config.CompressionZstd {
		return storage.NewCompressed(blobs)
	}
	return blobs, nil
}
