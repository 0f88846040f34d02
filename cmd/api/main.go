package main

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zamahub/docs"
	"zamahub/internal/browser"
	"zamahub/internal/chain"
	"zamahub/internal/config"
	"zamahub/internal/database"
	"zamahub/internal/database/migration"
	"zamahub/internal/events"
	handlers "zamahub/internal/http/handler"
	"zamahub/internal/http/middleware"
	"zamahub/internal/logging"
	"zamahub/internal/otel"
	"zamahub/internal/repository"
	"zamahub/internal/repository/memory"
	"zamahub/internal/repository/postgres"
	"zamahub/internal/service"
	"zamahub/internal/storage"
)

func fatal(msg string, err error) {
	logging.Error(msg, map[string]any{"error": err})
	os.Exit(1)
}

// @title ZamaHub API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logging.Setup(os.Stdout, cfg.Location())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		fatal("tracing_init_failed", err)
	}

	// Document store: PostgreSQL (migrated on startup) or in-memory
	var (
		db        *sql.DB
		pinger    handlers.Pinger
		ensRepo   repository.ENSRepository
		spaceRepo repository.SpaceRepository
	)
	switch cfg.Database.Driver {
	case "memory":
		ensRepo, spaceRepo = memory.NewENSRepo(), memory.NewSpaceRepo()
	default:
		db, err = database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			fatal("db_connect_failed", err)
		}
		defer db.Close()
		if err := migration.EnsureMigrated(ctx, db, cfg.Database.Host); err != nil {
			fatal("db_migration_failed", err)
		}
		pinger = db
		ensRepo, spaceRepo = postgres.NewENSPostgres(db), postgres.NewSpacePostgres(db)
	}

	// Profile pictures: local files under PUBLIC_DIR/uploads or a MinIO bucket
	var objStore storage.Storage
	switch cfg.Storage.Backend {
	case "minio":
		objStore, err = storage.NewMinIO(ctx, cfg.MinIO)
	default:
		objStore, err = storage.NewLocal(filepath.Join(cfg.Storage.PublicDir, strings.Trim(service.UploadURLPrefix, "/")))
	}
	if err != nil {
		fatal("storage_init_failed", err)
	}

	// Blockchain collaborators are optional; without them ownership checks report unavailable
	var (
		owners   chain.OwnershipChecker = chain.Disabled{}
		resolver chain.OwnerResolver
		registry *chain.Registry
	)
	client, err := chain.Dial(ctx, cfg.Chain.RPCURL)
	switch {
	case err == nil:
		defer client.Close()
		if cfg.Chain.SpaceRegistryAddress != "" {
			registry, err = chain.NewRegistry(cfg.Chain.SpaceRegistryAddress, client, cfg.Chain.CallTimeout)
			if err != nil {
				fatal("space_registry_init_failed", err)
			}
			owners = registry
		}
		if cfg.Chain.ENSRegistryAddress != "" {
			ens, err := chain.NewENSRegistry(cfg.Chain.ENSRegistryAddress, client, cfg.Chain.CallTimeout)
			if err != nil {
				fatal("ens_registry_init_failed", err)
			}
			resolver = ens
		}
	case errors.Is(err, chain.ErrNotConfigured):
		logging.Warn("chain_not_configured", map[string]any{"detail": "RPC_URL is empty; ownership checks will fail"})
	default:
		fatal("chain_dial_failed", err)
	}
	logging.Info("chain_configured", map[string]any{
		"space_registry": registry != nil,
		"ens_registry":   resolver != nil,
	})

	// Profile change notifications: Redis Pub/Sub across instances, in-process otherwise
	var bus events.Bus = events.NewLocalBus()
	if cfg.Redis.Addr != "" {
		bus = events.NewRedisBus(events.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), cfg.Redis.Channel)
	}
	defer bus.Close()

	ensSvc := service.NewENSService(ensRepo, resolver, cfg.Chain.CallTimeout)
	spaceSvc := service.NewSpaceService(spaceRepo, objStore, owners, bus, cfg.Chain.CallTimeout)

	opts := browser.Options{
		Owners:    owners,
		Spaces:    spaceSvc,
		Bus:       bus,
		Timeout:   cfg.Chain.CallTimeout,
		WatchFrom: cfg.Chain.StartBlock,
	}
	if registry != nil {
		opts.Events = registry
	}
	switch cfg.Browser.Source {
	case "chain":
		if registry == nil {
			fatal("browser_source_invalid", chain.ErrNotConfigured)
		}
		opts.Source = browser.NewChainSource(registry, cfg.Chain.StartBlock)
	case "seed":
		opts.Source = browser.NewSeedSource()
	default:
		opts.Source = browser.NewStoreSource(spaceSvc)
	}
	spaceBrowser := browser.New(opts)
	go spaceBrowser.Run(ctx)

	app := fiber.New(fiber.Config{
		// Values from Ctx outlive the handler in the memory store and in span attributes.
		Immutable:    true,
		ErrorHandler: handlers.ErrorHandler(),
		// Room for the multipart envelope around the largest accepted picture
		BodyLimit: cfg.Storage.UploadMaxBytes + 1<<20,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		fatal("metrics_init_failed", err)
	}

	// Register global middleware
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(metrics.Handler())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, handlers.Deps{
		DB:             pinger,
		ENS:            ensSvc,
		Spaces:         spaceSvc,
		Browser:        spaceBrowser,
		Store:          objStore,
		UploadMaxBytes: int64(cfg.Storage.UploadMaxBytes),
	})

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

	addr := ":" + cfg.Port
	serveErr := make(chan error, 1)
	go func() {
		logging.Info("server_started", map[string]any{"addr": addr, "db_driver": cfg.Database.Driver, "storage": cfg.Storage.Backend})
		serveErr <- app.Listen(addr)
	}()

	select {
	case err := <-serveErr:
		fatal("server_failed", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logging.Error("server_shutdown_failed", map[string]any{"error": err})
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logging.Error("tracing_shutdown_failed", map[string]any{"error": err})
	}
	logging.Info("server_stopped", nil)
}
