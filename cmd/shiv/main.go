package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/shiv-accounts/shiv-accounts/internal/accounting"
	"github.com/shiv-accounts/shiv-accounts/internal/accounting/reports"
	"github.com/shiv-accounts/shiv-accounts/internal/app"
	"github.com/shiv-accounts/shiv-accounts/internal/integration"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/contacts"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/products"
	"github.com/shiv-accounts/shiv-accounts/internal/masterdata/taxes"
	"github.com/shiv-accounts/shiv-accounts/internal/observability"
	"github.com/shiv-accounts/shiv-accounts/internal/platform/cache"
	"github.com/shiv-accounts/shiv-accounts/internal/platform/db"
	"github.com/shiv-accounts/shiv-accounts/internal/sales"
	"github.com/shiv-accounts/shiv-accounts/internal/shared"
	"github.com/shiv-accounts/shiv-accounts/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("shiv exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cfg.PGMigrate {
		if err := db.Migrate(ctx, pool, logger); err != nil {
			return err
		}
	}

	accountingRepo := accounting.NewRepository(pool)
	chart, err := accounting.Bootstrap(ctx, accountingRepo)
	if err != nil {
		return err
	}
	logger.Info("chart of accounts ready")

	metrics := observability.NewMetrics()
	if err := reports.SetupCacheMetrics(metrics.Registerer()); err != nil {
		logger.Warn("report cache metrics", slog.Any("error", err))
	}

	var reportCache *reports.Cache
	if cfg.ReportCacheTTL > 0 {
		redisClient, err := cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("report cache disabled", slog.Any("error", err))
		} else {
			defer closeRedis(redisClient, logger)
			reportCache = reports.NewCache(redisClient, cfg.ReportCacheTTL)
		}
	}
	reportService := reports.NewService(reports.NewRepository(pool), reportCache, logger)

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient, err := jobs.NewClient(redisOpts)
	if err != nil {
		return err
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("job inspector close", slog.Any("error", err))
		}
	}()

	contactService := contacts.NewService(contacts.NewRepository(pool))
	productService := products.NewService(products.NewRepository(pool))
	taxService := taxes.NewService(taxes.NewRepository(pool))

	hooks := integration.NewHooks(integration.HooksConfig{
		Reports:  reportService,
		Notifier: jobClient,
		Contacts: contactService,
		Metrics:  metrics,
		Logger:   logger,
	})
	salesService := sales.NewService(sales.NewRepository(pool), chart, hooks, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		DB:                pool,
		Metrics:           metrics,
		ContactsHandler:   contacts.NewHandler(logger, contactService),
		ProductsHandler:   products.NewHandler(logger, productService),
		TaxesHandler:      taxes.NewHandler(logger, taxService),
		AccountingHandler: accounting.NewHandler(logger, accounting.NewService(accountingRepo)),
		SalesHandler:      sales.NewHandler(logger, salesService).WithIdempotency(shared.NewIdempotencyStore(pool)),
		ReportsHandler:    reports.NewHandler(logger, reportService),
		JobHandler:        jobs.NewHandler(inspector, logger),
	})

	return app.Serve(ctx, app.NewServer(cfg, router), logger)
}

func closeRedis(client *redis.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Warn("redis close", slog.Any("error", err))
	}
}
