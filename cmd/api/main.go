package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/jhoicas/Despacho-api/internal/application/codes"
	"github.com/jhoicas/Despacho-api/internal/application/delivery"
	"github.com/jhoicas/Despacho-api/internal/application/inventory"
	"github.com/jhoicas/Despacho-api/internal/application/ports"
	"github.com/jhoicas/Despacho-api/internal/application/requests"
	"github.com/jhoicas/Despacho-api/internal/infrastructure/memory"
	"github.com/jhoicas/Despacho-api/internal/infrastructure/metrics"
	infrapdf "github.com/jhoicas/Despacho-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Despacho-api/internal/infrastructure/postgres"
	infraredis "github.com/jhoicas/Despacho-api/internal/infrastructure/redis"
	httpRouter "github.com/jhoicas/Despacho-api/internal/interfaces/http"
	"github.com/jhoicas/Despacho-api/pkg/config"
	"github.com/jhoicas/Despacho-api/pkg/dailycode"
	"github.com/jhoicas/Despacho-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuración inválida")
	}
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.App.StorageDriver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	var (
		txRunner  ports.TxRunner
		directory ports.Directory
		ping      = func(context.Context) error { return nil }
	)
	switch cfg.App.StorageDriver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		dir := postgres.NewDirectoryRepository(pool)
		txRunner, directory, ping = postgres.NewTxRunner(pool), dir, dir.Ping
	case "memory":
		dir := memory.NewDirectory()
		if cfg.App.DirectoryFile != "" {
			if dir, err = memory.LoadDirectory(cfg.App.DirectoryFile); err != nil {
				log.Fatal().Err(err).Msg("cargar directorio")
			}
		} else {
			log.Warn().Msg("STORAGE_DRIVER=memory sin DIRECTORY_FILE: directorio vacío")
		}
		txRunner, directory = memory.NewStore(), dir
	}

	// La bodega canónica se resuelve una vez; sin ella no hay separación ni entrega.
	if _, err := directory.GetUnit(ctx, cfg.Warehouse.UnitID); err != nil {
		log.Fatal().Err(err).Str("unit_id", cfg.Warehouse.UnitID).Msg("WAREHOUSE_UNIT_ID no existe en el directorio")
	}

	codeGen, err := dailycode.New(cfg.DailyCode.Secret, cfg.DailyCode.Timezone, cfg.DailyCode.Digits)
	if err != nil {
		log.Fatal().Err(err).Msg("generador de códigos diarios")
	}

	var prom *metrics.Prometheus
	var appMetrics ports.Metrics
	if cfg.App.MetricsEnabled {
		prom = metrics.New()
		appMetrics = prom
	}

	var idem ports.IdempotencyStore = memory.NewIdempotencyStore(nil)
	redisClient, err := infraredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
		idem = infraredis.NewIdempotencyStore(redisClient)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("idempotencia en Redis")
	}

	rt := ports.Runtime{
		Tx:              txRunner,
		Directory:       directory,
		WarehouseUnitID: cfg.Warehouse.UnitID,
		Retry:           ports.RetryPolicy{MaxAttempts: cfg.App.TxMaxRetries},
		Metrics:         appMetrics,
		Log:             log,
	}.WithDefaults()

	projector := inventory.NewProjector(rt)
	ledgerUC := inventory.NewLedgerUseCase(rt, projector)
	requestUC := requests.NewRequestUseCase(rt, projector)
	furnitureUC := requests.NewFurnitureUseCase(rt)
	batchUC := delivery.NewBatchUseCase(rt, projector, codeGen, infrapdf.NewMarotoLabelGenerator())
	codeUC := codes.NewCodeUseCase(rt, codeGen)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New())

	var observer httpRouter.HTTPObserver
	if prom != nil {
		observer = prom
		app.Get("/metrics", adaptor.HTTPHandler(prom.Handler()))
	}
	app.Use(httpRouter.RequestLogger(log, observer))

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.App.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.App.SwaggerFile,
			Path:     "docs",
			Title:    "Despacho API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:         ledgerUC,
		Projector:      projector,
		Requests:       requestUC,
		Furniture:      furnitureUC,
		Batches:        batchUC,
		Codes:          codeUC,
		Idempotency:    idem,
		IdempotencyTTL: cfg.Idempotency.TTL,
		JWTSecret:      cfg.JWT.Secret,
		Log:            log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
