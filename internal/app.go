package internal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tempfiles-api/config"
	"tempfiles-api/internal/application/ports"
	"tempfiles-api/internal/application/services"
	"tempfiles-api/internal/infrastructure/clock"
	"tempfiles-api/internal/infrastructure/csprng"
	"tempfiles-api/internal/infrastructure/db/postgres"
	"tempfiles-api/internal/infrastructure/db/postgres/resource"
	"tempfiles-api/internal/infrastructure/db/postgres/token"
	"tempfiles-api/internal/infrastructure/db/postgres/user"
	"tempfiles-api/internal/infrastructure/hasher"
	"tempfiles-api/internal/infrastructure/jwt"
	"tempfiles-api/internal/infrastructure/metrics"
	"tempfiles-api/internal/infrastructure/mq"
	"tempfiles-api/internal/infrastructure/s3"
	"tempfiles-api/internal/infrastructure/storage"
	"tempfiles-api/internal/interface/api/rest"
	"tempfiles-api/internal/interface/api/rest/middleware"
	"tempfiles-api/pkg/rmqconsumer"
)

type App struct {
	logger     *zap.Logger
	cfg        config.Config
	db         *pgxpool.Pool
	storage    ports.Storage
	httpSrv    *http.Server
	router     *gin.Engine
	mCounter   *prometheus.CounterVec
	mq         ports.RabbitMQ
	audit      ports.AuditConsumer
	rng        *csprng.Source
	clock      ports.Clock
	reclaimer  ports.Reclaimer
}

func NewApp(ctx context.Context) (*App, error) {
	// logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("cannot initialize zap logger: %v", err)
	}
	defer logger.Sync()

	// config
	if err = godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Fatal("error loading .env file", zap.Error(err))
	}
	cfg := config.Load()
	if err = cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	// metrics
	mCounter := metrics.NewCounter()

	// router
	switch cfg.App.Env {
	case gin.ReleaseMode, "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	case gin.TestMode:
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogGin(logger, mCounter))
	r.MaxMultipartMemory = 8 << 20

	// httpServer
	httpSrv := &http.Server{
		Addr:              cfg.App.Host + ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// db
	dbDsn, err := cfg.DBDSN()
	if err != nil {
		logger.Fatal("DB config error", zap.Error(err))
	}
	dbPool, err := postgres.New(ctx, logger, dbDsn)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err = postgres.Migrate(ctx, logger, dbPool); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	// storage
	store, err := newStorage(ctx, logger, cfg)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	if err = store.Probe(ctx); err != nil {
		logger.Fatal("storage is not usable", zap.Error(err))
	}

	// rabbitMQ, optional
	var (
		rbMQ  ports.RabbitMQ = mq.Nop{}
		audit ports.AuditConsumer
	)
	if cfg.MQEnabled() {
		rabbitDsn, err := cfg.AMQPDSN()
		if err != nil {
			logger.Fatal("RabbitMQ config error", zap.Error(err))
		}
		bus := mq.New(cfg.MQ, logger)
		if err = bus.Connect(ctx, rabbitDsn); err != nil {
			logger.Fatal("failed to connect to rabbitMQ", zap.Error(err))
		}
		if err = bus.Init(); err != nil {
			logger.Fatal("failed init rabbitMQ", zap.Error(err))
		}
		rbMQ = bus

		consumer := rmqconsumer.New(cfg.MQ, logger, bus.GetConn())
		if err = consumer.Connect(ctx, rabbitDsn); err != nil {
			logger.Fatal("failed to connect rabbitMQ consumer", zap.Error(err))
		}
		if err = consumer.Init(); err != nil {
			logger.Fatal("failed to init rabbitMQ consumer", zap.Error(err))
		}
		audit = consumer
	} else {
		logger.Info("RABBITMQ_HOST is empty, events are discarded")
	}

	// randomness
	rng, err := csprng.New()
	if err != nil {
		logger.Fatal("failed to seed the random source", zap.Error(err))
	}

	return &App{
		logger:     logger,
		cfg:        cfg,
		db:         dbPool,
		storage:    store,
		httpSrv:    httpSrv,
		router:     r,
		mCounter:   mCounter,
		mq:         rbMQ,
		audit:      audit,
		rng:        rng,
		clock:      clock.New(),
	}, nil
}

func newStorage(ctx context.Context, logger *zap.Logger, cfg config.Config) (ports.Storage, error) {
	switch cfg.Storage.Backend {
	case config.StorageMinio:
		return s3.New(ctx, logger, cfg.S3)
	case config.StorageLocal:
		return storage.NewLocal(cfg.Storage.Dir, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.mq != nil && a.mq.GetConn() != nil {
		a.mq.GetConn().Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
}

// Run - The central place to launch and manage our application and
// parallel processes through a single context.
func (a *App) Run(ctx context.Context) error {
	// context with os signals cancel chan
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGUSR1)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("starting "+a.cfg.App.Name, zap.String("addr", a.httpSrv.Addr))
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server "+a.cfg.App.Name+" error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		a.mq.PublisherWorker(ctx)
		return nil
	})

	if a.audit != nil {
		g.Go(func() error {
			a.audit.DeliveryWorker(ctx)
			return nil
		})
	}

	if a.reclaimer != nil {
		g.Go(func() error {
			a.reclaimer.Run(ctx)
			return nil
		})
	}

	<-ctx.Done()

	a.logger.Info("shutting down " + a.cfg.App.Name + " gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if a.httpSrv != nil {
		if err := a.httpSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown "+a.cfg.App.Name+" error", zap.Error(err))
			return err
		}
	}

	if err := g.Wait(); err != nil {
		a.logger.Error(a.cfg.App.Name+" returning an error", zap.Error(err))
		return err
	}

	a.logger.Info(a.cfg.App.Name + " gracefully stopped")

	return nil
}

func (a *App) InitControllers() {
	// repos
	userRepo := user.NewRepository(a.db)
	tokenRepo := token.NewRepository(a.db)
	resourceRepo := resource.NewRepository(a.db)

	// core
	secretHasher := hasher.New(hasher.Params{
		Iterations: a.cfg.Hash.Iterations,
		MemoryKiB:  a.cfg.Hash.MemoryKiB,
		Threads:    a.cfg.Hash.Threads,
		KeyLength:  a.cfg.Hash.KeyLength,
	}, a.rng, a.cfg.Hash.Concurrency)
	sessions := jwt.New(a.cfg.App.SessionSecret, a.cfg.App.SessionTTL)

	// services
	authService := services.NewAuthService(a.logger, userRepo, tokenRepo, secretHasher, a.clock, a.mCounter)
	userService := services.NewUserService(userRepo, secretHasher, a.cfg.Accounts.AllowRegistration, a.mq, a.mCounter)
	tokenService := services.NewTokenService(
		a.logger, tokenRepo, secretHasher, a.rng, a.clock, a.cfg.Tokens, a.mq, a.mCounter,
	)
	allocator := services.NewAllocatorService(a.logger, a.rng, a.storage, resourceRepo, a.mCounter)
	resourceService := services.NewResourceService(
		a.logger, allocator, a.storage, resourceRepo, a.clock,
		a.cfg.Files, a.cfg.Accounts.AllowAnon, a.mq, a.mCounter,
	)
	a.reclaimer = services.NewReclaimerService(
		a.logger, resourceRepo, a.storage, a.clock, a.cfg.Files.ReclaimInterval, a.mq, a.mCounter,
	)

	// controllers
	mw := middleware.NewAuth(a.logger, authService, sessions, userService)
	secureCookie := gin.Mode() == gin.ReleaseMode
	rest.NewAuthController(a.router, a.logger, userService, authService, sessions, secureCookie)
	rest.NewTokenController(a.router, a.logger, tokenService, a.clock, mw)
	rest.NewFileController(a.router, resourceService, a.logger, a.cfg.Files.LargestUpload(), mw)

	// ops
	a.router.GET(rest.RouteHealth, func(c *gin.Context) { c.Status(http.StatusOK) })
	a.router.GET(rest.RouteMetrics, gin.WrapH(promhttp.Handler()))
}

func (a *App) Logger() *zap.Logger { return a.logger }
