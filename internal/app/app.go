package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/breaker"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/handler/http"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/logger"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/memory"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/nats"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/postgres"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/prometheus"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/redis"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/adapter/repository"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/config"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/domain"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"
	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/services"

	redisClient "github.com/redis/go-redis/v9"
)

type App struct {
	Config      *config.Container
	Logger      ports.LoggerPort
	DB          *sql.DB
	RedisClient *redisClient.Client
	Events      ports.EventPublisher
	Reconciler  *services.ReconcileService
	HTTPRouter  *http.Router

	server        *nethttp.Server
	reconcileCtx  context.Context
	stopReconcile context.CancelFunc
	mu            sync.Mutex
	stopped       bool
	wg            sync.WaitGroup
	syncLogger    func() error
}

func New(ctx context.Context, cfg *config.Container) (*App, error) {
	// Set logger
	loggerAdapter, err := logger.NewLoggerAdapter(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	loggerAdapter.Info("Starting the application", map[string]interface{}{
		"app":   cfg.App.Name,
		"env":   cfg.App.Env,
		"store": cfg.Store.Driver,
	})

	a := &App{
		Config:     cfg,
		Logger:     loggerAdapter,
		syncLogger: loggerAdapter.Sync,
	}

	// Observability
	metrics := prometheus.NewPrometheusAdapter()

	// Document store
	var store ports.DocumentStore
	switch cfg.Store.Driver {
	case "postgres":
		db, err := sql.Open("postgres", cfg.DB.DSN())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := postgres.Migrate(db, cfg.DB.MigrationsDir); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		a.DB = db
		store = postgres.NewDocumentStore(db)
	default:
		loggerAdapter.Warn("Using in-memory document store; data is lost on restart", nil)
		store = memory.NewFleetStore()
	}
	store = breaker.NewStore(store, breaker.Settings{
		Name:        "documents",
		MaxRequests: cfg.Store.BreakerHalfOpenReqs,
		Interval:    cfg.Store.BreakerInterval,
		Timeout:     cfg.Store.BreakerTimeout,
		MaxFailures: cfg.Store.BreakerMaxFailures,
	}, loggerAdapter, metrics)

	// Cache and leases
	var cache ports.CachePort
	var locks ports.LockPort
	if cfg.Redis.Address != "" {
		redisConn := redisClient.NewClient(&redisClient.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if _, err := redisConn.Ping(ctx).Result(); err != nil {
			a.closeStores()
			redisConn.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		a.RedisClient = redisConn
		redisAdapter := redis.NewRedisAdapter(redisConn)
		cache, locks = redisAdapter, redisAdapter
	} else {
		loggerAdapter.Warn("REDIS_ADDRESS is empty; cache and leases are process-local", nil)
		cache, locks = memory.NewCache(), memory.NewLocker()
	}

	// Events
	if cfg.NATS.URL != "" {
		publisher, err := nats.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Name, loggerAdapter)
		if err != nil {
			a.closeStores()
			return nil, err
		}
		a.Events = publisher
	} else {
		a.Events = nats.NopPublisher{}
	}

	loc, err := cfg.Region.Location()
	if err != nil {
		a.closeStores()
		return nil, err
	}

	// Validate
	validate := domain.NewValidator()

	// Repositories
	userRepo := repository.NewUserRepository(store)
	bikeRepo := repository.NewBikeRepository(store)
	batteryRepo := repository.NewBatteryRepository(store)
	companyRepo := repository.NewCompanyRepository(store)
	swapRepo := repository.NewSwapRecordRepository(store)
	counterRepo := repository.NewDailyCounterRepository(store)
	paymentRepo := repository.NewPaymentRepository(store)
	reconRepo := repository.NewReconciliationRepository(store)

	// Services
	counterService := services.NewCounterService(counterRepo, swapRepo, loggerAdapter, loc,
		cfg.Coordinator.CounterMaxRetries, cfg.Coordinator.CounterBackoff)
	paymentService := services.NewPaymentService(paymentRepo, userRepo, loggerAdapter, cache, cfg.Rent.PerDay)
	deps := services.CoordinatorDeps{
		Users:           userRepo,
		Bikes:           bikeRepo,
		Batteries:       batteryRepo,
		Swaps:           swapRepo,
		Reconciliations: reconRepo,
		Counter:         counterService,
		Dues:            paymentService,
		Locks:           locks,
		Cache:           cache,
		Events:          a.Events,
		Logger:          loggerAdapter,
		Metrics:         metrics,
	}
	coordinator := services.NewCoordinator(deps, services.WithLeaseTTL(cfg.Coordinator.LeaseTTL))
	a.Reconciler = services.NewReconcileService(deps, cfg.Coordinator.LeaseTTL)
	userService := services.NewUserService(userRepo, companyRepo, swapRepo, loggerAdapter, cache, locks, cfg.Coordinator.LeaseTTL)
	bikeService := services.NewBikeService(bikeRepo, loggerAdapter, validate, cache, locks, cfg.Coordinator.LeaseTTL)
	batteryService := services.NewBatteryService(batteryRepo, loggerAdapter, validate, cache, locks, cfg.Coordinator.LeaseTTL)
	companyService := services.NewCompanyService(companyRepo, userRepo, loggerAdapter, cache)

	// HTTP Handlers
	tokenService := http.NewJWTTokenService(cfg.Token.Secret, loggerAdapter)

	// Init HTTP router
	router, err := http.NewRouter(
		cfg.HTTP,
		tokenService,
		metrics.Handler(),
		http.NewFlowHandler(coordinator, loggerAdapter, metrics),
		http.NewUserHandler(userService, loggerAdapter, metrics),
		http.NewPaymentHandler(paymentService, loggerAdapter, metrics),
		http.NewBikeHandler(bikeService, loggerAdapter, metrics),
		http.NewBatteryHandler(batteryService, loggerAdapter, metrics),
		http.NewCompanyHandler(companyService, loggerAdapter, metrics),
		http.NewAdminHandler(counterService, a.Reconciler, loggerAdapter, metrics),
	)
	if err != nil {
		a.closeStores()
		return nil, fmt.Errorf("failed to initialize router: %w", err)
	}
	a.HTTPRouter = router

	a.server = &nethttp.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.HTTP.URL, cfg.HTTP.Port),
		Handler:           router.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.reconcileCtx, a.stopReconcile = context.WithCancel(context.Background())

	return a, nil
}

// Run starts the reconciliation loop and serves HTTP until Stop is called.
// Run after Stop returns nil without serving.
func (a *App) Run() error {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return nil
	}
	a.wg.Add(1)
	a.mu.Unlock()

	go func() {
		defer a.wg.Done()
		a.Reconciler.Run(a.reconcileCtx, a.Config.Coordinator.ReconcileInterval)
	}()

	a.Logger.Info("Starting HTTP server", map[string]interface{}{
		"addr": a.server.Addr,
	})

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		a.Logger.Error("HTTP server error", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	return nil
}

// Stop drains HTTP, waits for the reconciliation loop and closes every connection.
func (a *App) Stop(ctx context.Context) error {
	a.Logger.Info("Shutting down gracefully...", nil)

	a.mu.Lock()
	a.stopped = true
	a.mu.Unlock()

	var shutdownErr error
	if err := a.server.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP shutdown error", map[string]interface{}{
			"error": err.Error(),
		})
		shutdownErr = err
	}

	a.stopReconcile()
	a.wg.Wait()

	if err := a.Events.Close(); err != nil {
		a.Logger.Error("Event publisher close error", map[string]interface{}{
			"error": err.Error(),
		})
	}
	a.closeStores()

	a.Logger.Info("Application stopped successfully", nil)
	_ = a.syncLogger()
	return shutdownErr
}

func (a *App) closeStores() {
	// Close database
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("Database close error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	// Close Redis
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Logger.Error("Redis close error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}
