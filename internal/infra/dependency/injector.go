// Package dependency provides dependency injection for the application.
package dependency

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/agency-crm/backend/config"
	"github.com/agency-crm/backend/internal/application/adapter"
	"github.com/agency-crm/backend/internal/application/usecase/auth"
	"github.com/agency-crm/backend/internal/application/usecase/bigfish"
	"github.com/agency-crm/backend/internal/infra/cache"
	"github.com/agency-crm/backend/internal/infra/server/router"
	"github.com/agency-crm/backend/internal/integration/adapters"
	"github.com/agency-crm/backend/internal/integration/entrypoint/controller"
	"github.com/agency-crm/backend/internal/integration/entrypoint/middleware"
	"github.com/agency-crm/backend/internal/integration/outbox"
	"github.com/agency-crm/backend/internal/integration/persistence"
)

const (
	StoreBackendRedis = "redis"
	StoreBackendSQL   = "sql"

	TransportHTTP  = "http"
	TransportKafka = "kafka"
	TransportNone  = "none"
)

// Injector holds all application dependencies.
type Injector struct {
	Config     *config.Config
	DB         *gorm.DB
	Redis      *redis.Client
	Router     *router.Router
	Wallets    adapter.WalletRepository
	SyncQueue  adapter.SyncQueueRepository
	Dispatcher *outbox.Dispatcher
	// Worker is nil when there is no outbox table or no transport.
	Worker    *outbox.Worker
	Reconcile *bigfish.ReconcileWalletsUseCase
	// RateLimiters need periodic cleanup while the server runs.
	RateLimiters []*middleware.RateLimiter
}

// NewInjector creates a new dependency injector with all dependencies wired.
// db and redisClient may be nil; sender may be nil to disable forwarding.
func NewInjector(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, sender adapter.SyncSender) (*Injector, error) {
	// Create stores
	store, err := NewKeyValueStore(cfg.LocalStore.Backend, db, redisClient)
	if err != nil {
		return nil, err
	}
	walletRepo := persistence.NewWalletRepository(store, cfg.LocalStore.Key)

	var syncQueue adapter.SyncQueueRepository
	if db != nil {
		syncQueue = persistence.NewSyncQueueRepository(db)
	}

	// Create outbox
	dispatcher := outbox.NewDispatcher(syncQueue, sender, outbox.DispatcherConfig{
		MaxAttempts: cfg.Sync.MaxAttempts,
		SendTimeout: cfg.Sync.Timeout,
	})

	var worker *outbox.Worker
	if syncQueue != nil && sender != nil && cfg.Sync.WorkerEnabled {
		worker = outbox.NewWorker(syncQueue, sender, outbox.WorkerConfig{
			PollInterval:  cfg.Sync.PollInterval,
			BatchSize:     cfg.Sync.BatchSize,
			SendTimeout:   cfg.Sync.Timeout,
			RetentionDays: cfg.Sync.RetentionDays,
		})
	}

	// Create adapters/services
	passwordService := adapters.NewPasswordService()
	tokenService := adapters.NewTokenService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)
	summarizer := adapters.NewGeminiService(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel)

	// Create auth use cases
	loginUseCase := auth.NewLoginAdminUseCase(
		auth.AdminCredentials{
			Email:        cfg.Admin.Email,
			PasswordHash: cfg.Admin.PasswordHash,
		},
		passwordService,
		tokenService,
	)

	// Create wallet use cases
	listUseCase := bigfish.NewListBigFishUseCase(walletRepo)
	getUseCase := bigfish.NewGetBigFishUseCase(walletRepo)
	createUseCase := bigfish.NewCreateBigFishUseCase(walletRepo, dispatcher)
	updateUseCase := bigfish.NewUpdateBigFishUseCase(walletRepo, dispatcher)
	toggleStatusUseCase := bigfish.NewToggleStatusUseCase(walletRepo, dispatcher)
	portalConfigUseCase := bigfish.NewUpdatePortalConfigUseCase(walletRepo, dispatcher)
	reportUseCase := bigfish.NewGenerateReportUseCase(walletRepo, dispatcher, summarizer)
	portalViewUseCase := bigfish.NewGetPortalViewUseCase(walletRepo)
	reconcileUseCase := bigfish.NewReconcileWalletsUseCase(walletRepo)

	// Create transaction use cases
	addTransactionUseCase := bigfish.NewAddTransactionUseCase(walletRepo, dispatcher)
	updateTransactionUseCase := bigfish.NewUpdateTransactionUseCase(walletRepo, dispatcher)
	deleteTransactionUseCase := bigfish.NewDeleteTransactionUseCase(walletRepo, dispatcher)

	// Create growth task use cases
	addGrowthTaskUseCase := bigfish.NewAddGrowthTaskUseCase(walletRepo, dispatcher)
	toggleGrowthTaskUseCase := bigfish.NewToggleGrowthTaskUseCase(walletRepo, dispatcher)
	deleteGrowthTaskUseCase := bigfish.NewDeleteGrowthTaskUseCase(walletRepo, dispatcher)

	// Create controllers
	var dbHealthChecker, cacheHealthChecker func() bool
	if db != nil {
		dbHealthChecker = func() bool {
			sqlDB, err := db.DB()
			if err != nil {
				return false
			}
			return sqlDB.Ping() == nil
		}
	}
	if redisClient != nil {
		cacheHealthChecker = cache.HealthChecker(redisClient)
	}
	healthController := controller.NewHealthController(dbHealthChecker, cacheHealthChecker)

	authController := controller.NewAuthController(loginUseCase)

	bigFishController := controller.NewBigFishController(
		listUseCase,
		getUseCase,
		createUseCase,
		updateUseCase,
		toggleStatusUseCase,
		portalConfigUseCase,
		reportUseCase,
	)

	walletTransactionController := controller.NewWalletTransactionController(
		addTransactionUseCase,
		updateTransactionUseCase,
		deleteTransactionUseCase,
	)

	growthTaskController := controller.NewGrowthTaskController(
		addGrowthTaskUseCase,
		toggleGrowthTaskUseCase,
		deleteGrowthTaskUseCase,
	)

	portalController := controller.NewPortalController(portalViewUseCase)

	// Create middleware
	// Use higher rate limits for E2E/test environments to prevent flaky tests
	loginLimit, portalLimit := middleware.LoginAttemptsPerWindow, middleware.PortalViewsPerWindow
	if cfg.Server.Environment == "e2e" || cfg.Server.Environment == "test" {
		loginLimit, portalLimit = 1000, 1000
	}
	loginRateLimiter := middleware.NewRateLimiter(loginLimit, middleware.DefaultRateWindow, middleware.ClientIPKey)
	portalRateLimiter := middleware.NewRateLimiter(portalLimit, middleware.DefaultRateWindow, middleware.PortalKey)
	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	// Create router
	r := router.NewRouter(
		healthController,
		authController,
		bigFishController,
		walletTransactionController,
		growthTaskController,
		portalController,
		loginRateLimiter,
		portalRateLimiter,
		authMiddleware,
	)

	return &Injector{
		Config:     cfg,
		DB:         db,
		Redis:      redisClient,
		Router:     r,
		Wallets:    walletRepo,
		SyncQueue:  syncQueue,
		Dispatcher: dispatcher,
		Worker:     worker,
		Reconcile:  reconcileUseCase,
		RateLimiters: []*middleware.RateLimiter{
			loginRateLimiter,
			portalRateLimiter,
		},
	}, nil
}

// NewKeyValueStore picks the snapshot store for backend.
// The redis backend falls back to SQL when no Redis client is available.
func NewKeyValueStore(backend string, db *gorm.DB, redisClient *redis.Client) (adapter.KeyValueStore, error) {
	switch backend {
	case StoreBackendRedis, "":
		if redisClient != nil {
			return persistence.NewRedisKeyValueStore(redisClient), nil
		}
		if db != nil {
			slog.Warn("Redis unavailable, caching wallets in the database")
			return persistence.NewSQLKeyValueStore(db), nil
		}
	case StoreBackendSQL:
		if db != nil {
			return persistence.NewSQLKeyValueStore(db), nil
		}
	default:
		return nil, fmt.Errorf("unsupported local store backend %q", backend)
	}
	return nil, fmt.Errorf("no connection available for local store backend %q", backend)
}

// NewSyncSender builds the transport that forwards mutations to the remote store.
// It returns a nil sender when forwarding is off. The closer may be nil.
func NewSyncSender(cfg *config.SyncConfig) (adapter.SyncSender, io.Closer, error) {
	switch cfg.Transport {
	case TransportNone:
		return nil, nil, nil
	case TransportHTTP, "":
		if cfg.URL == "" {
			slog.Warn("SYNC_URL not set, remote sync disabled")
			return nil, nil, nil
		}
		return outbox.NewHTTPSender(outbox.HTTPSenderConfig{
			URL:     cfg.URL,
			Timeout: cfg.Timeout,
			AckPath: cfg.AckPath,
		}), nil, nil
	case TransportKafka:
		sender, err := outbox.NewKafkaSender(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		return sender, sender, nil
	default:
		return nil, nil, fmt.Errorf("unsupported sync transport %q", cfg.Transport)
	}
}
