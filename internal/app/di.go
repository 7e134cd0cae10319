// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/allisson/orders/internal/config"
	"github.com/allisson/orders/internal/database"
	"github.com/allisson/orders/internal/events"
	"github.com/allisson/orders/internal/http"
	"github.com/allisson/orders/internal/idempotency"
	"github.com/allisson/orders/internal/metrics"
	ordersHttp "github.com/allisson/orders/internal/orders/http"
	ordersRepository "github.com/allisson/orders/internal/orders/repository"
	ordersUsecase "github.com/allisson/orders/internal/orders/usecase"
	outboxRepository "github.com/allisson/orders/internal/outbox/repository"
	outboxUsecase "github.com/allisson/orders/internal/outbox/usecase"
)

// outboxRepo is the full outbox repository surface: the lifecycle commands
// only append, the relay also drains and marks published.
type outboxRepo interface {
	ordersUsecase.OutboxRepository
	outboxUsecase.OutboxRepository
}

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	redisClient     *redis.Client
	metricsProvider *metrics.Provider

	// Managers
	txManager database.TxManager

	// Repositories and stores
	orderRepo  ordersUsecase.OrderRepository
	outboxRepo outboxRepo
	idemStore  *idempotency.RedisStore

	// Ports
	publisher events.Publisher

	// Use Cases
	orderUseCase  ordersUsecase.OrderUseCase
	outboxUseCase outboxUsecase.UseCase

	// Servers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                 sync.Mutex
	loggerInit         sync.Once
	dbInit             sync.Once
	redisInit          sync.Once
	metricsInit        sync.Once
	txManagerInit      sync.Once
	orderRepoInit      sync.Once
	outboxRepoInit     sync.Once
	idemStoreInit      sync.Once
	publisherInit      sync.Once
	orderUseCaseInit   sync.Once
	outboxUseCaseInit  sync.Once
	httpServerInit     sync.Once
	metricsServerInit  sync.Once
	initErrors         map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// RedisClient returns the Redis client backing the idempotency cache.
func (c *Container) RedisClient() (*redis.Client, error) {
	c.redisInit.Do(func() {
		client, err := idempotency.NewRedisClient(c.config.RedisURL)
		if err != nil {
			c.initErrors["redis"] = err
			return
		}
		c.redisClient = client
	})
	if storedErr, exists := c.initErrors["redis"]; exists {
		return nil, storedErr
	}
	return c.redisClient, nil
}

// MetricsProvider returns the metrics provider, or nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	c.metricsInit.Do(func() {
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metrics"] = err
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metrics"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		txManager, err := c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
			return
		}
		c.txManager = txManager
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// OrderRepository returns the order repository instance.
func (c *Container) OrderRepository() (ordersUsecase.OrderRepository, error) {
	c.orderRepoInit.Do(func() {
		repo, err := c.initOrderRepository()
		if err != nil {
			c.initErrors["orderRepo"] = err
			return
		}
		c.orderRepo = repo
	})
	if storedErr, exists := c.initErrors["orderRepo"]; exists {
		return nil, storedErr
	}
	return c.orderRepo, nil
}

// OutboxRepository returns the outbox repository instance.
func (c *Container) OutboxRepository() (outboxRepo, error) {
	c.outboxRepoInit.Do(func() {
		repo, err := c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepo"] = err
			return
		}
		c.outboxRepo = repo
	})
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// IdempotencyStore returns the Redis-backed idempotency store.
func (c *Container) IdempotencyStore() (*idempotency.RedisStore, error) {
	c.idemStoreInit.Do(func() {
		client, err := c.RedisClient()
		if err != nil {
			c.initErrors["idemStore"] = err
			return
		}
		c.idemStore = idempotency.NewRedisStore(client, c.config.IdempotencyTTL)
	})
	if storedErr, exists := c.initErrors["idemStore"]; exists {
		return nil, storedErr
	}
	return c.idemStore, nil
}

// Publisher returns the event publisher.
func (c *Container) Publisher() events.Publisher {
	c.publisherInit.Do(func() {
		c.publisher = events.NewLogPublisher(c.Logger())
	})
	return c.publisher
}

// OrderUseCase returns the order use case instance.
func (c *Container) OrderUseCase() (ordersUsecase.OrderUseCase, error) {
	c.orderUseCaseInit.Do(func() {
		useCase, err := c.initOrderUseCase()
		if err != nil {
			c.initErrors["orderUseCase"] = err
			return
		}
		c.orderUseCase = useCase
	})
	if storedErr, exists := c.initErrors["orderUseCase"]; exists {
		return nil, storedErr
	}
	return c.orderUseCase, nil
}

// OutboxUseCase returns the outbox relay use case instance.
func (c *Container) OutboxUseCase() (outboxUsecase.UseCase, error) {
	c.outboxUseCaseInit.Do(func() {
		useCase, err := c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
			return
		}
		c.outboxUseCase = useCase
	})
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// HTTPServer returns the HTTP server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		server, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = server
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server instance, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	// Shutdown HTTP servers if initialized
	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}
	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	// Close database connection if initialized
	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	// Close Redis client if initialized
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("redis close: %w", err))
		}
	}

	// Shutdown metrics provider if initialized
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	// Return combined errors if any occurred
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initOrderRepository creates the order repository instance.
func (c *Container) initOrderRepository() (ordersUsecase.OrderRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for order repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return ordersRepository.NewMySQLOrderRepository(db), nil
	case "postgres":
		return ordersRepository.NewPostgreSQLOrderRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOutboxRepository creates the outbox repository instance.
func (c *Container) initOutboxRepository() (outboxRepo, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return outboxRepository.NewMySQLOutboxRepository(db), nil
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initOrderUseCase creates the order use case with all its dependencies.
func (c *Container) initOrderUseCase() (ordersUsecase.OrderUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for order use case: %w", err)
	}

	orderRepo, err := c.OrderRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get order repository for order use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for order use case: %w", err)
	}

	idemStore, err := c.IdempotencyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency store for order use case: %w", err)
	}

	useCase := ordersUsecase.NewOrderUseCase(
		ordersUsecase.Config{
			ListDefaultLimit: c.config.ListDefaultLimit,
			ListMaxLimit:     c.config.ListMaxLimit,
		},
		txManager,
		orderRepo,
		outboxRepo,
		idemStore,
		c.Publisher(),
		c.Logger(),
	)

	// Decorate with business metrics when enabled
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for order use case: %w", err)
	}
	if provider != nil {
		businessMetrics, err := metrics.NewBusinessMetrics(
			provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			return nil, fmt.Errorf("failed to create business metrics: %w", err)
		}
		useCase = ordersUsecase.NewOrderUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

// initOutboxUseCase creates the outbox relay use case with all its dependencies.
func (c *Container) initOutboxUseCase() (outboxUsecase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	repo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	useCaseConfig := outboxUsecase.Config{
		Interval:  c.config.RelayInterval,
		BatchSize: c.config.RelayBatchSize,
	}

	useCase := outboxUsecase.NewOutboxUseCase(useCaseConfig, txManager, repo, c.Publisher(), c.Logger())

	return useCase, nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	orderUseCase, err := c.OrderUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get order use case for http server: %w", err)
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for http server: %w", err)
	}

	idemStore, err := c.IdempotencyStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency store for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	orderHandler := ordersHttp.NewOrderHandler(
		orderUseCase, c.config.ListDefaultLimit, c.config.ListMaxLimit, c.Logger())

	server := http.NewServer(c.config, db, idemStore, orderHandler, provider, c.Logger())

	return server, nil
}
