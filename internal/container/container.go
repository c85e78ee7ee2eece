package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/expense-intake/internal/application/dispatcher"
	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/application/service"
	"github.com/garyjia/expense-intake/internal/currency"
	"github.com/garyjia/expense-intake/internal/infrastructure/export"
	"github.com/garyjia/expense-intake/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-intake/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-intake/internal/infrastructure/worker"
	"github.com/garyjia/expense-intake/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and stop in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	database     *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - External
	external *ExternalBundle

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Workers
	workers *worker.WorkerManager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Drafts      *repository.DraftRepository
	Rates       *repository.RateRepository
	Submissions *repository.SubmissionRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Resolver    *currency.Resolver
	Sessions    service.SessionService
	Receipts    service.ReceiptService
	Payees      service.PayeeService
	Submissions service.SubmissionHistory
	Exporter    *export.SummaryExporter
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components and begins processing.
// Components are initialized in dependency order:
// 1. Database, migrations and repositories
// 2. External clients (platform, OpenAI)
// 3. Event dispatcher
// 4. Application services
// 5. Event handlers and workers
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	if err := c.initExternalClients(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.logger.Info("External clients initialized")

	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp
	c.logger.Info("Dispatcher initialized")

	if err := c.initServices(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	if err := c.initWorkers(); err != nil {
		c.closeDatabase()
		return fmt.Errorf("failed to initialize workers: %w", err)
	}
	c.logger.Info("Workers initialized and started")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components. Open form sessions are
// closed first, then pending events are drained into the workers, which
// flush their pending saves before the database closes.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.services != nil && c.services.Sessions != nil {
		c.services.Sessions.CloseAll()
		c.logger.Info("Form sessions closed")
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.workers != nil {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		} else {
			c.logger.Info("Workers stopped")
		}
	}

	if c.cancel != nil {
		c.cancel()
	}

	if c.database != nil {
		if err := c.database.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, health ComponentHealth) {
		status.Components[name] = health
		if !health.Healthy {
			status.Overall = false
		}
	}
	notInitialized := ComponentHealth{Healthy: false, Message: "not initialized"}

	switch {
	case c.database == nil:
		set("database", notInitialized)
	case c.database.Ping() != nil:
		set("database", ComponentHealth{Healthy: false, Message: "ping failed"})
	default:
		set("database", ComponentHealth{Healthy: true})
	}

	if c.workers != nil {
		set("workers", ComponentHealth{
			Healthy: c.workers.IsRunning(),
			Message: fmt.Sprintf("worker count: %d", c.workers.GetWorkerCount()),
		})
	} else {
		set("workers", notInitialized)
	}

	if c.dispatcher != nil {
		set("dispatcher", ComponentHealth{Healthy: true})
	} else {
		set("dispatcher", notInitialized)
	}

	if c.services != nil {
		set("sessions", ComponentHealth{
			Healthy: true,
			Message: fmt.Sprintf("open sessions: %d", c.services.Sessions.Count()),
		})
		receipts := ComponentHealth{Healthy: true, Message: "enabled"}
		if c.services.Receipts == nil {
			receipts.Message = "disabled"
		}
		status.Components["receipts"] = receipts
	} else {
		set("sessions", notInitialized)
	}

	return status
}

func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(c.ctx, &c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.database = dbBundle.DB
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.database, c.config.Form.RateCacheTTL, c.logger)
	if err != nil {
		c.closeDatabase()
		return err
	}

	c.repositories = repos
	return nil
}

func (c *Container) closeDatabase() {
	if c.database != nil {
		_ = c.database.Close()
		c.database = nil
	}
}

func (c *Container) initExternalClients() error {
	external, err := ProvideExternalClients(&c.config.Platform, &c.config.OpenAI, &c.config.Storage, c.logger)
	if err != nil {
		return err
	}
	c.external = external
	return nil
}

func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		External:   c.external,
		Dispatcher: c.dispatcher,
		FormCfg:    &c.config.Form,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}

	c.services = services
	return nil
}

func (c *Container) initWorkers() error {
	workers, err := ProvideWorkers(&WorkerDeps{
		Repos:      c.repositories,
		Services:   c.services,
		Dispatcher: c.dispatcher,
		WorkerCfg:  &c.config.Worker,
		Logger:     c.logger,
	})
	if err != nil {
		return err
	}
	c.workers = workers

	if err := c.workers.StartAll(c.ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}

	return nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// External returns the external service clients.
func (c *Container) External() *ExternalBundle {
	return c.external
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}

// ServiceLogger returns the container's logger in key-value form.
func (c *Container) ServiceLogger() service.Logger {
	return &zapLoggerAdapter{logger: c.logger}
}

// zapLoggerAdapter adapts zap.Logger to the service.Logger interface.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// dispatcherLoggerAdapter adapts zap.Logger to the dispatcher.Logger interface.
type dispatcherLoggerAdapter struct {
	logger *zap.Logger
}

func (a *dispatcherLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Debug(msg, convertToZapFields(keysAndValues...)...)
}

func (a *dispatcherLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr {
			fields = append(fields, zap.NamedError(key, err))
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
