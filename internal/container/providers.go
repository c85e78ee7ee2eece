package container

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/expense-intake/internal/application/dispatcher"
	"github.com/garyjia/expense-intake/internal/application/expenseform"
	"github.com/garyjia/expense-intake/internal/application/port"
	"github.com/garyjia/expense-intake/internal/application/service"
	"github.com/garyjia/expense-intake/internal/currency"
	"github.com/garyjia/expense-intake/internal/domain/entity"
	"github.com/garyjia/expense-intake/internal/domain/event"
	"github.com/garyjia/expense-intake/internal/infrastructure/export"
	"github.com/garyjia/expense-intake/internal/infrastructure/external/openai"
	"github.com/garyjia/expense-intake/internal/infrastructure/external/platform"
	"github.com/garyjia/expense-intake/internal/infrastructure/persistence/repository"
	"github.com/garyjia/expense-intake/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/expense-intake/internal/infrastructure/storage"
	"github.com/garyjia/expense-intake/internal/infrastructure/worker"
	"github.com/garyjia/expense-intake/internal/payee"
	"github.com/garyjia/expense-intake/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ExternalBundle holds the clients of external services.
type ExternalBundle struct {
	Platform *platform.Client

	// Extractor is nil when receipt parsing is disabled
	Extractor port.ReceiptExtractor

	// Receipts is nil when no receipt directory is configured
	Receipts port.ReceiptStore
}

// searchFilter limits payee searches to accounts that can receive payments
var searchFilter = port.AccountFilter{
	Kinds: []entity.PayeeKind{entity.PayeeKindExistingProfile, entity.PayeeKindVendor},
	Limit: 20,
}

// ProvideDatabase opens the database and runs the embedded migrations.
func ProvideDatabase(ctx context.Context, cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(ctx, database.Migrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, rateTTL time.Duration, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Drafts:      repository.NewDraftRepository(db.DB, logger),
		Rates:       repository.NewRateRepository(db.DB, rateTTL, logger),
		Submissions: repository.NewSubmissionRepository(db.DB, logger),
	}, nil
}

// ProvideExternalClients creates the platform client and, when an API key
// is configured, the receipt extractor.
func ProvideExternalClients(platformCfg *PlatformConfig, openaiCfg *OpenAIConfig, storageCfg *StorageConfig, logger *zap.Logger) (*ExternalBundle, error) {
	if platformCfg == nil || openaiCfg == nil || storageCfg == nil {
		return nil, fmt.Errorf("external client config is required")
	}

	client, err := platform.NewClient(platform.Config{
		BaseURL: platformCfg.BaseURL,
		Token:   platformCfg.Token,
		Timeout: platformCfg.Timeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create platform client: %w", err)
	}

	bundle := &ExternalBundle{Platform: client}
	if storageCfg.ReceiptDir != "" {
		bundle.Receipts = storage.NewLocalReceiptStore(storageCfg.ReceiptDir, storageCfg.PublicPath, logger)
	}
	if openaiCfg.APIKey == "" {
		logger.Info("OpenAI API key not configured, receipt parsing disabled")
		return bundle, nil
	}

	bundle.Extractor = openai.NewReceiptExtractor(openai.Config{
		APIKey:      openaiCfg.APIKey,
		BaseURL:     openaiCfg.BaseURL,
		Model:       openaiCfg.Model,
		Temperature: openaiCfg.Temperature,
		MaxTokens:   openaiCfg.MaxTokens,
		Timeout:     openaiCfg.Timeout,
	}, nil, logger)
	return bundle, nil
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(&dispatcherLoggerAdapter{logger: logger}),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	External   *ExternalBundle
	Dispatcher dispatcher.Dispatcher
	FormCfg    *FormConfig
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.External == nil || deps.External.Platform == nil {
		return nil, fmt.Errorf("platform client is required")
	}
	if deps.FormCfg == nil {
		return nil, fmt.Errorf("form config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}
	client := deps.External.Platform

	resolver := currency.NewResolver(client, deps.Logger,
		currency.WithCache(deps.Repos.Rates),
		currency.WithTimeout(deps.FormCfg.RateRequestTimeout),
	)

	bundle := &ServiceBundle{
		Resolver: resolver,
		Sessions: service.NewSessionService(
			deps.Repos.Drafts,
			expenseform.Dependencies{
				Rates:      resolver,
				Slugs:      payee.NewSlugChecker(client),
				Submitter:  client,
				Dispatcher: deps.Dispatcher,
				Logger:     serviceLogger,
			},
			deps.FormCfg.DefaultCurrency,
			deps.FormCfg.Policy,
			serviceLogger,
		),
		Payees:      service.NewPayeeService(client, searchFilter, serviceLogger),
		Submissions: service.NewSubmissionHistory(deps.Repos.Submissions, deps.TxManager, serviceLogger),
		Exporter:    export.NewSummaryExporter(deps.Logger),
	}
	if deps.External.Extractor != nil {
		bundle.Receipts = service.NewReceiptService(deps.External.Extractor, deps.External.Receipts, serviceLogger)
	}
	return bundle, nil
}

// WorkerDeps holds dependencies required for creating workers.
type WorkerDeps struct {
	Repos      *RepositoryBundle
	Services   *ServiceBundle
	Dispatcher dispatcher.Dispatcher
	WorkerCfg  *WorkerConfig
	Logger     *zap.Logger
}

// ProvideWorkers creates the background workers and subscribes the event
// handlers. Returns a WorkerManager with all workers registered but not started.
func ProvideWorkers(deps *WorkerDeps) (*worker.WorkerManager, error) {
	if deps == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Services == nil {
		return nil, fmt.Errorf("services are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.WorkerCfg == nil {
		return nil, fmt.Errorf("worker config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewWorkerManager(deps.Logger)

	deps.Dispatcher.SubscribeNamed(event.TypeExpenseSubmitted, "submission_history", deps.Services.Submissions.HandleSubmitted)

	if deps.WorkerCfg.AutosaveEnabled {
		autosave := worker.NewAutosaveWorker(worker.AutosaveWorkerConfig{
			Debounce: deps.WorkerCfg.AutosaveDebounce,
		}, deps.Repos.Drafts, deps.Logger)
		deps.Dispatcher.SubscribeMany(worker.AutosaveEvents, "autosave", autosave.Handle)
		manager.Register(autosave)
	}

	if deps.WorkerCfg.RatePurgeInterval > 0 {
		manager.Register(worker.NewRatePurgeWorker(deps.WorkerCfg.RatePurgeInterval, deps.Repos.Rates, deps.Logger))
	}

	return manager, nil
}
