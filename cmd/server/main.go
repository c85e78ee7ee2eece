package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/garyjia/expense-intake/internal/config"
	"github.com/garyjia/expense-intake/internal/container"
	httpapi "github.com/garyjia/expense-intake/internal/interfaces/http"
	"github.com/garyjia/expense-intake/pkg/utils"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	// .env is optional; real environment variables win
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		Service:    "expense-intake",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting expense intake service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if err := run(cfg, logger); err != nil {
		logger.Error("Service stopped with error", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	logger.Info("Service exited successfully")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg.ToContainerConfig(), logger)
	if err != nil {
		return fmt.Errorf("failed to create container: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start container: %w", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.Error("Failed to close container", zap.Error(err))
		}
	}()

	services := c.Services()
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		MaxUploadSize: cfg.Server.MaxUploadSize,
		ReceiptDir:    cfg.Storage.ReceiptDir,
		ReceiptPath:   cfg.Storage.PublicPath,
	}, httpapi.Services{
		Sessions:    services.Sessions,
		Receipts:    services.Receipts,
		Payees:      services.Payees,
		Submissions: services.Submissions,
		Exporter:    services.Exporter,
	}, c.ServiceLogger())

	// blocks until the signal context is cancelled
	return server.Start(ctx)
}

// configPath returns CONFIG_PATH, the default file when present, or no
// file at all so defaults and environment apply
func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}
