// Package http exposes the expense form sessions over a JSON API.
// Handlers only translate requests into application service calls.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/expense-intake/internal/application/service"
	"github.com/garyjia/expense-intake/internal/submission"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Exporter renders a prepared payload as a downloadable document
type Exporter interface {
	Write(w io.Writer, payload submission.Payload) error
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxUploadSize int64

	// ReceiptDir is served read-only under ReceiptPath when both are set
	ReceiptDir  string
	ReceiptPath string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:          "0.0.0.0",
		Port:          8080,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		MaxUploadSize: 10 << 20,
	}
}

// Services are the application services the API is built on.
// Receipts may be nil when receipt parsing is disabled.
type Services struct {
	Sessions    service.SessionService
	Receipts    service.ReceiptService
	Payees      service.PayeeService
	Submissions service.SubmissionHistory
	Exporter    Exporter
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	if config.MaxUploadSize > 0 {
		router.MaxMultipartMemory = config.MaxUploadSize
	}

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.config.MaxUploadSize, s.logger)

	s.router.GET("/health", handlers.HealthCheck)
	if s.config.ReceiptDir != "" && s.config.ReceiptPath != "" {
		s.router.Static(s.config.ReceiptPath, s.config.ReceiptDir)
	}

	api := s.router.Group("/api")
	{
		sessions := api.Group("/sessions")
		sessions.POST("", handlers.OpenSession)
		sessions.GET("/:id", handlers.GetSession)
		sessions.DELETE("/:id", handlers.DiscardSession)
		sessions.POST("/:id/actions", handlers.DispatchAction)
		sessions.POST("/:id/next", handlers.Next)
		sessions.POST("/:id/back", handlers.Back)
		sessions.POST("/:id/reset", handlers.Reset)
		sessions.POST("/:id/cancel", handlers.Cancel)
		sessions.POST("/:id/submit", handlers.Submit)
		sessions.GET("/:id/validation", handlers.Validate)
		sessions.GET("/:id/payload", handlers.PreviewPayload)
		sessions.GET("/:id/export", handlers.ExportSummary)
		sessions.POST("/:id/payees/search", handlers.SearchPayees)
		sessions.POST("/:id/items/:itemId/receipt", handlers.UploadReceipt)

		api.GET("/submissions", handlers.ListSubmissions)
		api.GET("/submissions/:expenseId", handlers.GetSubmission)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
