package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jackzampolin/stockpilot/internal/analyzer"
	"github.com/jackzampolin/stockpilot/internal/api"
	"github.com/jackzampolin/stockpilot/internal/automation"
	"github.com/jackzampolin/stockpilot/internal/browser"
	"github.com/jackzampolin/stockpilot/internal/config"
	"github.com/jackzampolin/stockpilot/internal/driver"
	"github.com/jackzampolin/stockpilot/internal/server/endpoints"
	"github.com/jackzampolin/stockpilot/internal/svcctx"
)

// driverReadyTimeout bounds how long startup waits for the browser driver
// container to pass its health check.
const driverReadyTimeout = 60 * time.Second

// Server is the main stockpilot HTTP server.
// It manages the browser-driver container lifecycle - starting it on server
// start and stopping it on server shutdown.
type Server struct {
	httpServer    *http.Server
	driverManager *driver.DockerManager
	driverClient  *driver.Client
	runManager    *automation.Manager
	configMgr     *config.Manager
	logger        *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// DriverConfig holds browser-driver container settings
	DriverConfig driver.DockerConfig
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}

	driverManager, err := driver.NewDockerManager(cfg.DriverConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver manager: %w", err)
	}

	s := &Server{
		driverManager: driverManager,
		configMgr:     cfg.ConfigManager,
		logger:        cfg.Logger,
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(driverManager) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireAPIKey)

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      s.withServices(mux),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server and the browser driver container.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	// Start the browser driver
	s.logger.Info("starting browser driver")
	if err := s.driverManager.Start(ctx); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to start browser driver: %w", err)
	}

	// Create client after the driver is up
	s.driverClient = driver.NewClient(s.driverManager.URL())

	// Verify the driver is healthy
	if err := s.driverManager.WaitReady(ctx, driverReadyTimeout); err != nil {
		_ = s.shutdown() // Clean up the container on failure
		return fmt.Errorf("browser driver health check failed: %w", err)
	}
	s.logger.Info("browser driver is ready", "url", s.driverManager.URL())

	// Create the run manager
	appCfg := s.configMgr.Get()
	s.runManager = automation.NewManager(
		appCfg.ToPortal(),
		s.buildAnalyzer(appCfg),
		s.newSession,
		s.logger,
		automation.Options{},
	)

	// Portal credentials follow config file edits; the analyzer and
	// driver settings need a restart.
	s.configMgr.OnChange(func(c *config.Config) {
		s.runManager.SetPortal(c.ToPortal())
		s.logger.Info("portal settings reloaded from config")
	})

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		Runs:          s.runManager,
		DriverManager: s.driverManager,
		DriverClient:  s.driverClient,
		ConfigMgr:     s.configMgr,
		Logger:        s.logger,
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown() // Clean up the container on HTTP error
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// newSession hands the shared driver client to a run. The sidecar container
// outlives individual runs, so the closer is a no-op.
func (s *Server) newSession(ctx context.Context) (browser.Page, func() error, error) {
	if err := s.driverClient.HealthCheck(ctx); err != nil {
		return nil, nil, fmt.Errorf("browser driver unavailable: %w", err)
	}
	return s.driverClient, func() error { return nil }, nil
}

// buildAnalyzer constructs the vision analyzer when one is configured.
// Returns nil when disabled or no API key resolves.
func (s *Server) buildAnalyzer(c *config.Config) automation.Analyzer {
	if !c.Analyzer.Enabled {
		return nil
	}
	key := c.ResolvedAnalyzerKey()
	if key == "" {
		s.logger.Warn("analyzer enabled but no API key resolved, image analysis disabled")
		return nil
	}
	return analyzer.New(analyzer.Config{APIKey: key, Model: c.Analyzer.Model})
}

// shutdown performs graceful shutdown of both HTTP server and the driver.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	// Give an active run a moment to observe the stop flag before the
	// container goes away.
	if s.runManager != nil && s.runManager.Stop() {
		s.logger.Info("active run asked to stop")
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	// Stop the browser driver
	s.logger.Info("stopping browser driver")
	if err := s.driverManager.Stop(shutdownCtx); err != nil {
		s.logger.Error("browser driver stop error", "error", err)
	}

	// Close Docker client
	if err := s.driverManager.Close(); err != nil {
		s.logger.Error("driver manager close error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// RunManager returns the run manager.
// Returns nil if the server hasn't started yet.
func (s *Server) RunManager() *automation.Manager {
	return s.runManager
}

// DriverClient returns the browser driver client.
// Returns nil if the server hasn't started yet.
func (s *Server) DriverClient() *driver.Client {
	return s.driverClient
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAPIKey is middleware guarding the run-control endpoints. The key
// is read through the config manager on every request so file edits take
// effect without a restart. With no key configured the guard is a pass-through.
func (s *Server) requireAPIKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := s.configMgr.Get()
		expected := c.ResolvedAPIKey()
		if !c.Server.RequireAPIKey || expected == "" {
			next(w, r)
			return
		}

		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		switch {
		case key == "":
			writeAuthError(w, http.StatusUnauthorized, "missing API key")
		case key != expected:
			writeAuthError(w, http.StatusForbidden, "invalid API key")
		default:
			next(w, r)
		}
	}
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}
