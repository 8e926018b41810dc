package app

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cosmedcli/internal/config"
	"cosmedcli/internal/errors"
	"cosmedcli/internal/infrastructure"
	customMiddleware "cosmedcli/internal/middleware"
	"cosmedcli/internal/services"
	handlers "cosmedcli/internal/transport/http"
	ws "cosmedcli/internal/websocket"
	"cosmedcli/pkg/contracts"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
)

const (
	VERSION  = contracts.Version
	REPO_URL = "https://github.com/cosmedcli/cosmedcli"
	AppName  = "COSMED Data Converter"
)

var (
	// BuildTime is stamped by the release build, falling back to process start
	BuildTime = resolveBuildTime()
	// BuildID is a unique identifier for this build
	BuildID = generateBuildID()
)

func resolveBuildTime() string {
	if contracts.BuildTime != "unknown" {
		return contracts.BuildTime
	}
	return time.Now().Format(time.RFC3339)
}

func generateBuildID() string {
	// Deterministic build ID based on version, commit and date
	h := sha256.New()
	h.Write([]byte(VERSION))
	h.Write([]byte(contracts.GitCommit))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application represents the main application container
type Application struct {
	Config            *config.Config
	Router            *chi.Mux
	Server            *http.Server
	WebSocketHub      *ws.Hub
	ConversionService *services.ConversionService
	BatchService      *services.BatchService
	ReportService     *services.ReportService
	HealthService     *services.HealthService
	Logger            *slog.Logger
	Metrics           *infrastructure.BusinessMetrics
	RuntimeCollector  *infrastructure.RuntimeCollector
	Services          *ServiceContainer
	OTelProviders     *infrastructure.OTelProviders
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Conversion *services.ConversionService
	Batches    *services.BatchService
	Reports    *services.ReportService
	Health     *services.HealthService
	WebSocket  *ws.Hub
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION))

	// Validate and log all paths at startup for debugging
	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}

	logger.Info("Ensuring required directories exist")
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	paths.LogPathResolution()

	// Initialize OpenTelemetry
	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	// Initialize WebSocket OpenTelemetry metrics
	if err := ws.InitOTelMetrics(); err != nil {
		return nil, fmt.Errorf("failed to initialize WebSocket OpenTelemetry metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	// Initialize services in order
	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	paths, err := config.GetPaths()
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	// Business metrics are shared between the middleware chain and the
	// services, so they are created once here
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	// Runtime vitals feed the same meter; the collector goroutine is
	// launched by Start
	runtimeCollector, err := infrastructure.NewRuntimeCollector(a.OTelProviders.Meter, 30*time.Second)
	if err != nil {
		return fmt.Errorf("failed to create runtime metrics collector: %w", err)
	}
	a.RuntimeCollector = runtimeCollector

	// Initialize WebSocket hub
	hub := ws.NewHub(a.Logger)
	hub.Start() // Start the hub's goroutines
	a.WebSocketHub = hub

	// Conversion progress flows to connected clients through the hub
	progress := services.NewWebSocketConversionAdapter(hub)
	conversionService := services.NewConversionService(paths, a.Logger, metrics, progress)
	a.ConversionService = conversionService

	batchService := services.NewBatchService(paths, a.Logger, metrics)
	a.BatchService = batchService

	reportService := services.NewReportService(paths, a.Logger)
	a.ReportService = reportService

	healthService := services.NewHealthServiceWithBuildInfo(
		VERSION,
		REPO_URL,
		BuildTime,
		BuildID,
		paths,
		a.WebSocketHub,
		batchService,
		runtimeCollector,
		a.Logger,
	)
	a.HealthService = healthService

	a.Services = &ServiceContainer{
		Conversion: conversionService,
		Batches:    batchService,
		Reports:    reportService,
		Health:     healthService,
		WebSocket:  hub,
	}

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Apply minimal middleware that won't interfere with WebSocket
	// upgrades; these don't wrap the ResponseWriter
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	// WebSocket route with minimal middleware and tracing.
	// Must be registered after minimal middleware but before the group.
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).HandleFunc("/ws", a.handleWebSocket)

	// Everything else gets the full middleware chain
	r.Group(func(r chi.Router) {
		// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → Timeout
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.BusinessMetricsMiddleware(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.Compress(5))
		// Timeout middleware is applied per route group below so
		// conversions can run longer than reads
		r.Use(customMiddleware.SecurityHeaders)

		corsConfig := a.getCORSConfig()
		r.Use(customMiddleware.CORS(corsConfig))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	// Prometheus metrics endpoint outside the middleware group
	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	errorHandler := errors.NewErrorHandler(a.Logger, false)
	errorMiddleware := errors.NewErrorMiddleware(errorHandler, a.Logger)
	validation := customMiddleware.NewValidationMiddleware(a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(errorMiddleware.Handler)
		r.Use(customMiddleware.ContentTypeValidator("application/json", "multipart/form-data"))
		r.Use(validation.ValidateRequest)

		// Standard timeout for most API endpoints
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ReadTimeout, a.Logger))

			healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/health/stats", healthHandler.SystemStats)
			r.Get("/version", healthHandler.Version)

			reportHandler := handlers.NewReportHandler(a.ReportService, a.Logger, errorHandler)
			r.Mount("/reports", reportHandler.Routes())
		})

		// Batch endpoints upload session files and run conversions, so
		// they get the longer timeout
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.Timeout(a.Config.Server.ConvertTimeout, a.Logger))

			batchHandler := handlers.NewBatchHandler(a.BatchService, a.ConversionService, a.Logger, errorHandler)
			r.Mount("/batches", batchHandler.Routes())
		})
	})
}

// getCORSConfig returns CORS configuration based on environment
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	isDevelopment := a.isDevelopmentMode()

	corsConfig := customMiddleware.CORSConfig{
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}

	if isDevelopment {
		// Development mode: allow a separately served UI dev server
		corsConfig.AllowedOrigins = []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
			fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
		}
		a.Logger.Info("CORS configured for development mode",
			slog.Any("allowed_origins", corsConfig.AllowedOrigins))
	} else {
		// Production mode: same origin plus any configured extras
		corsConfig.AllowedOrigins = []string{
			fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
			fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
		}

		if a.Config.Security.EnableCORS && len(a.Config.Security.AllowedOrigins) > 0 {
			corsConfig.AllowedOrigins = append(corsConfig.AllowedOrigins, a.Config.Security.AllowedOrigins...)
		}

		a.Logger.Info("CORS configured for production mode",
			slog.Any("allowed_origins", corsConfig.AllowedOrigins))
	}

	return corsConfig
}

// isDevelopmentMode detects if we're running in development mode
func (a *Application) isDevelopmentMode() bool {
	if env := os.Getenv("COSMED_ENV"); env == "development" {
		return true
	}
	if env := os.Getenv("GO_ENV"); env == "development" {
		return true
	}
	return false
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the application
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", VERSION),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	// Log important paths for debugging
	paths, _ := config.GetPaths()
	a.Logger.InfoContext(ctx, "Application paths",
		slog.String("executable_dir", paths.ExecutableDir),
		slog.String("data_dir", paths.DataDir),
		slog.String("uploads_dir", paths.UploadsDir),
		slog.String("reports_dir", paths.ReportsDir),
		slog.String("logs_dir", paths.LogsDir))

	// The hub goroutines were started by initializeServices
	if a.RuntimeCollector != nil {
		go a.RuntimeCollector.Start(ctx)
	}

	// Start server
	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			// Signal shutdown through context instead of os.Exit
			cancel()
		}
	}()

	// Perform health check on critical paths
	if err := a.performStartupHealthCheck(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Startup health check warnings", slog.String("warnings", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))

	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	// Stop server
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	// Stop background services
	a.WebSocketHub.Stop()
	if a.RuntimeCollector != nil {
		a.RuntimeCollector.Stop()
	}

	// Shutdown OpenTelemetry providers
	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	// Wait for interrupt
	<-sigChan
	a.Logger.InfoContext(ctx, "Received interrupt signal")

	// Graceful shutdown
	return a.Stop(ctx)
}

// handleWebSocket handles WebSocket connections
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Extract any available request ID (might not have middleware)
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = fmt.Sprintf("ws-%d", time.Now().UnixNano())
	}

	ctx := infrastructure.WithTraceID(r.Context(), reqID)
	a.Logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")),
		slog.String("host", r.Host),
		slog.String("user_agent", r.UserAgent()))

	// Set CORS headers explicitly for the WebSocket upgrade
	origin := r.Header.Get("Origin")
	if origin == "" {
		// Origin header can be missing for non-browser clients
		origin = fmt.Sprintf("http://%s", r.Host)
	}

	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			// Allow if no origin (local tools or same-origin request)
			if origin == "" {
				return true
			}

			// In development mode, be more permissive
			if a.isDevelopmentMode() {
				return true
			}

			// In production, validate against allowed origins
			corsConfig := a.getCORSConfig()
			for _, allowed := range corsConfig.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}

			a.Logger.WarnContext(ctx, "WebSocket origin not allowed",
				slog.String("origin", origin),
				slog.Any("allowed_origins", corsConfig.AllowedOrigins))
			return false
		},
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			a.Logger.ErrorContext(ctx, "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(ctx, "WebSocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", origin))
		if m := ws.GetOTelMetrics(); m != nil {
			m.RecordConnectionError(ctx, reqID, "upgrade_failed", err)
		}
		return
	}

	// Create a new client with trace ID and register with the hub
	client := ws.NewClientWithTrace(a.WebSocketHub, conn, reqID, a.Logger)
	a.WebSocketHub.Register(client)

	a.Logger.InfoContext(ctx, "WebSocket client connected",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("request_id", reqID))

	// Start client goroutines with panic recovery
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				a.Logger.ErrorContext(ctx, "WebSocket write pump panic",
					slog.Any("panic", rec),
					slog.String("request_id", reqID))
			}
		}()
		client.WritePump()
	}()

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				a.Logger.ErrorContext(ctx, "WebSocket read pump panic",
					slog.Any("panic", rec),
					slog.String("request_id", reqID))
			}
		}()
		client.ReadPump()
	}()
}

// performStartupHealthCheck performs health checks on critical paths and resources
func (a *Application) performStartupHealthCheck(ctx context.Context) error {
	paths, err := config.GetPaths()
	if err != nil {
		return fmt.Errorf("failed to get paths: %w", err)
	}

	var warnings []string

	// Check critical directories are writable
	directories := map[string]string{
		"Data":    paths.DataDir,
		"Uploads": paths.UploadsDir,
		"Reports": paths.ReportsDir,
		"Logs":    paths.LogsDir,
	}

	for name, dir := range directories {
		// Write a test file to verify access
		testFile := filepath.Join(dir, ".write_test")
		if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s directory not writable: %s", name, dir))
		} else {
			os.Remove(testFile)
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("startup health check warnings: %s", strings.Join(warnings, "; "))
	}

	a.Logger.InfoContext(ctx, "Startup health check passed")
	return nil
}
