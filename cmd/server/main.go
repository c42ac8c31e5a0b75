package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/acapy"
	"github.com/sirosfoundation/go-vc-authn/internal/api"
	"github.com/sirosfoundation/go-vc-authn/internal/backend"
	"github.com/sirosfoundation/go-vc-authn/internal/service"
	"github.com/sirosfoundation/go-vc-authn/pkg/config"
	"github.com/sirosfoundation/go-vc-authn/pkg/logging"
	"github.com/sirosfoundation/go-vc-authn/pkg/middleware"
)

var (
	configFile = flag.String("config", "configs/config.yaml", "Path to configuration file")
	version    = "dev"
	buildTime  = "unknown"
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting VC-AuthN Server",
		zap.String("version", version),
		zap.String("build_time", buildTime),
	)

	// Initialize storage backend
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := backend.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal("Failed to initialize storage backend", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	logger.Info("Storage backend initialized",
		zap.String("type", cfg.Storage.Type),
		zap.String("session_store", cfg.Sessions.Store),
	)

	// Ping storage to verify connection
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		logger.Fatal("Failed to ping storage", zap.Error(err))
	}

	// Initialize services and the agent client
	services := service.NewServices(store, cfg, logger)
	agent := acapy.NewClient(&cfg.ACAPy, logger)

	// Start background workers
	services.Start()
	defer services.Stop()

	// Initialize public HTTP server
	router := setupRouter(cfg, services, agent, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start public server
	go func() {
		logger.Info("Public server listening", zap.String("address", cfg.Server.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start public server", zap.Error(err))
		}
	}()

	// Start admin server on separate port (if configured)
	var adminSrv *http.Server
	if cfg.Server.AdminPort > 0 {
		// Generate admin token if not provided
		adminToken := cfg.Server.AdminToken
		if adminToken == "" {
			var err error
			adminToken, err = middleware.GenerateAdminToken()
			if err != nil {
				logger.Fatal("Failed to generate admin token", zap.Error(err))
			}
			logger.Info("Generated admin API token (set VCAUTHN_SERVER_ADMIN_TOKEN to use a fixed token)",
				zap.String("token", adminToken))
		}

		adminRouter := setupAdminRouter(services, adminToken, logger)
		adminSrv = &http.Server{
			Addr:         cfg.Server.AdminAddress(),
			Handler:      adminRouter,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			logger.Info("Admin server listening", zap.String("address", cfg.Server.AdminAddress()))
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("Failed to start admin server", zap.Error(err))
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Public server forced to shutdown", zap.Error(err))
	}

	// Shutdown admin server if running
	if adminSrv != nil {
		if err := adminSrv.Shutdown(ctx); err != nil {
			logger.Error("Admin server forced to shutdown", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

func setupRouter(cfg *config.Config, services *service.Services, agent *acapy.Client, logger *zap.Logger) *gin.Engine {
	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	// Callback is registered GET-only; other verbs must see 405, not 404
	router.HandleMethodNotAllowed = true

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Initialize API handlers
	handlers := api.NewHandlers(services, agent, cfg, api.DefaultConstants(), logger)

	// Health/status endpoints
	router.GET("/status", handlers.Status)
	router.GET("/health", handlers.Status)

	// OIDC-facing endpoints
	vc := router.Group("/vc/connect")
	{
		vc.POST("/authorize", handlers.Authorize)
		vc.GET("/poll", handlers.Poll)
		vc.POST("/poll", handlers.Poll)
		vc.GET("/callback", handlers.Callback)
		vc.POST("/token", handlers.Token)
	}

	// Agent webhook ingress
	router.POST("/topic/:topic", handlers.Webhook)

	// Short deep-link resolver (QR codes point here)
	router.GET("/url/:key", handlers.ResolveShortURL)

	return router
}

// setupAdminRouter creates the admin router for internal management APIs
func setupAdminRouter(services *service.Services, adminToken string, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	// Initialize admin handlers
	adminHandlers := api.NewAdminHandlers(services.Presentation, logger)

	// Public status endpoint (no auth required for health checks)
	router.GET("/admin/status", adminHandlers.AdminStatus)

	// Admin routes - protected with bearer token authentication
	admin := router.Group("/admin")
	admin.Use(middleware.AdminAuthMiddleware(adminToken, logger))
	{
		configs := admin.Group("/presentation-configs")
		{
			configs.GET("", adminHandlers.ListPresentationConfigs)
			configs.POST("", adminHandlers.CreatePresentationConfig)
			configs.GET("/:id", adminHandlers.GetPresentationConfig)
			configs.PUT("/:id", adminHandlers.PutPresentationConfig)
			configs.DELETE("/:id", adminHandlers.DeletePresentationConfig)
		}
	}

	return router
}
