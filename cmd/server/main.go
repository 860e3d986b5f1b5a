package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/baobao/ride-backend/internal/config"
	"github.com/baobao/ride-backend/internal/database"
	"github.com/baobao/ride-backend/internal/handlers"
	"github.com/baobao/ride-backend/internal/middleware"
	"github.com/baobao/ride-backend/internal/models"
	"github.com/baobao/ride-backend/internal/services"
	"github.com/baobao/ride-backend/pkg/jwt"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting ride dispatch backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize repositories
	profileRepo := database.NewProfileRepository(db)
	driverProfileRepo := database.NewDriverProfileRepository(db)
	rideRequestRepo := database.NewRideRequestRepository(db)
	rideRepo := database.NewRideRepository(db)
	chatRoomRepo := database.NewChatRoomRepository(db)
	messageRepo := database.NewMessageRepository(db)
	userSessionRepo := database.NewUserSessionRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	authService := services.NewAuthService(
		profileRepo, driverProfileRepo, userSessionRepo,
		jwtService, cfg.Dispatch.BcryptCost, logger,
	)
	nearbyConfig := services.DefaultNearbyServiceConfig()
	nearbyConfig.DefaultRadiusKm = cfg.Dispatch.DefaultRadiusKm
	nearbyService := services.NewNearbyService(driverProfileRepo, nearbyConfig, logger)
	driverService := services.NewDriverService(driverProfileRepo, logger)
	dispatchService := services.NewDispatchService(rideRequestRepo, rideRepo, chatRoomRepo, messageRepo, logger)
	rideService := services.NewRideService(rideRepo, chatRoomRepo, messageRepo, logger)
	chatService := services.NewChatService(chatRoomRepo, messageRepo, logger)
	reconcileService := services.NewReconcileService(rideRequestRepo, rideRepo, chatRoomRepo, messageRepo, logger)

	// Start the partial-commit reconciler
	if err := reconcileService.Start(cfg.Dispatch.ReconcileInterval); err != nil {
		logger.Fatalf("Failed to start reconciler: %v", err)
	}
	defer reconcileService.Stop()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	driverHandler := handlers.NewDriverHandler(driverService, nearbyService)
	rideRequestHandler := handlers.NewRideRequestHandler(dispatchService)
	rideHandler := handlers.NewRideHandler(rideService, reconcileService)
	chatHandler := handlers.NewChatHandler(chatService)

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check and metrics
	router.GET("/health", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	v1 := router.Group("/api/v1")
	{
		// Public auth endpoints
		auth := v1.Group("/auth")
		{
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/signin", authHandler.SignIn)
			auth.POST("/refresh", authHandler.Refresh)
		}

		// Everything else requires a valid access token
		authed := v1.Group("")
		authed.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			authed.POST("/auth/signout", authHandler.SignOut)
			authed.GET("/profile", authHandler.GetProfile)
			authed.PUT("/profile", authHandler.UpdateProfile)

			authed.GET("/rides/status", rideHandler.Status)
			authed.GET("/rides/recent", rideHandler.Recent)

			authed.GET("/chat-rooms", chatHandler.ListRooms)
			authed.GET("/chat-rooms/:id", chatHandler.GetRoom)
			authed.GET("/chat-rooms/:id/messages", chatHandler.ListMessages)
			authed.POST("/chat-rooms/:id/messages", chatHandler.SendMessage)

			// Rider-only surface
			rider := authed.Group("")
			rider.Use(middleware.RequireRole(models.RoleRider))
			{
				rider.GET("/drivers/nearby", driverHandler.NearbyDrivers)
				rider.POST("/ride-requests", rideRequestHandler.Create)
				rider.GET("/ride-requests/mine", rideRequestHandler.ListMine)
				rider.POST("/ride-requests/:id/withdraw", rideRequestHandler.Withdraw)
			}

			// Driver-only surface
			driver := authed.Group("")
			driver.Use(middleware.RequireRole(models.RoleDriver))
			{
				driver.GET("/driver/profile", driverHandler.GetDriverProfile)
				driver.PUT("/driver/availability", driverHandler.SetAvailability)
				driver.PUT("/driver/location", driverHandler.UpdateLocation)
				driver.PUT("/driver/vehicle", driverHandler.UpdateVehicle)
				driver.GET("/ride-requests/pending", rideRequestHandler.ListPending)
				driver.POST("/ride-requests/:id/accept", rideRequestHandler.Accept)
				driver.POST("/ride-requests/:id/decline", rideRequestHandler.Decline)
				driver.POST("/rides/start", rideHandler.Start)
				driver.POST("/rides/complete", rideHandler.Complete)
				driver.POST("/rides/cancel", rideHandler.Cancel)
			}

			// Admin surface
			authed.POST("/admin/reconcile-rides", rideHandler.ReconcileRides)
		}
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
